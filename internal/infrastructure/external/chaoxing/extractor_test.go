package chaoxing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCourses(t *testing.T) {
	courses, err := ExtractCourses(courseListHTML)
	require.NoError(t, err)
	require.Len(t, courses, 3)

	first := courses[0]
	assert.Equal(t, "1001", first.ClassID)
	assert.Equal(t, "2001", first.CourseID)
	assert.Equal(t, "3001", first.CPI)
	assert.Equal(t, "高等数学", first.Name)
	assert.Equal(t, "王老师", first.TeacherName)

	// teacher element is absent on the last item
	assert.Equal(t, "线性代数", courses[2].Name)
	assert.Equal(t, "", courses[2].TeacherName)
}

func TestExtractCourses_MissingClassIDFails(t *testing.T) {
	courses, err := ExtractCourses(courseListMissingClassHTML)
	require.Error(t, err)
	assert.Nil(t, courses)
	assert.True(t, errors.Is(err, ErrCourseList))
	assert.Contains(t, err.Error(), "course item 1")
	assert.Contains(t, err.Error(), "clazzId")
}

func TestExtractCourses_EmptyPage(t *testing.T) {
	courses, err := ExtractCourses("<html></html>")
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestCPIFromHref(t *testing.T) {
	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"https://x/visit?courseid=1&cpi=77&ismooc2=1", "77", true},
		{"/visit?courseid=1&cpi=88", "88", true},
		{"javascript:void(0)&cpi=99&x=1", "99", true},
		{"/visit?courseid=1", "", false},
	}
	for _, tt := range tests {
		got, ok := cpiFromHref(tt.href)
		assert.Equal(t, tt.ok, ok, tt.href)
		assert.Equal(t, tt.want, got, tt.href)
	}
}

func TestExtractLoginParams(t *testing.T) {
	params := ExtractLoginParams(redirectPageHTML)

	cfid, ok := params.Get(ParamCFID)
	assert.True(t, ok)
	assert.Equal(t, "2790", cfid)
	assert.Equal(t, "e1", params[ParamEnc])
	assert.Equal(t, "w1", params[ParamWorkEnc])

	_, ok = params.Get(ParamOpenc)
	assert.False(t, ok)
	_, ok = params.Get(ParamExamEnc)
	assert.False(t, ok)
	assert.Len(t, params, 5)
}

func TestExtractLoginParams_NothingFound(t *testing.T) {
	assert.Empty(t, ExtractLoginParams("<p>login expired</p>"))
}

func TestExtractDisplayName(t *testing.T) {
	name, err := ExtractDisplayName(profileHTML)
	require.NoError(t, err)
	assert.Equal(t, "张三", name)

	_, err = ExtractDisplayName("<html><body>请登录</body></html>")
	assert.ErrorIs(t, err, ErrProfileParse)
}

func TestExtractPortalToken(t *testing.T) {
	token, ok := ExtractPortalToken(profileHTML)
	assert.True(t, ok)
	assert.Equal(t, "9f3a0c2b7e", token)

	_, ok = ExtractPortalToken(`<a dataurl="https://example.com/?s=abc">x</a>`)
	assert.False(t, ok)

	_, ok = ExtractPortalToken(`<a dataurl="http://x.portal.chaoxing.com/?s=ZZZ">x</a>`)
	assert.False(t, ok)
}
