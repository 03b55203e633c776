package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxt-hub/xxt-signin/internal/domain/course"
	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
	"github.com/xxt-hub/xxt-signin/internal/domain/user"
)

type failingCourses struct {
	fakeCourses
}

func (f *failingCourses) ListByUser(_ context.Context, _ int64) ([]*course.Course, error) {
	return nil, errors.New("connection reset")
}

func TestListCourses_OrderedByID(t *testing.T) {
	users := &fakeUsers{u: &user.User{ID: 7, ChatID: "chat-1", Phone: "18212345678"}}
	courses := &fakeCourses{linked: map[int64]*course.Course{
		9: {ID: 9, ClassID: "k9", Name: "线性代数"},
		2: {ID: 2, ClassID: "k2", Name: "高等数学", TeacherName: "李老师"},
		5: {ID: 5, ClassID: "k5", Name: "大学英语"},
	}}
	h := NewListCoursesHandler(users, courses, nil)

	res, err := h.Handle(context.Background(), ListCoursesQuery{ChatID: "chat-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.User.ID)
	require.Len(t, res.Courses, 3)
	assert.Equal(t, []int64{2, 5, 9}, []int64{res.Courses[0].ID, res.Courses[1].ID, res.Courses[2].ID})
}

func TestListCourses_NoCourses(t *testing.T) {
	users := &fakeUsers{u: &user.User{ID: 7, ChatID: "chat-1"}}
	h := NewListCoursesHandler(users, &fakeCourses{linked: map[int64]*course.Course{}}, nil)

	res, err := h.Handle(context.Background(), ListCoursesQuery{ChatID: "chat-1"})
	require.NoError(t, err)
	assert.Empty(t, res.Courses)
}

func TestListCourses_UnknownChat(t *testing.T) {
	h := NewListCoursesHandler(&fakeUsers{}, &fakeCourses{}, nil)

	_, err := h.Handle(context.Background(), ListCoursesQuery{ChatID: "chat-9"})
	assert.ErrorIs(t, err, shared.ErrUserNotFound)
}

func TestListCourses_StoreError(t *testing.T) {
	users := &fakeUsers{u: &user.User{ID: 7, ChatID: "chat-1"}}
	h := NewListCoursesHandler(users, &failingCourses{}, nil)

	_, err := h.Handle(context.Background(), ListCoursesQuery{ChatID: "chat-1"})
	assert.Error(t, err)
}

func TestListCourses_RequiresChat(t *testing.T) {
	h := NewListCoursesHandler(&fakeUsers{}, &fakeCourses{}, nil)

	_, err := h.Handle(context.Background(), ListCoursesQuery{})
	assert.Error(t, err)
}
