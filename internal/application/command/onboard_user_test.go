package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
	"github.com/xxt-hub/xxt-signin/internal/domain/user"
	"github.com/xxt-hub/xxt-signin/internal/infrastructure/external/chaoxing"
)

func onboardCmd() OnboardUserCommand {
	return OnboardUserCommand{
		Phone:    " 18212345678 ",
		Password: "secret-pass",
		ChatID:   "chat-1",
	}
}

func TestOnboardUser_NewUser(t *testing.T) {
	users := newFakeUsers()
	platform := newFakePlatform()
	h := NewOnboardUserHandler(users, platform, nil)

	res, err := h.Handle(context.Background(), onboardCmd())
	require.NoError(t, err)

	u := res.User
	assert.NotZero(t, u.ID)
	assert.Equal(t, "18212345678", u.Phone)
	assert.Equal(t, "42", u.PlatformUserID)
	assert.Equal(t, "张三", u.Name)
	assert.Equal(t, "chat-1", u.ChatID)
	assert.False(t, u.IsAdmin)
	assert.JSONEq(t, `{"UID":"42","_d":"1"}`, u.Session)

	require.Len(t, res.Courses, 2)
	assert.NotZero(t, res.Courses[0].ID)
	assert.Len(t, users.links[u.ID], 2)
	assert.Equal(t, 1, users.saveCalls)
}

func TestOnboardUser_ReturningUserKeepsCounters(t *testing.T) {
	existing := boundUser()
	existing.ChatID = ""
	existing.UsageCount = 9
	existing.Name = "old name"
	users := newFakeUsers(existing)
	h := NewOnboardUserHandler(users, newFakePlatform(), nil)

	cmd := onboardCmd()
	cmd.IsAdmin = true
	res, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, int64(7), res.User.ID)
	assert.Equal(t, 9, res.User.UsageCount)
	assert.Equal(t, "张三", res.User.Name)
	assert.True(t, res.User.IsAdmin)
	assert.Len(t, users.byID, 1)
}

func TestOnboardUser_SameChatSamePhoneRebinds(t *testing.T) {
	users := newFakeUsers(boundUser())
	h := NewOnboardUserHandler(users, newFakePlatform(), nil)

	res, err := h.Handle(context.Background(), onboardCmd())
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.User.ID)
}

func TestOnboardUser_ChatBoundElsewhere(t *testing.T) {
	other := boundUser()
	other.Phone = "13900000000"
	users := newFakeUsers(other)
	platform := newFakePlatform()
	h := NewOnboardUserHandler(users, platform, nil)

	_, err := h.Handle(context.Background(), onboardCmd())
	assert.ErrorIs(t, err, shared.ErrUserAlreadyBound)
	assert.Zero(t, platform.resolveCalls)
	assert.Zero(t, users.saveCalls)
}

func TestOnboardUser_Banned(t *testing.T) {
	banned := boundUser()
	banned.ChatID = ""
	banned.IsBanned = true
	users := newFakeUsers(banned)
	platform := newFakePlatform()
	h := NewOnboardUserHandler(users, platform, nil)

	_, err := h.Handle(context.Background(), onboardCmd())
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Zero(t, platform.resolveCalls)
}

func TestOnboardUser_Validation(t *testing.T) {
	h := NewOnboardUserHandler(newFakeUsers(), newFakePlatform(), nil)

	tests := []struct {
		name string
		cmd  OnboardUserCommand
	}{
		{"short phone", OnboardUserCommand{Phone: "1821234", Password: "x", ChatID: "c"}},
		{"letters", OnboardUserCommand{Phone: "1821234567a", Password: "x", ChatID: "c"}},
		{"no password", OnboardUserCommand{Phone: "18212345678", ChatID: "c"}},
		{"no chat", OnboardUserCommand{Phone: "18212345678", Password: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tt.cmd)
			require.Error(t, err)
		})
	}

	_, err := h.Handle(context.Background(), tests[0].cmd)
	assert.True(t, shared.IsValidation(err))
}

func TestOnboardUser_LoginFailureSavesNothing(t *testing.T) {
	users := newFakeUsers()
	platform := newFakePlatform()
	platform.resolveErr = platformError(chaoxing.ErrIncorrectCredentials)
	h := NewOnboardUserHandler(users, platform, nil)

	_, err := h.Handle(context.Background(), onboardCmd())
	require.ErrorIs(t, err, chaoxing.ErrIncorrectCredentials)
	assert.Equal(t, "platform said no", chaoxing.PlatformMessage(err))
	assert.Zero(t, users.saveCalls)
}

func TestOnboardUser_CourseFailure(t *testing.T) {
	users := newFakeUsers()
	platform := newFakePlatform()
	platform.coursesErr = platformError(chaoxing.ErrCourseList)
	h := NewOnboardUserHandler(users, platform, nil)

	_, err := h.Handle(context.Background(), onboardCmd())
	require.ErrorIs(t, err, chaoxing.ErrCourseList)
	assert.Zero(t, users.saveCalls)
}

var _ user.Repository = (*fakeUsers)(nil)
