package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/xxt-hub/xxt-signin/internal/domain/course"
	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
	"github.com/xxt-hub/xxt-signin/internal/domain/user"
	"github.com/xxt-hub/xxt-signin/internal/infrastructure/external/chaoxing"
	"github.com/xxt-hub/xxt-signin/pkg/redact"
)

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARD USER COMMAND
// Logs a student in, pulls their courses and name, and binds the account to
// a chat identity.
// ══════════════════════════════════════════════════════════════════════════════

// OnboardUserCommand contains the credentials and chat identity to bind.
type OnboardUserCommand struct {
	Phone    string
	Password string

	// ChatID is the opaque identity of the chat user registering.
	ChatID string

	IsAdmin bool

	// CorrelationID for tracing. Generated when empty.
	CorrelationID string
}

// Validate validates the command.
func (c OnboardUserCommand) Validate() error {
	if strings.TrimSpace(c.ChatID) == "" {
		return errors.New("onboard_user: chat_id is required")
	}
	return user.ValidateCredentials(c.Phone, c.Password)
}

// OnboardUserResult contains the stored user and their courses.
type OnboardUserResult struct {
	User    *user.User
	Courses []*course.Course
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// OnboardUserHandler handles the OnboardUserCommand.
type OnboardUserHandler struct {
	users    user.Repository
	platform Platform
	logger   *slog.Logger
}

// NewOnboardUserHandler creates a new OnboardUserHandler.
func NewOnboardUserHandler(users user.Repository, platform Platform, logger *slog.Logger) *OnboardUserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnboardUserHandler{users: users, platform: platform, logger: logger}
}

// Handle executes the onboard user command.
func (h *OnboardUserHandler) Handle(ctx context.Context, cmd OnboardUserCommand) (*OnboardUserResult, error) {
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}
	cmd.Phone = strings.TrimSpace(cmd.Phone)

	log := h.logger.With(
		"correlation_id", cmd.CorrelationID,
		"identity", redact.Fingerprint(cmd.Phone),
	)

	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("onboard_user: validation failed: %w", err)
	}

	// A chat identity may be re-bound only to the account it already has.
	bound, err := h.users.GetByChatID(ctx, cmd.ChatID)
	switch {
	case err == nil && bound.Phone != cmd.Phone:
		return nil, shared.ErrUserAlreadyBound
	case err != nil && !shared.IsNotFound(err):
		return nil, fmt.Errorf("onboard_user: lookup by chat: %w", err)
	}

	existing, err := h.users.GetByPhone(ctx, cmd.Phone)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("onboard_user: lookup by phone: %w", err)
		}
		existing = nil
	}
	if existing != nil && existing.IsBanned {
		return nil, shared.ErrUserBanned
	}

	creds := chaoxing.Credentials{Phone: cmd.Phone, Password: cmd.Password}

	session, err := h.platform.ResolveSession(ctx, creds, nil)
	if err != nil {
		return nil, fmt.Errorf("onboard_user: %w", err)
	}

	courses, err := h.platform.FetchCourses(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("onboard_user: %w", err)
	}

	name, err := h.platform.FetchDisplayName(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("onboard_user: %w", err)
	}

	encoded, err := session.Encode()
	if err != nil {
		return nil, fmt.Errorf("onboard_user: %w", err)
	}

	fresh := &user.User{
		PlatformUserID: session.UserID(),
		Name:           name,
		Session:        encoded,
		Phone:          cmd.Phone,
		Password:       cmd.Password,
	}
	fresh.Bind(cmd.ChatID, cmd.IsAdmin)
	u := fresh.MergeInto(existing)

	if err := h.users.Save(ctx, u, courses); err != nil {
		return nil, fmt.Errorf("onboard_user: save: %w", err)
	}

	log.Info("user onboarded",
		"user_id", u.ID,
		"returning", existing != nil,
		"courses", len(courses),
	)

	return &OnboardUserResult{User: u, Courses: courses}, nil
}
