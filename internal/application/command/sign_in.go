package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xxt-hub/xxt-signin/internal/domain/activity"
	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
	"github.com/xxt-hub/xxt-signin/internal/domain/user"
	"github.com/xxt-hub/xxt-signin/internal/infrastructure/external/chaoxing"
	"github.com/xxt-hub/xxt-signin/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SIGN IN COMMAND
// Submits a sign-in for a stored activity, retrying refusals and network
// failures under the configured policy.
// ══════════════════════════════════════════════════════════════════════════════

// SignInCommand identifies the user and the activity to sign into.
type SignInCommand struct {
	ChatID string

	// ActivityID is the stored activity ID, not the platform active id.
	ActivityID int64

	// CorrelationID for tracing. Generated when empty.
	CorrelationID string
}

// Validate validates the command.
func (c SignInCommand) Validate() error {
	if c.ChatID == "" {
		return errors.New("sign_in: chat_id is required")
	}
	if c.ActivityID <= 0 {
		return errors.New("sign_in: activity_id must be positive")
	}
	return nil
}

// SignInResult reports the outcome of a sign-in.
type SignInResult struct {
	Success  bool
	Attempts int
	Activity *activity.Activity
}

// SignInPolicy configures retries.
type SignInPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultSignInPolicy returns three attempts one second apart.
func DefaultSignInPolicy() SignInPolicy {
	return SignInPolicy{MaxAttempts: 3, Backoff: time.Second}
}

var errNotAccepted = errors.New("sign-in not accepted")

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SignInHandler handles the SignInCommand.
type SignInHandler struct {
	users      user.Repository
	activities activity.Repository
	platform   Platform
	policy     SignInPolicy
	logger     *slog.Logger
}

// NewSignInHandler creates a new SignInHandler.
func NewSignInHandler(
	users user.Repository,
	activities activity.Repository,
	platform Platform,
	policy SignInPolicy,
	logger *slog.Logger,
) *SignInHandler {
	if policy.MaxAttempts <= 0 {
		policy = DefaultSignInPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SignInHandler{
		users:      users,
		activities: activities,
		platform:   platform,
		policy:     policy,
		logger:     logger,
	}
}

// Handle executes the sign in command.
//
// When every attempt is refused the result is returned together with an
// error matching chaoxing.ErrSignInRejected, so callers can still report the
// attempt count.
func (h *SignInHandler) Handle(ctx context.Context, cmd SignInCommand) (*SignInResult, error) {
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("sign_in: validation failed: %w", err)
	}

	u, err := h.users.GetByChatID(ctx, cmd.ChatID)
	if err != nil {
		return nil, fmt.Errorf("sign_in: %w", err)
	}
	if u.IsBanned {
		return nil, shared.ErrUserBanned
	}

	a, err := h.activities.GetForUser(ctx, u.ID, cmd.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("sign_in: %w", err)
	}

	log := h.logger.With(
		"correlation_id", cmd.CorrelationID,
		"user_id", u.ID,
		"active_id", a.ActiveID,
	)

	creds := chaoxing.Credentials{Phone: u.Phone, Password: u.Password}
	result := &SignInResult{Activity: a}

	retrier := retry.SignInRetrier(h.policy.MaxAttempts, h.policy.Backoff, retryableSignIn,
		func(attempt int, err error, delay time.Duration) {
			log.Warn("sign-in attempt failed, retrying",
				"attempt", attempt,
				"error", err,
				"delay", delay,
			)
		},
	)

	err = retrier.Do(ctx, func(ctx context.Context) error {
		result.Attempts++
		ok, err := h.platform.SignIn(ctx, a.ActiveID, creds)
		if err == nil && !ok {
			return errNotAccepted
		}
		return err
	})
	if err != nil {
		if errors.Is(err, errNotAccepted) {
			log.Info("sign-in refused", "attempts", result.Attempts)
			return result, shared.WrapError(chaoxing.Domain, "SignIn", chaoxing.ErrSignInRejected,
				fmt.Sprintf("refused after %d attempts", result.Attempts), err)
		}
		return result, fmt.Errorf("sign_in: %w", err)
	}

	result.Success = true
	if err := h.activities.Unlink(ctx, u.ID, a.ID); err != nil {
		return result, fmt.Errorf("sign_in: unlink activity: %w", err)
	}
	u.RecordUsage()
	if err := h.users.Update(ctx, u); err != nil {
		return result, fmt.Errorf("sign_in: record usage: %w", err)
	}

	log.Info("signed in", "attempts", result.Attempts, "usage_count", u.UsageCount)
	return result, nil
}

// retryableSignIn reports whether a failed attempt earns another one.
// Credential and configuration failures never do.
func retryableSignIn(err error) bool {
	return errors.Is(err, errNotAccepted) ||
		errors.Is(err, chaoxing.ErrNetwork) ||
		errors.Is(err, chaoxing.ErrSignInRejected)
}
