package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xxt-hub/xxt-signin/internal/domain/user"
)

// LogoutCommand detaches a chat identity from its account.
type LogoutCommand struct {
	ChatID        string
	CorrelationID string
}

// LogoutResult identifies the account that was unbound.
type LogoutResult struct {
	UserID int64
	Name   string
}

// SessionCache drops cached platform sessions. The Redis session store
// implements it.
type SessionCache interface {
	Forget(ctx context.Context, identity string) error
}

// LogoutHandler handles the LogoutCommand. The account record and its
// courses are kept; a cached session, if any, is dropped.
type LogoutHandler struct {
	users    user.Repository
	sessions SessionCache
	logger   *slog.Logger
}

// NewLogoutHandler creates a new LogoutHandler. sessions may be nil when no
// session cache is configured.
func NewLogoutHandler(users user.Repository, sessions SessionCache, logger *slog.Logger) *LogoutHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogoutHandler{users: users, sessions: sessions, logger: logger}
}

// Handle executes the logout command.
func (h *LogoutHandler) Handle(ctx context.Context, cmd LogoutCommand) (*LogoutResult, error) {
	if cmd.ChatID == "" {
		return nil, errors.New("logout: chat_id is required")
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}

	u, err := h.users.GetByChatID(ctx, cmd.ChatID)
	if err != nil {
		return nil, fmt.Errorf("logout: %w", err)
	}

	u.Unbind()
	if err := h.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("logout: %w", err)
	}

	if h.sessions != nil {
		if err := h.sessions.Forget(ctx, u.Phone); err != nil {
			h.logger.Warn("failed to drop cached session",
				"correlation_id", cmd.CorrelationID,
				"user_id", u.ID,
				"error", err,
			)
		}
	}

	h.logger.Info("user logged out", "correlation_id", cmd.CorrelationID, "user_id", u.ID)
	return &LogoutResult{UserID: u.ID, Name: u.Name}, nil
}
