package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/xxt-hub/xxt-signin/internal/domain/user"
	"github.com/xxt-hub/xxt-signin/pkg/redact"
)

// ══════════════════════════════════════════════════════════════════════════════
// SET BAN COMMAND
// Bans or unbans an account looked up by phone or by chat identity.
// ══════════════════════════════════════════════════════════════════════════════

// SetBanCommand selects an account by exactly one of Phone or ChatID.
type SetBanCommand struct {
	Phone  string
	ChatID string

	// Banned is the state to apply: true bans, false unbans.
	Banned bool

	// CorrelationID for tracing. Generated when empty.
	CorrelationID string
}

// Validate validates the command.
func (c SetBanCommand) Validate() error {
	hasPhone := strings.TrimSpace(c.Phone) != ""
	hasChat := c.ChatID != ""
	if hasPhone == hasChat {
		return errors.New("set_ban: exactly one of phone or chat_id is required")
	}
	return nil
}

// SetBanResult reports the account after the change.
type SetBanResult struct {
	User *user.User

	// Changed is false when the account already had the requested state.
	Changed bool
}

// SetBanHandler handles the SetBanCommand.
type SetBanHandler struct {
	users  user.Repository
	logger *slog.Logger
}

// NewSetBanHandler creates a new SetBanHandler.
func NewSetBanHandler(users user.Repository, logger *slog.Logger) *SetBanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SetBanHandler{users: users, logger: logger}
}

// Handle executes the command. Banning an admin fails with
// shared.ErrAdminNotBannable and leaves the record untouched.
func (h *SetBanHandler) Handle(ctx context.Context, cmd SetBanCommand) (*SetBanResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}

	u, err := h.lookup(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("set_ban: %w", err)
	}

	res := &SetBanResult{User: u, Changed: u.IsBanned != cmd.Banned}
	if !res.Changed {
		return res, nil
	}

	if cmd.Banned {
		if err := u.Ban(); err != nil {
			return nil, err
		}
	} else {
		u.Unban()
	}

	if err := h.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("set_ban: %w", err)
	}

	h.logger.Warn("account ban state changed",
		"correlation_id", cmd.CorrelationID,
		"user_id", u.ID,
		"phone", redact.Phone(u.Phone),
		"banned", u.IsBanned,
	)
	return res, nil
}

func (h *SetBanHandler) lookup(ctx context.Context, cmd SetBanCommand) (*user.User, error) {
	if cmd.ChatID != "" {
		return h.users.GetByChatID(ctx, cmd.ChatID)
	}
	return h.users.GetByPhone(ctx, strings.TrimSpace(cmd.Phone))
}
