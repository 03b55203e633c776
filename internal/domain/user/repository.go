package user

import (
	"context"

	"github.com/xxt-hub/xxt-signin/internal/domain/course"
)

// Repository defines persistence operations for users.
type Repository interface {
	// GetByID returns a user by internal ID.
	// Returns shared.ErrUserNotFound if missing.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByPhone returns a user by login phone.
	GetByPhone(ctx context.Context, phone string) (*User, error)

	// GetByChatID returns the user bound to the chat identity.
	GetByChatID(ctx context.Context, chatID string) (*User, error)

	// Save upserts the user by phone, reconciles every course by class id
	// and replaces the user's course links, all in one transaction.
	Save(ctx context.Context, u *User, courses []*course.Course) error

	// Update persists the mutable fields of an existing user.
	Update(ctx context.Context, u *User) error
}
