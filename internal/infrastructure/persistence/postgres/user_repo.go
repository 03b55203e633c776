package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/xxt-hub/xxt-signin/internal/domain/course"
	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
	"github.com/xxt-hub/xxt-signin/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const userColumns = `id, platform_user_id, chat_id, name, session, phone, password,
	is_admin, is_banned, usage_count`

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns a user by internal ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByPhone returns a user by login phone.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return scanUser(r.db.QueryRow(ctx, query, phone))
}

// GetByChatID returns the user bound to a chat identity.
func (r *UserRepository) GetByChatID(ctx context.Context, chatID string) (*user.User, error) {
	if chatID == "" {
		return nil, shared.ErrUserNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE chat_id = $1`
	return scanUser(r.db.QueryRow(ctx, query, chatID))
}

// Save upserts the user by phone and replaces its course links.
// u.ID, u.IsBanned and u.UsageCount are refreshed from the stored row;
// each course gets its stored ID.
func (r *UserRepository) Save(ctx context.Context, u *user.User, courses []*course.Course) error {
	return WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO users (platform_user_id, chat_id, name, session, phone, password, is_admin)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (phone) DO UPDATE SET
				platform_user_id = EXCLUDED.platform_user_id,
				chat_id = EXCLUDED.chat_id,
				name = EXCLUDED.name,
				session = EXCLUDED.session,
				password = EXCLUDED.password,
				is_admin = EXCLUDED.is_admin,
				updated_at = NOW()
			RETURNING id, is_banned, usage_count
		`
		err := tx.QueryRow(ctx, query,
			u.PlatformUserID,
			nullText(u.ChatID),
			u.Name,
			u.Session,
			u.Phone,
			u.Password,
			u.IsAdmin,
		).Scan(&u.ID, &u.IsBanned, &u.UsageCount)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.ErrUserAlreadyBound
			}
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		for _, c := range courses {
			if err := upsertCourse(ctx, tx, c); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM user_courses WHERE user_id = $1`, u.ID); err != nil {
			return fmt.Errorf("failed to clear course links: %w", err)
		}
		for _, c := range courses {
			_, err := tx.Exec(ctx,
				`INSERT INTO user_courses (user_id, course_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				u.ID, c.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to link course %s: %w", c.ClassID, err)
			}
		}
		return nil
	})
}

// Update persists the mutable fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			platform_user_id = $1,
			chat_id = $2,
			name = $3,
			session = $4,
			password = $5,
			is_admin = $6,
			is_banned = $7,
			usage_count = $8,
			updated_at = NOW()
		WHERE id = $9
	`

	tag, err := r.db.Exec(ctx, query,
		u.PlatformUserID,
		nullText(u.ChatID),
		u.Name,
		u.Session,
		u.Password,
		u.IsAdmin,
		u.IsBanned,
		u.UsageCount,
		u.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyBound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var chatID pgtype.Text

	err := row.Scan(
		&u.ID,
		&u.PlatformUserID,
		&chatID,
		&u.Name,
		&u.Session,
		&u.Phone,
		&u.Password,
		&u.IsAdmin,
		&u.IsBanned,
		&u.UsageCount,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.ChatID = chatID.String
	return &u, nil
}
