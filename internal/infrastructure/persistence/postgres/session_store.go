package postgres

import (
	"context"
	"fmt"

	"github.com/xxt-hub/xxt-signin/internal/infrastructure/external/chaoxing"
)

// SessionStore keeps the last good platform session in the users.session
// column, keyed by phone. It implements chaoxing.SessionStore.
type SessionStore struct {
	db DB
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db DB) *SessionStore {
	return &SessionStore{db: db}
}

// Load returns the stored session for the phone. Unknown phones, empty
// columns and undecodable values all report nothing stored.
func (s *SessionStore) Load(ctx context.Context, phone string) (chaoxing.Session, bool, error) {
	var encoded string
	err := s.db.QueryRow(ctx, `SELECT session FROM users WHERE phone = $1`, phone).Scan(&encoded)
	if err != nil {
		if IsNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	if encoded == "" {
		return nil, false, nil
	}

	session, err := chaoxing.DecodeSession(encoded)
	if err != nil || session.Empty() {
		return nil, false, nil
	}
	return session, true, nil
}

// Save writes the session onto the user with this phone. A phone that has
// not been onboarded yet is skipped; onboarding stores the session itself.
func (s *SessionStore) Save(ctx context.Context, phone string, session chaoxing.Session) error {
	encoded, err := session.Encode()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`UPDATE users SET session = $1, updated_at = NOW() WHERE phone = $2`,
		encoded, phone,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
