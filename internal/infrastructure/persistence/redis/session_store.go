package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xxt-hub/xxt-signin/internal/infrastructure/external/chaoxing"
	"github.com/xxt-hub/xxt-signin/pkg/redact"
)

// SessionStore implements chaoxing.SessionStore on top of Cache.
// Each Save is a single SET, so concurrent writers to one identity resolve
// as last-writer-wins.
type SessionStore struct {
	cache  *Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewSessionStore creates a store. A non-positive ttl falls back to
// TTLSessionData.
func NewSessionStore(cache *Cache, ttl time.Duration, logger *slog.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = TTLSessionData
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{cache: cache, ttl: ttl, logger: logger}
}

// Load returns the cached session. A corrupt entry is dropped and reported
// as a miss.
func (s *SessionStore) Load(ctx context.Context, identity string) (chaoxing.Session, bool, error) {
	var session chaoxing.Session
	err := s.cache.Get(ctx, SessionKey(identity), &session)
	switch {
	case errors.Is(err, ErrCacheMiss):
		return nil, false, nil
	case errors.Is(err, ErrCacheSerialization):
		s.logger.Warn("dropping corrupt cached session", "identity", redact.Fingerprint(identity))
		_ = s.cache.Delete(ctx, SessionKey(identity))
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	if session.Empty() {
		return nil, false, nil
	}
	return session, true, nil
}

// Save caches the session for the configured TTL.
func (s *SessionStore) Save(ctx context.Context, identity string, session chaoxing.Session) error {
	if session == nil {
		session = chaoxing.Session{}
	}
	return s.cache.Set(ctx, SessionKey(identity), session, s.ttl)
}

// Forget removes the cached session for identity.
func (s *SessionStore) Forget(ctx context.Context, identity string) error {
	return s.cache.Delete(ctx, SessionKey(identity))
}
