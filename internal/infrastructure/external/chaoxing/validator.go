package chaoxing

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/xxt-hub/xxt-signin/pkg/redact"
	"github.com/xxt-hub/xxt-signin/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

// SessionStore persists the last good session per identity.
// Load returns (nil, false, nil) when nothing is stored. Writes to the same
// identity are last-writer-wins.
type SessionStore interface {
	Load(ctx context.Context, identity string) (Session, bool, error)
	Save(ctx context.Context, identity string, s Session) error
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

// Load implements SessionStore.
func (m *MemorySessionStore) Load(_ context.Context, identity string) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[identity]
	if !ok {
		return nil, false, nil
	}
	return s.Merge(), true, nil
}

// Save implements SessionStore.
func (m *MemorySessionStore) Save(_ context.Context, identity string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[identity] = s.Merge()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION VALIDATOR
// ══════════════════════════════════════════════════════════════════════════════

// SessionValidator returns a session that passed a liveness probe, logging
// in again when the candidate is missing or dead.
type SessionValidator struct {
	transport *Transport
	auth      *AuthClient
	store     SessionStore
	endpoints Endpoints
	logger    *slog.Logger
}

// NewSessionValidator creates a validator. A nil store behaves as an
// always-empty store that discards writes.
func NewSessionValidator(transport *Transport, auth *AuthClient, store SessionStore, endpoints Endpoints, logger *slog.Logger) *SessionValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionValidator{
		transport: transport,
		auth:      auth,
		store:     store,
		endpoints: endpoints,
		logger:    logger,
	}
}

// Resolve returns a usable session for creds.
//
// A supplied session is probed as is. With no session, the stored one for
// creds.Phone is probed. When the probe fails or nothing is available the
// validator logs in exactly once and writes the fresh session back to the
// store. Probe failures are never returned.
func (v *SessionValidator) Resolve(ctx context.Context, creds Credentials, existing Session) (Session, error) {
	log := v.logger.With("identity", redact.Fingerprint(creds.Phone))

	candidate := existing
	if candidate.Empty() && v.store != nil {
		stored, ok, err := v.store.Load(ctx, creds.Phone)
		if err != nil {
			return nil, fmt.Errorf("load stored session: %w", err)
		}
		if ok {
			candidate = stored
		}
	}

	if !candidate.Empty() {
		if v.probe(ctx, candidate) {
			log.Debug("stored session is alive")
			return candidate, nil
		}
		log.Debug("session probe failed, logging in again")
	} else {
		log.Debug("no session available, logging in")
	}

	return v.relogin(ctx, creds)
}

// ResolveSerialized is Resolve for a session in its stored JSON form.
// An empty string means no session; an undecodable one counts as dead.
func (v *SessionValidator) ResolveSerialized(ctx context.Context, creds Credentials, encoded string) (Session, error) {
	if encoded == "" {
		return v.Resolve(ctx, creds, nil)
	}
	s, err := DecodeSession(encoded)
	if err != nil || s.Empty() {
		v.logger.Debug("serialized session unusable, logging in", "error", err)
		return v.relogin(ctx, creds)
	}
	return v.Resolve(ctx, creds, s)
}

// relogin logs in and writes the fresh session back to the store.
func (v *SessionValidator) relogin(ctx context.Context, creds Credentials) (Session, error) {
	fresh, err := v.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if v.store != nil {
		if err := v.store.Save(ctx, creds.Phone, fresh); err != nil {
			return nil, fmt.Errorf("save refreshed session: %w", err)
		}
	}
	return fresh, nil
}

// probe fetches the profile page and checks that a display name is present.
func (v *SessionValidator) probe(ctx context.Context, s Session) bool {
	resp, err := v.transport.Do(ctx, Request{
		Op:      "Probe",
		URL:     v.endpoints.Profile,
		Query:   url.Values{"t": {strconv.FormatInt(timeutil.NowMillis(), 10)}},
		Profile: ProfileBrowser,
		Session: s,
	})
	if err != nil {
		return false
	}
	_, err = ExtractDisplayName(resp.Text())
	return err == nil
}
