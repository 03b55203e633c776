package chaoxing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Session is the set of platform cookies that authenticates a user.
// It has no expiry of its own; only a probe tells whether it still works.
// Treat it as immutable: Merge returns a new value.
type Session map[string]string

// DecodeSession parses a serialized session.
func DecodeSession(encoded string) (Session, error) {
	var s Session
	if err := json.Unmarshal([]byte(encoded), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

// Encode serializes the session as a JSON object.
func (s Session) Encode() (string, error) {
	if s == nil {
		s = Session{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	return string(b), nil
}

// Merge returns a new session holding s overlaid by each of others in order.
func (s Session) Merge(others ...Session) Session {
	out := make(Session, len(s))
	for k, v := range s {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// UserID returns the platform UID cookie.
func (s Session) UserID() string {
	return s["UID"]
}

// Empty reports whether the session carries no cookies.
func (s Session) Empty() bool {
	return len(s) == 0
}

// cookieHeader renders the session as a Cookie header value with stable order.
func (s Session) cookieHeader() string {
	if len(s) == 0 {
		return ""
	}
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, k := range names {
		if c := (&http.Cookie{Name: k, Value: s[k]}).String(); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "; ")
}

func sessionFromCookies(cookies []*http.Cookie) Session {
	s := make(Session, len(cookies))
	for _, c := range cookies {
		s[c.Name] = c.Value
	}
	return s
}
