// Package command contains write operations (CQRS - Commands).
// Commands change stored users and drive the platform on their behalf.
package command

import (
	"context"

	"github.com/xxt-hub/xxt-signin/internal/domain/course"
	"github.com/xxt-hub/xxt-signin/internal/infrastructure/external/chaoxing"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// Platform is the part of the platform client the commands use.
// *chaoxing.Client implements it.
type Platform interface {
	// ResolveSession returns a live session, logging in when needed.
	ResolveSession(ctx context.Context, creds chaoxing.Credentials, existing chaoxing.Session) (chaoxing.Session, error)

	// FetchCourses lists the student's courses.
	FetchCourses(ctx context.Context, session chaoxing.Session) ([]*course.Course, error)

	// FetchDisplayName reads the account's display name.
	FetchDisplayName(ctx context.Context, session chaoxing.Session) (string, error)

	// SignIn submits one sign-in attempt and reports whether it was accepted.
	SignIn(ctx context.Context, activeID string, creds chaoxing.Credentials) (bool, error)
}

var _ Platform = (*chaoxing.Client)(nil)
