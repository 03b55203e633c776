package chaoxing

import (
	"errors"
	"fmt"

	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
)

// Domain is the DomainError.Domain value used by this package.
const Domain = "chaoxing"

// Error kinds. Match with errors.Is.
var (
	// ErrConfiguration is returned for an unusable cipher scheme or key.
	ErrConfiguration = errors.New("chaoxing: configuration error")

	// ErrIncorrectCredentials is returned when the platform rejects the
	// phone/password pair. The platform's message is kept on the error.
	ErrIncorrectCredentials = errors.New("chaoxing: incorrect credentials")

	// ErrLoginProtocol is returned when the login response has an
	// unrecognised shape.
	ErrLoginProtocol = errors.New("chaoxing: login protocol changed")

	// ErrCourseList is returned when the course list cannot be fetched or parsed.
	ErrCourseList = errors.New("chaoxing: course list unavailable")

	// ErrActivityList is returned when any step of activity collection fails.
	ErrActivityList = errors.New("chaoxing: activity list unavailable")

	// ErrProfileParse is returned when the profile page has no display name.
	ErrProfileParse = errors.New("chaoxing: profile parse failed")

	// ErrNetwork is returned for transport failures and non-2xx statuses.
	ErrNetwork = errors.New("chaoxing: network error")

	// ErrSignInRejected is returned when the sign-in answer cannot be read.
	ErrSignInRejected = errors.New("chaoxing: sign-in rejected")
)

// StatusError carries a non-2xx HTTP status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

func newError(op string, kind error, message string, err error) *shared.DomainError {
	return shared.WrapError(Domain, op, kind, message, err)
}

// PlatformMessage returns the message attached to the outermost platform
// error, or "" when err did not come from this package.
func PlatformMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Domain == Domain {
		return de.Message
	}
	return ""
}

// StatusCode returns the HTTP status carried by a network error.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
