// Package activity contains the sign-in activity record collected from a
// course's active list. ActiveID is the platform identity and never changes
// once the record exists.
package activity

import (
	"strings"
	"time"

	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
)

// Status values reported by the active list.
const (
	StatusOpen   = 1
	StatusClosed = 2
)

// Bookkeeping carries platform fields that are stored but not interpreted.
type Bookkeeping struct {
	OtherID    string
	GroupID    int
	Source     int
	IsLook     int
	Type       int
	ReleaseNum int
	AttendNum  int
	ActiveType int
}

// Activity is a sign-in event published in a course.
type Activity struct {
	// ID is the store-assigned identifier, zero until persisted.
	ID int64

	// ActiveID is the platform activity id.
	ActiveID string

	Name string

	// SignType is the sign-in kind decoded from otherId.
	SignType SignType

	// TypeName is the human label including requirement suffixes.
	TypeName string

	StartTime time.Time

	// EndTime is nil when the teacher ends the activity manually.
	EndTime *time.Time

	Status     int
	UserStatus int

	RequirePhoto    bool
	RequireLocation bool
	LocationRange   int

	// Solve is an operator note attached to the activity.
	Solve string

	Bookkeeping Bookkeeping
}

// New creates an activity, validating its platform id.
func New(activeID, name string) (*Activity, error) {
	activeID = strings.TrimSpace(activeID)
	if activeID == "" {
		return nil, shared.ErrEmptyActiveID
	}
	return &Activity{ActiveID: activeID, Name: name, SignType: SignTypeUnknown}, nil
}

// IsOpen reports whether the activity still accepts sign-ins.
func (a *Activity) IsOpen() bool {
	return a.Status == StatusOpen
}

// EndsManually reports whether the activity has no scheduled end.
func (a *Activity) EndsManually() bool {
	return a.EndTime == nil
}

// UpdateFrom copies every mutable field from a freshly collected record.
// ID, ActiveID and Solve are kept.
func (a *Activity) UpdateFrom(fetched *Activity) {
	if fetched == nil {
		return
	}
	a.Name = fetched.Name
	a.SignType = fetched.SignType
	a.TypeName = fetched.TypeName
	a.StartTime = fetched.StartTime
	a.EndTime = fetched.EndTime
	a.Status = fetched.Status
	a.UserStatus = fetched.UserStatus
	a.RequirePhoto = fetched.RequirePhoto
	a.RequireLocation = fetched.RequireLocation
	a.LocationRange = fetched.LocationRange
	a.Bookkeeping = fetched.Bookkeeping
}

// Describe sets SignType and TypeName from the raw otherId and requirement flags.
func (a *Activity) Describe(otherID string, requirePhoto, requireLocation bool) {
	a.Bookkeeping.OtherID = otherID
	a.SignType = ParseSignType(otherID)
	a.RequirePhoto = requirePhoto
	a.RequireLocation = requireLocation
	a.TypeName = a.SignType.Label(requirePhoto, requireLocation)
}
