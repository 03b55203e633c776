package activity

import "context"

// Repository defines persistence operations for activities.
type Repository interface {
	// GetByID returns an activity by internal ID.
	// Returns shared.ErrActivityNotFound if missing.
	GetByID(ctx context.Context, id int64) (*Activity, error)

	// GetByActiveID returns an activity by its platform id.
	GetByActiveID(ctx context.Context, activeID string) (*Activity, error)

	// Upsert inserts the activity or updates the row with the same active id
	// in place, then links it to the course and the user. The stored ID is
	// written back into a.
	Upsert(ctx context.Context, a *Activity, courseID, userID int64) error

	// GetForUser returns the activity only if it is linked to the user.
	// Returns shared.ErrActivityNotFound otherwise.
	GetForUser(ctx context.Context, userID, activityID int64) (*Activity, error)

	// Unlink removes the activity from the user's list. The activity row and
	// its course link stay.
	Unlink(ctx context.Context, userID, activityID int64) error

	// ListByUser returns the activities linked to the user, ordered by ID.
	ListByUser(ctx context.Context, userID int64) ([]*Activity, error)
}
