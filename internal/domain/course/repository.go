package course

import "context"

// Repository defines persistence operations for courses.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// GetByID returns a course by internal ID.
	// Returns shared.ErrCourseNotFound if missing.
	GetByID(ctx context.Context, id int64) (*Course, error)

	// GetByClassID returns a course by its platform class id.
	GetByClassID(ctx context.Context, classID string) (*Course, error)

	// Upsert inserts the course or reconciles the existing row with the same
	// class id. The stored ID is written back into c.
	Upsert(ctx context.Context, c *Course) error

	// GetForUser returns the course only if it is linked to the user.
	GetForUser(ctx context.Context, userID, courseID int64) (*Course, error)

	// ListByUser returns every course linked to the user, ordered by ID.
	ListByUser(ctx context.Context, userID int64) ([]*Course, error)
}
