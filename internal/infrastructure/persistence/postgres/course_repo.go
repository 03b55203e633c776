package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xxt-hub/xxt-signin/internal/domain/course"
	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const courseColumns = `c.id, c.course_id, c.class_id, c.cpi, c.name, c.teacher_name, c.check_in_count`

// CourseRepository implements course.Repository for PostgreSQL.
type CourseRepository struct {
	db DB
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(db DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// GetByID returns a course by internal ID.
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*course.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1`
	return scanCourse(r.db.QueryRow(ctx, query, id))
}

// GetByClassID returns a course by its platform class id.
func (r *CourseRepository) GetByClassID(ctx context.Context, classID string) (*course.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.class_id = $1`
	return scanCourse(r.db.QueryRow(ctx, query, classID))
}

// Upsert inserts the course or reconciles the row with the same class id.
func (r *CourseRepository) Upsert(ctx context.Context, c *course.Course) error {
	return upsertCourse(ctx, r.db, c)
}

// GetForUser returns the course only when it is linked to the user.
func (r *CourseRepository) GetForUser(ctx context.Context, userID, courseID int64) (*course.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		JOIN user_courses uc ON uc.course_id = c.id
		WHERE uc.user_id = $1 AND c.id = $2
	`
	return scanCourse(r.db.QueryRow(ctx, query, userID, courseID))
}

// ListByUser returns the user's courses ordered by ID.
func (r *CourseRepository) ListByUser(ctx context.Context, userID int64) ([]*course.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		JOIN user_courses uc ON uc.course_id = c.id
		WHERE uc.user_id = $1
		ORDER BY c.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*course.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// upsertCourse reconciles on class_id. The check-in counter is never
// overwritten from platform data.
func upsertCourse(ctx context.Context, q Querier, c *course.Course) error {
	query := `
		INSERT INTO courses (course_id, class_id, cpi, name, teacher_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (class_id) DO UPDATE SET
			course_id = EXCLUDED.course_id,
			cpi = EXCLUDED.cpi,
			name = EXCLUDED.name,
			teacher_name = EXCLUDED.teacher_name,
			updated_at = NOW()
		RETURNING id, check_in_count
	`

	err := q.QueryRow(ctx, query, c.CourseID, c.ClassID, c.CPI, c.Name, c.TeacherName).
		Scan(&c.ID, &c.CheckInCount)
	if err != nil {
		return fmt.Errorf("failed to upsert course %s: %w", c.ClassID, err)
	}
	return nil
}

func scanCourse(row pgx.Row) (*course.Course, error) {
	var c course.Course
	err := row.Scan(&c.ID, &c.CourseID, &c.ClassID, &c.CPI, &c.Name, &c.TeacherName, &c.CheckInCount)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	return &c, nil
}
