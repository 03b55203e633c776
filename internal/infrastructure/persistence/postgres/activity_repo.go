package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/xxt-hub/xxt-signin/internal/domain/activity"
	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const activityColumns = `a.id, a.active_id, a.name, a.sign_type, a.type_name, a.start_time, a.end_time,
	a.status, a.user_status, a.require_photo, a.require_location, a.location_range, a.solve,
	a.other_id, a.group_id, a.source, a.is_look, a.type, a.release_num, a.attend_num, a.active_type`

// ActivityRepository implements activity.Repository for PostgreSQL.
type ActivityRepository struct {
	db DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// GetByID returns an activity by internal ID.
func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities a WHERE a.id = $1`
	return scanActivity(r.db.QueryRow(ctx, query, id))
}

// GetByActiveID returns an activity by platform id.
func (r *ActivityRepository) GetByActiveID(ctx context.Context, activeID string) (*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities a WHERE a.active_id = $1`
	return scanActivity(r.db.QueryRow(ctx, query, activeID))
}

// GetForUser returns the activity if the user's list contains it.
func (r *ActivityRepository) GetForUser(ctx context.Context, userID, activityID int64) (*activity.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities a
		JOIN user_activities ua ON ua.activity_id = a.id
		WHERE ua.user_id = $1 AND a.id = $2
	`
	return scanActivity(r.db.QueryRow(ctx, query, userID, activityID))
}

// Unlink drops the user_activities row. A missing link is not an error.
func (r *ActivityRepository) Unlink(ctx context.Context, userID, activityID int64) error {
	query := `DELETE FROM user_activities WHERE user_id = $1 AND activity_id = $2`
	if _, err := r.db.Exec(ctx, query, userID, activityID); err != nil {
		return fmt.Errorf("failed to unlink activity: %w", err)
	}
	return nil
}

// Upsert updates the row with the same active id in place or inserts a new
// one, then links it to the course and the user. Solve is operator data and
// is kept from the stored row.
func (r *ActivityRepository) Upsert(ctx context.Context, a *activity.Activity, courseID, userID int64) error {
	return WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO activities (
				active_id, name, sign_type, type_name, start_time, end_time,
				status, user_status, require_photo, require_location, location_range,
				other_id, group_id, source, is_look, type, release_num, attend_num, active_type
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			ON CONFLICT (active_id) DO UPDATE SET
				name = EXCLUDED.name,
				sign_type = EXCLUDED.sign_type,
				type_name = EXCLUDED.type_name,
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time,
				status = EXCLUDED.status,
				user_status = EXCLUDED.user_status,
				require_photo = EXCLUDED.require_photo,
				require_location = EXCLUDED.require_location,
				location_range = EXCLUDED.location_range,
				other_id = EXCLUDED.other_id,
				group_id = EXCLUDED.group_id,
				source = EXCLUDED.source,
				is_look = EXCLUDED.is_look,
				type = EXCLUDED.type,
				release_num = EXCLUDED.release_num,
				attend_num = EXCLUDED.attend_num,
				active_type = EXCLUDED.active_type,
				updated_at = NOW()
			RETURNING id, solve
		`

		b := a.Bookkeeping
		err := tx.QueryRow(ctx, query,
			a.ActiveID,
			a.Name,
			int(a.SignType),
			a.TypeName,
			nullTime(a.StartTime),
			nullTimePtr(a.EndTime),
			a.Status,
			a.UserStatus,
			a.RequirePhoto,
			a.RequireLocation,
			a.LocationRange,
			b.OtherID,
			b.GroupID,
			b.Source,
			b.IsLook,
			b.Type,
			b.ReleaseNum,
			b.AttendNum,
			b.ActiveType,
		).Scan(&a.ID, &a.Solve)
		if err != nil {
			return fmt.Errorf("failed to upsert activity %s: %w", a.ActiveID, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO course_activities (course_id, activity_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			courseID, a.ID,
		); err != nil {
			return fmt.Errorf("failed to link activity to course: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO user_activities (user_id, activity_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, a.ID,
		); err != nil {
			return fmt.Errorf("failed to link activity to user: %w", err)
		}
		return nil
	})
}

// ListByUser returns the activities linked to the user ordered by ID.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID int64) ([]*activity.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities a
		JOIN user_activities ua ON ua.activity_id = a.id
		WHERE ua.user_id = $1
		ORDER BY a.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*activity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func scanActivity(row pgx.Row) (*activity.Activity, error) {
	var (
		a          activity.Activity
		signType   int
		start, end pgtype.Timestamptz
	)

	err := row.Scan(
		&a.ID,
		&a.ActiveID,
		&a.Name,
		&signType,
		&a.TypeName,
		&start,
		&end,
		&a.Status,
		&a.UserStatus,
		&a.RequirePhoto,
		&a.RequireLocation,
		&a.LocationRange,
		&a.Solve,
		&a.Bookkeeping.OtherID,
		&a.Bookkeeping.GroupID,
		&a.Bookkeeping.Source,
		&a.Bookkeeping.IsLook,
		&a.Bookkeeping.Type,
		&a.Bookkeeping.ReleaseNum,
		&a.Bookkeeping.AttendNum,
		&a.Bookkeeping.ActiveType,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to scan activity: %w", err)
	}

	a.SignType = activity.SignType(signType)
	if start.Valid {
		a.StartTime = start.Time
	}
	a.EndTime = timePtr(end)
	return &a, nil
}
