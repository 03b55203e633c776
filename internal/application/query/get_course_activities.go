// Package query contains read operations (CQRS - Queries).
// GetCourseActivities refreshes stored activities from the platform before
// reading them back.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xxt-hub/xxt-signin/internal/domain/activity"
	"github.com/xxt-hub/xxt-signin/internal/domain/course"
	"github.com/xxt-hub/xxt-signin/internal/domain/user"
	"github.com/xxt-hub/xxt-signin/internal/infrastructure/external/chaoxing"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COURSE ACTIVITIES QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetCourseActivitiesQuery selects a course of the user bound to ChatID.
type GetCourseActivitiesQuery struct {
	ChatID string

	// CourseID is the stored course ID.
	CourseID int64

	// CorrelationID for tracing. Generated when empty.
	CorrelationID string
}

// Validate validates the query.
func (q GetCourseActivitiesQuery) Validate() error {
	if q.ChatID == "" {
		return errors.New("get_course_activities: chat_id is required")
	}
	if q.CourseID <= 0 {
		return errors.New("get_course_activities: course_id must be positive")
	}
	return nil
}

// GetCourseActivitiesResult carries the refreshed activities.
type GetCourseActivitiesResult struct {
	Course *course.Course

	// Fetched is how many open activities the platform reported this time.
	Fetched int

	// Activities lists every activity stored for the user, ordered by ID.
	Activities []*activity.Activity
}

// ActivitySource is the part of the platform client this query uses.
// *chaoxing.Client implements it.
type ActivitySource interface {
	ResolveSerializedSession(ctx context.Context, creds chaoxing.Credentials, encoded string) (chaoxing.Session, error)
	CollectActivities(ctx context.Context, session chaoxing.Session, crs *course.Course) ([]*activity.Activity, error)
}

var _ ActivitySource = (*chaoxing.Client)(nil)

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetCourseActivitiesHandler handles GetCourseActivitiesQuery.
type GetCourseActivitiesHandler struct {
	users      user.Repository
	courses    course.Repository
	activities activity.Repository
	platform   ActivitySource
	logger     *slog.Logger
}

// NewGetCourseActivitiesHandler creates a new GetCourseActivitiesHandler.
func NewGetCourseActivitiesHandler(
	users user.Repository,
	courses course.Repository,
	activities activity.Repository,
	platform ActivitySource,
	logger *slog.Logger,
) *GetCourseActivitiesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetCourseActivitiesHandler{
		users:      users,
		courses:    courses,
		activities: activities,
		platform:   platform,
		logger:     logger,
	}
}

// Handle executes the query.
func (h *GetCourseActivitiesHandler) Handle(ctx context.Context, q GetCourseActivitiesQuery) (*GetCourseActivitiesResult, error) {
	if q.CorrelationID == "" {
		q.CorrelationID = uuid.NewString()
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.GetByChatID(ctx, q.ChatID)
	if err != nil {
		return nil, fmt.Errorf("get_course_activities: %w", err)
	}

	crs, err := h.courses.GetForUser(ctx, u.ID, q.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get_course_activities: %w", err)
	}

	log := h.logger.With(
		"correlation_id", q.CorrelationID,
		"user_id", u.ID,
		"class_id", crs.ClassID,
	)

	creds := chaoxing.Credentials{Phone: u.Phone, Password: u.Password}
	session, err := h.platform.ResolveSerializedSession(ctx, creds, u.Session)
	if err != nil {
		return nil, fmt.Errorf("get_course_activities: %w", err)
	}

	// Keep the refreshed session on the user so the next call skips login.
	if encoded, err := session.Encode(); err == nil && encoded != u.Session {
		u.Session = encoded
		if err := h.users.Update(ctx, u); err != nil {
			return nil, fmt.Errorf("get_course_activities: store session: %w", err)
		}
		log.Debug("stored refreshed session")
	}

	fetched, err := h.platform.CollectActivities(ctx, session, crs)
	if err != nil {
		return nil, fmt.Errorf("get_course_activities: %w", err)
	}

	for _, a := range fetched {
		if err := h.activities.Upsert(ctx, a, crs.ID, u.ID); err != nil {
			return nil, fmt.Errorf("get_course_activities: %w", err)
		}
	}

	stored, err := h.activities.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("get_course_activities: %w", err)
	}

	log.Info("activities refreshed", "fetched", len(fetched), "stored", len(stored))

	return &GetCourseActivitiesResult{
		Course:     crs,
		Fetched:    len(fetched),
		Activities: stored,
	}, nil
}
