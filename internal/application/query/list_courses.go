package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xxt-hub/xxt-signin/internal/domain/course"
	"github.com/xxt-hub/xxt-signin/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST COURSES QUERY
// Reads the courses stored for a bound account at its last onboarding.
// ══════════════════════════════════════════════════════════════════════════════

// ListCoursesQuery selects the user bound to ChatID.
type ListCoursesQuery struct {
	ChatID string
}

// ListCoursesResult carries the account and its courses ordered by ID.
type ListCoursesResult struct {
	User    *user.User
	Courses []*course.Course
}

// ListCoursesHandler handles ListCoursesQuery. It never calls the platform.
type ListCoursesHandler struct {
	users   user.Repository
	courses course.Repository
	logger  *slog.Logger
}

// NewListCoursesHandler creates a new ListCoursesHandler.
func NewListCoursesHandler(users user.Repository, courses course.Repository, logger *slog.Logger) *ListCoursesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListCoursesHandler{users: users, courses: courses, logger: logger}
}

// Handle executes the query.
func (h *ListCoursesHandler) Handle(ctx context.Context, q ListCoursesQuery) (*ListCoursesResult, error) {
	if q.ChatID == "" {
		return nil, errors.New("list_courses: chat_id is required")
	}

	u, err := h.users.GetByChatID(ctx, q.ChatID)
	if err != nil {
		return nil, fmt.Errorf("list_courses: %w", err)
	}

	courses, err := h.courses.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("list_courses: %w", err)
	}
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })

	h.logger.Debug("listed courses", "user_id", u.ID, "count", len(courses))
	return &ListCoursesResult{User: u, Courses: courses}, nil
}
