// Package course contains the course record discovered from a user's
// enrolment list. A course is identified by the platform class id.
package course

import (
	"strings"

	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
)

// Course is a class the user is enrolled in.
type Course struct {
	// ID is the store-assigned identifier, zero until persisted.
	ID int64

	// CourseID is the platform course id. Several classes may share one.
	CourseID string

	// ClassID is the platform class id and the natural key of the record.
	ClassID string

	// CPI is the per-user enrolment token carried in course links.
	CPI string

	Name        string
	TeacherName string

	// CheckInCount counts successful sign-ins done through this course.
	CheckInCount int
}

// New creates a course, validating the natural key.
func New(courseID, classID, cpi, name, teacherName string) (*Course, error) {
	classID = strings.TrimSpace(classID)
	if classID == "" {
		return nil, shared.ErrEmptyClassID
	}

	return &Course{
		CourseID:    strings.TrimSpace(courseID),
		ClassID:     classID,
		CPI:         strings.TrimSpace(cpi),
		Name:        strings.TrimSpace(name),
		TeacherName: strings.TrimSpace(teacherName),
	}, nil
}

// Reconcile overwrites the mutable fields with the freshly extracted ones.
// ID, ClassID and CheckInCount are kept.
func (c *Course) Reconcile(newer *Course) {
	if newer == nil {
		return
	}
	c.CourseID = newer.CourseID
	c.CPI = newer.CPI
	c.Name = newer.Name
	c.TeacherName = newer.TeacherName
}

// DisplayName returns "name (teacher)" or just the name.
func (c *Course) DisplayName() string {
	if c.TeacherName == "" {
		return c.Name
	}
	return c.Name + " (" + c.TeacherName + ")"
}
