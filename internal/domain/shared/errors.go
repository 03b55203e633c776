// Package shared contains the error vocabulary used across the domain packages
// and the platform client. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation   = errors.New("validation error")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyValue   = errors.New("value cannot be empty")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService = errors.New("external service error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g. "user", "course", "chaoxing"
	Op      string // Operation that failed, e.g. "Login", "active_list"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message, may be the platform's own text
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// User domain errors
var (
	ErrUserNotFound     = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyBound = NewDomainError("user", "Bind", ErrAlreadyExists, "chat identity is already bound to an account")
	ErrUserBanned       = NewDomainError("user", "CheckStatus", ErrForbidden, "account is banned")
	ErrInvalidPhone     = NewDomainError("user", "Validate", ErrInvalidInput, "phone must be an 11 digit mainland number")
	ErrEmptyPassword    = NewDomainError("user", "Validate", ErrEmptyValue, "password cannot be empty")
	ErrAdminNotBannable = NewDomainError("user", "Ban", ErrForbidden, "an admin cannot be banned")
)

// Course domain errors
var (
	ErrCourseNotFound = NewDomainError("course", "Find", ErrNotFound, "course not found")
	ErrEmptyClassID   = NewDomainError("course", "Validate", ErrEmptyValue, "class id cannot be empty")
)

// Activity domain errors
var (
	ErrActivityNotFound = NewDomainError("activity", "Find", ErrNotFound, "activity not found")
	ErrEmptyActiveID    = NewDomainError("activity", "Validate", ErrEmptyValue, "active id cannot be empty")
)

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrEmptyValue) || errors.Is(err, ErrValidation)
}
