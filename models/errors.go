package models

import (
	"errors"
	"fmt"
)

// Errors shared by the repository, service and handler layers.
// Callers match with errors.Is.
var (
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrConflictRetry         = errors.New("concurrent modification, re-read and retry")
	ErrValidation            = errors.New("validation error")
	ErrNotFound              = errors.New("not found")
	ErrDownstreamUnavailable = errors.New("downstream unavailable")
	ErrForbidden             = errors.New("forbidden")
)

// TransitionError identifies an illegal status change
type TransitionError struct {
	From ReportStatus
	To   ReportStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition from %s to %s is not allowed in current state", e.From, e.To)
}

// Unwrap lets errors.Is match ErrInvalidTransition
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ValidationError names the offending field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
