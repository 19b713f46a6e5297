package models

import (
	"errors"
	"fmt"
)

// Sentinel errors used to classify failures across layers. Handlers map
// these onto HTTP status codes; everything unclassified is a 500.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

// ValidationError reports invalid caller input on a specific field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a field-level validation error.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError reports a uniqueness or state conflict on a resource.
// Conflicts are safe to retry after the caller resolves the collision.
type ConflictError struct {
	Resource string
	Detail   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Detail)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflictError creates a resource conflict error.
func NewConflictError(resource, detail string) error {
	return &ConflictError{Resource: resource, Detail: detail}
}

// NotFoundError reports a missing resource by identifier.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a missing-resource error.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsValidation reports whether err is classified as invalid input.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict reports whether err is classified as a conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err is classified as a missing resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
