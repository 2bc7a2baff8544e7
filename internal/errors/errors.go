// Package errors defines the error taxonomy shared by the node store, the
// capacity model and the persistence layer.
//
// Two semantic error types cover every failure the core reports:
//   - ValidationError: malformed or policy-violating input, naming the field and constraint
//   - NotFoundError: an operation referenced an unknown id
//
// Both unwrap to a sentinel so callers can branch with errors.Is:
//
//	if errors.Is(err, errors.ErrValidation) { ... }
//
//	var verr *errors.ValidationError
//	if errors.As(err, &verr) {
//	    fmt.Println(verr.Field, verr.Constraint)
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-exported so callers can import only this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = New("validation failed")
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = New("not found")
	// ErrPersistence marks a write that reached memory but not the datastore.
	ErrPersistence = New("persistence failed")
)

// ValidationError reports the offending field and the constraint it broke.
type ValidationError struct {
	Field      string
	Constraint string
	Value      any
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("invalid %s: %s (got: %v)", e.Field, e.Constraint, e.Value)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Constraint)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError.
func NewValidationError(field, constraint string, value any) *ValidationError {
	return &ValidationError{Field: field, Constraint: constraint, Value: value}
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError builds a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	return Is(err, ErrValidation)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	return Is(err, ErrNotFound)
}

// PersistenceError wraps a datastore failure for a specific operation.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
