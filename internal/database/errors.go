package database

import (
	"fmt"

	okrerrors "github.com/akyairhashvil/okrcap/internal/errors"
)

// Entities named in OpError.
const (
	EntityNode     = "node"
	EntityCapacity = "capacity"
	EntitySetting  = "setting"
	EntitySchema   = "schema"
	EntitySnapshot = "snapshot"
)

// OpError records which storage operation failed and on what.
type OpError struct {
	Op       string
	Resource string
	ID       string
	Err      error
}

func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func wrapErr(resource, op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Resource: resource, ID: id, Err: err}
}

// IsOpError reports whether err came from this package.
func IsOpError(err error) bool {
	var op *OpError
	return okrerrors.As(err, &op)
}
