// Package service implements the booking use cases on top of the storage
// layer: entity CRUD, the event scheduling engine with conflict detection and
// recurrence expansion, and the notification rearm flow.
package service

import (
	"errors"
	"fmt"

	"roomly/internal/database"
)

// ValidationError reports malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StateError reports an operation rejected by the current state of an entity,
// such as booking an inactive room or one the author has no access to.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return e.Reason }

// IsState reports whether err is a StateError.
func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// IsNotFound reports whether err means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

// IsConflict reports whether err is a booking collision and returns the
// colliding event.
func IsConflict(err error) (*database.ConflictError, bool) {
	return database.IsConflict(err)
}
