package roster

import (
	"errors"
	"fmt"

	"github.com/kilianp07/skyops/core/model"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned by WriteAssignment when the row changed
	// since it was read.
	ErrVersionConflict = errors.New("row version changed since read")
	// ErrUnknownField is returned when writing a column the kind does not have.
	ErrUnknownField = errors.New("unknown field")
)

// NotFoundError reports an entity id absent from the store.
type NotFoundError struct {
	Kind model.Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case model.KindPilot:
		return fmt.Sprintf("pilot %s not found", e.ID)
	case model.KindDrone:
		return fmt.Sprintf("drone %s not found", e.ID)
	case model.KindMission:
		return fmt.Sprintf("project %s not found", e.ID)
	default:
		return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
	}
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StoreWriteError wraps a failed write at the store boundary.
type StoreWriteError struct {
	Kind  model.Kind
	ID    string
	Field string
	Err   error
}

func (e *StoreWriteError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("write %s %s: %v", e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("write %s %s %s: %v", e.Kind, e.ID, e.Field, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// Transient reports whether retrying the write may succeed. Missing rows,
// unknown fields and version conflicts are permanent for the same input.
func (e *StoreWriteError) Transient() bool {
	return !errors.Is(e.Err, ErrNotFound) && !errors.Is(e.Err, ErrVersionConflict) && !errors.Is(e.Err, ErrUnknownField)
}

// IsTransient reports whether err is a store write failure worth retrying.
func IsTransient(err error) bool {
	var we *StoreWriteError
	if errors.As(err, &we) {
		return we.Transient()
	}
	return false
}
