package assign

import (
	"errors"
	"fmt"

	"github.com/kilianp07/skyops/core/conflict"
	"github.com/kilianp07/skyops/core/model"
	"github.com/kilianp07/skyops/core/roster"
	"github.com/kilianp07/skyops/core/status"
)

var (
	// ErrNothingAssigned is returned by PlanUrgentReassignment when no pilot
	// or drone references the source mission.
	ErrNothingAssigned = errors.New("no resources currently assigned")
	// ErrMissingID is returned when a required id is blank.
	ErrMissingID = errors.New("pilot, drone and project ids are required")
	// ErrLockTimeout is returned when an entity stays locked past the
	// configured timeout.
	ErrLockTimeout = errors.New("timed out waiting for entity lock")
	// ErrStateChanged is returned by Reconcile when the row moved on since the
	// partial write and the recorded repair no longer applies.
	ErrStateChanged = errors.New("entity changed since the partial write")
	// ErrTooManyRestarts is returned when concurrent writers keep changing the
	// rows between check and commit.
	ErrTooManyRestarts = errors.New("roster kept changing during assignment")
)

// ConflictBlockedError carries the report of an assignment refused because of
// CRITICAL findings. Nothing was written.
type ConflictBlockedError struct {
	Report conflict.Report
}

func (e *ConflictBlockedError) Error() string {
	return "cannot assign due to CRITICAL conflicts:\n\n" + e.Report.Summary()
}

// EntityWrite describes one side of a paired assignment write.
// Its JSON form is what Reconcile callers send back.
type EntityWrite struct {
	Kind     model.Kind
	ID       string
	Previous model.Assignment
	Target   model.Assignment
	// Version is the row version after the write for the written side, and
	// the version the write was conditioned on for the failed side.
	Version int64
}

func (w EntityWrite) String() string {
	return fmt.Sprintf("%s %s (%s -> %s)", w.Kind, w.ID, w.Previous, w.Target)
}

// PartialAssignmentError reports that one entity of the pair was written,
// the other was not, and restoring the written one failed too. The roster
// holds a half assignment until Reconcile is called.
type PartialAssignmentError struct {
	MissionID   string
	Written     EntityWrite
	Failed      EntityWrite
	Err         error
	RollbackErr error
}

func (e *PartialAssignmentError) Error() string {
	return fmt.Sprintf("partial assignment to %s: wrote %s, failed %s: %v (rollback: %v)",
		e.MissionID, e.Written, e.Failed, e.Err, e.RollbackErr)
}

func (e *PartialAssignmentError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.Err, e.RollbackErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// IsRetryable reports whether the same call may succeed later without the
// caller changing anything.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrLockTimeout), errors.Is(err, ErrTooManyRestarts):
		return true
	}
	var pe *PartialAssignmentError
	if errors.As(err, &pe) {
		return false
	}
	return roster.IsTransient(err)
}

// IsUserFacing reports whether err describes a problem with the request
// itself and can be shown as is.
func IsUserFacing(err error) bool {
	var (
		blocked *ConflictBlockedError
		invalid *status.InvalidStatusError
		nf      *roster.NotFoundError
	)
	switch {
	case err == nil:
		return false
	case errors.As(err, &blocked), errors.As(err, &invalid), errors.As(err, &nf):
		return true
	case errors.Is(err, ErrNothingAssigned), errors.Is(err, ErrMissingID), errors.Is(err, model.ErrMissionRequired):
		return true
	}
	return false
}
