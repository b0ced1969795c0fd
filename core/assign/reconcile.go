package assign

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/skyops/core/events"
	"github.com/kilianp07/skyops/core/model"
	"github.com/kilianp07/skyops/core/roster"
)

// ReconcileMode selects how a partial assignment is repaired.
type ReconcileMode int

const (
	// RetryFailed writes the side that failed, completing the assignment.
	RetryFailed ReconcileMode = iota
	// RollBack restores the side that was written.
	RollBack
)

func (m ReconcileMode) String() string {
	switch m {
	case RetryFailed:
		return "retry"
	case RollBack:
		return "rollback"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseReconcileMode accepts "retry" or "rollback".
func ParseReconcileMode(s string) (ReconcileMode, error) {
	switch s {
	case "retry":
		return RetryFailed, nil
	case "rollback":
		return RollBack, nil
	default:
		return 0, fmt.Errorf("unknown reconcile mode %q", s)
	}
}

// Reconcile repairs the half assignment described by perr. Both rows must
// still hold the versions recorded in perr, otherwise ErrStateChanged is
// returned and nothing is written.
func (o *Orchestrator) Reconcile(ctx context.Context, perr *PartialAssignmentError, mode ReconcileMode) error {
	if perr == nil {
		return errors.New("reconcile: nil partial assignment")
	}
	if perr.Written.ID == "" || perr.Failed.ID == "" {
		return ErrMissingID
	}
	release, err := o.locks.Acquire(ctx, o.cfg.LockTimeout,
		lockKey(perr.Written.Kind, perr.Written.ID), lockKey(perr.Failed.Kind, perr.Failed.ID))
	if err != nil {
		return err
	}
	defer release()

	for _, w := range []EntityWrite{perr.Written, perr.Failed} {
		row, err := o.repo.FindRow(ctx, w.Kind, w.ID)
		if err != nil {
			return fmt.Errorf("reconcile %s %s: %w", w.Kind, w.ID, err)
		}
		if row.Version != w.Version {
			return fmt.Errorf("reconcile %s %s: version %d, expected %d: %w", w.Kind, w.ID, row.Version, w.Version, ErrStateChanged)
		}
	}

	var w EntityWrite
	var value model.Assignment
	switch mode {
	case RetryFailed:
		w, value = perr.Failed, perr.Failed.Target
	case RollBack:
		w, value = perr.Written, perr.Written.Previous
	default:
		return fmt.Errorf("reconcile: unknown mode %s", mode)
	}
	if _, err := o.writeAssignment(ctx, w.Kind, w.ID, value, w.Version); err != nil {
		if errors.Is(err, roster.ErrVersionConflict) {
			return fmt.Errorf("reconcile %s %s: %w", w.Kind, w.ID, ErrStateChanged)
		}
		return fmt.Errorf("reconcile %s %s: %w", w.Kind, w.ID, err)
	}

	ev := events.AssignmentEvent{Action: events.ActionReconciled, MissionID: perr.MissionID}
	for _, side := range []EntityWrite{perr.Written, perr.Failed} {
		switch side.Kind {
		case model.KindPilot:
			ev.PilotID = side.ID
		case model.KindDrone:
			ev.DroneID = side.ID
		}
	}
	o.emit(ctx, ev)
	assignmentsTotal.WithLabelValues("reconciled").Inc()
	o.log.Infof("reconciled partial assignment to %s (%s): wrote %s %s", perr.MissionID, mode, w.Kind, w.ID)
	return nil
}
