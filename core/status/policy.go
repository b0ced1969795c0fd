// Package status maps requested status changes onto the paired assignment
// value written back to the roster.
package status

import (
	"fmt"

	"github.com/kilianp07/skyops/core/model"
)

// Policy validates status transitions. The zero value is ready to use.
type Policy struct{}

// Derive validates requested against the enumeration of kind and returns the
// assignment to store. Assigned needs a mission id; every other status clears
// the reference.
func (Policy) Derive(kind model.Kind, requested string, missionID string) (model.Assignment, error) {
	if kind != model.KindPilot && kind != model.KindDrone {
		return model.Assignment{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	s := model.NormalizeStatus(requested)
	if !kind.Allows(s) {
		return model.Assignment{}, &InvalidStatusError{Kind: kind, Status: s, Allowed: model.AllowedStatuses(kind)}
	}
	switch s {
	case model.StatusAssigned:
		a, err := model.AssignTo(missionID)
		if err != nil {
			return model.Assignment{}, fmt.Errorf("%s status %s: %w", kind, s, err)
		}
		return a, nil
	case model.StatusAvailable, model.StatusOnLeave, model.StatusMaintenance:
		return model.Release(s)
	default:
		return model.Assignment{}, &InvalidStatusError{Kind: kind, Status: s, Allowed: model.AllowedStatuses(kind)}
	}
}
