package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInconsistentAssignment marks a stored row whose status and current
	// assignment disagree (e.g. Assigned with no mission, or Available while
	// still pointing at a mission).
	ErrInconsistentAssignment = errors.New("status and current assignment disagree")
	// ErrMissionRequired is returned when an Assigned value is built without a mission id.
	ErrMissionRequired = errors.New("mission id required for Assigned status")
)

// Assignment is the paired (status, current assignment) value of a pilot or
// drone. It can only be built through Release or AssignTo so a value always
// satisfies: status is Assigned iff the reference names a mission.
type Assignment struct {
	status    Status
	missionID string
}

// Release returns the assignment for a non-Assigned status; the reference is
// cleared to NoAssignment.
func Release(s Status) (Assignment, error) {
	if s == StatusAssigned {
		return Assignment{}, ErrMissionRequired
	}
	if s == "" {
		return Assignment{}, fmt.Errorf("empty status")
	}
	return Assignment{status: s}, nil
}

// AssignTo returns the Assigned value bound to missionID.
func AssignTo(missionID string) (Assignment, error) {
	missionID = strings.TrimSpace(missionID)
	if IsNoAssignment(missionID) {
		return Assignment{}, ErrMissionRequired
	}
	return Assignment{status: StatusAssigned, missionID: missionID}, nil
}

// Status returns the paired status.
func (a Assignment) Status() Status { return a.status }

// MissionID returns the mission the entity is bound to, if any.
func (a Assignment) MissionID() (string, bool) {
	return a.missionID, a.missionID != ""
}

// Reference returns the value to store in the current assignment column.
func (a Assignment) Reference() string {
	if a.missionID == "" {
		return NoAssignment
	}
	return a.missionID
}

// IsZero reports whether a was never constructed.
func (a Assignment) IsZero() bool { return a.status == "" }

func (a Assignment) String() string {
	if a.missionID == "" {
		return string(a.status)
	}
	return fmt.Sprintf("%s/%s", a.status, a.missionID)
}

// deriveAssignment rebuilds the paired value from raw stored fields. When the
// fields diverge the best-effort value is returned along with
// ErrInconsistentAssignment.
func deriveAssignment(status Status, ref string) (Assignment, error) {
	hasRef := !IsNoAssignment(ref)
	switch {
	case status == StatusAssigned && hasRef:
		return Assignment{status: StatusAssigned, missionID: strings.TrimSpace(ref)}, nil
	case status == StatusAssigned:
		return Assignment{status: StatusAssigned}, ErrInconsistentAssignment
	case hasRef:
		return Assignment{status: status, missionID: strings.TrimSpace(ref)}, ErrInconsistentAssignment
	default:
		return Assignment{status: status}, nil
	}
}
