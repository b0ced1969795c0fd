package model

import (
	"fmt"
	"strings"
)

// NoAssignment is the placeholder written to a current assignment column when
// the entity is not bound to any mission. Existing roster sheets use an en dash,
// so the exact rune must be preserved at the storage boundary.
const NoAssignment = "–"

// Kind identifies a roster entity type.
type Kind string

const (
	KindPilot   Kind = "pilot"
	KindDrone   Kind = "drone"
	KindMission Kind = "mission"
)

// ParseKind accepts the singular or plural name of an entity kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pilot", "pilots":
		return KindPilot, nil
	case "drone", "drones":
		return KindDrone, nil
	case "mission", "missions", "project", "projects":
		return KindMission, nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
}

// Status is the operational status of a pilot or drone. Values are the labels
// stored in the roster.
type Status string

const (
	StatusAvailable   Status = "Available"
	StatusAssigned    Status = "Assigned"
	StatusOnLeave     Status = "On Leave"
	StatusMaintenance Status = "Maintenance"
)

var (
	pilotStatuses = []Status{StatusAvailable, StatusAssigned, StatusOnLeave}
	droneStatuses = []Status{StatusAvailable, StatusMaintenance, StatusAssigned}
)

// AllowedStatuses returns the status enumeration for the entity kind in
// display order. Missions carry no status.
func AllowedStatuses(k Kind) []Status {
	switch k {
	case KindPilot:
		return append([]Status(nil), pilotStatuses...)
	case KindDrone:
		return append([]Status(nil), droneStatuses...)
	default:
		return nil
	}
}

// Allows reports whether s belongs to the enumeration of kind k.
func (k Kind) Allows(s Status) bool {
	for _, v := range AllowedStatuses(k) {
		if v == s {
			return true
		}
	}
	return false
}

// NormalizeStatus maps input aliases onto the stored label. "OnLeave" and
// "On Leave" are both accepted; any other value is returned trimmed and
// otherwise untouched so that validation can reject it by name.
func NormalizeStatus(s string) Status {
	s = strings.TrimSpace(s)
	if s == "OnLeave" {
		return StatusOnLeave
	}
	return Status(s)
}

func (s Status) String() string { return string(s) }

// IsNoAssignment reports whether a raw reference means "not assigned". Empty
// cells are treated like the sentinel so that hand-edited rows stay readable.
func IsNoAssignment(ref string) bool {
	ref = strings.TrimSpace(ref)
	return ref == "" || ref == NoAssignment
}
