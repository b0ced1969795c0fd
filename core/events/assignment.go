package events

import (
	"time"

	"github.com/kilianp07/skyops/core/conflict"
	"github.com/kilianp07/skyops/core/model"
)

// Action names what happened to the roster.
type Action string

const (
	ActionAssigned      Action = "assigned"
	ActionBlocked       Action = "blocked"
	ActionRolledBack    Action = "rolled_back"
	ActionPartial       Action = "partial"
	ActionReconciled    Action = "reconciled"
	ActionStatusChanged Action = "status_changed"
	ActionPlanned       Action = "reassignment_planned"
)

// AssignmentEvent is published for every assignment decision and status
// write made by the orchestrator.
type AssignmentEvent struct {
	ID        string
	Time      time.Time
	Action    Action
	PilotID   string
	DroneID   string
	MissionID string
	// Kind and Status are set for status changes.
	Kind     model.Kind
	Status   model.Status
	Findings []conflict.Finding
	Err      error
}
