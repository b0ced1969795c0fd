// Package audit persists the trail of assignment decisions.
package audit

import (
	"context"
	"time"

	"github.com/kilianp07/skyops/core/conflict"
	"github.com/kilianp07/skyops/core/events"
)

// Record captures one assignment decision or status write.
type Record struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Action    events.Action      `json:"action"`
	PilotID   string             `json:"pilot_id,omitempty"`
	DroneID   string             `json:"drone_id,omitempty"`
	MissionID string             `json:"project_id,omitempty"`
	Kind      string             `json:"kind,omitempty"`
	Status    string             `json:"status,omitempty"`
	Findings  []conflict.Finding `json:"conflicts,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// FromEvent converts a bus event into a Record.
func FromEvent(e events.AssignmentEvent) Record {
	r := Record{
		ID:        e.ID,
		Timestamp: e.Time,
		Action:    e.Action,
		PilotID:   e.PilotID,
		DroneID:   e.DroneID,
		MissionID: e.MissionID,
		Kind:      string(e.Kind),
		Status:    string(e.Status),
		Findings:  e.Findings,
	}
	if e.Err != nil {
		r.Error = e.Err.Error()
	}
	return r
}

// Query defines filters for retrieving records. Zero fields match all.
type Query struct {
	Start     time.Time
	End       time.Time
	EntityID  string
	MissionID string
	Action    events.Action
	Limit     int
}

// Match reports whether r passes every filter of q except Limit.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Action != "" && r.Action != q.Action {
		return false
	}
	if q.MissionID != "" && r.MissionID != q.MissionID {
		return false
	}
	if q.EntityID != "" && r.PilotID != q.EntityID && r.DroneID != q.EntityID {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// limit trims res to the most recent n records when n > 0.
func limit(res []Record, n int) []Record {
	if n > 0 && len(res) > n {
		return res[len(res)-n:]
	}
	return res
}
