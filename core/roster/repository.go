// Package roster defines the boundary to the pilot, drone and mission store
// and the read-side helpers built on it.
package roster

import (
	"context"
	"fmt"

	"github.com/kilianp07/skyops/core/model"
)

// Column names accepted by WriteField.
const (
	FieldStatus            = "status"
	FieldCurrentAssignment = "current_assignment"
	FieldLocation          = "location"
	FieldAvailableFrom     = "available_from"
	FieldMaintenanceDue    = "maintenance_due"
)

var writableFields = map[model.Kind][]string{
	model.KindPilot: {FieldStatus, FieldCurrentAssignment, FieldLocation, FieldAvailableFrom},
	model.KindDrone: {FieldStatus, FieldCurrentAssignment, FieldLocation, FieldMaintenanceDue},
}

// CheckField returns ErrUnknownField when field is not writable for kind.
func CheckField(kind model.Kind, field string) error {
	for _, f := range writableFields[kind] {
		if f == field {
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownField, kind, field)
}

// Row locates a write target.
type Row struct {
	Kind    model.Kind `json:"kind"`
	ID      string     `json:"id"`
	Index   int        `json:"index"`
	Version int64      `json:"version"`
}

// Repository is the store of pilots, drones and missions. List fields are
// delivered as parsed sets and the no-assignment reference is always
// model.NoAssignment.
type Repository interface {
	ListPilots(ctx context.Context) ([]model.Pilot, error)
	ListDrones(ctx context.Context) ([]model.Drone, error)
	ListMissions(ctx context.Context) ([]model.Mission, error)
	// FindRow returns a *NotFoundError when id does not exist.
	FindRow(ctx context.Context, kind model.Kind, id string) (Row, error)
	// WriteField updates a single column and bumps the row version.
	WriteField(ctx context.Context, kind model.Kind, id, field, value string) error
	// WriteAssignment stores status and reference together if the row is
	// still at expectedVersion, returning the new version. A stale version
	// yields ErrVersionConflict and no change.
	WriteAssignment(ctx context.Context, kind model.Kind, id string, a model.Assignment, expectedVersion int64) (int64, error)
	// InvalidateCache drops any cached reads. Stores without a cache make it
	// a no-op.
	InvalidateCache()
}
