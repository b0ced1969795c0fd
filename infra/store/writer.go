package store

import (
	"context"
	"strings"
	"time"

	"github.com/kilianp07/skyops/core/model"
)

// Writer inserts or replaces whole rows. Both repositories implement it; the
// seed loader and tests use it to populate a store.
type Writer interface {
	PutPilot(ctx context.Context, p model.Pilot) error
	PutDrone(ctx context.Context, d model.Drone) error
	PutMission(ctx context.Context, m model.Mission) error
}

// reference normalises an empty current assignment cell to the sentinel.
func reference(ref string) string {
	if model.IsNoAssignment(ref) {
		return model.NoAssignment
	}
	return strings.TrimSpace(ref)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
