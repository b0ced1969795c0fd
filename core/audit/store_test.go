package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/skyops/core/conflict"
	"github.com/kilianp07/skyops/core/events"
)

func sampleRecords(now time.Time) []Record {
	return []Record{
		{ID: "a1", Timestamp: now.Add(-2 * time.Hour), Action: events.ActionAssigned, PilotID: "P001", DroneID: "D001", MissionID: "PRJ001"},
		{ID: "a2", Timestamp: now.Add(-time.Hour), Action: events.ActionBlocked, PilotID: "P002", DroneID: "D001", MissionID: "PRJ002",
			Findings: []conflict.Finding{{Kind: conflict.KindDoubleBooking, Severity: conflict.SeverityCritical, Message: "Pilot P002 (Neha) already assigned to PRJ001"}}},
		{ID: "a3", Timestamp: now, Action: events.ActionStatusChanged, PilotID: "P001", Kind: "pilot", Status: "Available"},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "audit.jsonl"))
	require.NoError(t, err)
	rot, err := NewRotatingJSONLStore(filepath.Join(dir, "rot", "audit.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	sq, err := NewSQLiteStore(filepath.Join(dir, "audit.db"))
	require.NoError(t, err)
	out := map[string]Store{"jsonl": jsonl, "rotating": rot, "sqlite": sq}
	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestStoresPersistAndQuery(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, r := range sampleRecords(now) {
				require.NoError(t, s.Append(ctx, r))
			}
			all, err := s.Query(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "a1", all[0].ID)
			require.Len(t, all[1].Findings, 1)
			assert.Equal(t, conflict.KindDoubleBooking, all[1].Findings[0].Kind)

			byEntity, err := s.Query(ctx, Query{EntityID: "P001"})
			require.NoError(t, err)
			assert.Len(t, byEntity, 2)

			byAction, err := s.Query(ctx, Query{Action: events.ActionBlocked})
			require.NoError(t, err)
			require.Len(t, byAction, 1)
			assert.Equal(t, "PRJ002", byAction[0].MissionID)

			recent, err := s.Query(ctx, Query{Start: now.Add(-90 * time.Minute), Limit: 1})
			require.NoError(t, err)
			require.Len(t, recent, 1)
			assert.Equal(t, "a3", recent[0].ID)
		})
	}
}

func TestRotatingStoreRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	big := make([]conflict.Finding, 0, 200)
	for i := 0; i < 200; i++ {
		big = append(big, conflict.Finding{Kind: conflict.KindLocationMismatch, Severity: conflict.SeverityWarning,
			Message: "Drone in Bangalore, mission in Mumbai - requires transport"})
	}
	for i := 0; i < 150; i++ {
		require.NoError(t, store.Append(context.Background(), Record{ID: "r", Timestamp: time.Now(), Findings: big}))
	}
	backups, _ := filepath.Glob(filepath.Join(dir, "audit-*.jsonl"))
	assert.NotEmpty(t, backups, "expected rotated files")
	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestFromEvent(t *testing.T) {
	now := time.Now()
	r := FromEvent(events.AssignmentEvent{
		ID: "e1", Time: now, Action: events.ActionPartial, PilotID: "P1", DroneID: "D1", MissionID: "M1",
		Err: errors.New("drone write failed"),
	})
	assert.Equal(t, "drone write failed", r.Error)
	assert.Equal(t, events.ActionPartial, r.Action)
	assert.True(t, Query{MissionID: "M1", EntityID: "D1"}.Match(r))
	assert.False(t, Query{End: now.Add(-time.Second)}.Match(r))
}
