package roster

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/skyops/core/model"
)

func samplePilots() []model.Pilot {
	return []model.Pilot{
		{ID: "P001", Name: "Arjun", Skills: model.NewSet("Mapping", "Survey"), Location: "Bangalore",
			Status: model.StatusAvailable, CurrentAssignment: model.NoAssignment},
		{ID: "P002", Name: "Neha", Skills: model.NewSet("Inspection", "Thermal Imaging"), Location: "Mumbai",
			Status: model.StatusAssigned, CurrentAssignment: "PRJ001"},
		{ID: "P003", Name: "Rohit", Skills: model.NewSet("Inspection"), Location: "bangalore",
			Status: model.StatusOnLeave, CurrentAssignment: model.NoAssignment, AvailableFrom: "2026-03-01"},
		{ID: "P004", Name: "Sana", Location: "Pune", Status: model.StatusAvailable, CurrentAssignment: "PRJ404"},
	}
}

func sampleDrones() []model.Drone {
	return []model.Drone{
		{ID: "D001", Model: "DJI M300", Capabilities: model.NewSet("LiDAR", "RGB"), Location: "Bangalore",
			Status: model.StatusAvailable, CurrentAssignment: model.NoAssignment},
		{ID: "D002", Model: "DJI Mavic 3", Capabilities: model.NewSet("Thermal"), Location: "Mumbai",
			Status: model.StatusAssigned, CurrentAssignment: "PRJ001"},
		{ID: "D002", Model: "dup", Location: "Mumbai", Status: model.StatusAvailable, CurrentAssignment: model.NoAssignment},
		{ID: "D003", Model: "Autel", Location: "Pune", Status: model.StatusAssigned, CurrentAssignment: model.NoAssignment},
	}
}

func sampleMissions() []model.Mission {
	return []model.Mission{
		{ID: "PRJ001", Client: "Client A", Location: "Mumbai", Priority: "High"},
		{ID: "PRJ002", Client: "Client B", Location: "Bangalore", Priority: "Urgent"},
	}
}

func TestSnapshotLookups(t *testing.T) {
	s := NewSnapshot(samplePilots(), sampleDrones(), sampleMissions())
	p, ok := s.Pilot(" P002 ")
	require.True(t, ok)
	assert.Equal(t, "Neha", p.Name)
	d, ok := s.Drone("D002")
	require.True(t, ok)
	assert.Equal(t, "DJI Mavic 3", d.Model, "first row wins on duplicate ids")
	_, ok = s.Mission("PRJ404")
	assert.False(t, ok)

	ps, ds := s.AssignedTo("PRJ001")
	require.Len(t, ps, 1)
	require.Len(t, ds, 1)
	assert.Equal(t, "P002", ps[0].ID)
	assert.Equal(t, "D002", ds[0].ID)

	ps, ds = s.AssignedTo(model.NoAssignment)
	assert.Empty(t, ps)
	assert.Empty(t, ds)
}

type listRepo struct {
	Repository
	err error
}

func (r listRepo) ListPilots(context.Context) ([]model.Pilot, error) { return samplePilots(), nil }
func (r listRepo) ListDrones(context.Context) ([]model.Drone, error) { return sampleDrones(), r.err }
func (r listRepo) ListMissions(context.Context) ([]model.Mission, error) {
	return sampleMissions(), nil
}

func TestLoad(t *testing.T) {
	s, err := Load(context.Background(), listRepo{})
	require.NoError(t, err)
	assert.Len(t, s.Pilots(), 4)
	assert.Len(t, s.Missions(), 2)

	_, err = Load(context.Background(), listRepo{err: errors.New("boom")})
	assert.ErrorContains(t, err, "list drones")
}

func TestFilterPilots(t *testing.T) {
	ps := samplePilots()
	tests := []struct {
		name string
		f    PilotFilter
		want []string
	}{
		{"all", PilotFilter{}, []string{"P001", "P002", "P003", "P004"}},
		{"skill substring", PilotFilter{Skill: "thermal"}, []string{"P002"}},
		{"location equality", PilotFilter{Location: "BANGALORE"}, []string{"P001", "P003"}},
		{"location is not substring", PilotFilter{Location: "Bang"}, []string{}},
		{"status alias", PilotFilter{Status: "OnLeave"}, []string{"P003"}},
		{"status", PilotFilter{Status: "on leave"}, []string{"P003"}},
		{"combined", PilotFilter{Skill: "insp", Status: "assigned"}, []string{"P002"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, p := range FilterPilots(ps, tt.f) {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterDrones(t *testing.T) {
	out := FilterDrones(sampleDrones(), DroneFilter{Capability: "lidar", Location: "bangalore"})
	require.Len(t, out, 1)
	assert.Equal(t, "D001", out[0].ID)
}

func TestAudit(t *testing.T) {
	issues := Audit(NewSnapshot(samplePilots(), sampleDrones(), sampleMissions()))
	got := map[string]Problem{}
	for _, is := range issues {
		got[fmt.Sprintf("%s/%s/%s", is.Kind, is.ID, is.Problem)] = is.Problem
	}
	assert.Contains(t, got, "pilot/P004/divergent_assignment")
	assert.Contains(t, got, "pilot/P004/unknown_mission")
	assert.Contains(t, got, "drone/D003/divergent_assignment")
	assert.Contains(t, got, "drone/D002/duplicate_id")
	assert.Len(t, issues, 4)
}

func TestErrors(t *testing.T) {
	nf := &NotFoundError{Kind: model.KindMission, ID: "PRJ9"}
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.Equal(t, "project PRJ9 not found", nf.Error())

	assert.True(t, IsTransient(&StoreWriteError{Kind: model.KindPilot, ID: "P1", Err: errors.New("database is locked")}))
	assert.False(t, IsTransient(&StoreWriteError{Kind: model.KindPilot, ID: "P1", Err: ErrVersionConflict}))
	assert.False(t, IsTransient(fmt.Errorf("wrapped: %w", &StoreWriteError{Err: nf})))
	assert.False(t, IsTransient(errors.New("plain")))

	assert.NoError(t, CheckField(model.KindDrone, FieldMaintenanceDue))
	assert.ErrorIs(t, CheckField(model.KindPilot, FieldMaintenanceDue), ErrUnknownField)
}
