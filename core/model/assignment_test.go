package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelease(t *testing.T) {
	a, err := Release(StatusOnLeave)
	require.NoError(t, err)
	assert.Equal(t, StatusOnLeave, a.Status())
	assert.Equal(t, NoAssignment, a.Reference())
	_, ok := a.MissionID()
	assert.False(t, ok)

	_, err = Release(StatusAssigned)
	assert.ErrorIs(t, err, ErrMissionRequired)
}

func TestAssignTo(t *testing.T) {
	a, err := AssignTo(" PRJ001 ")
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, a.Status())
	assert.Equal(t, "PRJ001", a.Reference())

	for _, bad := range []string{"", "  ", NoAssignment} {
		_, err := AssignTo(bad)
		assert.ErrorIs(t, err, ErrMissionRequired, "input %q", bad)
	}
}

func TestPilotAssignmentDerivation(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		ref     string
		want    string
		diverge bool
	}{
		{"available", StatusAvailable, NoAssignment, "Available", false},
		{"assigned", StatusAssigned, "PRJ002", "Assigned/PRJ002", false},
		{"assigned without mission", StatusAssigned, NoAssignment, "Assigned", true},
		{"leave with stale mission", StatusOnLeave, "PRJ009", "On Leave/PRJ009", true},
		{"blank cell", StatusAvailable, "", "Available", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Pilot{Status: tt.status, CurrentAssignment: tt.ref}.Assignment()
			assert.Equal(t, tt.want, a.String())
			if tt.diverge {
				assert.ErrorIs(t, err, ErrInconsistentAssignment)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStatusEnumeration(t *testing.T) {
	assert.True(t, KindPilot.Allows(StatusOnLeave))
	assert.False(t, KindPilot.Allows(StatusMaintenance))
	assert.True(t, KindDrone.Allows(StatusMaintenance))
	assert.False(t, KindDrone.Allows(StatusOnLeave))
	assert.Empty(t, AllowedStatuses(KindMission))
	assert.Equal(t, StatusOnLeave, NormalizeStatus("OnLeave"))
	assert.Equal(t, Status("Retired"), NormalizeStatus(" Retired "))
}

func TestParseSet(t *testing.T) {
	s := ParseSet(" Mapping, Thermal,,Mapping , ")
	assert.Equal(t, Set{"Mapping", "Thermal"}, s)
	assert.Equal(t, []string{"LiDAR", "Night"}, s.Missing(NewSet("Night", "Mapping", "LiDAR")))
	assert.Equal(t, "Mapping, Thermal", s.String())
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2026-02-14")
	require.True(t, ok)
	assert.Equal(t, 14, d.Day())
	_, ok = ParseDate("soon")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Drones")
	require.NoError(t, err)
	assert.Equal(t, KindDrone, k)
	_, err = ParseKind("truck")
	assert.Error(t, err)
}
