package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/skyops/core/model"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name      string
		kind      model.Kind
		requested string
		mission   string
		want      string
		wantRef   string
	}{
		{"pilot available", model.KindPilot, "Available", "", "Available", model.NoAssignment},
		{"pilot on leave", model.KindPilot, "On Leave", "", "On Leave", model.NoAssignment},
		{"pilot on leave alias", model.KindPilot, "OnLeave", "", "On Leave", model.NoAssignment},
		{"pilot leave ignores mission", model.KindPilot, "On Leave", "PRJ001", "On Leave", model.NoAssignment},
		{"pilot assigned", model.KindPilot, "Assigned", "PRJ001", "Assigned/PRJ001", "PRJ001"},
		{"drone maintenance", model.KindDrone, "Maintenance", "", "Maintenance", model.NoAssignment},
		{"drone assigned", model.KindDrone, " Assigned ", "PRJ002", "Assigned/PRJ002", "PRJ002"},
	}
	var p Policy
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := p.Derive(tt.kind, tt.requested, tt.mission)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.String())
			assert.Equal(t, tt.wantRef, a.Reference())
		})
	}
}

func TestDeriveRejectsOutsideEnumeration(t *testing.T) {
	var p Policy
	_, err := p.Derive(model.KindPilot, "Maintenance", "")
	var inv *InvalidStatusError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, []model.Status{model.StatusAvailable, model.StatusAssigned, model.StatusOnLeave}, inv.Allowed)
	assert.Contains(t, err.Error(), "Available, Assigned, On Leave")

	_, err = p.Derive(model.KindDrone, "On Leave", "")
	assert.True(t, errors.As(err, &inv))

	_, err = p.Derive(model.KindMission, "Available", "")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestDeriveAssignedNeedsMission(t *testing.T) {
	var p Policy
	for _, m := range []string{"", model.NoAssignment} {
		_, err := p.Derive(model.KindDrone, "Assigned", m)
		assert.ErrorIs(t, err, model.ErrMissionRequired)
	}
}

func TestDeriveIsTotal(t *testing.T) {
	var p Policy
	for _, k := range []model.Kind{model.KindPilot, model.KindDrone} {
		for _, s := range model.AllowedStatuses(k) {
			a, err := p.Derive(k, string(s), "PRJ009")
			require.NoError(t, err, "%s/%s", k, s)
			assert.Equal(t, s, a.Status())
			_, bound := a.MissionID()
			assert.Equal(t, s == model.StatusAssigned, bound)
		}
	}
}
