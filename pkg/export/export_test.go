package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/skyops/core/audit"
	"github.com/kilianp07/skyops/core/conflict"
	"github.com/kilianp07/skyops/core/events"
)

func TestWriteCSV(t *testing.T) {
	recs := []audit.Record{{
		ID:        "r1",
		Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Action:    events.ActionBlocked,
		PilotID:   "P1",
		DroneID:   "D1",
		MissionID: "M1",
		Findings: []conflict.Finding{
			{Kind: conflict.KindDoubleBooking},
			{Kind: conflict.KindSkillMismatch},
		},
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, recs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "2026-03-10T09:00:00Z", rows[1][1])
	assert.Equal(t, "DOUBLE_BOOKING;SKILL_MISMATCH", rows[1][8])
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
