package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/skyops/core/assign"
	"github.com/kilianp07/skyops/core/audit"
	"github.com/kilianp07/skyops/core/model"
)

func writeConfig(t *testing.T, dir string, seed bool) string {
	t.Helper()
	seedPath := ""
	if seed {
		abs, err := filepath.Abs(filepath.Join("..", "configs", "roster.example.yaml"))
		require.NoError(t, err)
		seedPath = abs
	}
	body := fmt.Sprintf(`store:
  backend: sqlite
  path: %s
  seed: %q
logging:
  backend: jsonl
  path: %s
`, filepath.Join(dir, "roster.db"), seedPath, filepath.Join(dir, "audit.jsonl"))
	path := filepath.Join(dir, fmt.Sprintf("config-%t.yaml", seed))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAssignPersistsAcrossInvocations(t *testing.T) {
	dir := t.TempDir()
	seeded := writeConfig(t, dir, true)
	plain := writeConfig(t, dir, false)

	out, err := run(t, "-c", seeded, "assign", "--pilot", "P001", "--drone", "D001", "--project", "PRJ002")
	require.NoError(t, err)
	assert.Contains(t, out, "Assignment successful!")

	out, err = run(t, "-c", plain, "--json", "pilots", "--status", "Assigned")
	require.NoError(t, err)
	var pilots []model.Pilot
	require.NoError(t, json.Unmarshal([]byte(out), &pilots))
	ids := []string{}
	for _, p := range pilots {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"P001", "P002"}, ids)

	out, err = run(t, "-c", plain, "--json", "log", "--project", "PRJ002")
	require.NoError(t, err)
	var recs []audit.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "P001", recs[0].PilotID)

	out, err = run(t, "-c", plain, "log", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "id,timestamp,action")
	assert.Contains(t, out, ",assigned,P001,D001,PRJ002,")
}

func TestCheckAndBlockedAssign(t *testing.T) {
	cfg := writeConfig(t, t.TempDir(), true)

	out, err := run(t, "-c", cfg, "check", "--pilot", "P002", "--drone", "D001", "--project", "PRJ002")
	require.NoError(t, err)
	assert.Contains(t, out, "DOUBLE_BOOKING")

	_, err = run(t, "-c", cfg, "assign", "--pilot", "P002", "--drone", "D001", "--project", "PRJ002")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRITICAL")
}

func TestStatusAndPlanCommands(t *testing.T) {
	cfg := writeConfig(t, t.TempDir(), true)

	out, err := run(t, "-c", cfg, "status", "drone", "D001", "Maintenance")
	require.NoError(t, err)
	assert.Contains(t, out, "Maintenance")

	_, err = run(t, "-c", cfg, "status", "rocket", "R1", "Available")
	assert.Error(t, err)

	out, err = run(t, "-c", cfg, "reassign-plan", "PRJ001", "PRJ002", "--reason", "client escalation")
	require.NoError(t, err)
	assert.Contains(t, out, "URGENT REASSIGNMENT PLAN")
	assert.Contains(t, out, "client escalation")
}

func TestTablesAndAudit(t *testing.T) {
	cfg := writeConfig(t, t.TempDir(), true)

	out, err := run(t, "-c", cfg, "drones", "--capability", "thermal")
	require.NoError(t, err)
	assert.Contains(t, out, "D002")
	assert.NotContains(t, out, "D001")

	out, err = run(t, "-c", cfg, "missions")
	require.NoError(t, err)
	assert.Contains(t, out, "2026-02-05")

	out, err = run(t, "-c", cfg, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "roster is consistent")
}

func TestLogRejectsBadTime(t *testing.T) {
	cfg := writeConfig(t, t.TempDir(), true)
	_, err := run(t, "-c", cfg, "log", "--since", "yesterday")
	assert.ErrorContains(t, err, "--since")
}

func TestReconcileCompletesHalfAssignment(t *testing.T) {
	dir := t.TempDir()
	seeded := writeConfig(t, dir, true)
	plain := writeConfig(t, dir, false)

	// Leave the pilot bound to PRJ002 while the drone is still free.
	_, err := run(t, "-c", seeded, "status", "pilot", "P001", "Assigned", "--project", "PRJ002")
	require.NoError(t, err)

	out, err := run(t, "-c", plain, "--json", "pilots")
	require.NoError(t, err)
	var pilots []model.Pilot
	require.NoError(t, json.Unmarshal([]byte(out), &pilots))
	out, err = run(t, "-c", plain, "--json", "drones")
	require.NoError(t, err)
	var drones []model.Drone
	require.NoError(t, json.Unmarshal([]byte(out), &drones))

	partial := fmt.Sprintf(`{"project_id":"PRJ002",
"written":{"kind":"pilot","id":"P001","version":%d,"previous_status":"Available","target_status":"Assigned","target_project_id":"PRJ002"},
"failed":{"kind":"drone","id":"D001","version":%d,"previous_status":"Available","target_status":"Assigned","target_project_id":"PRJ002"}}`,
		pilots[0].Version, drones[0].Version)
	file := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(file, []byte(partial), 0o600))

	_, err = run(t, "-c", plain, "reconcile", "--mode", "sideways", "--file", file)
	assert.ErrorContains(t, err, "unknown reconcile mode")
	_, err = run(t, "-c", plain, "reconcile", "--mode", "retry")
	assert.Error(t, err)

	out, err = run(t, "-c", plain, "reconcile", "--mode", "retry", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Reconciled assignment to PRJ002 (retry)")

	out, err = run(t, "-c", plain, "--json", "drones", "--status", "Assigned")
	require.NoError(t, err)
	assert.Contains(t, out, `"drone_id": "D001"`)

	_, err = run(t, "-c", plain, "reconcile", "--mode", "retry", "--partial", partial)
	assert.ErrorContains(t, err, "changed since the partial write")
}

func TestReportPartialPrintsReconcileInput(t *testing.T) {
	perr := &assign.PartialAssignmentError{MissionID: "PRJ002"}
	var buf bytes.Buffer
	reportPartial(&buf, fmt.Errorf("wrapped: %w", perr))
	assert.Contains(t, buf.String(), "skyops reconcile --mode retry --partial")
	assert.Contains(t, buf.String(), `"project_id":"PRJ002"`)

	buf.Reset()
	reportPartial(&buf, errors.New("other"))
	assert.Empty(t, buf.String())
}
