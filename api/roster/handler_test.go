package roster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/skyops/core/assign"
	"github.com/kilianp07/skyops/core/audit"
	"github.com/kilianp07/skyops/core/conflict"
	"github.com/kilianp07/skyops/core/model"
	"github.com/kilianp07/skyops/core/monitoring"
	coreroster "github.com/kilianp07/skyops/core/roster"
	"github.com/kilianp07/skyops/infra/store"
)

func newServer(t *testing.T) (http.Handler, *store.MemoryRepository) {
	t.Helper()
	repo := seededRepo(t)
	return newServerFor(t, repo), repo
}

func seededRepo(t *testing.T) *store.MemoryRepository {
	t.Helper()
	repo := store.NewMemoryRepository()
	_, err := store.LoadSeedFile(context.Background(), filepath.Join("..", "..", "infra", "store", "testdata", "roster.yaml"), repo)
	require.NoError(t, err)
	return repo
}

func newServerFor(t *testing.T, repo coreroster.Repository) http.Handler {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	engine := conflict.NewEngine(nil, conflict.WithClock(func() time.Time { return now }))
	orch := assign.New(repo, engine, assign.Config{
		RetryInitialInterval: time.Millisecond,
		RetryMaxElapsed:      10 * time.Millisecond,
	}, nil)
	st, err := audit.NewJSONLStore(filepath.Join(t.TempDir(), "audit.jsonl"))
	require.NoError(t, err)
	orch.SetAuditStore(st)
	return NewRouter(orch, st, nil)
}

func do(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListPilotsFilters(t *testing.T) {
	h, _ := newServer(t)

	tests := []struct {
		url  string
		want []string
	}{
		{"/api/pilots", []string{"P001", "P002", "P003"}},
		{"/api/pilots?skill=inspect", []string{"P002", "P003"}},
		{"/api/pilots?location=bangalore&status=available", []string{"P001"}},
		{"/api/pilots?status=OnLeave", []string{"P003"}},
		{"/api/pilots?location=Delhi", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, tt.url, "")
			require.Equal(t, http.StatusOK, rr.Code)
			var out []model.Pilot
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
			ids := make([]string, 0, len(out))
			for _, p := range out {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestListDrones(t *testing.T) {
	h, _ := newServer(t)
	rr := do(t, h, http.MethodGet, "/api/drones?capability=thermal", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var out []model.Drone
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "D002", out[0].ID)
}

func TestCheckConflicts(t *testing.T) {
	h, _ := newServer(t)
	rr := do(t, h, http.MethodPost, "/api/conflicts/check", `{"pilot_id":"P002","drone_id":"D001","project_id":"PRJ002"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var out struct {
		CanProceed bool               `json:"can_proceed"`
		Conflicts  []conflict.Finding `json:"conflicts"`
		Summary    string             `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.False(t, out.CanProceed)
	assert.Equal(t, conflict.KindDoubleBooking, out.Conflicts[0].Kind)
	assert.Contains(t, out.Summary, "CRITICAL")

	rr = do(t, h, http.MethodPost, "/api/conflicts/check", `{"pilot":"P1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssignAndLog(t *testing.T) {
	h, repo := newServer(t)

	rr := do(t, h, http.MethodPost, "/api/assignments", `{"pilot_id":"P002","drone_id":"D001","project_id":"PRJ002"}`)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "DOUBLE_BOOKING")

	rr = do(t, h, http.MethodPost, "/api/assignments", `{"pilot_id":"P001","drone_id":"D001","project_id":"PRJ002"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Assignment successful")

	ps, err := repo.ListPilots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PRJ002", ps[0].CurrentAssignment)

	rr = do(t, h, http.MethodGet, "/api/assignments/log?project_id=PRJ002", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var recs []audit.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "blocked", string(recs[0].Action))
	assert.Equal(t, "assigned", string(recs[1].Action))

	rr = do(t, h, http.MethodPost, "/api/assignments", `{"pilot_id":"PX","drone_id":"D001","project_id":"PRJ002"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSetStatus(t *testing.T) {
	h, repo := newServer(t)

	rr := do(t, h, http.MethodPost, "/api/drones/D002/status", `{"status":"Maintenance"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	ds, err := repo.ListDrones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusMaintenance, ds[1].Status)
	assert.Equal(t, model.NoAssignment, ds[1].CurrentAssignment)

	rr = do(t, h, http.MethodPost, "/api/pilots/P001/status", `{"status":"Maintenance"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "must be one of")

	rr = do(t, h, http.MethodPost, "/api/pilots/P001/status", `{"status":"Assigned"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/rockets/R1/status", `{"status":"Available"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPlanReassignment(t *testing.T) {
	h, _ := newServer(t)

	rr := do(t, h, http.MethodPost, "/api/reassignments/plan", `{"from":"PRJ001","to":"PRJ002"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out struct {
		assign.Plan
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "Urgent", out.Priority)
	assert.Len(t, out.Pilots, 1)
	assert.Contains(t, out.Text, "URGENT REASSIGNMENT PLAN")

	rr = do(t, h, http.MethodPost, "/api/reassignments/plan", `{"from":"PRJ002","to":"PRJ001","reason":"rush order"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRosterAuditAndHealth(t *testing.T) {
	h, _ := newServer(t)
	rr := do(t, h, http.MethodGet, "/api/roster/audit", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())

	rr = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

// failingRepo fails drone writes and every pilot write after the first while
// failing is set, which leaves a half assignment behind.
type failingRepo struct {
	*store.MemoryRepository
	mu          sync.Mutex
	failing     bool
	pilotWrites int
}

func (r *failingRepo) WriteAssignment(ctx context.Context, kind model.Kind, id string, a model.Assignment, v int64) (int64, error) {
	r.mu.Lock()
	fail := r.failing && (kind == model.KindDrone || r.pilotWrites > 0)
	if r.failing && kind == model.KindPilot {
		r.pilotWrites++
	}
	r.mu.Unlock()
	if fail {
		return 0, &coreroster.StoreWriteError{Kind: kind, ID: id, Err: errors.New("quota exceeded")}
	}
	return r.MemoryRepository.WriteAssignment(ctx, kind, id, a, v)
}

func (r *failingRepo) heal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = false
}

type captureMonitor struct {
	monitoring.NopMonitor
	tags []map[string]string
}

func (m *captureMonitor) CaptureException(_ error, tags map[string]string) {
	m.tags = append(m.tags, tags)
}

func TestPartialAssignmentReconcile(t *testing.T) {
	repo := &failingRepo{MemoryRepository: seededRepo(t), failing: true}
	h := newServerFor(t, repo)
	mon := &captureMonitor{}
	monitoring.Init(mon)
	defer monitoring.Init(nil)

	rr := do(t, h, http.MethodPost, "/api/assignments", `{"pilot_id":"P001","drone_id":"D001","project_id":"PRJ002"}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code, rr.Body.String())
	var body struct {
		Error   string          `json:"error"`
		Partial json.RawMessage `json:"partial"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "partial assignment to PRJ002")
	require.NotEmpty(t, body.Partial)
	assert.Contains(t, string(body.Partial), `"kind":"drone"`)
	require.Len(t, mon.tags, 1, "one report per partial assignment")
	assert.Equal(t, map[string]string{"project_id": "PRJ002", "pilot_id": "P001", "drone_id": "D001"}, mon.tags[0])

	rr = do(t, h, http.MethodPost, "/api/assignments/reconcile", `{"mode":"sideways","partial":`+string(body.Partial)+`}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, h, http.MethodPost, "/api/assignments/reconcile", `{"mode":"retry"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	repo.heal()
	rr = do(t, h, http.MethodPost, "/api/assignments/reconcile", `{"mode":"retry","partial":`+string(body.Partial)+`}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	ds, err := repo.ListDrones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, ds[0].Status)
	assert.Equal(t, "PRJ002", ds[0].CurrentAssignment)

	rr = do(t, h, http.MethodPost, "/api/assignments/reconcile", `{"mode":"retry","partial":`+string(body.Partial)+`}`)
	assert.Equal(t, http.StatusConflict, rr.Code, "versions moved on")
}
