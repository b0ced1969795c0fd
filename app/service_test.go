package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/skyops/config"
	"github.com/kilianp07/skyops/core/audit"
	"github.com/kilianp07/skyops/core/model"
)

func testConfig(t *testing.T, backend, auditBackend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Store:   config.StoreConfig{Backend: backend, Path: filepath.Join(dir, "roster.db"), Seed: filepath.Join("..", "configs", "roster.example.yaml")},
		Logging: config.LoggingConfig{Backend: auditBackend, Path: filepath.Join(dir, "audit.log")},
		API:     config.APIConfig{Address: "127.0.0.1:0"},
	}
	if auditBackend == "sqlite" {
		cfg.Logging.Path = cfg.Store.Path
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceAssignsAcrossBackends(t *testing.T) {
	tests := []struct{ store, audit string }{
		{"memory", "jsonl"},
		{"sqlite", "sqlite"},
		{"sqlite", "rotating"},
	}
	for _, tt := range tests {
		t.Run(tt.store+"/"+tt.audit, func(t *testing.T) {
			ctx := context.Background()
			svc, err := New(ctx, testConfig(t, tt.store, tt.audit))
			require.NoError(t, err)
			defer func() { require.NoError(t, svc.Close()) }()

			_, err = svc.Orchestrator.AssignToMission(ctx, "P001", "D001", "PRJ002")
			require.NoError(t, err)

			snap, err := svc.Orchestrator.Snapshot(ctx)
			require.NoError(t, err)
			p, ok := snap.Pilot("P001")
			require.True(t, ok)
			assert.Equal(t, model.StatusAssigned, p.Status)
			assert.Equal(t, "PRJ002", p.CurrentAssignment)

			recs, err := svc.Audit.Query(ctx, audit.Query{MissionID: "PRJ002"})
			require.NoError(t, err)
			require.Len(t, recs, 1)
		})
	}
}

func TestServiceHandler(t *testing.T) {
	ctx := context.Background()
	svc, err := New(ctx, testConfig(t, "memory", "jsonl"))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	rr := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/pilots", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	svc, err := New(context.Background(), testConfig(t, "memory", "jsonl"))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestServiceRejectsBadSeed(t *testing.T) {
	cfg := testConfig(t, "memory", "jsonl")
	cfg.Store.Seed = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
