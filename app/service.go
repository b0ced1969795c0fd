// Package app wires the roster store, the orchestrator and the HTTP
// surfaces from a configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apiroster "github.com/kilianp07/skyops/api/roster"
	"github.com/kilianp07/skyops/config"
	"github.com/kilianp07/skyops/core/assign"
	"github.com/kilianp07/skyops/core/audit"
	"github.com/kilianp07/skyops/core/conflict"
	"github.com/kilianp07/skyops/core/events"
	coremon "github.com/kilianp07/skyops/core/monitoring"
	"github.com/kilianp07/skyops/core/roster"
	"github.com/kilianp07/skyops/infra/cache"
	"github.com/kilianp07/skyops/infra/logger"
	"github.com/kilianp07/skyops/infra/metrics"
	"github.com/kilianp07/skyops/infra/monitoring"
	"github.com/kilianp07/skyops/infra/store"
	"github.com/kilianp07/skyops/internal/eventbus"
)

// Service owns every long-lived component.
type Service struct {
	Orchestrator *assign.Orchestrator
	Audit        audit.Store
	Registry     *prometheus.Registry

	cfg     *config.Config
	repo    roster.Repository
	closers []func() error
	bus     *eventbus.TypedBus[events.AssignmentEvent]
	log     logger.Logger
}

// New creates a Service from the configuration. The roster store is opened
// and seeded before New returns.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	s := &Service{cfg: cfg, log: logg, bus: eventbus.NewTyped[events.AssignmentEvent]()}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	s.closers = append(s.closers, func() error {
		coremon.Flush(2 * time.Second)
		return nil
	})

	base, sqlite, err := s.openRepository(ctx)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.repo = base
	if cfg.Cache.Enabled() {
		s.repo = cache.New(base, cfg.Cache.TTL(), logger.New("cache"))
	}

	st, err := openAuditStore(cfg.Logging, sqlite)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("audit store: %w", err)
	}
	s.Audit = st
	s.closers = append(s.closers, st.Close)

	engine := conflict.NewEngine(conflict.DefaultRules(cfg.Assign.MaintenanceWindowDays),
		conflict.WithLogger(logger.New("conflict")))
	s.Orchestrator = assign.New(s.repo, engine, cfg.Assign.Orchestrator(), logger.New("assign"))
	s.Orchestrator.SetAuditStore(st)
	s.Orchestrator.SetEventBus(s.bus)

	s.Registry = prometheus.NewRegistry()
	assign.MustRegisterMetrics(s.Registry)
	cache.MustRegisterMetrics(s.Registry)
	metrics.MustRegisterMetrics(s.Registry)
	return s, nil
}

// openRepository opens the configured backend and applies the seed file.
// The sqlite handle is returned so the audit trail can share it.
func (s *Service) openRepository(ctx context.Context) (roster.Repository, *store.SQLiteRepository, error) {
	cfg := s.cfg.Store
	var (
		repo interface {
			roster.Repository
			store.Writer
		}
		sqlite *store.SQLiteRepository
	)
	switch cfg.Backend {
	case "memory":
		repo = store.NewMemoryRepository()
	case "sqlite":
		r, err := store.OpenSQLite(ctx, cfg.Path, logger.New("store"))
		if err != nil {
			return nil, nil, fmt.Errorf("open roster: %w", err)
		}
		s.closers = append(s.closers, r.Close)
		repo, sqlite = r, r
	default:
		return nil, nil, fmt.Errorf("unknown store backend %s", cfg.Backend)
	}
	if cfg.Seed != "" {
		n, err := store.LoadSeedFile(ctx, cfg.Seed, repo)
		if err != nil {
			return nil, nil, fmt.Errorf("seed roster: %w", err)
		}
		s.log.Infof("seeded %d roster rows from %s", n, cfg.Seed)
	}
	return repo, sqlite, nil
}

func openAuditStore(cfg config.LoggingConfig, sqlite *store.SQLiteRepository) (audit.Store, error) {
	switch cfg.Backend {
	case "jsonl":
		return audit.NewJSONLStore(cfg.Path)
	case "rotating":
		return audit.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case "sqlite":
		if sqlite != nil && (cfg.Path == "" || cfg.Path == sqlite.Path()) {
			return audit.NewSQLiteStoreFromDB(sqlite.DB())
		}
		return audit.NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown backend %s", cfg.Backend)
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	return apiroster.NewRouter(s.Orchestrator, s.Audit, logger.New("api"))
}

// Run serves the API, and the metrics endpoint when enabled, until ctx is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	stop := metrics.StartEventCollector(ctx, s.bus, logger.New("events"))
	defer stop()

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			defer coremon.Recover()
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort, s.Registry, logger.New("metrics")); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.API.Address, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		defer coremon.Recover()
		s.log.Infof("api listening on %s", s.cfg.API.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service in reverse order of
// acquisition.
func (s *Service) Close() error {
	s.bus.Close()
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
