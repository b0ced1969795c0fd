// Package assign binds pilots and drones to missions. Every write is checked
// against the conflict rules first, serialised per entity and conditioned on
// the row versions that were checked.
package assign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/skyops/core/audit"
	"github.com/kilianp07/skyops/core/conflict"
	"github.com/kilianp07/skyops/core/events"
	"github.com/kilianp07/skyops/core/logger"
	"github.com/kilianp07/skyops/core/model"
	"github.com/kilianp07/skyops/core/monitoring"
	"github.com/kilianp07/skyops/core/roster"
	"github.com/kilianp07/skyops/core/status"
	"github.com/kilianp07/skyops/internal/eventbus"
)

// Config tunes locking and write retries.
type Config struct {
	// LockTimeout bounds the wait for a busy pilot or drone. Zero waits for
	// the context only.
	LockTimeout time.Duration
	// MaxAttempts bounds how often an assignment restarts from a fresh read
	// after a concurrent writer changed one of its rows.
	MaxAttempts int
	// RetryInitialInterval and RetryMaxElapsed shape the exponential backoff
	// applied to transient write failures.
	RetryInitialInterval time.Duration
	RetryMaxElapsed      time.Duration
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.LockTimeout == 0 {
		c.LockTimeout = 10 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.RetryInitialInterval == 0 {
		c.RetryInitialInterval = 100 * time.Millisecond
	}
	if c.RetryMaxElapsed == 0 {
		c.RetryMaxElapsed = 5 * time.Second
	}
}

// Orchestrator runs the check-then-commit protocol over a roster repository.
type Orchestrator struct {
	repo   roster.Repository
	engine *conflict.Engine
	policy status.Policy
	locks  *lockSet
	cfg    Config
	log    logger.Logger
	now    func() time.Time

	mu    sync.RWMutex
	store audit.Store
	bus   *eventbus.TypedBus[events.AssignmentEvent]
}

// New creates an Orchestrator. A nil engine uses the default rules.
func New(repo roster.Repository, engine *conflict.Engine, cfg Config, log logger.Logger) *Orchestrator {
	cfg.SetDefaults()
	if engine == nil {
		engine = conflict.NewEngine(nil, conflict.WithLogger(logger.OrNop(log)))
	}
	return &Orchestrator{
		repo:   repo,
		engine: engine,
		locks:  newLockSet(),
		cfg:    cfg,
		log:    logger.OrNop(log),
		now:    time.Now,
	}
}

// SetAuditStore configures the store receiving one record per decision.
func (o *Orchestrator) SetAuditStore(s audit.Store) {
	o.mu.Lock()
	o.store = s
	o.mu.Unlock()
}

// SetEventBus configures the bus receiving one event per decision.
func (o *Orchestrator) SetEventBus(b *eventbus.TypedBus[events.AssignmentEvent]) {
	o.mu.Lock()
	o.bus = b
	o.mu.Unlock()
}

// emit records the event in the audit store and publishes it. Audit
// failures are logged and never change the outcome of the operation.
func (o *Orchestrator) emit(ctx context.Context, e events.AssignmentEvent) {
	e.ID = uuid.NewString()
	e.Time = o.now()
	o.mu.RLock()
	store, bus := o.store, o.bus
	o.mu.RUnlock()
	if store != nil {
		if err := store.Append(context.WithoutCancel(ctx), audit.FromEvent(e)); err != nil {
			o.log.Errorf("audit append %s: %v", e.Action, err)
		}
	}
	if bus != nil {
		bus.Publish(e)
	}
}

// Result describes a committed assignment.
type Result struct {
	PilotID      string          `json:"pilot_id"`
	DroneID      string          `json:"drone_id"`
	MissionID    string          `json:"project_id"`
	PilotVersion int64           `json:"pilot_version"`
	DroneVersion int64           `json:"drone_version"`
	Report       conflict.Report `json:"-"`
}

// Advisory returns the summary of non-blocking findings, or "" when the
// check was clean.
func (r Result) Advisory() string {
	if len(r.Report.Findings) == 0 {
		return ""
	}
	return r.Report.Summary()
}

func (r Result) String() string {
	var b strings.Builder
	b.WriteString("Assignment successful!\n\n")
	fmt.Fprintf(&b, "• Pilot %s assigned to %s\n", r.PilotID, r.MissionID)
	fmt.Fprintf(&b, "• Drone %s assigned to %s\n", r.DroneID, r.MissionID)
	if adv := r.Advisory(); adv != "" {
		b.WriteString("\nWarnings:\n")
		b.WriteString(adv)
	}
	return b.String()
}

// errRestart signals that a row changed between read and write and nothing
// of ours is left in the store.
var errRestart = errors.New("restart")

// AssignToMission binds the pilot and the drone to the mission. Missing ids
// fail with *roster.NotFoundError before any rule runs. CRITICAL findings
// fail with *ConflictBlockedError and nothing is written. When the drone
// write fails after the pilot write, the pilot is restored; if that fails
// too a *PartialAssignmentError is returned for Reconcile.
func (o *Orchestrator) AssignToMission(ctx context.Context, pilotID, droneID, missionID string) (Result, error) {
	pilotID, droneID, missionID = strings.TrimSpace(pilotID), strings.TrimSpace(droneID), strings.TrimSpace(missionID)
	if pilotID == "" || droneID == "" || missionID == "" || model.IsNoAssignment(missionID) {
		return Result{}, ErrMissingID
	}
	release, err := o.locks.Acquire(ctx, o.cfg.LockTimeout,
		lockKey(model.KindPilot, pilotID), lockKey(model.KindDrone, droneID))
	if err != nil {
		assignmentsTotal.WithLabelValues("lock_timeout").Inc()
		return Result{}, err
	}
	defer release()

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		res, err := o.tryAssign(ctx, pilotID, droneID, missionID)
		if !errors.Is(err, errRestart) {
			return res, err
		}
		o.log.Infof("assignment %s/%s -> %s restarted after concurrent change (attempt %d)", pilotID, droneID, missionID, attempt)
	}
	assignmentsTotal.WithLabelValues("restarts_exhausted").Inc()
	return Result{}, fmt.Errorf("assign %s/%s to %s: %w", pilotID, droneID, missionID, ErrTooManyRestarts)
}

func (o *Orchestrator) tryAssign(ctx context.Context, pilotID, droneID, missionID string) (Result, error) {
	snap, err := roster.Load(ctx, o.repo)
	if err != nil {
		assignmentsTotal.WithLabelValues("read_error").Inc()
		return Result{}, fmt.Errorf("load roster: %w", err)
	}
	pilot, ok := snap.Pilot(pilotID)
	if !ok {
		assignmentsTotal.WithLabelValues("not_found").Inc()
		return Result{}, &roster.NotFoundError{Kind: model.KindPilot, ID: pilotID}
	}
	drone, ok := snap.Drone(droneID)
	if !ok {
		assignmentsTotal.WithLabelValues("not_found").Inc()
		return Result{}, &roster.NotFoundError{Kind: model.KindDrone, ID: droneID}
	}
	if _, ok := snap.Mission(missionID); !ok {
		assignmentsTotal.WithLabelValues("not_found").Inc()
		return Result{}, &roster.NotFoundError{Kind: model.KindMission, ID: missionID}
	}

	report := o.engine.Check(conflict.Request{PilotID: pilotID, DroneID: droneID, MissionID: missionID}, snap)
	countFindings(report.Findings)
	ev := events.AssignmentEvent{PilotID: pilotID, DroneID: droneID, MissionID: missionID, Findings: report.Findings}
	if !report.CanProceed() {
		assignmentsTotal.WithLabelValues("blocked").Inc()
		ev.Action = events.ActionBlocked
		o.emit(ctx, ev)
		o.log.Infof("assignment %s/%s -> %s blocked by %d critical finding(s)", pilotID, droneID, missionID, len(report.Blocking()))
		return Result{}, &ConflictBlockedError{Report: report}
	}

	target, err := model.AssignTo(missionID)
	if err != nil {
		return Result{}, err
	}
	pw := EntityWrite{Kind: model.KindPilot, ID: pilotID, Previous: previous(pilot.Assignment()), Target: target, Version: pilot.Version}
	dw := EntityWrite{Kind: model.KindDrone, ID: droneID, Previous: previous(drone.Assignment()), Target: target, Version: drone.Version}

	pv, err := o.writeAssignment(ctx, pw.Kind, pw.ID, target, pw.Version)
	if err != nil {
		if errors.Is(err, roster.ErrVersionConflict) {
			return Result{}, errRestart
		}
		assignmentsTotal.WithLabelValues("write_error").Inc()
		return Result{}, fmt.Errorf("assign pilot %s: %w", pilotID, err)
	}
	pw.Version = pv

	dv, err := o.writeAssignment(ctx, dw.Kind, dw.ID, target, dw.Version)
	if err != nil {
		return Result{}, o.undoPilot(ctx, pw, dw, missionID, err, ev)
	}

	assignmentsTotal.WithLabelValues("assigned").Inc()
	ev.Action = events.ActionAssigned
	o.emit(ctx, ev)
	o.log.Infof("assigned pilot %s and drone %s to %s", pilotID, droneID, missionID)
	return Result{
		PilotID: pilotID, DroneID: droneID, MissionID: missionID,
		PilotVersion: pv, DroneVersion: dv, Report: report,
	}, nil
}

// undoPilot restores the pilot after the drone write failed.
func (o *Orchestrator) undoPilot(ctx context.Context, pw, dw EntityWrite, missionID string, cause error, ev events.AssignmentEvent) error {
	_, rbErr := o.writeAssignment(context.WithoutCancel(ctx), pw.Kind, pw.ID, pw.Previous, pw.Version)
	if rbErr != nil {
		perr := &PartialAssignmentError{MissionID: missionID, Written: pw, Failed: dw, Err: cause, RollbackErr: rbErr}
		assignmentsTotal.WithLabelValues("partial").Inc()
		ev.Action, ev.Err = events.ActionPartial, perr
		o.emit(ctx, ev)
		o.log.Errorf("%v", perr)
		monitoring.CaptureException(perr, monitoring.AssignmentTags(missionID, pw.ID, dw.ID))
		return perr
	}
	ev.Action, ev.Err = events.ActionRolledBack, cause
	o.emit(ctx, ev)
	if errors.Is(cause, roster.ErrVersionConflict) {
		return errRestart
	}
	assignmentsTotal.WithLabelValues("rolled_back").Inc()
	o.log.Warnf("drone %s write failed, pilot %s restored: %v", dw.ID, pw.ID, cause)
	return fmt.Errorf("assign drone %s (pilot %s restored): %w", dw.ID, pw.ID, cause)
}

// previous turns a stored row into the value to restore on rollback. Rows
// that passed the conflict check hold no mission, so only the status is
// kept; an unusable status falls back to Available.
func previous(a model.Assignment, _ error) model.Assignment {
	if a.Status() != "" && a.Status() != model.StatusAssigned {
		if r, err := model.Release(a.Status()); err == nil {
			return r
		}
	}
	r, _ := model.Release(model.StatusAvailable)
	return r
}

// CheckConflicts evaluates any subset of ids without writing anything.
func (o *Orchestrator) CheckConflicts(ctx context.Context, pilotID, droneID, missionID string) (conflict.Report, error) {
	pilotID, droneID, missionID = strings.TrimSpace(pilotID), strings.TrimSpace(droneID), strings.TrimSpace(missionID)
	snap, err := roster.Load(ctx, o.repo)
	if err != nil {
		return conflict.Report{}, fmt.Errorf("load roster: %w", err)
	}
	report := o.engine.Check(conflict.Request{PilotID: pilotID, DroneID: droneID, MissionID: missionID}, snap)
	return report, nil
}

// Snapshot reads the current roster.
func (o *Orchestrator) Snapshot(ctx context.Context) (*roster.Snapshot, error) {
	return roster.Load(ctx, o.repo)
}
