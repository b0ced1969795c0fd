package conflict

import (
	"strings"
	"time"

	"github.com/kilianp07/skyops/core/logger"
	"github.com/kilianp07/skyops/core/model"
)

// Snapshot resolves entities by id. roster.Snapshot satisfies it.
type Snapshot interface {
	Pilot(id string) (model.Pilot, bool)
	Drone(id string) (model.Drone, bool)
	Mission(id string) (model.Mission, bool)
}

// Request names the entities of an assignment intent. Empty ids are not
// requested and rules that need them are skipped.
type Request struct {
	PilotID   string `json:"pilot_id,omitempty"`
	DroneID   string `json:"drone_id,omitempty"`
	MissionID string `json:"project_id,omitempty"`
}

func (r Request) scope() Scope {
	var s Scope
	if r.PilotID != "" {
		s |= NeedPilot
	}
	if r.DroneID != "" {
		s |= NeedDrone
	}
	if r.MissionID != "" {
		s |= NeedMission
	}
	return s
}

// Engine runs a registry of rules against a snapshot.
type Engine struct {
	rules []Rule
	now   func() time.Time
	log   logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for date-relative rules.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for skipped checks.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRules appends rules after the registry passed to NewEngine.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) { e.rules = append(e.rules, rules...) }
}

// NewEngine returns an engine evaluating rules in the given order. A nil or
// empty registry falls back to DefaultRules.
func NewEngine(rules []Rule, opts ...Option) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules(DefaultMaintenanceWindowDays)
	}
	e := &Engine{
		rules: append([]Rule(nil), rules...),
		now:   time.Now,
		log:   logger.NopLogger{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Rules returns a copy of the registry.
func (e *Engine) Rules() []Rule { return append([]Rule(nil), e.rules...) }

// Evaluate runs every rule whose scope is satisfied by the request and
// returns the findings in registry order. It never fails: missing entities
// surface as NOT_FOUND findings.
func (e *Engine) Evaluate(req Request, snap Snapshot) []Finding {
	req = Request{
		PilotID:   strings.TrimSpace(req.PilotID),
		DroneID:   strings.TrimSpace(req.DroneID),
		MissionID: strings.TrimSpace(req.MissionID),
	}
	in := Input{PilotID: req.PilotID, DroneID: req.DroneID, MissionID: req.MissionID, Now: e.now()}
	var resolved Scope
	if req.PilotID != "" {
		if p, ok := snap.Pilot(req.PilotID); ok {
			in.Pilot = &p
			resolved |= NeedPilot
		}
	}
	if req.DroneID != "" {
		if d, ok := snap.Drone(req.DroneID); ok {
			in.Drone = &d
			resolved |= NeedDrone
			if _, parsed := model.ParseDate(d.MaintenanceDue); !parsed && !model.IsNoAssignment(d.MaintenanceDue) {
				e.log.Debugw("maintenance date unparseable, due check skipped", map[string]any{
					"drone_id": d.ID, "maintenance_due": d.MaintenanceDue,
				})
			}
		}
	}
	if req.MissionID != "" {
		if m, ok := snap.Mission(req.MissionID); ok {
			in.Mission = &m
			resolved |= NeedMission
		}
	}

	requested := req.scope()
	var out []Finding
	for _, r := range e.rules {
		scope := r.Scope()
		if !requested.Has(scope) {
			continue
		}
		if r.Kind() != KindNotFound && !resolved.Has(scope) {
			continue
		}
		out = append(out, r.Check(in)...)
	}
	return out
}

// Check evaluates the request and wraps the findings in a Report.
func (e *Engine) Check(req Request, snap Snapshot) Report {
	return NewReport(e.Evaluate(req, snap))
}
