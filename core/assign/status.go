package assign

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/skyops/core/events"
	"github.com/kilianp07/skyops/core/model"
	"github.com/kilianp07/skyops/core/roster"
)

// StatusResult describes the outcome of SetStatus.
type StatusResult struct {
	Kind     model.Kind       `json:"kind"`
	ID       string           `json:"id"`
	Previous string           `json:"previous"`
	Current  string           `json:"current"`
	Version  int64            `json:"version"`
	Changed  bool             `json:"changed"`
	Value    model.Assignment `json:"-"`
}

func (r StatusResult) String() string {
	name := "Pilot"
	if r.Kind == model.KindDrone {
		name = "Drone"
	}
	if !r.Changed {
		return fmt.Sprintf("%s %s already %s", name, r.ID, r.Current)
	}
	return fmt.Sprintf("%s %s status updated: %s -> %s", name, r.ID, r.Previous, r.Current)
}

// SetStatus writes a new status for a pilot or a drone. The status and the
// assignment reference are always written together: Assigned requires an
// existing mission, every other status clears the reference. Writing the
// value an entity already holds changes nothing.
func (o *Orchestrator) SetStatus(ctx context.Context, kind model.Kind, id, requested, missionID string) (StatusResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return StatusResult{}, ErrMissingID
	}
	target, err := o.policy.Derive(kind, requested, missionID)
	if err != nil {
		return StatusResult{}, err
	}
	release, err := o.locks.Acquire(ctx, o.cfg.LockTimeout, lockKey(kind, id))
	if err != nil {
		return StatusResult{}, err
	}
	defer release()

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		res, err := o.trySetStatus(ctx, kind, id, target)
		if !errors.Is(err, roster.ErrVersionConflict) {
			return res, err
		}
		o.log.Infof("status write %s %s restarted after concurrent change (attempt %d)", kind, id, attempt)
	}
	return StatusResult{}, fmt.Errorf("set %s %s status: %w", kind, id, ErrTooManyRestarts)
}

func (o *Orchestrator) trySetStatus(ctx context.Context, kind model.Kind, id string, target model.Assignment) (StatusResult, error) {
	snap, err := roster.Load(ctx, o.repo)
	if err != nil {
		return StatusResult{}, fmt.Errorf("load roster: %w", err)
	}
	var (
		current model.Assignment
		raw     string
		version int64
	)
	switch kind {
	case model.KindPilot:
		p, ok := snap.Pilot(id)
		if !ok {
			return StatusResult{}, &roster.NotFoundError{Kind: kind, ID: id}
		}
		current, err = p.Assignment()
		raw, version = string(p.Status), p.Version
	case model.KindDrone:
		d, ok := snap.Drone(id)
		if !ok {
			return StatusResult{}, &roster.NotFoundError{Kind: kind, ID: id}
		}
		current, err = d.Assignment()
		raw, version = string(d.Status), d.Version
	}
	consistent := err == nil
	if mission, ok := target.MissionID(); ok {
		if _, found := snap.Mission(mission); !found {
			return StatusResult{}, &roster.NotFoundError{Kind: model.KindMission, ID: mission}
		}
	}

	res := StatusResult{Kind: kind, ID: id, Previous: raw, Current: target.Status().String(), Version: version, Value: target}
	if consistent && current == target {
		row, err := o.repo.FindRow(ctx, kind, id)
		if err != nil {
			return StatusResult{}, fmt.Errorf("set %s %s status: %w", kind, id, err)
		}
		if row.Version != version {
			o.repo.InvalidateCache()
			return StatusResult{}, fmt.Errorf("%s %s at version %d, read %d: %w", kind, id, row.Version, version, roster.ErrVersionConflict)
		}
		return res, nil
	}
	v, err := o.writeAssignment(ctx, kind, id, target, version)
	if err != nil {
		if errors.Is(err, roster.ErrVersionConflict) {
			return StatusResult{}, err
		}
		return StatusResult{}, fmt.Errorf("set %s %s status: %w", kind, id, err)
	}
	res.Version, res.Changed = v, true
	statusChanges.WithLabelValues(string(kind), target.Status().String()).Inc()

	ev := events.AssignmentEvent{Action: events.ActionStatusChanged, Kind: kind, Status: target.Status()}
	if kind == model.KindPilot {
		ev.PilotID = id
	} else {
		ev.DroneID = id
	}
	ev.MissionID, _ = target.MissionID()
	o.emit(ctx, ev)
	o.log.Infof("%s %s status %s -> %s", kind, id, raw, target)
	return res, nil
}
