package store

import (
	"context"
	"strings"
	"sync"

	"github.com/kilianp07/skyops/core/model"
	"github.com/kilianp07/skyops/core/roster"
)

// MemoryRepository keeps the roster in process. It is used by tests and by
// the memory store backend.
type MemoryRepository struct {
	mu       sync.RWMutex
	pilots   []model.Pilot
	drones   []model.Drone
	missions []model.Mission
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) ListPilots(context.Context) ([]model.Pilot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Pilot(nil), r.pilots...), nil
}

func (r *MemoryRepository) ListDrones(context.Context) ([]model.Drone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Drone(nil), r.drones...), nil
}

func (r *MemoryRepository) ListMissions(context.Context) ([]model.Mission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Mission(nil), r.missions...), nil
}

func (r *MemoryRepository) FindRow(_ context.Context, kind model.Kind, id string) (roster.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, version := r.locate(kind, id)
	if i < 0 {
		return roster.Row{}, &roster.NotFoundError{Kind: kind, ID: id}
	}
	return roster.Row{Kind: kind, ID: strings.TrimSpace(id), Index: i, Version: version}, nil
}

// locate returns the slice index and version of a row, or -1.
func (r *MemoryRepository) locate(kind model.Kind, id string) (int, int64) {
	id = strings.TrimSpace(id)
	switch kind {
	case model.KindPilot:
		for i, p := range r.pilots {
			if p.ID == id {
				return i, p.Version
			}
		}
	case model.KindDrone:
		for i, d := range r.drones {
			if d.ID == id {
				return i, d.Version
			}
		}
	case model.KindMission:
		for i, m := range r.missions {
			if m.ID == id {
				return i, 0
			}
		}
	}
	return -1, 0
}

func (r *MemoryRepository) WriteField(_ context.Context, kind model.Kind, id, field, value string) error {
	if err := roster.CheckField(kind, field); err != nil {
		return &roster.StoreWriteError{Kind: kind, ID: id, Field: field, Err: err}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i, _ := r.locate(kind, id)
	if i < 0 {
		return &roster.StoreWriteError{Kind: kind, ID: id, Field: field, Err: &roster.NotFoundError{Kind: kind, ID: id}}
	}
	switch kind {
	case model.KindPilot:
		p := &r.pilots[i]
		switch field {
		case roster.FieldStatus:
			p.Status = model.Status(value)
		case roster.FieldCurrentAssignment:
			p.CurrentAssignment = value
		case roster.FieldLocation:
			p.Location = value
		case roster.FieldAvailableFrom:
			p.AvailableFrom = value
		}
		p.Version++
	case model.KindDrone:
		d := &r.drones[i]
		switch field {
		case roster.FieldStatus:
			d.Status = model.Status(value)
		case roster.FieldCurrentAssignment:
			d.CurrentAssignment = value
		case roster.FieldLocation:
			d.Location = value
		case roster.FieldMaintenanceDue:
			d.MaintenanceDue = value
		}
		d.Version++
	}
	return nil
}

func (r *MemoryRepository) WriteAssignment(_ context.Context, kind model.Kind, id string, a model.Assignment, expectedVersion int64) (int64, error) {
	if a.IsZero() {
		return 0, &roster.StoreWriteError{Kind: kind, ID: id, Err: model.ErrMissionRequired}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i, version := r.locate(kind, id)
	if i < 0 || kind == model.KindMission {
		return 0, &roster.StoreWriteError{Kind: kind, ID: id, Err: &roster.NotFoundError{Kind: kind, ID: id}}
	}
	if version != expectedVersion {
		return version, &roster.StoreWriteError{Kind: kind, ID: id, Err: roster.ErrVersionConflict}
	}
	switch kind {
	case model.KindPilot:
		r.pilots[i].Status = a.Status()
		r.pilots[i].CurrentAssignment = a.Reference()
		r.pilots[i].Version++
		return r.pilots[i].Version, nil
	default:
		r.drones[i].Status = a.Status()
		r.drones[i].CurrentAssignment = a.Reference()
		r.drones[i].Version++
		return r.drones[i].Version, nil
	}
}

// InvalidateCache is a no-op; reads always see the latest state.
func (r *MemoryRepository) InvalidateCache() {}

// PutPilot inserts or replaces a pilot. A new row starts at version 1.
func (r *MemoryRepository) PutPilot(_ context.Context, p model.Pilot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = strings.TrimSpace(p.ID)
	if i, version := r.locate(model.KindPilot, p.ID); i >= 0 {
		p.Version = version + 1
		r.pilots[i] = p
		return nil
	}
	p.Version = 1
	r.pilots = append(r.pilots, p)
	return nil
}

// PutDrone inserts or replaces a drone.
func (r *MemoryRepository) PutDrone(_ context.Context, d model.Drone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = strings.TrimSpace(d.ID)
	if i, version := r.locate(model.KindDrone, d.ID); i >= 0 {
		d.Version = version + 1
		r.drones[i] = d
		return nil
	}
	d.Version = 1
	r.drones = append(r.drones, d)
	return nil
}

// PutMission inserts or replaces a mission.
func (r *MemoryRepository) PutMission(_ context.Context, m model.Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = strings.TrimSpace(m.ID)
	if i, _ := r.locate(model.KindMission, m.ID); i >= 0 {
		r.missions[i] = m
		return nil
	}
	r.missions = append(r.missions, m)
	return nil
}

// Close is a no-op.
func (r *MemoryRepository) Close() error { return nil }
