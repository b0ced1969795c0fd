package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/kilianp07/skyops/core/model"
)

// Snapshot is a point-in-time read of the whole roster. It is immutable once
// built and safe for concurrent readers.
type Snapshot struct {
	pilots   []model.Pilot
	drones   []model.Drone
	missions []model.Mission

	pilotIdx   map[string]int
	droneIdx   map[string]int
	missionIdx map[string]int

	duplicates []Row
}

// Load reads pilots, drones and missions from repo.
func Load(ctx context.Context, repo Repository) (*Snapshot, error) {
	pilots, err := repo.ListPilots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pilots: %w", err)
	}
	drones, err := repo.ListDrones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drones: %w", err)
	}
	missions, err := repo.ListMissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	return NewSnapshot(pilots, drones, missions), nil
}

// NewSnapshot indexes the given rows. When an id repeats the first row wins
// and the later ones are reported by Audit.
func NewSnapshot(pilots []model.Pilot, drones []model.Drone, missions []model.Mission) *Snapshot {
	s := &Snapshot{
		pilots:     pilots,
		drones:     drones,
		missions:   missions,
		pilotIdx:   make(map[string]int, len(pilots)),
		droneIdx:   make(map[string]int, len(drones)),
		missionIdx: make(map[string]int, len(missions)),
	}
	for i, p := range pilots {
		s.index(s.pilotIdx, model.KindPilot, p.ID, i)
	}
	for i, d := range drones {
		s.index(s.droneIdx, model.KindDrone, d.ID, i)
	}
	for i, m := range missions {
		s.index(s.missionIdx, model.KindMission, m.ID, i)
	}
	return s
}

func (s *Snapshot) index(idx map[string]int, kind model.Kind, id string, i int) {
	id = strings.TrimSpace(id)
	if _, dup := idx[id]; dup {
		s.duplicates = append(s.duplicates, Row{Kind: kind, ID: id, Index: i})
		return
	}
	idx[id] = i
}

// Pilot returns the pilot with id.
func (s *Snapshot) Pilot(id string) (model.Pilot, bool) {
	i, ok := s.pilotIdx[strings.TrimSpace(id)]
	if !ok {
		return model.Pilot{}, false
	}
	return s.pilots[i], true
}

// Drone returns the drone with id.
func (s *Snapshot) Drone(id string) (model.Drone, bool) {
	i, ok := s.droneIdx[strings.TrimSpace(id)]
	if !ok {
		return model.Drone{}, false
	}
	return s.drones[i], true
}

// Mission returns the mission with project id.
func (s *Snapshot) Mission(id string) (model.Mission, bool) {
	i, ok := s.missionIdx[strings.TrimSpace(id)]
	if !ok {
		return model.Mission{}, false
	}
	return s.missions[i], true
}

// Pilots returns the pilots in store order.
func (s *Snapshot) Pilots() []model.Pilot { return append([]model.Pilot(nil), s.pilots...) }

// Drones returns the drones in store order.
func (s *Snapshot) Drones() []model.Drone { return append([]model.Drone(nil), s.drones...) }

// Missions returns the missions in store order.
func (s *Snapshot) Missions() []model.Mission { return append([]model.Mission(nil), s.missions...) }

// AssignedTo returns the pilots and drones whose current assignment names
// missionID, whatever their status says.
func (s *Snapshot) AssignedTo(missionID string) ([]model.Pilot, []model.Drone) {
	missionID = strings.TrimSpace(missionID)
	if model.IsNoAssignment(missionID) {
		return nil, nil
	}
	var ps []model.Pilot
	for _, p := range s.pilots {
		if strings.TrimSpace(p.CurrentAssignment) == missionID {
			ps = append(ps, p)
		}
	}
	var ds []model.Drone
	for _, d := range s.drones {
		if strings.TrimSpace(d.CurrentAssignment) == missionID {
			ds = append(ds, d)
		}
	}
	return ps, ds
}
