package roster

import (
	"strings"

	"github.com/kilianp07/skyops/core/model"
)

// PilotFilter selects pilots. Empty fields match everything. Skill matches
// any skill containing it, case-insensitively; Location and Status compare
// case-insensitively.
type PilotFilter struct {
	Skill    string `json:"skills,omitempty"`
	Location string `json:"location,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Match reports whether p passes the filter.
func (f PilotFilter) Match(p model.Pilot) bool {
	return containsFold(p.Skills, f.Skill) &&
		equalFold(p.Location, f.Location) &&
		statusMatch(p.Status, f.Status)
}

// DroneFilter selects drones, following the PilotFilter rules with
// Capability in place of Skill.
type DroneFilter struct {
	Capability string `json:"capabilities,omitempty"`
	Location   string `json:"location,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Match reports whether d passes the filter.
func (f DroneFilter) Match(d model.Drone) bool {
	return containsFold(d.Capabilities, f.Capability) &&
		equalFold(d.Location, f.Location) &&
		statusMatch(d.Status, f.Status)
}

// FilterPilots returns the pilots matching f in input order.
func FilterPilots(ps []model.Pilot, f PilotFilter) []model.Pilot {
	out := make([]model.Pilot, 0, len(ps))
	for _, p := range ps {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// FilterDrones returns the drones matching f in input order.
func FilterDrones(ds []model.Drone, f DroneFilter) []model.Drone {
	out := make([]model.Drone, 0, len(ds))
	for _, d := range ds {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

func containsFold(set model.Set, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, v := range set {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func equalFold(v, want string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(strings.TrimSpace(v), want)
}

func statusMatch(s model.Status, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	return strings.EqualFold(string(s), string(model.NormalizeStatus(want)))
}
