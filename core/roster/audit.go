package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/skyops/core/model"
)

// Problem classifies a consistency issue found by Audit.
type Problem string

const (
	ProblemDivergent      Problem = "divergent_assignment"
	ProblemUnknownMission Problem = "unknown_mission"
	ProblemDuplicateID    Problem = "duplicate_id"
	ProblemInvalidStatus  Problem = "invalid_status"
)

// Issue is one inconsistent row.
type Issue struct {
	Kind    model.Kind `json:"kind"`
	ID      string     `json:"id"`
	Problem Problem    `json:"problem"`
	Detail  string     `json:"detail"`
}

// Audit lists rows that break the roster invariants: status and reference
// disagreeing, references to missions that do not exist, statuses outside
// the enumeration and repeated ids. It never modifies anything.
func Audit(s *Snapshot) []Issue {
	var out []Issue
	for _, p := range s.pilots {
		a, err := p.Assignment()
		out = append(out, s.check(model.KindPilot, p.ID, p.Status, p.CurrentAssignment, a, err)...)
	}
	for _, d := range s.drones {
		a, err := d.Assignment()
		out = append(out, s.check(model.KindDrone, d.ID, d.Status, d.CurrentAssignment, a, err)...)
	}
	for _, r := range s.duplicates {
		out = append(out, Issue{Kind: r.Kind, ID: r.ID, Problem: ProblemDuplicateID,
			Detail: fmt.Sprintf("row %d repeats an earlier id and is ignored", r.Index)})
	}
	return out
}

func (s *Snapshot) check(kind model.Kind, id string, st model.Status, ref string, a model.Assignment, err error) []Issue {
	var out []Issue
	if !kind.Allows(st) {
		out = append(out, Issue{Kind: kind, ID: id, Problem: ProblemInvalidStatus,
			Detail: fmt.Sprintf("status %q is not a %s status", st, kind)})
	}
	if errors.Is(err, model.ErrInconsistentAssignment) {
		out = append(out, Issue{Kind: kind, ID: id, Problem: ProblemDivergent,
			Detail: fmt.Sprintf("status %s with current assignment %q", st, strings.TrimSpace(ref))})
	}
	if mid, ok := a.MissionID(); ok {
		if _, found := s.Mission(mid); !found {
			out = append(out, Issue{Kind: kind, ID: id, Problem: ProblemUnknownMission,
				Detail: fmt.Sprintf("current assignment %s is not a known project", mid)})
		}
	}
	return out
}
