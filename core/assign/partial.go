package assign

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/skyops/core/model"
)

type entityWriteJSON struct {
	Kind           model.Kind   `json:"kind"`
	ID             string       `json:"id"`
	Version        int64        `json:"version"`
	PreviousStatus model.Status `json:"previous_status"`
	TargetStatus   model.Status `json:"target_status"`
	TargetMission  string       `json:"target_project_id,omitempty"`
}

func (w EntityWrite) MarshalJSON() ([]byte, error) {
	mission, _ := w.Target.MissionID()
	return json.Marshal(entityWriteJSON{
		Kind:           w.Kind,
		ID:             w.ID,
		Version:        w.Version,
		PreviousStatus: w.Previous.Status(),
		TargetStatus:   w.Target.Status(),
		TargetMission:  mission,
	})
}

// UnmarshalJSON rebuilds both assignment values and rejects statuses the
// kind does not allow.
func (w *EntityWrite) UnmarshalJSON(b []byte) error {
	var raw entityWriteJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	kind, err := model.ParseKind(string(raw.Kind))
	if err != nil {
		return err
	}
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return ErrMissingID
	}
	prev, err := assignmentFor(kind, raw.PreviousStatus, "")
	if err != nil {
		return fmt.Errorf("previous_status: %w", err)
	}
	target, err := assignmentFor(kind, raw.TargetStatus, raw.TargetMission)
	if err != nil {
		return fmt.Errorf("target_status: %w", err)
	}
	*w = EntityWrite{Kind: kind, ID: id, Previous: prev, Target: target, Version: raw.Version}
	return nil
}

func assignmentFor(kind model.Kind, s model.Status, mission string) (model.Assignment, error) {
	s = model.NormalizeStatus(string(s))
	if !kind.Allows(s) {
		return model.Assignment{}, fmt.Errorf("%s status %q not allowed", kind, s)
	}
	if s == model.StatusAssigned {
		return model.AssignTo(mission)
	}
	return model.Release(s)
}

type partialJSON struct {
	MissionID     string      `json:"project_id"`
	Written       EntityWrite `json:"written"`
	Failed        EntityWrite `json:"failed"`
	Error         string      `json:"error,omitempty"`
	RollbackError string      `json:"rollback_error,omitempty"`
}

// MarshalJSON renders the half assignment with everything Reconcile needs.
func (e *PartialAssignmentError) MarshalJSON() ([]byte, error) {
	out := partialJSON{MissionID: e.MissionID, Written: e.Written, Failed: e.Failed}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	if e.RollbackErr != nil {
		out.RollbackError = e.RollbackErr.Error()
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a partial assignment reported earlier. The two sides
// must be one pilot and one drone.
func (e *PartialAssignmentError) UnmarshalJSON(b []byte) error {
	var raw partialJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Written.Kind == raw.Failed.Kind {
		return fmt.Errorf("written and failed sides are both %s", raw.Written.Kind)
	}
	mission := strings.TrimSpace(raw.MissionID)
	if mission == "" {
		mission, _ = raw.Written.Target.MissionID()
	}
	if mission == "" {
		return ErrMissingID
	}
	*e = PartialAssignmentError{MissionID: mission, Written: raw.Written, Failed: raw.Failed}
	if raw.Error != "" {
		e.Err = errors.New(raw.Error)
	}
	if raw.RollbackError != "" {
		e.RollbackErr = errors.New(raw.RollbackError)
	}
	return nil
}
