package conflict

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kilianp07/skyops/core/model"
)

// Scope declares which entities a rule needs.
type Scope uint8

const (
	NeedPilot Scope = 1 << iota
	NeedDrone
	NeedMission

	NeedTriple = NeedPilot | NeedDrone | NeedMission
)

// Has reports whether every entity in o is also in s.
func (s Scope) Has(o Scope) bool { return s&o == o }

// Input is what a rule sees: the requested ids and the entities resolved from
// the snapshot. A nil entity means the id was requested but not found.
type Input struct {
	PilotID   string
	DroneID   string
	MissionID string

	Pilot   *model.Pilot
	Drone   *model.Drone
	Mission *model.Mission

	Now time.Time
}

// Rule is a pure check over an Input. Rules never mutate state and never
// perform I/O.
type Rule interface {
	Kind() Kind
	Scope() Scope
	Check(in Input) []Finding
}

// DefaultRules returns the rule registry in evaluation order: pilot checks,
// drone checks, skill and certification checks, location checks.
func DefaultRules(maintenanceWindowDays int) []Rule {
	if maintenanceWindowDays <= 0 {
		maintenanceWindowDays = DefaultMaintenanceWindowDays
	}
	return []Rule{
		NotFoundRule{Target: model.KindPilot},
		DoubleBookingRule{Target: model.KindPilot},
		UnavailableRule{},
		NotFoundRule{Target: model.KindDrone},
		MaintenanceRule{},
		MaintenanceDueRule{WindowDays: maintenanceWindowDays},
		DoubleBookingRule{Target: model.KindDrone},
		NotFoundRule{Target: model.KindMission},
		SkillRule{},
		CertificationRule{},
		LocationRule{Target: model.KindPilot},
		LocationRule{Target: model.KindDrone},
	}
}

// DefaultMaintenanceWindowDays is how far ahead a due maintenance is reported.
const DefaultMaintenanceWindowDays = 7

// NotFoundRule reports an id that is absent from the snapshot.
type NotFoundRule struct {
	Target model.Kind
}

func (NotFoundRule) Kind() Kind { return KindNotFound }

func (r NotFoundRule) Scope() Scope { return scopeOf(r.Target) }

func (r NotFoundRule) Check(in Input) []Finding {
	switch r.Target {
	case model.KindPilot:
		if in.Pilot == nil {
			return []Finding{critical(KindNotFound, r.Target, in.PilotID, "Pilot %s not found in roster", in.PilotID)}
		}
	case model.KindDrone:
		if in.Drone == nil {
			return []Finding{critical(KindNotFound, r.Target, in.DroneID, "Drone %s not found in fleet", in.DroneID)}
		}
	case model.KindMission:
		if in.Mission == nil {
			return []Finding{critical(KindNotFound, r.Target, in.MissionID, "Project %s not found", in.MissionID)}
		}
	}
	return nil
}

// DoubleBookingRule reports a pilot or drone that is already bound to a
// mission. Either field claiming a booking is enough: a row whose status and
// reference disagree fails closed.
type DoubleBookingRule struct {
	Target model.Kind
}

func (DoubleBookingRule) Kind() Kind { return KindDoubleBooking }

func (r DoubleBookingRule) Scope() Scope { return scopeOf(r.Target) }

func (r DoubleBookingRule) Check(in Input) []Finding {
	var (
		status Status
		ref    string
		label  string
		id     string
	)
	switch r.Target {
	case model.KindPilot:
		status, ref, id = in.Pilot.Status, in.Pilot.CurrentAssignment, in.Pilot.ID
		label = fmt.Sprintf("Pilot %s (%s)", id, in.Pilot.Name)
	case model.KindDrone:
		status, ref, id = in.Drone.Status, in.Drone.CurrentAssignment, in.Drone.ID
		label = fmt.Sprintf("Drone %s", id)
	default:
		return nil
	}
	assigned := status == model.StatusAssigned
	referenced := !model.IsNoAssignment(ref)
	switch {
	case assigned && referenced:
		return []Finding{critical(KindDoubleBooking, r.Target, id, "%s already assigned to %s", label, strings.TrimSpace(ref))}
	case assigned:
		return []Finding{critical(KindDoubleBooking, r.Target, id, "%s already assigned to an unknown mission (status %s without assignment reference)", label, status)}
	case referenced:
		return []Finding{critical(KindDoubleBooking, r.Target, id, "%s already assigned to %s (status %s disagrees with assignment reference)", label, strings.TrimSpace(ref), status)}
	}
	return nil
}

// Status is re-declared locally to keep rule bodies short.
type Status = model.Status

// UnavailableRule reports a pilot on leave.
type UnavailableRule struct{}

func (UnavailableRule) Kind() Kind   { return KindUnavailable }
func (UnavailableRule) Scope() Scope { return NeedPilot }

func (UnavailableRule) Check(in Input) []Finding {
	if in.Pilot.Status != model.StatusOnLeave {
		return nil
	}
	return []Finding{critical(KindUnavailable, model.KindPilot, in.Pilot.ID, "Pilot %s is on leave until %s", in.Pilot.ID, in.Pilot.AvailableFrom)}
}

// MaintenanceRule reports a drone currently in maintenance.
type MaintenanceRule struct{}

func (MaintenanceRule) Kind() Kind   { return KindMaintenanceConflict }
func (MaintenanceRule) Scope() Scope { return NeedDrone }

func (MaintenanceRule) Check(in Input) []Finding {
	if in.Drone.Status != model.StatusMaintenance {
		return nil
	}
	return []Finding{critical(KindMaintenanceConflict, model.KindDrone, in.Drone.ID, "Drone %s is currently in maintenance", in.Drone.ID)}
}

// MaintenanceDueRule warns when a drone's maintenance falls within the next
// WindowDays whole days. Unparseable dates never fire.
type MaintenanceDueRule struct {
	WindowDays int
}

func (MaintenanceDueRule) Kind() Kind   { return KindMaintenanceDue }
func (MaintenanceDueRule) Scope() Scope { return NeedDrone }

func (r MaintenanceDueRule) Check(in Input) []Finding {
	due, ok := model.ParseDate(in.Drone.MaintenanceDue)
	if !ok {
		return nil
	}
	days := DaysUntil(due, in.Now)
	if days < 0 || days > r.WindowDays {
		return nil
	}
	return []Finding{{
		Kind:      KindMaintenanceDue,
		Severity:  SeverityWarning,
		Subject:   model.KindDrone,
		SubjectID: in.Drone.ID,
		Message:   fmt.Sprintf("Drone %s maintenance due on %s (%d days)", in.Drone.ID, due.Format("2006-01-02"), days),
	}}
}

// DaysUntil returns the number of whole days from now to t, rounded down.
func DaysUntil(t, now time.Time) int {
	return int(math.Floor(t.Sub(now).Hours() / 24))
}

// SkillRule reports required mission skills the pilot lacks. It does not
// block the assignment.
type SkillRule struct{}

func (SkillRule) Kind() Kind   { return KindSkillMismatch }
func (SkillRule) Scope() Scope { return NeedTriple }

func (SkillRule) Check(in Input) []Finding {
	missing := in.Pilot.Skills.Missing(in.Mission.RequiredSkills)
	if len(missing) == 0 {
		return nil
	}
	return []Finding{{
		Kind:      KindSkillMismatch,
		Severity:  SeverityHigh,
		Subject:   model.KindPilot,
		SubjectID: in.Pilot.ID,
		Message:   fmt.Sprintf("Pilot %s lacks required skills: %s", in.Pilot.ID, strings.Join(missing, ", ")),
	}}
}

// CertificationRule reports required certifications the pilot lacks.
type CertificationRule struct{}

func (CertificationRule) Kind() Kind   { return KindCertificationMismatch }
func (CertificationRule) Scope() Scope { return NeedTriple }

func (CertificationRule) Check(in Input) []Finding {
	missing := in.Pilot.Certifications.Missing(in.Mission.RequiredCerts)
	if len(missing) == 0 {
		return nil
	}
	return []Finding{critical(KindCertificationMismatch, model.KindPilot, in.Pilot.ID,
		"Pilot %s lacks required certifications: %s", in.Pilot.ID, strings.Join(missing, ", "))}
}

// LocationRule warns when the pilot or drone is not where the mission is.
type LocationRule struct {
	Target model.Kind
}

func (LocationRule) Kind() Kind   { return KindLocationMismatch }
func (LocationRule) Scope() Scope { return NeedTriple }

func (r LocationRule) Check(in Input) []Finding {
	where := strings.TrimSpace(in.Mission.Location)
	switch r.Target {
	case model.KindPilot:
		at := strings.TrimSpace(in.Pilot.Location)
		if at != where {
			return []Finding{warning(KindLocationMismatch, model.KindPilot, in.Pilot.ID,
				"Pilot in %s, mission in %s - requires travel coordination", at, where)}
		}
	case model.KindDrone:
		at := strings.TrimSpace(in.Drone.Location)
		if at != where {
			return []Finding{warning(KindLocationMismatch, model.KindDrone, in.Drone.ID,
				"Drone in %s, mission in %s - requires transport", at, where)}
		}
	}
	return nil
}

func scopeOf(k model.Kind) Scope {
	switch k {
	case model.KindPilot:
		return NeedPilot
	case model.KindDrone:
		return NeedDrone
	case model.KindMission:
		return NeedMission
	default:
		return NeedTriple
	}
}

func critical(kind Kind, subject model.Kind, id, format string, args ...any) Finding {
	return Finding{Kind: kind, Severity: SeverityCritical, Subject: subject, SubjectID: id, Message: fmt.Sprintf(format, args...)}
}

func warning(kind Kind, subject model.Kind, id, format string, args ...any) Finding {
	return Finding{Kind: kind, Severity: SeverityWarning, Subject: subject, SubjectID: id, Message: fmt.Sprintf(format, args...)}
}
