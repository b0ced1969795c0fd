package conflict

import "github.com/kilianp07/skyops/core/model"

// Kind classifies a conflict finding.
type Kind string

const (
	KindNotFound              Kind = "NOT_FOUND"
	KindDoubleBooking         Kind = "DOUBLE_BOOKING"
	KindUnavailable           Kind = "UNAVAILABLE"
	KindMaintenanceConflict   Kind = "MAINTENANCE_CONFLICT"
	KindMaintenanceDue        Kind = "MAINTENANCE_DUE"
	KindSkillMismatch         Kind = "SKILL_MISMATCH"
	KindCertificationMismatch Kind = "CERTIFICATION_MISMATCH"
	KindLocationMismatch      Kind = "LOCATION_MISMATCH"
)

// Severity grades a finding. Only Critical blocks an assignment.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityWarning  Severity = "WARNING"
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityWarning}

// Rank orders severities; lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityWarning:
		return 2
	default:
		return 3
	}
}

// Blocks reports whether a finding of this severity prevents an assignment.
func (s Severity) Blocks() bool { return s == SeverityCritical }

// Finding is a single conflict detected for an assignment intent.
type Finding struct {
	Kind      Kind       `json:"type"`
	Severity  Severity   `json:"severity"`
	Message   string     `json:"message"`
	Subject   model.Kind `json:"subject,omitempty"`
	SubjectID string     `json:"subject_id,omitempty"`
}
