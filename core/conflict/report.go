package conflict

import (
	"fmt"
	"strings"
)

// NoConflicts is the summary rendered for an empty finding list.
const NoConflicts = "No conflicts detected"

// CanProceed reports whether an assignment may go ahead: true iff no finding
// is CRITICAL. An empty list can always proceed.
func CanProceed(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity.Blocks() {
			return false
		}
	}
	return true
}

// BySeverity groups findings by severity, keeping their relative order.
func BySeverity(findings []Finding) map[Severity][]Finding {
	out := make(map[Severity][]Finding, len(Severities))
	for _, f := range findings {
		out[f.Severity] = append(out[f.Severity], f)
	}
	return out
}

// Summarize renders findings grouped CRITICAL, then HIGH, then WARNING.
func Summarize(findings []Finding) string {
	if len(findings) == 0 {
		return NoConflicts
	}
	groups := BySeverity(findings)
	var parts []string
	for _, sev := range Severities {
		fs := groups[sev]
		if len(fs) == 0 {
			continue
		}
		var b strings.Builder
		b.WriteString(heading(sev, len(fs)))
		for _, f := range fs {
			b.WriteString("\n   - ")
			b.WriteString(f.Message)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

func heading(sev Severity, n int) string {
	switch sev {
	case SeverityCritical:
		return fmt.Sprintf("%d CRITICAL issue(s):", n)
	case SeverityHigh:
		return fmt.Sprintf("%d HIGH priority warning(s):", n)
	default:
		return fmt.Sprintf("%d WARNING(s):", n)
	}
}

// Report bundles the findings of one evaluation.
type Report struct {
	Findings []Finding `json:"conflicts"`
}

// NewReport wraps findings in a Report.
func NewReport(findings []Finding) Report {
	return Report{Findings: findings}
}

// CanProceed reports whether no finding blocks the assignment.
func (r Report) CanProceed() bool { return CanProceed(r.Findings) }

// Summary renders the grouped text summary.
func (r Report) Summary() string { return Summarize(r.Findings) }

// BySeverity groups the findings by severity.
func (r Report) BySeverity() map[Severity][]Finding { return BySeverity(r.Findings) }

// Blocking returns the CRITICAL findings.
func (r Report) Blocking() []Finding { return r.BySeverity()[SeverityCritical] }

// Advisories returns the HIGH and WARNING findings.
func (r Report) Advisories() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if !f.Severity.Blocks() {
			out = append(out, f)
		}
	}
	return out
}

// Has reports whether any finding is of kind k.
func (r Report) Has(k Kind) bool {
	for _, f := range r.Findings {
		if f.Kind == k {
			return true
		}
	}
	return false
}

// reportView is the JSON shape served by the HTTP layer.
type reportView struct {
	CanProceed bool      `json:"can_proceed"`
	Conflicts  []Finding `json:"conflicts"`
	Summary    string    `json:"summary"`
}

// View returns a serialisable projection of the report.
func (r Report) View() any {
	fs := r.Findings
	if fs == nil {
		fs = []Finding{}
	}
	return reportView{CanProceed: r.CanProceed(), Conflicts: fs, Summary: r.Summary()}
}
