package model

import (
	"sort"
	"strings"
	"time"
)

// Set is an ordered collection of distinct, trimmed, non-empty strings.
type Set []string

// NewSet builds a Set from the given values, dropping blanks and duplicates
// while keeping first-seen order.
func NewSet(values ...string) Set {
	out := make(Set, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ParseSet splits a comma-delimited cell into a Set.
func ParseSet(cell string) Set {
	return NewSet(strings.Split(cell, ",")...)
}

// Has reports whether v is a member of the set (exact match).
func (s Set) Has(v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Missing returns the members of required that are absent from s, sorted.
func (s Set) Missing(required Set) []string {
	var out []string
	for _, r := range required {
		if !s.Has(r) {
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// String joins the set for storage or display.
func (s Set) String() string { return strings.Join(s, ", ") }

// Pilot is a roster row for a drone pilot.
type Pilot struct {
	ID                string `json:"pilot_id" yaml:"pilot_id"`
	Name              string `json:"name" yaml:"name"`
	Skills            Set    `json:"skills" yaml:"skills"`
	Certifications    Set    `json:"certifications" yaml:"certifications"`
	Location          string `json:"location" yaml:"location"`
	Status            Status `json:"status" yaml:"status"`
	CurrentAssignment string `json:"current_assignment" yaml:"current_assignment"`
	// AvailableFrom is only meaningful while the pilot is On Leave.
	AvailableFrom string `json:"available_from,omitempty" yaml:"available_from"`
	Version       int64  `json:"version" yaml:"-"`
}

// Assignment returns the paired status/reference value of the pilot.
func (p Pilot) Assignment() (Assignment, error) {
	return deriveAssignment(p.Status, p.CurrentAssignment)
}

// Drone is a fleet row for a single aircraft.
type Drone struct {
	ID                string `json:"drone_id" yaml:"drone_id"`
	Model             string `json:"model" yaml:"model"`
	Capabilities      Set    `json:"capabilities" yaml:"capabilities"`
	Status            Status `json:"status" yaml:"status"`
	Location          string `json:"location" yaml:"location"`
	CurrentAssignment string `json:"current_assignment" yaml:"current_assignment"`
	MaintenanceDue    string `json:"maintenance_due,omitempty" yaml:"maintenance_due"`
	Version           int64  `json:"version" yaml:"-"`
}

// Assignment returns the paired status/reference value of the drone.
func (d Drone) Assignment() (Assignment, error) {
	return deriveAssignment(d.Status, d.CurrentAssignment)
}

// Mission is a client project that needs one pilot and one drone.
type Mission struct {
	ID             string    `json:"project_id" yaml:"project_id"`
	Client         string    `json:"client" yaml:"client"`
	Location       string    `json:"location" yaml:"location"`
	RequiredSkills Set       `json:"required_skills" yaml:"required_skills"`
	RequiredCerts  Set       `json:"required_certs" yaml:"required_certs"`
	Priority       string    `json:"priority" yaml:"priority"`
	StartDate      time.Time `json:"start_date,omitzero" yaml:"start_date"`
	EndDate        time.Time `json:"end_date,omitzero" yaml:"end_date"`
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// ParseDate parses a roster date cell. The second result is false for empty
// or unrecognised values.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == NoAssignment {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
