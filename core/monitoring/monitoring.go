// Package monitoring forwards failures that need an operator, such as a
// partial assignment, to an error reporting backend.
package monitoring

import "time"

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation. A nil monitor restores the
// no-op one.
func Init(m Monitor) {
	if m == nil {
		m = NopMonitor{}
	}
	current = m
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	current.CaptureException(err, tags)
}

// AssignmentTags labels a report with the entities involved. Blank ids are
// left out.
func AssignmentTags(missionID, pilotID, droneID string) map[string]string {
	tags := make(map[string]string, 3)
	for k, v := range map[string]string{"project_id": missionID, "pilot_id": pilotID, "drone_id": droneID} {
		if v != "" {
			tags[k] = v
		}
	}
	return tags
}

// Recover captures panics in goroutines.
func Recover() {
	current.Recover()
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	current.Flush(d)
}
