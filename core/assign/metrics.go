package assign

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/skyops/core/conflict"
)

var (
	assignmentsTotal *prometheus.CounterVec
	findingsTotal    *prometheus.CounterVec
	writeRetries     *prometheus.CounterVec
	writeLatency     *prometheus.HistogramVec
	statusChanges    *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, *prometheus.HistogramVec, *prometheus.CounterVec) {
	assigned := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignments_total",
			Help: "Assignment attempts by outcome",
		},
		[]string{"outcome"},
	)
	findings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conflict_findings_total",
			Help: "Conflict findings reported during assignment checks",
		},
		[]string{"type", "severity"},
	)
	retries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_write_retries_total",
			Help: "Transient roster write failures that were retried",
		},
		[]string{"kind"},
	)
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roster_write_latency_seconds",
			Help:    "Latency of roster assignment writes including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	changes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_changes_total",
			Help: "Status updates applied to pilots and drones",
		},
		[]string{"kind", "status"},
	)
	return assigned, findings, retries, lat, changes
}

func init() {
	assignmentsTotal, findingsTotal, writeRetries, writeLatency, statusChanges = newCollectors()
}

// MustRegisterMetrics registers assignment metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(assignmentsTotal, findingsTotal, writeRetries, writeLatency, statusChanges)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	assignmentsTotal, findingsTotal, writeRetries, writeLatency, statusChanges = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

func countFindings(fs []conflict.Finding) {
	for _, f := range fs {
		findingsTotal.WithLabelValues(string(f.Kind), string(f.Severity)).Inc()
	}
}
