package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	cacheInvalidations prometheus.Counter
)

func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter) {
	hits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_cache_hits_total",
			Help: "Roster list reads served from cache",
		},
		[]string{"list"},
	)
	misses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_cache_misses_total",
			Help: "Roster list reads that went to the store",
		},
		[]string{"list"},
	)
	inv := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_cache_invalidations_total",
			Help: "Number of roster cache invalidations",
		},
	)
	return hits, misses, inv
}

func init() {
	cacheHits, cacheMisses, cacheInvalidations = newCollectors()
}

// MustRegisterMetrics registers cache metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(cacheHits, cacheMisses, cacheInvalidations)
}

// ResetMetrics reinitializes the collectors and registers them on reg if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	cacheHits, cacheMisses, cacheInvalidations = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
