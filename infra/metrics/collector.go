package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/skyops/core/events"
	"github.com/kilianp07/skyops/core/logger"
	"github.com/kilianp07/skyops/internal/eventbus"
)

var eventsTotal *prometheus.CounterVec

func newCollectors() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_events_total",
		Help: "Assignment events observed on the bus",
	}, []string{"action"})
}

func init() {
	eventsTotal = newCollectors()
}

// MustRegisterMetrics registers the event collector metrics on the provided
// registry. If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(eventsTotal)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	eventsTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

// StartEventCollector subscribes to the bus, counts every event by action
// and logs it. It stops when the context is canceled or the bus is closed;
// the returned func stops it early and waits for it.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.AssignmentEvent], log logger.Logger) func() {
	if bus == nil {
		return func() {}
	}
	log = logger.OrNop(log)
	return bus.Handle(ctx, func(e events.AssignmentEvent) {
		eventsTotal.WithLabelValues(string(e.Action)).Inc()
		fields := map[string]any{
			"event_id": e.ID,
			"action":   string(e.Action),
		}
		if e.PilotID != "" {
			fields["pilot_id"] = e.PilotID
		}
		if e.DroneID != "" {
			fields["drone_id"] = e.DroneID
		}
		if e.MissionID != "" {
			fields["project_id"] = e.MissionID
		}
		if e.Status != "" {
			fields["status"] = string(e.Status)
		}
		if len(e.Findings) > 0 {
			fields["conflicts"] = len(e.Findings)
		}
		if e.Err != nil {
			fields["error"] = e.Err.Error()
		}
		log.Debugw("assignment event", fields)
	})
}
