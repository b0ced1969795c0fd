package assign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/skyops/core/events"
	"github.com/kilianp07/skyops/core/model"
	"github.com/kilianp07/skyops/core/roster"
)

// DefaultReassignReason is used when PlanUrgentReassignment gets no reason.
const DefaultReassignReason = "Urgent priority"

// PlanResource is one pilot or drone listed in a reassignment plan.
type PlanResource struct {
	Kind  model.Kind `json:"kind"`
	ID    string     `json:"id"`
	Label string     `json:"label"`
}

// Plan proposes moving every resource bound to From over to To. Building a
// plan writes nothing.
type Plan struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Priority  string         `json:"priority"`
	Reason    string         `json:"reason"`
	Pilots    []PlanResource `json:"pilots"`
	Drones    []PlanResource `json:"drones"`
	Impact    []string       `json:"impact"`
	Note      string         `json:"note"`
}

func (p Plan) String() string {
	var b strings.Builder
	b.WriteString("URGENT REASSIGNMENT PLAN\n\n")
	fmt.Fprintf(&b, "From: %s\n", p.From)
	fmt.Fprintf(&b, "To: %s (Priority: %s)\n", p.To, p.Priority)
	fmt.Fprintf(&b, "Reason: %s\n\n", p.Reason)
	b.WriteString("Resources to reassign:\n")
	for _, r := range append(append([]PlanResource(nil), p.Pilots...), p.Drones...) {
		fmt.Fprintf(&b, "• %s\n", r.Label)
	}
	b.WriteString("\nImpact:\n")
	for _, line := range p.Impact {
		fmt.Fprintf(&b, "• %s\n", line)
	}
	b.WriteString("\nNote: ")
	b.WriteString(p.Note)
	return b.String()
}

// PlanUrgentReassignment lists the resources currently referencing from and
// describes moving them to the mission to. It fails with ErrNothingAssigned
// when from holds no resources and with *roster.NotFoundError when to is
// unknown.
func (o *Orchestrator) PlanUrgentReassignment(ctx context.Context, from, to, reason string) (Plan, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return Plan{}, ErrMissingID
	}
	if strings.TrimSpace(reason) == "" {
		reason = DefaultReassignReason
	}
	snap, err := roster.Load(ctx, o.repo)
	if err != nil {
		return Plan{}, fmt.Errorf("load roster: %w", err)
	}
	pilots, drones := snap.AssignedTo(from)
	if len(pilots) == 0 && len(drones) == 0 {
		return Plan{}, fmt.Errorf("%w to %s", ErrNothingAssigned, from)
	}
	target, ok := snap.Mission(to)
	if !ok {
		return Plan{}, &roster.NotFoundError{Kind: model.KindMission, ID: to}
	}

	plan := Plan{
		ID:        uuid.NewString(),
		CreatedAt: o.now(),
		From:      from,
		To:        to,
		Priority:  target.Priority,
		Reason:    reason,
		Impact: []string{
			fmt.Sprintf("%s will need replacement resources", from),
			fmt.Sprintf("%s can start immediately after reassignment", to),
		},
		Note: fmt.Sprintf("Release each resource with SetStatus (Available), then call AssignToMission for %s to complete the reassignment.", to),
	}
	for _, p := range pilots {
		plan.Pilots = append(plan.Pilots, PlanResource{Kind: model.KindPilot, ID: p.ID, Label: fmt.Sprintf("Pilot %s (%s)", p.ID, p.Name)})
	}
	for _, d := range drones {
		plan.Drones = append(plan.Drones, PlanResource{Kind: model.KindDrone, ID: d.ID, Label: fmt.Sprintf("Drone %s (%s)", d.ID, d.Model)})
	}

	ev := events.AssignmentEvent{Action: events.ActionPlanned, MissionID: to}
	if len(pilots) > 0 {
		ev.PilotID = pilots[0].ID
	}
	if len(drones) > 0 {
		ev.DroneID = drones[0].ID
	}
	o.emit(ctx, ev)
	o.log.Infof("reassignment plan %s: %d pilot(s) and %d drone(s) from %s to %s", plan.ID, len(pilots), len(drones), from, to)
	return plan, nil
}
