package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/kilianp07/skyops/app"
	"github.com/kilianp07/skyops/core/roster"
)

func pilotsCmd(opts *options) *cobra.Command {
	var f roster.PilotFilter
	cmd := &cobra.Command{
		Use:   "pilots",
		Short: "List pilots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				snap, err := svc.Orchestrator.Snapshot(ctx)
				if err != nil {
					return err
				}
				pilots := roster.FilterPilots(snap.Pilots(), f)
				if opts.json {
					return printJSON(cmd.OutOrStdout(), nonNil(pilots))
				}
				tw := newTable(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"ID", "Name", "Skills", "Certifications", "Location", "Status", "Assignment"})
				for _, p := range pilots {
					tw.AppendRow(table.Row{p.ID, p.Name, p.Skills, p.Certifications, p.Location, p.Status, p.CurrentAssignment})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Skill, "skill", "", "skill filter")
	cmd.Flags().StringVar(&f.Location, "location", "", "location filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	return cmd
}

func dronesCmd(opts *options) *cobra.Command {
	var f roster.DroneFilter
	cmd := &cobra.Command{
		Use:   "drones",
		Short: "List drones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				snap, err := svc.Orchestrator.Snapshot(ctx)
				if err != nil {
					return err
				}
				drones := roster.FilterDrones(snap.Drones(), f)
				if opts.json {
					return printJSON(cmd.OutOrStdout(), nonNil(drones))
				}
				tw := newTable(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"ID", "Model", "Capabilities", "Location", "Status", "Assignment", "Maintenance Due"})
				for _, d := range drones {
					tw.AppendRow(table.Row{d.ID, d.Model, d.Capabilities, d.Location, d.Status, d.CurrentAssignment, d.MaintenanceDue})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Capability, "capability", "", "capability filter")
	cmd.Flags().StringVar(&f.Location, "location", "", "location filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	return cmd
}

func missionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "missions",
		Short: "List missions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				snap, err := svc.Orchestrator.Snapshot(ctx)
				if err != nil {
					return err
				}
				missions := snap.Missions()
				if opts.json {
					return printJSON(cmd.OutOrStdout(), nonNil(missions))
				}
				tw := newTable(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"ID", "Client", "Location", "Skills", "Certifications", "Priority", "Start", "End"})
				for _, m := range missions {
					tw.AppendRow(table.Row{m.ID, m.Client, m.Location, m.RequiredSkills, m.RequiredCerts, m.Priority, day(m.StartDate), day(m.EndDate)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func auditCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report roster rows that break the status invariants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				snap, err := svc.Orchestrator.Snapshot(ctx)
				if err != nil {
					return err
				}
				issues := roster.Audit(snap)
				if opts.json {
					return printJSON(cmd.OutOrStdout(), nonNil(issues))
				}
				if len(issues) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "roster is consistent")
					return nil
				}
				tw := newTable(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"Kind", "ID", "Problem", "Detail"})
				for _, is := range issues {
					tw.AppendRow(table.Row{is.Kind, is.ID, is.Problem, is.Detail})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	return tw
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
