package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/kilianp07/skyops/app"
	"github.com/kilianp07/skyops/core/audit"
	"github.com/kilianp07/skyops/core/events"
	"github.com/kilianp07/skyops/pkg/export"
)

func logCmd(opts *options) *cobra.Command {
	var (
		q            audit.Query
		since, until string
		action       string
		format       string
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the assignment decision log",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if q.Start, err = parseTime(since); err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			if q.End, err = parseTime(until); err != nil {
				return fmt.Errorf("--until: %w", err)
			}
			q.Action = events.Action(action)
			switch format {
			case "", "table", "json", "csv":
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				recs, err := svc.Audit.Query(ctx, q)
				if err != nil {
					return err
				}
				switch {
				case format == "csv":
					return export.WriteCSV(cmd.OutOrStdout(), recs)
				case format == "json" || opts.json:
					return export.WriteJSON(cmd.OutOrStdout(), recs)
				}
				tw := newTable(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"Time", "Action", "Pilot", "Drone", "Project", "Status", "Error"})
				for _, r := range recs {
					tw.AppendRow(table.Row{r.Timestamp.Format(time.RFC3339), r.Action, r.PilotID, r.DroneID, r.MissionID, r.Status, r.Error})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "RFC3339 lower bound")
	cmd.Flags().StringVar(&until, "until", "", "RFC3339 upper bound")
	cmd.Flags().StringVar(&q.EntityID, "entity", "", "pilot or drone id")
	cmd.Flags().StringVar(&q.MissionID, "project", "", "mission id")
	cmd.Flags().StringVar(&action, "action", "", "action filter")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum number of records")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json or csv")
	return cmd
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
