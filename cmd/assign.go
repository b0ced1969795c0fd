package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/skyops/app"
	"github.com/kilianp07/skyops/core/model"
)

func checkCmd(opts *options) *cobra.Command {
	var pilot, drone, mission string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a pilot, drone and mission combination for conflicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				report, err := svc.Orchestrator.CheckConflicts(ctx, pilot, drone, mission)
				if err != nil {
					return err
				}
				if opts.json {
					return printJSON(cmd.OutOrStdout(), report.View())
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&pilot, "pilot", "", "pilot id")
	cmd.Flags().StringVar(&drone, "drone", "", "drone id")
	cmd.Flags().StringVar(&mission, "project", "", "mission id")
	return cmd
}

func assignCmd(opts *options) *cobra.Command {
	var pilot, drone, mission string
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a pilot and a drone to a mission",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				res, err := svc.Orchestrator.AssignToMission(ctx, pilot, drone, mission)
				if err != nil {
					reportPartial(cmd.ErrOrStderr(), err)
					return err
				}
				if opts.json {
					return printJSON(cmd.OutOrStdout(), res)
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.String())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&pilot, "pilot", "", "pilot id")
	cmd.Flags().StringVar(&drone, "drone", "", "drone id")
	cmd.Flags().StringVar(&mission, "project", "", "mission id")
	_ = cmd.MarkFlagRequired("pilot")
	_ = cmd.MarkFlagRequired("drone")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func statusCmd(opts *options) *cobra.Command {
	var mission string
	cmd := &cobra.Command{
		Use:   "status <pilot|drone> <id> <status>",
		Short: "Set the status of a pilot or drone",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return err
			}
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				res, err := svc.Orchestrator.SetStatus(ctx, kind, args[1], args[2], mission)
				if err != nil {
					return err
				}
				if opts.json {
					return printJSON(cmd.OutOrStdout(), res)
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.String())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mission, "project", "", "mission id, required for Assigned")
	return cmd
}

func reassignCmd(opts *options) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reassign-plan <from> <to>",
		Short: "Plan moving the resources of one mission to an urgent one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				plan, err := svc.Orchestrator.PlanUrgentReassignment(ctx, args[0], args[1], reason)
				if err != nil {
					return err
				}
				if opts.json {
					return printJSON(cmd.OutOrStdout(), plan)
				}
				fmt.Fprintln(cmd.OutOrStdout(), plan.String())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason shown in the plan")
	return cmd
}
