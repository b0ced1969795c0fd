package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/skyops/app"
	"github.com/kilianp07/skyops/core/assign"
)

func reconcileCmd(opts *options) *cobra.Command {
	var mode, partial, file string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair a partial assignment reported by assign",
		Long: "Repair a partial assignment. --partial (or --file) takes the JSON printed by a failed\n" +
			"assign; --mode retry writes the side that failed, --mode rollback restores the side that was written.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := assign.ParseReconcileMode(mode)
			if err != nil {
				return err
			}
			perr, err := readPartial(partial, file)
			if err != nil {
				return err
			}
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *app.Service) error {
				if err := svc.Orchestrator.Reconcile(ctx, perr, m); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reconciled assignment to %s (%s)\n", perr.MissionID, m)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "retry or rollback")
	cmd.Flags().StringVar(&partial, "partial", "", "partial assignment JSON")
	cmd.Flags().StringVar(&file, "file", "", "file holding the partial assignment JSON")
	_ = cmd.MarkFlagRequired("mode")
	cmd.MarkFlagsMutuallyExclusive("partial", "file")
	return cmd
}

func readPartial(inline, file string) (*assign.PartialAssignmentError, error) {
	var data []byte
	switch {
	case inline != "":
		data = []byte(inline)
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		if data, err = io.ReadAll(f); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("one of --partial or --file is required")
	}
	var perr assign.PartialAssignmentError
	if err := json.Unmarshal(data, &perr); err != nil {
		return nil, fmt.Errorf("decode partial assignment: %w", err)
	}
	return &perr, nil
}

// reportPartial prints the reconcile input for a partial assignment so the
// operator can repair it.
func reportPartial(w io.Writer, err error) {
	var perr *assign.PartialAssignmentError
	if !errors.As(err, &perr) {
		return
	}
	b, merr := json.Marshal(perr)
	if merr != nil {
		return
	}
	fmt.Fprintf(w, "Partial assignment left in the roster. Repair it with:\n  skyops reconcile --mode retry --partial '%s'\n", b)
}
