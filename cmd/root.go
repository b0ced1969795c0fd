// Package cmd implements the skyops command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/skyops/app"
	"github.com/kilianp07/skyops/config"
	"github.com/kilianp07/skyops/infra/logger"
)

type options struct {
	cfgPath string
	json    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "skyops",
		Short:         "Drone operations roster and assignment service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "config.yaml", "configuration file")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "output JSON")

	root.AddCommand(
		serveCmd(opts),
		pilotsCmd(opts),
		dronesCmd(opts),
		missionsCmd(opts),
		auditCmd(opts),
		checkCmd(opts),
		assignCmd(opts),
		reconcileCmd(opts),
		statusCmd(opts),
		reassignCmd(opts),
		logCmd(opts),
	)
	return root
}

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

// loadConfig reads the configuration file. A missing file falls back to the
// defaults so one-off commands work without any setup.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withService opens the service for the duration of fn.
func (o *options) withService(ctx context.Context, fn func(ctx context.Context, svc *app.Service) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(ctx, svc)
}
