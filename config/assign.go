package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/skyops/core/assign"
	"github.com/kilianp07/skyops/core/conflict"
)

// AssignConfig tunes the assignment orchestrator and the conflict rules.
type AssignConfig struct {
	LockTimeoutSeconds     int `json:"lock_timeout_seconds"`
	MaxAttempts            int `json:"max_attempts"`
	RetryInitialIntervalMs int `json:"retry_initial_interval_ms"`
	RetryMaxElapsedSeconds int `json:"retry_max_elapsed_seconds"`
	// MaintenanceWindowDays is how far ahead MAINTENANCE_DUE warnings fire.
	MaintenanceWindowDays int `json:"maintenance_window_days"`
}

func (c *AssignConfig) SetDefaults() {
	if c.LockTimeoutSeconds == 0 {
		c.LockTimeoutSeconds = 10
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.RetryInitialIntervalMs == 0 {
		c.RetryInitialIntervalMs = 100
	}
	if c.RetryMaxElapsedSeconds == 0 {
		c.RetryMaxElapsedSeconds = 5
	}
	if c.MaintenanceWindowDays == 0 {
		c.MaintenanceWindowDays = conflict.DefaultMaintenanceWindowDays
	}
}

func (c AssignConfig) Validate() error {
	if c.LockTimeoutSeconds < 0 || c.RetryMaxElapsedSeconds < 0 || c.RetryInitialIntervalMs < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if c.MaintenanceWindowDays < 1 {
		return fmt.Errorf("maintenance_window_days must be at least 1")
	}
	return nil
}

// Orchestrator converts the section into the orchestrator's settings.
func (c AssignConfig) Orchestrator() assign.Config {
	return assign.Config{
		LockTimeout:          time.Duration(c.LockTimeoutSeconds) * time.Second,
		MaxAttempts:          c.MaxAttempts,
		RetryInitialInterval: time.Duration(c.RetryInitialIntervalMs) * time.Millisecond,
		RetryMaxElapsed:      time.Duration(c.RetryMaxElapsedSeconds) * time.Second,
	}
}
