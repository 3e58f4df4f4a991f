package service

import (
	"context"
)

// SchedulerService drives the periodic due scan and the startup recovery pass.
type SchedulerService interface {
	// Start runs the recovery pass once and registers the recurring tick.
	Start(ctx context.Context) error
	// Tick performs one scan: due reminders are displayed, stale displayed
	// ones auto-dismissed.
	Tick(ctx context.Context)
	// RecoverMissed resurfaces reminders missed while the engine was down.
	RecoverMissed(ctx context.Context) int
	// Stop halts the cron loop, waiting for a running tick to finish.
	Stop()
}
