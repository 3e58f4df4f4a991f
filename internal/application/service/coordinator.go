package service

import (
	"context"
	"time"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
)

// EventSource supplies the calendar events of one day.
type EventSource interface {
	Events(ctx context.Context, date time.Time) ([]entity.Event, error)
}

// CoordinatorService is the inbound API of the engine used by handlers and main.
type CoordinatorService interface {
	// Start loads settings, pulls events once, runs recovery and starts the
	// background jobs.
	Start(ctx context.Context) error
	// Reload pulls today's and tomorrow's events from the event source.
	Reload(ctx context.Context) (events int, added int, err error)
	// AddEventsForNotification normalises events to the configured timezone
	// and hands them to the store.
	AddEventsForNotification(ctx context.Context, events []entity.Event) int
	HandleAction(ctx context.Context, reminderID string, action constant.Action) (*entity.Reminder, bool)
	GetPending(ctx context.Context) []*entity.Reminder
	GetAll(ctx context.Context) []*entity.Reminder
	ClearAll(ctx context.Context)
	RecoverMissed(ctx context.Context) int
	Settings(ctx context.Context) entity.Settings
	// UpdateSettings validates and persists settings before applying them.
	UpdateSettings(ctx context.Context, settings entity.Settings) (entity.Settings, error)
	// Shutdown stops the jobs, drains the dispatcher and flushes the store.
	Shutdown(ctx context.Context) error
}
