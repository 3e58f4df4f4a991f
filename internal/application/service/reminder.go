package service

import (
	"context"
	"time"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
)

// ReminderService is the single owner of the live reminder set.
// Every returned reminder is a copy.
type ReminderService interface {
	// AddEventsForNotification creates reminders for events that have no
	// active reminder yet. It returns the number created.
	AddEventsForNotification(ctx context.Context, events []entity.Event) int
	// HandleAction applies a user action. The bool is false when no reminder
	// has the given id.
	HandleAction(ctx context.Context, reminderID string, action constant.Action) (*entity.Reminder, bool)
	// GetPending returns the reminders due at the current time.
	GetPending(ctx context.Context) []*entity.Reminder
	// PendingDue returns Pending reminders scheduled at or before now, earliest first.
	PendingDue(now time.Time) []*entity.Reminder
	// GetAll returns every reminder ordered by scheduled time.
	GetAll(ctx context.Context) []*entity.Reminder
	// ClearAll removes every reminder.
	ClearAll(ctx context.Context)
	// SweepAutoDismiss dismisses Displayed reminders past the auto-dismiss threshold.
	SweepAutoDismiss(ctx context.Context, now time.Time) int
	// MarkDue moves due Pending reminders to Displayed, except those already
	// overdue at notBefore and not snoozed since, applies auto-dismiss and
	// retention, and returns the newly Displayed reminders.
	MarkDue(ctx context.Context, now, notBefore time.Time) (displayed []*entity.Reminder, dismissed int)
	// MarkMissed moves missed Pending reminders whose event started less than
	// the recovery window ago to Displayed and returns them.
	MarkMissed(ctx context.Context, now time.Time) []*entity.Reminder
	// UpdateSettings replaces the settings used by subsequent operations.
	UpdateSettings(settings entity.Settings)
	// Settings returns the current settings.
	Settings() entity.Settings
	// Flush writes the current set synchronously.
	Flush(ctx context.Context) error
}
