package repository

import (
	"context"
	"notifier/internal/domain/entity"
)

// ReminderRepository persists the full reminder collection as one document.
type ReminderRepository interface {
	// Load returns the persisted reminders. A missing or unreadable document
	// yields an empty list; the error is informational only.
	Load(ctx context.Context) ([]*entity.Reminder, error)
	// Save replaces the persisted document with reminders.
	Save(ctx context.Context, reminders []*entity.Reminder) error
}
