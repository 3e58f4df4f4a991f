package repository

import (
	"context"
	"notifier/internal/domain/entity"
)

// SettingsRepository defines the interface for the engine settings store.
type SettingsRepository interface {
	// Get returns the stored settings, seeding defaults when nothing is stored yet.
	Get(ctx context.Context) (entity.Settings, error)
	// Save replaces the stored settings.
	Save(ctx context.Context, settings entity.Settings) error
}
