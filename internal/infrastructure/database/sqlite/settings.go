package sqlite

import (
	"context"
	"errors"
	"fmt"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"

	"gorm.io/gorm"
)

// settingsRowID is the primary key of the only settings row.
const settingsRowID = 1

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *gorm.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

// Get retrieves the settings row, seeding the defaults on first use.
func (r *settingsRepository) Get(ctx context.Context) (entity.Settings, error) {
	var settings entity.Settings
	err := r.db.WithContext(ctx).First(&settings, settingsRowID).Error
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	settings = entity.DefaultSettings()
	settings.ID = settingsRowID
	if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
		return entity.Settings{}, fmt.Errorf("failed to seed default settings: %w", err)
	}
	return settings, nil
}

// Save updates the settings row, including zero values.
func (r *settingsRepository) Save(ctx context.Context, settings entity.Settings) error {
	settings.ID = settingsRowID
	if err := r.db.WithContext(ctx).Save(&settings).Error; err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
