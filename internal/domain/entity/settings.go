package entity

import (
	"fmt"
	"time"

	appErrors "notifier/internal/pkg/errors"
)

const timeOfDayLayout = "15:04"

// Settings is the engine configuration. A single row is persisted.
type Settings struct {
	ID                 uint           `gorm:"primaryKey" json:"-"`
	Enabled            bool           `gorm:"column:enabled" json:"enabled"`
	PlaySound          bool           `gorm:"column:play_sound" json:"playSound"`
	DefaultLeadMinutes int            `gorm:"column:default_lead_minutes" json:"defaultLeadMinutes"`
	WorkingHoursOnly   bool           `gorm:"column:working_hours_only" json:"workingHoursOnly"`
	WorkingHoursStart  string         `gorm:"column:working_hours_start" json:"workingHoursStart"`
	WorkingHoursEnd    string         `gorm:"column:working_hours_end" json:"workingHoursEnd"`
	WorkingDays        []time.Weekday `gorm:"column:working_days;serializer:json" json:"workingDays"`
	MaxSnoozesPerEvent int            `gorm:"column:max_snoozes_per_event" json:"maxSnoozesPerEvent"`
	AutoDismiss        bool           `gorm:"column:auto_dismiss" json:"autoDismiss"`
	AutoDismissMinutes int            `gorm:"column:auto_dismiss_minutes" json:"autoDismissMinutes"`
	UpdatedAt          time.Time      `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName specifies the table name for the Settings entity.
func (Settings) TableName() string {
	return "notification_settings"
}

// DefaultSettings returns the settings used before anything was saved.
func DefaultSettings() Settings {
	return Settings{
		Enabled:            true,
		PlaySound:          true,
		DefaultLeadMinutes: 15,
		WorkingHoursOnly:   false,
		WorkingHoursStart:  "09:00",
		WorkingHoursEnd:    "17:00",
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		MaxSnoozesPerEvent: 3,
		AutoDismiss:        false,
		AutoDismissMinutes: 10,
	}
}

// Validate checks ranges and the working-hours window.
func (s Settings) Validate() error {
	if s.DefaultLeadMinutes < 0 {
		return fmt.Errorf("%w: defaultLeadMinutes must not be negative", appErrors.ErrInvalidSettings)
	}
	if s.MaxSnoozesPerEvent < 0 {
		return fmt.Errorf("%w: maxSnoozesPerEvent must not be negative", appErrors.ErrInvalidSettings)
	}
	if s.AutoDismissMinutes < 0 {
		return fmt.Errorf("%w: autoDismissMinutes must not be negative", appErrors.ErrInvalidSettings)
	}
	for _, d := range s.WorkingDays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: invalid weekday %d", appErrors.ErrInvalidSettings, d)
		}
	}
	start, end, err := s.WorkingWindow()
	if err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("%w: workingHoursStart %s is after workingHoursEnd %s",
			appErrors.ErrInvalidSettings, s.WorkingHoursStart, s.WorkingHoursEnd)
	}
	return nil
}

// WorkingWindow returns the working hours as offsets from midnight.
func (s Settings) WorkingWindow() (start, end time.Duration, err error) {
	start, err = parseTimeOfDay(s.WorkingHoursStart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: workingHoursStart: %v", appErrors.ErrInvalidSettings, err)
	}
	end, err = parseTimeOfDay(s.WorkingHoursEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: workingHoursEnd: %v", appErrors.ErrInvalidSettings, err)
	}
	return start, end, nil
}

// IsWorkingDay reports whether d is in WorkingDays.
func (s Settings) IsWorkingDay(d time.Weekday) bool {
	for _, wd := range s.WorkingDays {
		if wd == d {
			return true
		}
	}
	return false
}

// DefaultLead is DefaultLeadMinutes as a duration.
func (s Settings) DefaultLead() time.Duration {
	return time.Duration(s.DefaultLeadMinutes) * time.Minute
}

// AutoDismissAfter is AutoDismissMinutes as a duration.
func (s Settings) AutoDismissAfter() time.Duration {
	return time.Duration(s.AutoDismissMinutes) * time.Minute
}

func parseTimeOfDay(v string) (time.Duration, error) {
	t, err := time.Parse(timeOfDayLayout, v)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
