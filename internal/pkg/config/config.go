package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the process configuration read from the environment.
type Config struct {
	Port                  int
	ReminderFile          string
	SettingsDBURL         string
	Timezone              *time.Location
	ICSPath               string
	CalendarReloadSpec    string
	SchedulerInterval     time.Duration
	SchedulerInitialDelay time.Duration
	DispatchBuffer        int
	LogLevel              string

	LineChannelSecret string
	LineChannelToken  string
	LineTargetUserID  string
}

// Load reads the configuration from environment variables, applying defaults
// for everything that is optional.
func Load() (*Config, error) {
	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}

	tzName := stringEnv("TIMEZONE", "Local")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	interval, err := durationEnv("SCHEDULER_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	if interval < time.Second {
		return nil, fmt.Errorf("SCHEDULER_INTERVAL must be at least 1s, got %s", interval)
	}

	initialDelay, err := durationEnv("SCHEDULER_INITIAL_DELAY", 5*time.Second)
	if err != nil {
		return nil, err
	}

	buffer, err := intEnv("DISPATCH_BUFFER", 64)
	if err != nil {
		return nil, err
	}
	if buffer <= 0 {
		return nil, fmt.Errorf("DISPATCH_BUFFER must be positive, got %d", buffer)
	}

	return &Config{
		Port:                  port,
		ReminderFile:          stringEnv("REMINDER_FILE", "./data/reminders.json"),
		SettingsDBURL:         stringEnv("SETTINGS_DB_URL", "./data/settings.db"),
		Timezone:              tz,
		ICSPath:               os.Getenv("ICS_PATH"),
		CalendarReloadSpec:    stringEnv("CALENDAR_RELOAD_SPEC", "@every 5m"),
		SchedulerInterval:     interval,
		SchedulerInitialDelay: initialDelay,
		DispatchBuffer:        buffer,
		LogLevel:              stringEnv("LOG_LEVEL", "info"),
		LineChannelSecret:     os.Getenv("CHANNEL_SECRET"),
		LineChannelToken:      os.Getenv("CHANNEL_ACCESS_TOKEN"),
		LineTargetUserID:      os.Getenv("LINE_TARGET_USER_ID"),
	}, nil
}

// LineEnabled reports whether LINE delivery has everything it needs.
func (c *Config) LineEnabled() bool {
	return c.LineChannelSecret != "" && c.LineChannelToken != "" && c.LineTargetUserID != ""
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
