package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"
	"notifier/internal/infrastructure/scheduler"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
)

// Closer is implemented by the Dispatcher.
type Closer interface {
	Close()
}

type coordinatorService struct {
	reminders     ReminderService
	schedulerSvc  SchedulerService
	settingsRepo  repository.SettingsRepository
	source        EventSource
	cronScheduler *scheduler.Scheduler
	dispatcher    Closer
	reloadSpec    string
	loc           *time.Location
	log           logger.Logger
	now           func() time.Time

	mu       sync.Mutex
	reloadID cron.EntryID
}

// CoordinatorConfig carries the collaborators of the coordinator.
// Source may be nil, in which case Reload reports ErrEventSourceMissing and
// no reload job is registered.
type CoordinatorConfig struct {
	Reminders     ReminderService
	Scheduler     SchedulerService
	SettingsRepo  repository.SettingsRepository
	Source        EventSource
	CronScheduler *scheduler.Scheduler
	Dispatcher    Closer
	ReloadSpec    string
	Location      *time.Location
}

// NewCoordinatorService creates the engine facade.
func NewCoordinatorService(cfg CoordinatorConfig, log logger.Logger) CoordinatorService {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &coordinatorService{
		reminders:     cfg.Reminders,
		schedulerSvc:  cfg.Scheduler,
		settingsRepo:  cfg.SettingsRepo,
		source:        cfg.Source,
		cronScheduler: cfg.CronScheduler,
		dispatcher:    cfg.Dispatcher,
		reloadSpec:    cfg.ReloadSpec,
		loc:           loc,
		log:           log,
		now:           time.Now,
	}
}

// Start loads settings, performs the initial reload, runs the recovery pass
// and registers the periodic jobs.
func (s *coordinatorService) Start(ctx context.Context) error {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		s.log.Error("Failed to load settings, using defaults", err)
		settings = entity.DefaultSettings()
	}
	s.reminders.UpdateSettings(settings)

	if s.source != nil {
		if _, _, err := s.Reload(ctx); err != nil {
			s.log.Error("Initial calendar reload failed", err)
		}
		if err := s.registerReload(); err != nil {
			return err
		}
	}

	return s.schedulerSvc.Start(ctx)
}

func (s *coordinatorService) registerReload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reloadID != 0 || s.reloadSpec == "" {
		return nil
	}
	id, err := s.cronScheduler.AddJob(s.reloadSpec, func() {
		if _, _, err := s.Reload(context.Background()); err != nil {
			s.log.Error("Scheduled calendar reload failed", err)
		}
	})
	if err != nil {
		return fmt.Errorf("%w: reload job %q: %v", appErrors.ErrScheduling, s.reloadSpec, err)
	}
	s.reloadID = id
	return nil
}

// Reload pulls today's and tomorrow's events. Tomorrow is included so early
// morning events get their reminder before midnight.
func (s *coordinatorService) Reload(ctx context.Context) (int, int, error) {
	if s.source == nil {
		return 0, 0, appErrors.ErrEventSourceMissing
	}
	today := s.now().In(s.loc)
	var events []entity.Event
	for _, day := range []time.Time{today, today.AddDate(0, 0, 1)} {
		evs, err := s.source.Events(ctx, day)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %v", appErrors.ErrEventSource, err)
		}
		events = append(events, evs...)
	}
	added := s.AddEventsForNotification(ctx, events)
	s.log.Info(fmt.Sprintf("Calendar reload: %d events, %d new reminders", len(events), added))
	return len(events), added, nil
}

// AddEventsForNotification converts events to the configured timezone first
// so working hours are judged in local time.
func (s *coordinatorService) AddEventsForNotification(ctx context.Context, events []entity.Event) int {
	local := make([]entity.Event, len(events))
	for i, ev := range events {
		local[i] = ev.In(s.loc)
	}
	return s.reminders.AddEventsForNotification(ctx, local)
}

func (s *coordinatorService) HandleAction(ctx context.Context, reminderID string, action constant.Action) (*entity.Reminder, bool) {
	return s.reminders.HandleAction(ctx, reminderID, action)
}

func (s *coordinatorService) GetPending(ctx context.Context) []*entity.Reminder {
	return s.reminders.GetPending(ctx)
}

func (s *coordinatorService) GetAll(ctx context.Context) []*entity.Reminder {
	return s.reminders.GetAll(ctx)
}

func (s *coordinatorService) ClearAll(ctx context.Context) {
	s.reminders.ClearAll(ctx)
}

func (s *coordinatorService) RecoverMissed(ctx context.Context) int {
	return s.schedulerSvc.RecoverMissed(ctx)
}

func (s *coordinatorService) Settings(ctx context.Context) entity.Settings {
	return s.reminders.Settings()
}

// UpdateSettings validates, persists and applies settings.
func (s *coordinatorService) UpdateSettings(ctx context.Context, settings entity.Settings) (entity.Settings, error) {
	if err := settings.Validate(); err != nil {
		return entity.Settings{}, err
	}
	settings.UpdatedAt = s.now()
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		s.log.Error("Failed to save settings", err)
		return entity.Settings{}, err
	}
	s.reminders.UpdateSettings(settings)
	s.log.Info(fmt.Sprintf("Settings updated: enabled=%t lead=%dm workingHoursOnly=%t", settings.Enabled, settings.DefaultLeadMinutes, settings.WorkingHoursOnly))
	return settings, nil
}

// Shutdown stops cron, drains the dispatcher and writes the final state.
func (s *coordinatorService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.reloadID != 0 {
		s.cronScheduler.RemoveJob(s.reloadID)
		s.reloadID = 0
	}
	s.mu.Unlock()

	s.schedulerSvc.Stop()
	if s.dispatcher != nil {
		s.dispatcher.Close()
	}
	if err := s.reminders.Flush(ctx); err != nil {
		return fmt.Errorf("%w: final flush: %v", appErrors.ErrPersistence, err)
	}
	s.log.Info("Notification engine stopped.")
	return nil
}
