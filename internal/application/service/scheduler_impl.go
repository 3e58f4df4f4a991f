package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"notifier/internal/application/dto"
	"notifier/internal/domain/entity"
	"notifier/internal/infrastructure/scheduler"
	"notifier/internal/pkg/logger"
)

type schedulerService struct {
	cronScheduler *scheduler.Scheduler
	reminders     ReminderService
	deliverer     Deliverer
	observer      Observer
	log           logger.Logger

	initialDelay time.Duration
	interval     time.Duration
	startedAt    time.Time
	now          func() time.Time

	mu      sync.Mutex
	entryID cron.EntryID
}

// NewSchedulerService creates the scheduler loop. Reminders scheduled before
// the moment of construction are left to RecoverMissed.
func NewSchedulerService(
	cronScheduler *scheduler.Scheduler,
	reminders ReminderService,
	deliverer Deliverer,
	initialDelay, interval time.Duration,
	observer Observer,
	log logger.Logger,
) SchedulerService {
	return newSchedulerService(cronScheduler, reminders, deliverer, initialDelay, interval, observer, log, time.Now)
}

func newSchedulerService(
	cronScheduler *scheduler.Scheduler,
	reminders ReminderService,
	deliverer Deliverer,
	initialDelay, interval time.Duration,
	observer Observer,
	log logger.Logger,
	now func() time.Time,
) *schedulerService {
	if observer == nil {
		observer = NopObserver{}
	}
	return &schedulerService{
		cronScheduler: cronScheduler,
		reminders:     reminders,
		deliverer:     deliverer,
		observer:      observer,
		log:           log,
		initialDelay:  initialDelay,
		interval:      interval,
		startedAt:     now(),
		now:           now,
	}
}

// Start runs the recovery pass and registers the recurring tick.
// The caller must have started the dispatcher consumer.
func (s *schedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID != 0 {
		return nil
	}

	if n := s.RecoverMissed(ctx); n > 0 {
		s.log.Info(fmt.Sprintf("Recovered %d missed reminders", n))
	}

	s.entryID = s.cronScheduler.AddSchedule(scheduler.NewDelayedEvery(s.initialDelay, s.interval), func() {
		s.Tick(context.Background())
	})
	s.cronScheduler.Start()
	s.log.Info(fmt.Sprintf("Scheduler loop started: first scan in %s, then every %s", s.initialDelay, s.interval))
	return nil
}

// Tick performs one due scan and hands newly displayed reminders to the deliverer.
func (s *schedulerService) Tick(ctx context.Context) {
	settings := s.reminders.Settings()
	if !settings.Enabled {
		s.log.Debug("Notifications disabled, skipping scan")
		return
	}

	now := s.now()
	displayed, dismissed := s.reminders.MarkDue(ctx, now, s.startedAt)
	if dismissed > 0 {
		s.log.Debug(fmt.Sprintf("Tick auto-dismissed %d reminders", dismissed))
	}
	s.deliverAll(displayed, settings, now)
	s.observer.RemindersDisplayed(DisplayPathTick, len(displayed))
}

// RecoverMissed resurfaces missed reminders whose event started recently.
func (s *schedulerService) RecoverMissed(ctx context.Context) int {
	settings := s.reminders.Settings()
	if !settings.Enabled {
		s.log.Info("Notifications disabled, skipping recovery pass")
		return 0
	}

	now := s.now()
	missed := s.reminders.MarkMissed(ctx, now)
	s.deliverAll(missed, settings, now)
	s.observer.RemindersDisplayed(DisplayPathRecovery, len(missed))
	return len(missed)
}

// Stop halts the cron loop.
func (s *schedulerService) Stop() {
	s.mu.Lock()
	if s.entryID != 0 {
		s.cronScheduler.RemoveJob(s.entryID)
		s.entryID = 0
	}
	s.mu.Unlock()
	s.cronScheduler.Stop()
}

func (s *schedulerService) deliverAll(reminders []*entity.Reminder, settings entity.Settings, now time.Time) {
	for _, r := range reminders {
		t := dto.TriggeredReminder{
			Reminder:         r,
			AvailableSnoozes: AvailableSnoozes(r, now),
			PlaySound:        settings.PlaySound,
		}
		if err := s.deliverer.Deliver(t); err != nil {
			s.observer.DeliveryFailed()
			s.log.Error(fmt.Sprintf("Failed to hand off reminder %s", r.ID), err)
		}
	}
}
