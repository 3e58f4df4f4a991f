package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"
	"notifier/internal/pkg/logger"
)

const (
	// Dismissed reminders older than this are dropped.
	dismissedRetention = 7 * 24 * time.Hour
	// Reminders for events that ended longer ago than this are dropped.
	endedEventRetention = 2 * time.Hour
	// Missed reminders are resurfaced only for events that started within this window.
	recoveryWindow = 30 * time.Minute
)

type reminderService struct {
	mu         sync.Mutex
	reminders  map[string]*entity.Reminder
	settings   entity.Settings
	generation uint64

	saveMu        sync.Mutex
	lastAttempted uint64

	repo     repository.ReminderRepository
	observer Observer
	log      logger.Logger
	now      func() time.Time
}

// NewReminderService loads the persisted reminders and returns the store.
// A load error is logged and the store starts with whatever could be read.
func NewReminderService(
	ctx context.Context,
	repo repository.ReminderRepository,
	settings entity.Settings,
	observer Observer,
	log logger.Logger,
) ReminderService {
	return newReminderService(ctx, repo, settings, observer, log, time.Now)
}

func newReminderService(
	ctx context.Context,
	repo repository.ReminderRepository,
	settings entity.Settings,
	observer Observer,
	log logger.Logger,
	now func() time.Time,
) *reminderService {
	if observer == nil {
		observer = NopObserver{}
	}
	s := &reminderService{
		reminders: make(map[string]*entity.Reminder),
		settings:  settings,
		repo:      repo,
		observer:  observer,
		log:       log,
		now:       now,
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		log.Error("Failed to load persisted reminders, continuing with what could be read", err)
	}

	s.mu.Lock()
	duplicates := s.insertLoadedLocked(loaded)
	removed := s.sweepLocked(now())
	gen, snapshot := s.snapshotIfLocked(duplicates > 0 || removed > 0)
	total := len(s.reminders)
	s.mu.Unlock()
	s.persist(ctx, gen, snapshot)

	if duplicates > 0 {
		log.Warn(fmt.Sprintf("Dismissed %d duplicate active reminders found on load", duplicates))
	}
	log.Info(fmt.Sprintf("Reminder store ready with %d reminders (%d expired on load)", total, removed))
	return s
}

// insertLoadedLocked adds persisted reminders, oldest first. A later active
// reminder for an event that already has one is dismissed.
func (s *reminderService) insertLoadedLocked(loaded []*entity.Reminder) int {
	sort.SliceStable(loaded, func(i, j int) bool {
		if !loaded[i].CreatedAt.Equal(loaded[j].CreatedAt) {
			return loaded[i].CreatedAt.Before(loaded[j].CreatedAt)
		}
		return loaded[i].ID < loaded[j].ID
	})
	n := 0
	for _, r := range loaded {
		if r.Status.IsActive() && s.hasActiveLocked(r.EventID) {
			r.Status = constant.StatusDismissed
			n++
		}
		s.reminders[r.ID] = r
	}
	return n
}

// AddEventsForNotification creates reminders for events without an active reminder.
func (s *reminderService) AddEventsForNotification(ctx context.Context, events []entity.Event) int {
	s.mu.Lock()
	now := s.now()
	added := 0
	for _, ev := range events {
		if err := ValidateEvent(ev); err != nil {
			s.log.Warn(fmt.Sprintf("Skipping event: %v", err))
			continue
		}
		for _, r := range CreateReminders(ev, s.settings, now) {
			if s.hasActiveLocked(r.EventID) {
				continue
			}
			s.reminders[r.ID] = r
			added++
			s.log.Debug(fmt.Sprintf("Created reminder %s for %q due at %s", r.ID, r.EventSubject, r.ScheduledNotificationTime.Format(time.RFC3339)))
		}
	}
	removed := s.sweepLocked(now)
	gen, snapshot := s.snapshotIfLocked(added > 0 || removed > 0)
	s.mu.Unlock()

	s.persist(ctx, gen, snapshot)
	s.observer.RemindersCreated(added)
	return added
}

// HandleAction applies one user action to the identified reminder.
func (s *reminderService) HandleAction(ctx context.Context, reminderID string, action constant.Action) (*entity.Reminder, bool) {
	s.mu.Lock()
	r, ok := s.reminders[reminderID]
	if !ok {
		s.mu.Unlock()
		s.log.Debug(fmt.Sprintf("Ignoring %s for unknown reminder %s", action, reminderID))
		return nil, false
	}

	now := s.now()
	effective := ApplyAction(r, action, s.settings, now)
	result := r.Clone()
	removed := s.sweepLocked(now)
	gen, snapshot := s.snapshotIfLocked(effective != "" || removed > 0)
	s.mu.Unlock()

	s.persist(ctx, gen, snapshot)
	if effective != "" {
		s.observer.ActionApplied(effective)
		if effective != action {
			s.log.Info(fmt.Sprintf("Snooze cap reached for reminder %s, dismissed instead", reminderID))
		}
	}
	return result, true
}

// GetPending returns reminders due now.
func (s *reminderService) GetPending(ctx context.Context) []*entity.Reminder {
	return s.PendingDue(s.now())
}

// PendingDue returns Pending reminders scheduled at or before now.
func (s *reminderService) PendingDue(now time.Time) []*entity.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*entity.Reminder
	for _, r := range s.reminders {
		if r.IsDue(now) {
			due = append(due, r.Clone())
		}
	}
	sortBySchedule(due)
	return due
}

// GetAll returns a copy of every reminder ordered by scheduled time.
func (s *reminderService) GetAll(ctx context.Context) []*entity.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*entity.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		all = append(all, r.Clone())
	}
	sortBySchedule(all)
	return all
}

// ClearAll empties the store and persists the empty set.
func (s *reminderService) ClearAll(ctx context.Context) {
	s.mu.Lock()
	n := len(s.reminders)
	s.reminders = make(map[string]*entity.Reminder)
	gen, snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, gen, snapshot)
	s.log.Info(fmt.Sprintf("Cleared %d reminders", n))
}

// SweepAutoDismiss dismisses Displayed reminders left unanswered too long.
func (s *reminderService) SweepAutoDismiss(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	dismissed := s.autoDismissLocked(now)
	removed := s.sweepLocked(now)
	gen, snapshot := s.snapshotIfLocked(dismissed > 0 || removed > 0)
	s.mu.Unlock()

	s.persist(ctx, gen, snapshot)
	return dismissed
}

// MarkDue is the locked section of a scheduler tick.
func (s *reminderService) MarkDue(ctx context.Context, now, notBefore time.Time) ([]*entity.Reminder, int) {
	s.mu.Lock()
	var displayed []*entity.Reminder
	for _, r := range s.reminders {
		if !r.IsDue(now) || ownedByRecovery(r, notBefore) {
			continue
		}
		r.Status = constant.StatusDisplayed
		displayed = append(displayed, r.Clone())
	}
	dismissed := s.autoDismissLocked(now)
	removed := s.sweepLocked(now)
	gen, snapshot := s.snapshotIfLocked(len(displayed) > 0 || dismissed > 0 || removed > 0)
	s.mu.Unlock()

	s.persist(ctx, gen, snapshot)
	sortBySchedule(displayed)
	return displayed, dismissed
}

// MarkMissed is the locked section of the recovery pass.
func (s *reminderService) MarkMissed(ctx context.Context, now time.Time) []*entity.Reminder {
	s.mu.Lock()
	cutoff := now.Add(-recoveryWindow)
	var missed []*entity.Reminder
	for _, r := range s.reminders {
		if !r.IsDue(now) || !r.EventStartTime.After(cutoff) {
			continue
		}
		r.Status = constant.StatusDisplayed
		missed = append(missed, r.Clone())
	}
	removed := s.sweepLocked(now)
	gen, snapshot := s.snapshotIfLocked(len(missed) > 0 || removed > 0)
	s.mu.Unlock()

	s.persist(ctx, gen, snapshot)
	sortBySchedule(missed)
	return missed
}

// UpdateSettings replaces the in-memory settings.
func (s *reminderService) UpdateSettings(settings entity.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Settings returns the in-memory settings.
func (s *reminderService) Settings() entity.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Flush writes the current set and reports the repository error, if any.
func (s *reminderService) Flush(ctx context.Context) error {
	s.mu.Lock()
	gen, snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if gen <= s.lastAttempted {
		return nil
	}
	s.lastAttempted = gen
	if err := s.repo.Save(context.WithoutCancel(ctx), snapshot); err != nil {
		s.observer.PersistFailed()
		return err
	}
	return nil
}

// ownedByRecovery reports whether r was already overdue at notBefore and has
// not been snoozed since.
func ownedByRecovery(r *entity.Reminder, notBefore time.Time) bool {
	if !r.ScheduledNotificationTime.Before(notBefore) {
		return false
	}
	return r.LastSnoozedAt == nil || r.LastSnoozedAt.Before(notBefore)
}

func (s *reminderService) hasActiveLocked(eventID string) bool {
	for _, r := range s.reminders {
		if r.EventID == eventID && r.Status.IsActive() {
			return true
		}
	}
	return false
}

func (s *reminderService) autoDismissLocked(now time.Time) int {
	if !s.settings.AutoDismiss {
		return 0
	}
	threshold := s.settings.AutoDismissAfter()
	n := 0
	for _, r := range s.reminders {
		if r.Status == constant.StatusDisplayed && now.Sub(r.ScheduledNotificationTime) >= threshold {
			r.Status = constant.StatusDismissed
			n++
		}
	}
	if n > 0 {
		s.log.Info(fmt.Sprintf("Auto-dismissed %d reminders", n))
	}
	return n
}

// sweepLocked applies the retention rules and returns the number removed.
func (s *reminderService) sweepLocked(now time.Time) int {
	dismissedBefore := now.Add(-dismissedRetention)
	endedBefore := now.Add(-endedEventRetention)
	n := 0
	for id, r := range s.reminders {
		if (r.Status == constant.StatusDismissed && r.CreatedAt.Before(dismissedBefore)) || r.EventEndTime.Before(endedBefore) {
			delete(s.reminders, id)
			n++
		}
	}
	if n > 0 {
		s.observer.RemindersRemoved(n)
	}
	return n
}

func (s *reminderService) snapshotIfLocked(changed bool) (uint64, []*entity.Reminder) {
	if !changed {
		return 0, nil
	}
	return s.snapshotLocked()
}

func (s *reminderService) snapshotLocked() (uint64, []*entity.Reminder) {
	s.generation++
	snapshot := make([]*entity.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		snapshot = append(snapshot, r.Clone())
	}
	sortBySchedule(snapshot)
	return s.generation, snapshot
}

// persist writes a snapshot unless a newer one was already attempted.
// Failures are logged and the in-memory set stays authoritative.
func (s *reminderService) persist(ctx context.Context, gen uint64, snapshot []*entity.Reminder) {
	if gen == 0 {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if gen <= s.lastAttempted {
		return
	}
	s.lastAttempted = gen
	if err := s.repo.Save(context.WithoutCancel(ctx), snapshot); err != nil {
		s.observer.PersistFailed()
		s.log.Error(fmt.Sprintf("Failed to persist %d reminders", len(snapshot)), err)
	}
}

func sortBySchedule(list []*entity.Reminder) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ScheduledNotificationTime.Equal(list[j].ScheduledNotificationTime) {
			return list[i].ScheduledNotificationTime.Before(list[j].ScheduledNotificationTime)
		}
		return list[i].ID < list[j].ID
	})
}
