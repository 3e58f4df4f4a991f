package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	appErrors "notifier/internal/pkg/errors"
)

// ValidateEvent rejects events the factory cannot schedule.
func ValidateEvent(e entity.Event) error {
	if e.Start.IsZero() {
		return fmt.Errorf("%w: %q has no start time", appErrors.ErrInvalidEvent, e.Subject)
	}
	if e.End.IsZero() {
		return fmt.Errorf("%w: %q has no end time", appErrors.ErrInvalidEvent, e.Subject)
	}
	if e.End.Before(e.Start) {
		return fmt.Errorf("%w: %q ends before it starts", appErrors.ErrInvalidEvent, e.Subject)
	}
	if e.ReminderEnabled && e.ReminderMinutesBeforeStart < 0 {
		return fmt.Errorf("%w: %q has a negative reminder lead time", appErrors.ErrInvalidEvent, e.Subject)
	}
	return nil
}

// CreateReminders turns an event into zero or one Pending reminders.
// It never consults existing reminders; de-duplication by event id is the
// store's job.
func CreateReminders(event entity.Event, settings entity.Settings, now time.Time) []*entity.Reminder {
	if ValidateEvent(event) != nil {
		return nil
	}
	if settings.WorkingHoursOnly && !withinWorkingHours(event, settings) {
		return nil
	}

	lead := settings.DefaultLead()
	if event.ReminderEnabled {
		lead = time.Duration(event.ReminderMinutesBeforeStart) * time.Minute
	}
	due := event.Start.Add(-lead)
	if !due.After(now) {
		return nil
	}

	return []*entity.Reminder{{
		ID:                        uuid.NewString(),
		EventID:                   event.Identity(),
		EventSubject:              event.Subject,
		EventLocation:             event.Location,
		EventStartTime:            event.Start,
		EventEndTime:              event.End,
		IsAllDay:                  event.IsAllDay,
		OriginalNotificationTime:  due,
		ScheduledNotificationTime: due,
		Status:                    constant.StatusPending,
		CreatedAt:                 now,
	}}
}

// withinWorkingHours evaluates the start instant in its own location.
// All-day events never qualify.
func withinWorkingHours(event entity.Event, settings entity.Settings) bool {
	if event.IsAllDay {
		return false
	}
	start := event.Start
	if !settings.IsWorkingDay(start.Weekday()) {
		return false
	}
	from, to, err := settings.WorkingWindow()
	if err != nil {
		return false
	}
	// Wall-clock time of day; elapsed time since midnight is off by the
	// offset change on DST transition days.
	tod := time.Duration(start.Hour())*time.Hour +
		time.Duration(start.Minute())*time.Minute +
		time.Duration(start.Second())*time.Second +
		time.Duration(start.Nanosecond())
	return tod >= from && tod <= to
}
