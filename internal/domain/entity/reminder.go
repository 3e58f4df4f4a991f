package entity

import (
	"time"

	"notifier/internal/domain/constant"
)

// Reminder is a scheduled notification tied to one calendar event occurrence.
type Reminder struct {
	ID                        string                  `json:"id"`
	EventID                   string                  `json:"eventId"`
	EventSubject              string                  `json:"eventSubject"`
	EventLocation             string                  `json:"eventLocation"`
	EventStartTime            time.Time               `json:"eventStartTime"`
	EventEndTime              time.Time               `json:"eventEndTime"`
	IsAllDay                  bool                    `json:"isAllDay"`
	OriginalNotificationTime  time.Time               `json:"originalNotificationTime"`
	ScheduledNotificationTime time.Time               `json:"scheduledNotificationTime"`
	Status                    constant.ReminderStatus `json:"status"`
	SnoozeCount               int                     `json:"snoozeCount"`
	LastSnoozedAt             *time.Time              `json:"lastSnoozedAt,omitempty"`
	CreatedAt                 time.Time               `json:"createdAt"`
}

// Clone returns a deep copy safe to hand outside the store.
func (r *Reminder) Clone() *Reminder {
	if r == nil {
		return nil
	}
	c := *r
	if r.LastSnoozedAt != nil {
		t := *r.LastSnoozedAt
		c.LastSnoozedAt = &t
	}
	return &c
}

// IsDue reports whether the reminder is Pending and its scheduled time has passed.
func (r *Reminder) IsDue(now time.Time) bool {
	return r.Status == constant.StatusPending && !r.ScheduledNotificationTime.After(now)
}
