package dto

import (
	"fmt"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	appErrors "notifier/internal/pkg/errors"
	"strings"
	"time"
)

// ReminderResponse is the DTO for sending reminder information to the client.
type ReminderResponse struct {
	ID                        string     `json:"id"`
	EventID                   string     `json:"eventId"`
	EventSubject              string     `json:"eventSubject"`
	EventLocation             string     `json:"eventLocation"`
	EventStartTime            time.Time  `json:"eventStartTime"`
	EventEndTime              time.Time  `json:"eventEndTime"`
	IsAllDay                  bool       `json:"isAllDay"`
	OriginalNotificationTime  time.Time  `json:"originalNotificationTime"`
	ScheduledNotificationTime time.Time  `json:"scheduledNotificationTime"`
	Status                    string     `json:"status"`
	SnoozeCount               int        `json:"snoozeCount"`
	LastSnoozedAt             *time.Time `json:"lastSnoozedAt,omitempty"`
	CreatedAt                 time.Time  `json:"createdAt"`
}

// ToReminderResponse converts an entity.Reminder to a ReminderResponse DTO.
func ToReminderResponse(r *entity.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:                        r.ID,
		EventID:                   r.EventID,
		EventSubject:              r.EventSubject,
		EventLocation:             r.EventLocation,
		EventStartTime:            r.EventStartTime,
		EventEndTime:              r.EventEndTime,
		IsAllDay:                  r.IsAllDay,
		OriginalNotificationTime:  r.OriginalNotificationTime,
		ScheduledNotificationTime: r.ScheduledNotificationTime,
		Status:                    string(r.Status),
		SnoozeCount:               r.SnoozeCount,
		LastSnoozedAt:             r.LastSnoozedAt,
		CreatedAt:                 r.CreatedAt,
	}
}

// ToReminderResponseList converts a slice of entity.Reminder to a slice of ReminderResponse DTOs.
func ToReminderResponseList(reminders []*entity.Reminder) []ReminderResponse {
	list := make([]ReminderResponse, len(reminders))
	for i, r := range reminders {
		list[i] = ToReminderResponse(r)
	}
	return list
}

// TriggeredReminder is the "show this reminder now" signal for the presentation layer.
type TriggeredReminder struct {
	Reminder         *entity.Reminder  `json:"reminder"`
	AvailableSnoozes []constant.Action `json:"availableSnoozes"`
	PlaySound        bool              `json:"playSound"`
}

// ActionRequest is the DTO for applying a user action to a reminder.
type ActionRequest struct {
	Action string `json:"action"`
}

// ActionResponse reports whether the action found a reminder to apply to.
type ActionResponse struct {
	Applied  bool              `json:"applied"`
	Reminder *ReminderResponse `json:"reminder,omitempty"`
}

// EventRequest is one calendar event posted by an external event source.
// Times are kept as strings so one malformed event does not reject the batch.
type EventRequest struct {
	ID                         string `json:"id"`
	Subject                    string `json:"subject"`
	Location                   string `json:"location"`
	Start                      string `json:"start"`
	End                        string `json:"end"`
	IsAllDay                   bool   `json:"isAllDay"`
	ReminderEnabled            bool   `json:"reminderEnabled"`
	ReminderMinutesBeforeStart int    `json:"reminderMinutesBeforeStart"`
}

// AddEventsRequest is the DTO for feeding events into the engine.
type AddEventsRequest struct {
	Events []EventRequest `json:"events"`
}

// AddEventsResponse summarises an AddEventsRequest.
type AddEventsResponse struct {
	Received int `json:"received"`
	Skipped  int `json:"skipped"`
	Added    int `json:"added"`
}

// ToEvent parses the RFC 3339 timestamps of an EventRequest.
func (r EventRequest) ToEvent() (entity.Event, error) {
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(r.Start))
	if err != nil {
		return entity.Event{}, fmt.Errorf("%w: start %q: %v", appErrors.ErrInvalidEvent, r.Start, err)
	}
	end := start
	if strings.TrimSpace(r.End) != "" {
		end, err = time.Parse(time.RFC3339, strings.TrimSpace(r.End))
		if err != nil {
			return entity.Event{}, fmt.Errorf("%w: end %q: %v", appErrors.ErrInvalidEvent, r.End, err)
		}
	}
	return entity.Event{
		ID:                         r.ID,
		Subject:                    r.Subject,
		Location:                   r.Location,
		Start:                      start,
		End:                        end,
		IsAllDay:                   r.IsAllDay,
		ReminderEnabled:            r.ReminderEnabled,
		ReminderMinutesBeforeStart: r.ReminderMinutesBeforeStart,
	}, nil
}

// RecoverResponse reports how many missed reminders were resurfaced.
type RecoverResponse struct {
	Recovered int `json:"recovered"`
}

// ReloadResponse reports how many reminders a calendar reload created.
type ReloadResponse struct {
	Events int `json:"events"`
	Added  int `json:"added"`
}
