package entity

import (
	"time"

	"github.com/google/uuid"
)

// Event is a calendar event as supplied by an event source.
// ID is optional; sources without stable identifiers leave it empty.
type Event struct {
	ID                         string    `json:"id,omitempty"`
	Subject                    string    `json:"subject"`
	Location                   string    `json:"location,omitempty"`
	Start                      time.Time `json:"start"`
	End                        time.Time `json:"end"`
	IsAllDay                   bool      `json:"isAllDay"`
	ReminderEnabled            bool      `json:"reminderEnabled"`
	ReminderMinutesBeforeStart int       `json:"reminderMinutesBeforeStart"`
}

// eventNamespace scopes derived event identifiers.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:notifier:calendar-event"))

// Identity returns the source identifier when present, otherwise a
// deterministic id derived from subject, start, end and location.
// Distinct events sharing all four fields collide, and editing any of them
// upstream yields a new identity.
func (e Event) Identity() string {
	if e.ID != "" {
		return e.ID
	}
	key := e.Subject + "\x1f" +
		e.Start.UTC().Format(time.RFC3339Nano) + "\x1f" +
		e.End.UTC().Format(time.RFC3339Nano) + "\x1f" +
		e.Location
	return uuid.NewSHA1(eventNamespace, []byte(key)).String()
}

// In returns a copy with start and end expressed in loc.
func (e Event) In(loc *time.Location) Event {
	if loc == nil {
		return e
	}
	e.Start = e.Start.In(loc)
	e.End = e.End.In(loc)
	return e
}
