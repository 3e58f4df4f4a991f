package ical

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
)

var testCalendar = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//notifier//test//EN",
	"BEGIN:VEVENT",
	"UID:review-1",
	"DTSTAMP:20260301T000000Z",
	"SUMMARY:Design review",
	"LOCATION:Room 4",
	"DTSTART:20260302T100000Z",
	"DTEND:20260302T110000Z",
	"BEGIN:VALARM",
	"ACTION:DISPLAY",
	"DESCRIPTION:Reminder",
	"TRIGGER:-PT10M",
	"END:VALARM",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:holiday-1",
	"DTSTAMP:20260301T000000Z",
	"SUMMARY:Company holiday",
	"DTSTART;VALUE=DATE:20260302",
	"DTEND;VALUE=DATE:20260303",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:standup",
	"DTSTAMP:20260301T000000Z",
	"SUMMARY:Standup",
	"DTSTART:20260223T090000Z",
	"DTEND:20260223T091500Z",
	"RRULE:FREQ=DAILY;COUNT=30",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:cancelled-1",
	"DTSTAMP:20260301T000000Z",
	"SUMMARY:Cancelled sync",
	"STATUS:CANCELLED",
	"DTSTART:20260302T140000Z",
	"DTEND:20260302T150000Z",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:tomorrow-1",
	"DTSTAMP:20260301T000000Z",
	"SUMMARY:Tomorrow",
	"DTSTART:20260303T100000Z",
	"DTEND:20260303T110000Z",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

func writeCalendar(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calendar.ics")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_EventsForDay(t *testing.T) {
	src := NewFileSource(writeCalendar(t, testCalendar), time.UTC, logger.Nop())

	events, err := src.Events(context.Background(), time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	bySubject := map[string]int{}
	for i, ev := range events {
		bySubject[ev.Subject] = i
	}
	require.Len(t, events, 3)
	assert.NotContains(t, bySubject, "Cancelled sync")
	assert.NotContains(t, bySubject, "Tomorrow")

	review := events[bySubject["Design review"]]
	assert.Equal(t, "review-1", review.ID)
	assert.Equal(t, "Room 4", review.Location)
	assert.True(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC).Equal(review.Start))
	assert.Equal(t, time.Hour, review.End.Sub(review.Start))
	assert.True(t, review.ReminderEnabled)
	assert.Equal(t, 10, review.ReminderMinutesBeforeStart)
	assert.False(t, review.IsAllDay)

	holiday := events[bySubject["Company holiday"]]
	assert.True(t, holiday.IsAllDay)
	assert.False(t, holiday.ReminderEnabled)

	standup := events[bySubject["Standup"]]
	assert.Equal(t, "standup@2026-03-02T09:00:00Z", standup.ID)
	assert.True(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC).Equal(standup.Start))
	assert.Equal(t, 15*time.Minute, standup.End.Sub(standup.Start))
}

func TestFileSource_RecurringIdsDifferPerDay(t *testing.T) {
	src := NewFileSource(writeCalendar(t, testCalendar), time.UTC, logger.Nop())

	monday, err := src.Events(context.Background(), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	tuesday, err := src.Events(context.Background(), time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	find := func(list []string, id string) bool {
		for _, v := range list {
			if v == id {
				return true
			}
		}
		return false
	}
	var mondayIDs, tuesdayIDs []string
	for _, ev := range monday {
		mondayIDs = append(mondayIDs, ev.ID)
	}
	for _, ev := range tuesday {
		tuesdayIDs = append(tuesdayIDs, ev.ID)
	}
	assert.True(t, find(mondayIDs, "standup@2026-03-02T09:00:00Z"))
	assert.True(t, find(tuesdayIDs, "standup@2026-03-03T09:00:00Z"))
	assert.True(t, find(tuesdayIDs, "tomorrow-1"))
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.ics"), time.UTC, logger.Nop())

	_, err := src.Events(context.Background(), time.Now())
	assert.True(t, errors.Is(err, appErrors.ErrEventSource))
}

func TestFileSource_CanceledContext(t *testing.T) {
	src := NewFileSource(writeCalendar(t, testCalendar), time.UTC, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Events(ctx, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
