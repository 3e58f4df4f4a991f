package ical

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	goical "github.com/emersion/go-ical"

	"notifier/internal/domain/entity"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
)

// FileSource reads calendar events from an .ics file. The file is read on
// every call so edits are picked up by the next reload.
type FileSource struct {
	path string
	loc  *time.Location
	log  logger.Logger
}

// NewFileSource creates a FileSource. Floating times are read in loc.
func NewFileSource(path string, loc *time.Location, log logger.Logger) *FileSource {
	if loc == nil {
		loc = time.Local
	}
	return &FileSource{path: path, loc: loc, log: log}
}

// Events returns the events starting on the calendar day of date.
// Recurring events are expanded to that day's occurrences.
func (s *FileSource) Events(ctx context.Context, date time.Time) ([]entity.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrEventSource, err)
	}
	defer f.Close()
	return s.decode(f, date)
}

func (s *FileSource) decode(r io.Reader, date time.Time) ([]entity.Event, error) {
	day := date.In(s.loc)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var out []entity.Event
	dec := goical.NewDecoder(r)
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", appErrors.ErrEventSource, s.path, err)
		}
		events := cal.Events()
		for i := range events {
			evs, err := s.expand(&events[i], dayStart, dayEnd)
			if err != nil {
				s.log.Warn(fmt.Sprintf("Skipping calendar entry: %v", err))
				continue
			}
			out = append(out, evs...)
		}
	}
	return out, nil
}

// expand converts one VEVENT into the occurrences that start in [dayStart, dayEnd).
func (s *FileSource) expand(ev *goical.Event, dayStart, dayEnd time.Time) ([]entity.Event, error) {
	if status := textProp(ev.Component, goical.PropStatus); strings.EqualFold(status, "CANCELLED") {
		return nil, nil
	}

	start, err := ev.DateTimeStart(s.loc)
	if err != nil {
		return nil, fmt.Errorf("DTSTART: %w", err)
	}
	if start.IsZero() {
		return nil, errors.New("event has no DTSTART")
	}
	end, err := ev.DateTimeEnd(s.loc)
	if err != nil {
		return nil, fmt.Errorf("DTEND: %w", err)
	}
	if end.IsZero() {
		end = start
	}

	base := entity.Event{
		ID:       textProp(ev.Component, goical.PropUID),
		Subject:  textProp(ev.Component, goical.PropSummary),
		Location: textProp(ev.Component, goical.PropLocation),
		Start:    start,
		End:      end,
		IsAllDay: isDateValue(ev.Props.Get(goical.PropDateTimeStart)),
	}
	if lead, ok := alarmLead(ev.Component); ok {
		base.ReminderEnabled = true
		base.ReminderMinutesBeforeStart = int(lead / time.Minute)
	}

	set, err := ev.RecurrenceSet(s.loc)
	if err != nil {
		return nil, fmt.Errorf("RRULE: %w", err)
	}
	if set == nil {
		if start.Before(dayStart) || !start.Before(dayEnd) {
			return nil, nil
		}
		return []entity.Event{base}, nil
	}

	length := end.Sub(start)
	var occurrences []entity.Event
	for _, occ := range set.Between(dayStart, dayEnd, true) {
		if !occ.Before(dayEnd) {
			continue
		}
		o := base
		o.Start = occ
		o.End = occ.Add(length)
		if base.ID != "" {
			o.ID = base.ID + "@" + occ.UTC().Format(time.RFC3339)
		}
		occurrences = append(occurrences, o)
	}
	return occurrences, nil
}

func textProp(c *goical.Component, name string) string {
	prop := c.Props.Get(name)
	if prop == nil {
		return ""
	}
	v, err := prop.Text()
	if err != nil {
		return prop.Value
	}
	return v
}

func isDateValue(prop *goical.Prop) bool {
	return prop != nil && prop.Params.Get(goical.ParamValue) == string(goical.ValueDate)
}

// alarmLead returns how long before the start the first relative VALARM
// fires. Absolute triggers and triggers relative to the end are ignored.
func alarmLead(c *goical.Component) (time.Duration, bool) {
	for _, child := range c.Children {
		if child.Name != goical.CompAlarm {
			continue
		}
		trigger := child.Props.Get(goical.PropTrigger)
		if trigger == nil || strings.EqualFold(trigger.Params.Get(goical.ParamRelated), "END") {
			continue
		}
		d, err := trigger.Duration()
		if err != nil || d > 0 {
			continue
		}
		return -d, true
	}
	return 0, false
}
