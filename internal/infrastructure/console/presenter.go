package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notifier/internal/application/dto"
	"notifier/internal/pkg/logger"
)

// Presenter writes triggered reminders to the log. It is used when no
// messaging channel is configured.
type Presenter struct {
	loc *time.Location
	log logger.Logger
}

// NewPresenter creates a log-backed Presenter.
func NewPresenter(loc *time.Location, log logger.Logger) *Presenter {
	if loc == nil {
		loc = time.Local
	}
	return &Presenter{loc: loc, log: log}
}

// Present logs one line per reminder, listing the available snoozes.
func (p *Presenter) Present(ctx context.Context, t dto.TriggeredReminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.log.Info(Format(t, p.loc))
	return nil
}

// Format renders a triggered reminder as a single log line.
func Format(t dto.TriggeredReminder, loc *time.Location) string {
	r := t.Reminder
	snoozes := make([]string, len(t.AvailableSnoozes))
	for i, a := range t.AvailableSnoozes {
		snoozes[i] = string(a)
	}
	line := fmt.Sprintf("🔔 Reminder %s: %q at %s", r.ID, r.EventSubject, r.EventStartTime.In(loc).Format("2006-01-02 15:04"))
	if r.EventLocation != "" {
		line += fmt.Sprintf(" in %s", r.EventLocation)
	}
	if t.PlaySound {
		line += " [sound]"
	}
	if len(snoozes) > 0 {
		line += " snooze: " + strings.Join(snoozes, ",")
	}
	return line
}
