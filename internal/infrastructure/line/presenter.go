package line

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"notifier/internal/application/dto"
	"notifier/internal/domain/constant"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
)

const (
	postbackActionKey   = "action"
	postbackReminderKey = "reminder"
)

type pusher interface {
	PushMessages(to string, messages ...linebot.SendingMessage) error
}

// Presenter pushes triggered reminders to one LINE user with quick-reply
// buttons for dismiss and the currently legal snoozes.
type Presenter struct {
	client pusher
	to     string
	loc    *time.Location
	log    logger.Logger
}

// NewPresenter creates a Presenter that pushes to the given user id.
func NewPresenter(client *Client, to string, loc *time.Location, log logger.Logger) *Presenter {
	return newPresenter(client, to, loc, log)
}

func newPresenter(client pusher, to string, loc *time.Location, log logger.Logger) *Presenter {
	if loc == nil {
		loc = time.Local
	}
	return &Presenter{client: client, to: to, loc: loc, log: log}
}

// Present implements the dispatcher's Presenter.
func (p *Presenter) Present(ctx context.Context, t dto.TriggeredReminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.to == "" {
		return fmt.Errorf("%w: no target user configured", appErrors.ErrLineAPI)
	}
	if err := p.client.PushMessages(p.to, BuildReminderMessage(t, p.loc)); err != nil {
		return err
	}
	p.log.Info(fmt.Sprintf("Pushed reminder %s to %s", t.Reminder.ID, p.to))
	return nil
}

// BuildReminderMessage renders the reminder text and its quick replies.
func BuildReminderMessage(t dto.TriggeredReminder, loc *time.Location) *linebot.TextMessage {
	r := t.Reminder
	var b strings.Builder
	b.WriteString("🔔 ")
	b.WriteString(r.EventSubject)
	b.WriteString("\n")
	if r.IsAllDay {
		b.WriteString(r.EventStartTime.In(loc).Format("2006/01/02"))
		b.WriteString(" (all day)")
	} else {
		start := r.EventStartTime.In(loc)
		b.WriteString(start.Format("2006/01/02 15:04"))
		b.WriteString(" - ")
		b.WriteString(r.EventEndTime.In(loc).Format("15:04"))
	}
	if r.EventLocation != "" {
		b.WriteString("\n📍 ")
		b.WriteString(r.EventLocation)
	}
	if r.SnoozeCount > 0 {
		b.WriteString(fmt.Sprintf("\nSnoozed %d time(s)", r.SnoozeCount))
	}

	buttons := []*linebot.QuickReplyButton{quickReply(constant.ActionDismiss, r.ID)}
	for _, a := range t.AvailableSnoozes {
		buttons = append(buttons, quickReply(a, r.ID))
	}
	return linebot.NewTextMessage(b.String()).WithQuickReplies(linebot.NewQuickReplyItems(buttons...)).(*linebot.TextMessage)
}

func quickReply(a constant.Action, reminderID string) *linebot.QuickReplyButton {
	return linebot.NewQuickReplyButton("", &linebot.PostbackAction{
		Label:       a.Label(),
		Data:        PostbackData(a, reminderID),
		DisplayText: a.Label(),
	})
}

// PostbackData encodes an action for a reminder as postback data.
func PostbackData(a constant.Action, reminderID string) string {
	v := url.Values{}
	v.Set(postbackActionKey, string(a))
	v.Set(postbackReminderKey, reminderID)
	return v.Encode()
}

// ParsePostbackData decodes data produced by PostbackData.
func ParsePostbackData(data string) (constant.Action, string, error) {
	v, err := url.ParseQuery(data)
	if err != nil {
		return "", "", fmt.Errorf("%w: postback %q: %v", appErrors.ErrInvalidAction, data, err)
	}
	reminderID := v.Get(postbackReminderKey)
	if reminderID == "" {
		return "", "", fmt.Errorf("%w: postback %q has no reminder id", appErrors.ErrInvalidAction, data)
	}
	a, err := constant.ParseAction(v.Get(postbackActionKey))
	if err != nil {
		return "", "", err
	}
	return a, reminderID, nil
}
