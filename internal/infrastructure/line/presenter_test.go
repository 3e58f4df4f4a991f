package line

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifier/internal/application/dto"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
)

type fakePusher struct {
	to       string
	messages []linebot.SendingMessage
	err      error
}

func (f *fakePusher) PushMessages(to string, messages ...linebot.SendingMessage) error {
	if f.err != nil {
		return f.err
	}
	f.to = to
	f.messages = append(f.messages, messages...)
	return nil
}

func sampleTriggered() dto.TriggeredReminder {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return dto.TriggeredReminder{
		Reminder: &entity.Reminder{
			ID:             "r-1",
			EventSubject:   "Design review",
			EventLocation:  "Room 4",
			EventStartTime: start,
			EventEndTime:   start.Add(time.Hour),
			Status:         constant.StatusDisplayed,
		},
		AvailableSnoozes: []constant.Action{constant.ActionSnooze5Minutes, constant.ActionSnoozeUntil5MinBefore},
	}
}

type quickReplyJSON struct {
	Text       string `json:"text"`
	QuickReply struct {
		Items []struct {
			Action struct {
				Label string `json:"label"`
				Data  string `json:"data"`
			} `json:"action"`
		} `json:"items"`
	} `json:"quickReply"`
}

func TestPresenter_PushesMessageWithQuickReplies(t *testing.T) {
	p := &fakePusher{}
	presenter := newPresenter(p, "U123", time.UTC, logger.Nop())

	require.NoError(t, presenter.Present(context.Background(), sampleTriggered()))

	assert.Equal(t, "U123", p.to)
	require.Len(t, p.messages, 1)
	raw, err := json.Marshal(p.messages[0])
	require.NoError(t, err)

	var msg quickReplyJSON
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Contains(t, msg.Text, "Design review")
	assert.Contains(t, msg.Text, "2026/03/02 10:00 - 11:00")
	assert.Contains(t, msg.Text, "Room 4")

	require.Len(t, msg.QuickReply.Items, 3)
	assert.Equal(t, "Dismiss", msg.QuickReply.Items[0].Action.Label)
	action, id, err := ParsePostbackData(msg.QuickReply.Items[1].Action.Data)
	require.NoError(t, err)
	assert.Equal(t, constant.ActionSnooze5Minutes, action)
	assert.Equal(t, "r-1", id)
}

func TestPresenter_Errors(t *testing.T) {
	noTarget := newPresenter(&fakePusher{}, "", time.UTC, logger.Nop())
	err := noTarget.Present(context.Background(), sampleTriggered())
	assert.True(t, errors.Is(err, appErrors.ErrLineAPI))

	failing := newPresenter(&fakePusher{err: appErrors.ErrLineAPI}, "U1", time.UTC, logger.Nop())
	err = failing.Present(context.Background(), sampleTriggered())
	assert.True(t, errors.Is(err, appErrors.ErrLineAPI))
}

func TestPostbackData_RoundTrip(t *testing.T) {
	data := PostbackData(constant.ActionSnoozeUntil10MinBefore, "abc-123")

	action, id, err := ParsePostbackData(data)

	require.NoError(t, err)
	assert.Equal(t, constant.ActionSnoozeUntil10MinBefore, action)
	assert.Equal(t, "abc-123", id)
}

func TestParsePostbackData_Rejects(t *testing.T) {
	for _, data := range []string{
		"action=dismiss",
		"action=snooze_forever&reminder=r1",
		"%zz",
	} {
		_, _, err := ParsePostbackData(data)
		assert.True(t, errors.Is(err, appErrors.ErrInvalidAction), data)
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient("", "token", logger.Nop())
	assert.True(t, errors.Is(err, appErrors.ErrLineAPI))
}
