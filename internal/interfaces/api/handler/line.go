package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v7/linebot"

	"notifier/internal/application/service"
	"notifier/internal/domain/constant"
	"notifier/internal/infrastructure/line"
	"notifier/internal/pkg/logger"
)

// maxListed caps the reminders shown in a list reply.
const maxListed = 10

type lineWebhookClient interface {
	ParseRequest(r *http.Request) ([]*linebot.Event, error)
	SendMessages(replyToken string, messages ...linebot.SendingMessage) error
}

// LineHandler handles incoming LINE webhook events.
type LineHandler struct {
	lineClient  lineWebhookClient
	coordinator service.CoordinatorService
	loc         *time.Location
	log         logger.Logger
}

// NewLineHandler creates a new LineHandler.
func NewLineHandler(
	lineClient *line.Client,
	coordinator service.CoordinatorService,
	loc *time.Location,
	log logger.Logger,
) *LineHandler {
	return newLineHandler(lineClient, coordinator, loc, log)
}

func newLineHandler(client lineWebhookClient, coordinator service.CoordinatorService, loc *time.Location, log logger.Logger) *LineHandler {
	if loc == nil {
		loc = time.Local
	}
	return &LineHandler{lineClient: client, coordinator: coordinator, loc: loc, log: log}
}

// HandleWebhook is the main entry point for webhook requests.
func (h *LineHandler) HandleWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	events, err := h.lineClient.ParseRequest(c.Request())
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			h.log.Warn("Invalid LINE signature received")
			return c.String(http.StatusBadRequest, "Invalid signature")
		}
		h.log.Error("Failed to parse LINE webhook request", err)
		return c.String(http.StatusInternalServerError, "Error parsing request")
	}

	for _, event := range events {
		h.log.Debug(fmt.Sprintf("Processing event type: %s", event.Type))
		switch event.Type {
		case linebot.EventTypePostback:
			h.handlePostbackEvent(ctx, event)
		case linebot.EventTypeMessage:
			h.handleMessageEvent(ctx, event)
		default:
			h.log.Debug(fmt.Sprintf("Unhandled event type: %s", event.Type))
		}
	}

	return c.String(http.StatusOK, "OK")
}

// handlePostbackEvent applies the action carried by a quick-reply button.
func (h *LineHandler) handlePostbackEvent(ctx context.Context, event *linebot.Event) {
	if event.Postback == nil {
		return
	}
	action, reminderID, err := line.ParsePostbackData(event.Postback.Data)
	if err != nil {
		h.log.Warn(fmt.Sprintf("Ignoring postback: %v", err))
		h.reply(event.ReplyToken, "That button is no longer valid.")
		return
	}

	r, ok := h.coordinator.HandleAction(ctx, reminderID, action)
	if !ok {
		h.reply(event.ReplyToken, "This reminder no longer exists.")
		return
	}

	var msg string
	switch {
	case r.Status == constant.StatusDismissed && action.IsSnooze() &&
		r.SnoozeCount >= h.coordinator.Settings(ctx).MaxSnoozesPerEvent:
		msg = fmt.Sprintf("Snooze limit reached, %q dismissed.", r.EventSubject)
	case r.Status == constant.StatusDismissed && action.IsSnooze():
		msg = fmt.Sprintf("%q was already dismissed.", r.EventSubject)
	case r.Status == constant.StatusDismissed:
		msg = fmt.Sprintf("Dismissed %q.", r.EventSubject)
	default:
		msg = fmt.Sprintf("Snoozed %q until %s.", r.EventSubject, r.ScheduledNotificationTime.In(h.loc).Format("15:04"))
	}
	h.reply(event.ReplyToken, msg)
}

// handleMessageEvent answers "list" with the upcoming reminders and anything
// else with a short usage hint.
func (h *LineHandler) handleMessageEvent(ctx context.Context, event *linebot.Event) {
	text, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		return
	}
	switch strings.ToLower(strings.TrimSpace(text.Text)) {
	case "list", "一覧":
		h.reply(event.ReplyToken, h.formatUpcoming(ctx))
	default:
		quickReply := linebot.NewQuickReplyItems(
			linebot.NewQuickReplyButton("", linebot.NewMessageAction("list", "list")),
		)
		msg := linebot.NewTextMessage("Reminders arrive here automatically. Send \"list\" to see what is coming up.").WithQuickReplies(quickReply)
		if err := h.lineClient.SendMessages(event.ReplyToken, msg); err != nil {
			h.log.Error("Failed to send usage reply", err)
		}
	}
}

func (h *LineHandler) formatUpcoming(ctx context.Context) string {
	var lines []string
	for _, r := range h.coordinator.GetAll(ctx) {
		if r.Status == constant.StatusDismissed {
			continue
		}
		if len(lines) == maxListed {
			lines = append(lines, "...")
			break
		}
		lines = append(lines, fmt.Sprintf("%s %s (%s)",
			r.ScheduledNotificationTime.In(h.loc).Format("01/02 15:04"), r.EventSubject, r.Status))
	}
	if len(lines) == 0 {
		return "No upcoming reminders."
	}
	return "Upcoming reminders:\n" + strings.Join(lines, "\n")
}

func (h *LineHandler) reply(replyToken, text string) {
	if replyToken == "" {
		return
	}
	if err := h.lineClient.SendMessages(replyToken, linebot.NewTextMessage(text)); err != nil {
		h.log.Error("Failed to send LINE reply", err)
	}
}
