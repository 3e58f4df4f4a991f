package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"notifier/internal/application/dto"
	"notifier/internal/application/service"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

// ReminderHandler exposes the engine's inbound API over HTTP.
type ReminderHandler struct {
	coordinator service.CoordinatorService
	log         logger.Logger
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(coordinator service.CoordinatorService, log logger.Logger) *ReminderHandler {
	return &ReminderHandler{coordinator: coordinator, log: log}
}

// ListReminders returns every reminder.
func (h *ReminderHandler) ListReminders(c echo.Context) error {
	reminders := h.coordinator.GetAll(c.Request().Context())
	return c.JSON(http.StatusOK, dto.ToReminderResponseList(reminders))
}

// ListPending returns the reminders due now.
func (h *ReminderHandler) ListPending(c echo.Context) error {
	reminders := h.coordinator.GetPending(c.Request().Context())
	return c.JSON(http.StatusOK, dto.ToReminderResponseList(reminders))
}

// ClearReminders removes every reminder.
func (h *ReminderHandler) ClearReminders(c echo.Context) error {
	h.coordinator.ClearAll(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// ApplyAction dismisses or snoozes a reminder. An unknown id is not an error.
func (h *ReminderHandler) ApplyAction(c echo.Context) error {
	var req dto.ActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	action, err := constant.ParseAction(req.Action)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	r, ok := h.coordinator.HandleAction(c.Request().Context(), c.Param("id"), action)
	resp := dto.ActionResponse{Applied: ok}
	if ok {
		rr := dto.ToReminderResponse(r)
		resp.Reminder = &rr
	}
	return c.JSON(http.StatusOK, resp)
}

// AddEvents feeds events into the engine. Events with unparseable times are
// skipped and counted.
func (h *ReminderHandler) AddEvents(c echo.Context) error {
	var req dto.AddEventsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	resp := dto.AddEventsResponse{Received: len(req.Events)}
	events := make([]entity.Event, 0, len(req.Events))
	for _, er := range req.Events {
		ev, err := er.ToEvent()
		if err != nil {
			h.log.Warn(fmt.Sprintf("Skipping posted event %q: %v", er.Subject, err))
			resp.Skipped++
			continue
		}
		events = append(events, ev)
	}
	resp.Added = h.coordinator.AddEventsForNotification(c.Request().Context(), events)
	return c.JSON(http.StatusOK, resp)
}

// ReloadEvents pulls events from the configured calendar file.
func (h *ReminderHandler) ReloadEvents(c echo.Context) error {
	events, added, err := h.coordinator.Reload(c.Request().Context())
	if err != nil {
		if errors.Is(err, appErrors.ErrEventSourceMissing) {
			return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
		}
		h.log.Error("Calendar reload failed", err)
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto.ReloadResponse{Events: events, Added: added})
}

// RecoverMissed runs the recovery pass on demand.
func (h *ReminderHandler) RecoverMissed(c echo.Context) error {
	n := h.coordinator.RecoverMissed(c.Request().Context())
	return c.JSON(http.StatusOK, dto.RecoverResponse{Recovered: n})
}

// GetSettings returns the current settings.
func (h *ReminderHandler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.coordinator.Settings(c.Request().Context()))
}

// UpdateSettings replaces the settings. Fields missing from the body keep
// their current values.
func (h *ReminderHandler) UpdateSettings(c echo.Context) error {
	ctx := c.Request().Context()
	settings := h.coordinator.Settings(ctx)
	if err := c.Bind(&settings); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	saved, err := h.coordinator.UpdateSettings(ctx, settings)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidSettings) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to save settings"})
	}
	return c.JSON(http.StatusOK, saved)
}
