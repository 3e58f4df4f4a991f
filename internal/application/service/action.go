package service

import (
	"time"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
)

// ApplyAction runs the reminder state machine for one user action and
// returns the action that actually took effect: a snooze past the cap becomes
// a dismiss, and an empty result means nothing changed.
//
//	Pending -> Displayed -> Dismissed (terminal)
//	Pending|Displayed -> Snoozed -> Pending
func ApplyAction(r *entity.Reminder, action constant.Action, settings entity.Settings, now time.Time) constant.Action {
	if r.Status == constant.StatusDismissed {
		return ""
	}
	if action == constant.ActionDismiss {
		r.Status = constant.StatusDismissed
		return constant.ActionDismiss
	}

	offset, beforeEvent, ok := action.SnoozeOffset()
	if !ok {
		return ""
	}
	if r.SnoozeCount >= settings.MaxSnoozesPerEvent {
		r.Status = constant.StatusDismissed
		return constant.ActionDismiss
	}

	if beforeEvent {
		r.ScheduledNotificationTime = r.EventStartTime.Add(-offset)
	} else {
		r.ScheduledNotificationTime = now.Add(offset)
	}
	r.SnoozeCount++
	snoozedAt := now
	r.LastSnoozedAt = &snoozedAt
	r.Status = constant.StatusPending
	return action
}

// AvailableSnoozes lists the snooze variants worth offering right now.
// The before-event variants drop out once their target time has passed.
func AvailableSnoozes(r *entity.Reminder, now time.Time) []constant.Action {
	if r.Status == constant.StatusDismissed {
		return nil
	}
	available := make([]constant.Action, 0, len(constant.SnoozeActions))
	for _, a := range constant.SnoozeActions {
		offset, beforeEvent, _ := a.SnoozeOffset()
		if beforeEvent && !r.EventStartTime.Add(-offset).After(now) {
			continue
		}
		available = append(available, a)
	}
	return available
}
