package constant

import (
	"fmt"
	"strings"
	"time"

	appErrors "notifier/internal/pkg/errors"
)

// Action is a user response to a displayed reminder.
type Action string

const (
	ActionDismiss                Action = "dismiss"
	ActionSnooze1Minute          Action = "snooze_1m"
	ActionSnooze5Minutes         Action = "snooze_5m"
	ActionSnooze10Minutes        Action = "snooze_10m"
	ActionSnoozeUntil5MinBefore  Action = "snooze_before_5m"
	ActionSnoozeUntil10MinBefore Action = "snooze_before_10m"
)

// SnoozeActions lists every snooze variant in presentation order.
var SnoozeActions = []Action{
	ActionSnooze1Minute,
	ActionSnooze5Minutes,
	ActionSnooze10Minutes,
	ActionSnoozeUntil5MinBefore,
	ActionSnoozeUntil10MinBefore,
}

// ParseAction converts a wire name into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if a == ActionDismiss {
		return a, nil
	}
	for _, known := range SnoozeActions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", appErrors.ErrInvalidAction, s)
}

// IsSnooze reports whether a is one of the snooze variants.
func (a Action) IsSnooze() bool {
	_, _, ok := a.SnoozeOffset()
	return ok
}

// SnoozeOffset returns the variant's offset and whether it is measured back
// from the event start (true) or forward from now (false).
func (a Action) SnoozeOffset() (offset time.Duration, beforeEvent bool, ok bool) {
	switch a {
	case ActionSnooze1Minute:
		return time.Minute, false, true
	case ActionSnooze5Minutes:
		return 5 * time.Minute, false, true
	case ActionSnooze10Minutes:
		return 10 * time.Minute, false, true
	case ActionSnoozeUntil5MinBefore:
		return 5 * time.Minute, true, true
	case ActionSnoozeUntil10MinBefore:
		return 10 * time.Minute, true, true
	}
	return 0, false, false
}

// Label is the short button text for the action.
func (a Action) Label() string {
	switch a {
	case ActionDismiss:
		return "Dismiss"
	case ActionSnooze1Minute:
		return "1 min"
	case ActionSnooze5Minutes:
		return "5 min"
	case ActionSnooze10Minutes:
		return "10 min"
	case ActionSnoozeUntil5MinBefore:
		return "5 min before"
	case ActionSnoozeUntil10MinBefore:
		return "10 min before"
	}
	return string(a)
}
