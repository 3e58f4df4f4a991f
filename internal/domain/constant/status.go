package constant

// ReminderStatus defines the lifecycle state of a reminder.
type ReminderStatus string

const (
	// StatusPending is waiting for its scheduled notification time.
	StatusPending ReminderStatus = "Pending"
	// StatusDisplayed has been handed to the presentation layer.
	StatusDisplayed ReminderStatus = "Displayed"
	// StatusDismissed is terminal.
	StatusDismissed ReminderStatus = "Dismissed"
	// StatusSnoozed is a transient marker; snoozing moves a reminder straight back to Pending.
	StatusSnoozed ReminderStatus = "Snoozed"
)

// IsActive reports whether the status still counts towards the one-active-reminder-per-event rule.
func (s ReminderStatus) IsActive() bool {
	return s != StatusDismissed
}

// Valid reports whether s is one of the known statuses.
func (s ReminderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDisplayed, StatusDismissed, StatusSnoozed:
		return true
	}
	return false
}
