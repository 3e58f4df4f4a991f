package service

import "notifier/internal/domain/constant"

// Display paths reported to the Observer.
const (
	DisplayPathTick     = "tick"
	DisplayPathRecovery = "recovery"
)

// Observer receives engine telemetry. Implementations must be safe for
// concurrent use.
type Observer interface {
	RemindersCreated(n int)
	RemindersDisplayed(path string, n int)
	ActionApplied(action constant.Action)
	DeliveryFailed()
	PersistFailed()
	RemindersRemoved(n int)
}

// NopObserver discards all telemetry.
type NopObserver struct{}

func (NopObserver) RemindersCreated(int)           {}
func (NopObserver) RemindersDisplayed(string, int) {}
func (NopObserver) ActionApplied(constant.Action)  {}
func (NopObserver) DeliveryFailed()                {}
func (NopObserver) PersistFailed()                 {}
func (NopObserver) RemindersRemoved(int)           {}
