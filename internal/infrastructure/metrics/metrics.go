package metrics

import (
	"fmt"

	promclient "github.com/prometheus/client_golang/prometheus"

	"notifier/internal/domain/constant"
)

// Observer exports engine counters to Prometheus.
type Observer struct {
	created        promclient.Counter
	displayed      *promclient.CounterVec
	actions        *promclient.CounterVec
	deliveryFailed promclient.Counter
	persistFailed  promclient.Counter
	removed        promclient.Counter
}

// NewObserver registers the reminder counters on reg. Registering twice on
// the same registry reuses the existing collectors.
func NewObserver(namespace string, reg promclient.Registerer) (*Observer, error) {
	if namespace == "" {
		namespace = "notifier"
	}
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}

	o := &Observer{}
	var err error
	if o.created, err = registerCounter(reg, promclient.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_created_total",
		Help:      "Reminders created from calendar events.",
	}); err != nil {
		return nil, err
	}
	if o.displayed, err = registerCounterVec(reg, promclient.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_displayed_total",
		Help:      "Reminders moved to Displayed, by path (tick or recovery).",
	}, "path"); err != nil {
		return nil, err
	}
	if o.actions, err = registerCounterVec(reg, promclient.CounterOpts{
		Namespace: namespace,
		Name:      "reminder_actions_total",
		Help:      "User actions applied to reminders, after snooze-cap downgrade.",
	}, "action"); err != nil {
		return nil, err
	}
	if o.deliveryFailed, err = registerCounter(reg, promclient.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_failures_total",
		Help:      "Triggered reminders the presentation layer did not receive.",
	}); err != nil {
		return nil, err
	}
	if o.persistFailed, err = registerCounter(reg, promclient.CounterOpts{
		Namespace: namespace,
		Name:      "persist_failures_total",
		Help:      "Failed writes of the reminder file.",
	}); err != nil {
		return nil, err
	}
	if o.removed, err = registerCounter(reg, promclient.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_removed_total",
		Help:      "Reminders dropped by the retention sweep.",
	}); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Observer) RemindersCreated(n int) {
	if o == nil || n <= 0 {
		return
	}
	o.created.Add(float64(n))
}

func (o *Observer) RemindersDisplayed(path string, n int) {
	if o == nil || n <= 0 {
		return
	}
	o.displayed.WithLabelValues(path).Add(float64(n))
}

func (o *Observer) ActionApplied(action constant.Action) {
	if o == nil {
		return
	}
	o.actions.WithLabelValues(string(action)).Inc()
}

func (o *Observer) DeliveryFailed() {
	if o == nil {
		return
	}
	o.deliveryFailed.Inc()
}

func (o *Observer) PersistFailed() {
	if o == nil {
		return
	}
	o.persistFailed.Inc()
}

func (o *Observer) RemindersRemoved(n int) {
	if o == nil || n <= 0 {
		return
	}
	o.removed.Add(float64(n))
}

func registerCounter(reg promclient.Registerer, opts promclient.CounterOpts) (promclient.Counter, error) {
	c := promclient.NewCounter(opts)
	if err := reg.Register(c); err != nil {
		if are, ok := err.(promclient.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(promclient.Counter); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register %s: %w", opts.Name, err)
	}
	return c, nil
}

func registerCounterVec(reg promclient.Registerer, opts promclient.CounterOpts, label string) (*promclient.CounterVec, error) {
	c := promclient.NewCounterVec(opts, []string{label})
	if err := reg.Register(c); err != nil {
		if are, ok := err.(promclient.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*promclient.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register %s: %w", opts.Name, err)
	}
	return c, nil
}
