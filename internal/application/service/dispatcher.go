package service

import (
	"context"
	"fmt"
	"sync"

	"notifier/internal/application/dto"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
)

// Presenter shows a triggered reminder to the user.
type Presenter interface {
	Present(ctx context.Context, t dto.TriggeredReminder) error
}

// Deliverer accepts triggered reminders without blocking the caller.
type Deliverer interface {
	Deliver(t dto.TriggeredReminder) error
}

// Dispatcher queues triggered reminders for a single consumer goroutine that
// owns the Presenter. Producers never call the Presenter directly.
type Dispatcher struct {
	presenter Presenter
	observer  Observer
	log       logger.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan dto.TriggeredReminder
	done   chan struct{}
}

// NewDispatcher creates a Dispatcher with the given queue size.
func NewDispatcher(presenter Presenter, buffer int, observer Observer, log logger.Logger) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Dispatcher{
		presenter: presenter,
		observer:  observer,
		log:       log,
		queue:     make(chan dto.TriggeredReminder, buffer),
		done:      make(chan struct{}),
	}
}

// Deliver enqueues t. It fails with ErrDeliveryUnavailable when the
// dispatcher is closed or the queue is full.
func (d *Dispatcher) Deliver(t dto.TriggeredReminder) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return fmt.Errorf("%w: dispatcher closed", appErrors.ErrDeliveryUnavailable)
	}
	select {
	case d.queue <- t:
		return nil
	default:
		return fmt.Errorf("%w: queue full", appErrors.ErrDeliveryUnavailable)
	}
}

// Run consumes the queue until ctx is done or Close drains it.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-d.queue:
			if !ok {
				return
			}
			d.present(ctx, t)
		}
	}
}

// Close stops accepting reminders and waits for Run to drain what is queued.
// Run must have been started.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) present(ctx context.Context, t dto.TriggeredReminder) {
	if err := d.presenter.Present(ctx, t); err != nil {
		d.observer.DeliveryFailed()
		d.log.Error(fmt.Sprintf("Failed to present reminder %s", t.Reminder.ID), err)
		return
	}
	d.log.Debug(fmt.Sprintf("Presented reminder %s (%q)", t.Reminder.ID, t.Reminder.EventSubject))
}
