package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifier/internal/application/dto"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
)

func triggered(id string) dto.TriggeredReminder {
	return dto.TriggeredReminder{Reminder: pendingReminder(id, baseTime, baseTime.Add(time.Hour))}
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	p := &recordingPresenter{}
	d := NewDispatcher(p, 8, nil, logger.Nop())
	go d.Run(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, d.Deliver(triggered(id)))
	}
	d.Close()

	require.Equal(t, 3, p.count())
	assert.Equal(t, "a", p.presented[0].Reminder.ID)
	assert.Equal(t, "c", p.presented[2].Reminder.ID)
}

func TestDispatcher_FullQueue(t *testing.T) {
	d := NewDispatcher(&recordingPresenter{}, 1, nil, logger.Nop())

	require.NoError(t, d.Deliver(triggered("a")))
	err := d.Deliver(triggered("b"))

	assert.True(t, errors.Is(err, appErrors.ErrDeliveryUnavailable))
}

func TestDispatcher_DeliverAfterClose(t *testing.T) {
	d := NewDispatcher(&recordingPresenter{}, 4, nil, logger.Nop())
	go d.Run(context.Background())
	d.Close()
	d.Close()

	err := d.Deliver(triggered("late"))
	assert.True(t, errors.Is(err, appErrors.ErrDeliveryUnavailable))
}

func TestDispatcher_PresenterFailureIsCounted(t *testing.T) {
	obs := newCountingObserver()
	d := NewDispatcher(&recordingPresenter{fail: true}, 4, obs, logger.Nop())
	go d.Run(context.Background())

	require.NoError(t, d.Deliver(triggered("a")))
	d.Close()

	assert.Equal(t, 1, obs.deliveryFailed)
}

func TestDispatcher_RunStopsOnContext(t *testing.T) {
	d := NewDispatcher(&recordingPresenter{}, 4, nil, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
