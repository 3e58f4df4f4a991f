package metrics

import (
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifier/internal/domain/constant"
)

func TestObserver_Counts(t *testing.T) {
	reg := promclient.NewRegistry()
	o, err := NewObserver("test", reg)
	require.NoError(t, err)

	o.RemindersCreated(3)
	o.RemindersCreated(0)
	o.RemindersDisplayed("tick", 2)
	o.RemindersDisplayed("recovery", 1)
	o.ActionApplied(constant.ActionSnooze5Minutes)
	o.ActionApplied(constant.ActionSnooze5Minutes)
	o.DeliveryFailed()
	o.PersistFailed()
	o.RemindersRemoved(4)

	assert.Equal(t, 3.0, testutil.ToFloat64(o.created))
	assert.Equal(t, 2.0, testutil.ToFloat64(o.displayed.WithLabelValues("tick")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.displayed.WithLabelValues("recovery")))
	assert.Equal(t, 2.0, testutil.ToFloat64(o.actions.WithLabelValues("snooze_5m")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.deliveryFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.persistFailed))
	assert.Equal(t, 4.0, testutil.ToFloat64(o.removed))
}

func TestObserver_ReusesRegisteredCollectors(t *testing.T) {
	reg := promclient.NewRegistry()
	first, err := NewObserver("test", reg)
	require.NoError(t, err)
	second, err := NewObserver("test", reg)
	require.NoError(t, err)

	first.DeliveryFailed()
	second.DeliveryFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(first.deliveryFailed))
}

func TestObserver_NilIsSafe(t *testing.T) {
	var o *Observer
	assert.NotPanics(t, func() {
		o.RemindersCreated(1)
		o.ActionApplied(constant.ActionDismiss)
		o.PersistFailed()
	})
}
