package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/galaxy/internal/events"
	"github.com/GriffinCanCode/galaxy/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
	"github.com/GriffinCanCode/galaxy/internal/testutil"
)

func eventFor(name string) interface{} {
	return mock.MatchedBy(func(e events.LayerCreated) bool {
		return e.LayerName == name && e.Type == events.TypeLayerCreated
	})
}

func TestDispatcherContinuesPastFailingSink(t *testing.T) {
	b := events.NewBroker()
	defer b.Close()
	ch := b.Subscribe(context.Background(), "")

	failing := new(testutil.MockSink)
	failing.On("Publish", eventFor("a")).Return(errors.New("unavailable")).Once()
	failing.On("Close").Return(nil).Once()

	metrics := monitoring.NewMetrics()
	d := events.NewDispatcher(failing, b).WithMetrics(metrics)

	err := d.Notify(context.Background(), types.Layer{User: "alice", Name: "a", Link: "ipfs://a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mock: unavailable")

	select {
	case ev := <-ch:
		assert.Equal(t, "a", ev.LayerName)
	case <-time.After(time.Second):
		t.Fatal("broker did not receive the event")
	}
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.EventsDropped.WithLabelValues("mock")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.EventsPublished.WithLabelValues("broker")))

	require.NoError(t, d.Close())
	failing.AssertExpectations(t)
}

func TestDispatcherJoinsCloseErrors(t *testing.T) {
	first := new(testutil.MockSink)
	first.On("Close").Return(errors.New("flush failed")).Once()
	second := new(testutil.MockSink)
	second.On("Close").Return(nil).Once()

	err := events.NewDispatcher(first, second).Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush failed")

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestDispatcherSameEventForEverySink(t *testing.T) {
	var seen []events.LayerCreated
	record := func(args mock.Arguments) { seen = append(seen, args.Get(0).(events.LayerCreated)) }

	first := new(testutil.MockSink)
	first.On("Publish", eventFor("base")).Return(nil).Run(record).Once()
	second := new(testutil.MockSink)
	second.On("Publish", eventFor("base")).Return(nil).Run(record).Once()

	d := events.NewDispatcher(first, second)
	require.NoError(t, d.Notify(context.Background(), types.Layer{User: "alice", Name: "base", Link: "ipfs://base"}))

	require.Len(t, seen, 2)
	assert.Equal(t, seen[0].ID, seen[1].ID)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}
