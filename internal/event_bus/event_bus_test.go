package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_RunsHandlersInRegistrationOrder(t *testing.T) {
	bus := NewEventBus()
	var calls []int
	for i := 1; i <= 5; i++ {
		i := i
		bus.Subscribe("test", func(e Event) error {
			calls = append(calls, i)
			return nil
		})
	}

	require.NoError(t, bus.Publish(NewEvent(context.Background(), "test", nil)))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
}

func TestPublish_OnlyMatchingType(t *testing.T) {
	bus := NewEventBus()
	called := false
	bus.Subscribe("other", func(e Event) error {
		called = true
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), "test", nil)))
	assert.False(t, called)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	count := 0
	unsubscribe := bus.Subscribe("test", func(e Event) error {
		count++
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), "test", nil)))
	unsubscribe()
	require.NoError(t, bus.Publish(NewEvent(context.Background(), "test", nil)))

	assert.Equal(t, 1, count)
}

func TestPublish_CollectsErrorsAndRecoversPanics(t *testing.T) {
	bus := NewEventBus()
	failure := errors.New("handler failed")
	reached := false
	bus.Subscribe("test", func(e Event) error { return failure })
	bus.Subscribe("test", func(e Event) error { panic("boom") })
	bus.Subscribe("test", func(e Event) error {
		reached = true
		return nil
	})

	err := bus.Publish(NewEvent(context.Background(), "test", nil))

	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.Contains(t, err.Error(), "2 handler(s) failed")
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, reached)
}

func TestPublish_CancelledContext(t *testing.T) {
	bus := NewEventBus()
	called := false
	bus.Subscribe("test", func(e Event) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(NewEvent(ctx, "test", nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSubscribeTyped(t *testing.T) {
	bus := NewEventBus()
	var received []CalendarEventCreated
	SubscribeTyped(bus, CalendarEventCreatedType, func(e EventT[CalendarEventCreated]) error {
		received = append(received, e.Data)
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), CalendarEventCreatedType, CalendarEventCreated{UID: "evt-1"})))
	require.NoError(t, bus.Publish(NewEvent(context.Background(), CalendarEventCreatedType, "not a payload")))

	require.Len(t, received, 1)
	assert.Equal(t, "evt-1", received[0].UID)
}
