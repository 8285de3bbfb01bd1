package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventIntegration exercises the event package the way a real
// observability sink would: construct a typed event, subscribe by name,
// publish, and assert the handler observed the concrete type.
func TestEventIntegration(t *testing.T) {
	ResetGlobalEventBus()
	defer ResetGlobalEventBus()

	t.Run("WorldCreatedEvent", func(t *testing.T) {
		received := make(chan *WorldCreatedEvent, 1)
		Subscribe(EventNameWorldCreated, func(e Event) error {
			wce, ok := e.(*WorldCreatedEvent)
			require.True(t, ok)
			received <- wce
			return nil
		})

		event := NewWorldCreatedEvent("11111111-1111-1111-1111-111111111111", "1.0.0")
		err := Publish(event)
		require.NoError(t, err)

		select {
		case wce := <-received:
			assert.Equal(t, "1.0.0", wce.Version)
			assert.Equal(t, EventNameWorldCreated, wce.EventName())
		case <-time.After(time.Second):
			t.Fatal("handler was not invoked")
		}
	})

	t.Run("TickCompletedEvent", func(t *testing.T) {
		received := make(chan *TickCompletedEvent, 1)
		Subscribe(EventNameTickCompleted, func(e Event) error {
			tce, ok := e.(*TickCompletedEvent)
			require.True(t, ok)
			received <- tce
			return nil
		})

		event := NewTickCompletedEvent("world-1", 16*time.Millisecond, 10, 2, nil)
		require.NoError(t, Publish(event))

		select {
		case tce := <-received:
			assert.Equal(t, 10, tce.EntityCount)
			assert.Equal(t, 2, tce.GhostCount)
		case <-time.After(time.Second):
			t.Fatal("handler was not invoked")
		}
	})

	t.Run("ComponentRegisteredEvent", func(t *testing.T) {
		var seen int32 = -1
		Subscribe(EventNameComponentRegistered, func(e Event) error {
			cre := e.(*ComponentRegisteredEvent)
			seen = cre.ComponentID
			return nil
		})

		require.NoError(t, Publish(NewComponentRegisteredEvent("world-1", "Transform", 1, true)))
		assert.Equal(t, int32(1), seen)
	})

	t.Run("multiple handlers all run", func(t *testing.T) {
		var calls int
		Subscribe(EventNameSystemRegistered, func(e Event) error { calls++; return nil })
		Subscribe(EventNameSystemRegistered, func(e Event) error { calls++; return nil })

		require.NoError(t, Publish(NewSystemRegisteredEvent("world-1", "Movement", 10)))
		assert.Equal(t, 2, calls)
	})
}
