package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventDispatcher_DispatchInvokesListeners(t *testing.T) {
	d := NewEventDispatcher()
	var got []EntityID
	d.AddListener(EntityAdded, func(e QueryEvent) { got = append(got, e.Entity.id) })

	e1 := &Entity{id: 1}
	e2 := &Entity{id: 2}
	d.Dispatch(QueryEvent{Type: EntityAdded, Entity: e1})
	d.Dispatch(QueryEvent{Type: EntityAdded, Entity: e2})

	assert.Equal(t, []EntityID{1, 2}, got)
}

func TestEventDispatcher_RemoveListenerStopsFutureDispatch(t *testing.T) {
	d := NewEventDispatcher()
	var calls int
	id := d.AddListener(EntityRemoved, func(e QueryEvent) { calls++ })

	d.Dispatch(QueryEvent{Type: EntityRemoved, Entity: &Entity{id: 1}})
	d.RemoveListener(EntityRemoved, id)
	d.Dispatch(QueryEvent{Type: EntityRemoved, Entity: &Entity{id: 2}})

	assert.Equal(t, 1, calls)
}

func TestEventDispatcher_ListenerAddedDuringDispatchDoesNotRunThisRound(t *testing.T) {
	d := NewEventDispatcher()
	var secondCalls int
	d.AddListener(EntityAdded, func(e QueryEvent) {
		d.AddListener(EntityAdded, func(e QueryEvent) { secondCalls++ })
	})

	d.Dispatch(QueryEvent{Type: EntityAdded, Entity: &Entity{id: 1}})
	assert.Equal(t, 0, secondCalls, "a listener added mid-dispatch must not run in the same round")

	d.Dispatch(QueryEvent{Type: EntityAdded, Entity: &Entity{id: 2}})
	assert.Equal(t, 1, secondCalls)
}

func TestEventDispatcher_StatsTrackFiredAndHandled(t *testing.T) {
	d := NewEventDispatcher()
	d.AddListener(ComponentChanged, func(e QueryEvent) {})
	d.AddListener(ComponentChanged, func(e QueryEvent) {})

	d.Dispatch(QueryEvent{Type: ComponentChanged, Entity: &Entity{id: 1}})
	d.Dispatch(QueryEvent{Type: ComponentChanged, Entity: &Entity{id: 2}})

	stats := d.Stats()[ComponentChanged]
	assert.Equal(t, uint64(2), stats.Fired)
	assert.Equal(t, uint64(4), stats.Handled, "two listeners x two dispatches")
}

func TestEventDispatcher_HasListener(t *testing.T) {
	d := NewEventDispatcher()
	assert.False(t, d.HasListener(EntityAdded))
	d.AddListener(EntityAdded, func(e QueryEvent) {})
	assert.True(t, d.HasListener(EntityAdded))
}
