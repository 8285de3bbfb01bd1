package ecs

// QueryEventType enumerates the three reactive events a Query can fire.
type QueryEventType int

const (
	EntityAdded QueryEventType = iota
	EntityRemoved
	ComponentChanged
)

func (t QueryEventType) String() string {
	switch t {
	case EntityAdded:
		return "ENTITY_ADDED"
	case EntityRemoved:
		return "ENTITY_REMOVED"
	case ComponentChanged:
		return "COMPONENT_CHANGED"
	default:
		return "UNKNOWN"
	}
}

// QueryEvent is the payload handed to a QueryListener.
type QueryEvent struct {
	Type      QueryEventType
	Entity    *Entity
	Component ComponentTypeID
}

// QueryListener observes one QueryEvent at a time.
type QueryListener func(QueryEvent)

type listenerHandle struct {
	id int
	fn QueryListener
}

// EventDispatcher is a per-event-type ordered listener list with
// snapshot-before-dispatch semantics: a listener added or removed during
// dispatch never affects the in-flight round. It also tracks how many
// events of each type were fired and how many listener invocations they
// produced.
type EventDispatcher struct {
	listeners map[QueryEventType][]listenerHandle
	nextID    int
	fired     map[QueryEventType]uint64
	handled   map[QueryEventType]uint64
}

// NewEventDispatcher builds an empty dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		listeners: make(map[QueryEventType][]listenerHandle),
		fired:     make(map[QueryEventType]uint64),
		handled:   make(map[QueryEventType]uint64),
	}
}

// AddListener registers fn for events of type t and returns a handle that
// RemoveListener can use to unregister it later.
func (d *EventDispatcher) AddListener(t QueryEventType, fn QueryListener) int {
	d.nextID++
	id := d.nextID
	d.listeners[t] = append(d.listeners[t], listenerHandle{id: id, fn: fn})
	return id
}

// HasListener reports whether any listener is registered for t.
func (d *EventDispatcher) HasListener(t QueryEventType) bool { return len(d.listeners[t]) > 0 }

// RemoveListener unregisters the listener previously returned by
// AddListener, if it is still registered.
func (d *EventDispatcher) RemoveListener(t QueryEventType, id int) {
	handles := d.listeners[t]
	for i, h := range handles {
		if h.id == id {
			d.listeners[t] = append(handles[:i:i], handles[i+1:]...)
			return
		}
	}
}

// Dispatch fires e to every listener registered for e.Type at the moment
// Dispatch was called.
func (d *EventDispatcher) Dispatch(e QueryEvent) {
	d.fired[e.Type]++
	handles := d.listeners[e.Type]
	if len(handles) == 0 {
		return
	}
	snapshot := make([]listenerHandle, len(handles))
	copy(snapshot, handles)
	for _, h := range snapshot {
		h.fn(e)
		d.handled[e.Type]++
	}
}

// DispatcherStats snapshots fired/handled counters for one event type.
type DispatcherStats struct {
	Fired   uint64
	Handled uint64
}

// Stats returns a copy of the fired/handled counters keyed by event type.
func (d *EventDispatcher) Stats() map[QueryEventType]DispatcherStats {
	out := make(map[QueryEventType]DispatcherStats, len(d.fired))
	for t, f := range d.fired {
		out[t] = DispatcherStats{Fired: f, Handled: d.handled[t]}
	}
	for t, h := range d.handled {
		if _, ok := out[t]; !ok {
			out[t] = DispatcherStats{Handled: h}
		}
	}
	return out
}
