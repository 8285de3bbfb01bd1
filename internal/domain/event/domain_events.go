package event

import "time"

// Event names as constants
const (
	EventNameWorldCreated        = "world.created"
	EventNameTickCompleted       = "tick.completed"
	EventNameEntityDisposed      = "entity.disposed"
	EventNameComponentRegistered = "component.registered"
	EventNameSystemRegistered    = "system.registered"
)

// BaseEvent provides common fields for all events
type BaseEvent struct {
	Name      string
	Timestamp int64
}

// EventName returns the event name
func (e *BaseEvent) EventName() string {
	return e.Name
}

// OccurredAt returns when the event occurred
func (e *BaseEvent) OccurredAt() int64 {
	return e.Timestamp
}

// NewBaseEvent creates a new base event
func NewBaseEvent(name string) *BaseEvent {
	return &BaseEvent{
		Name:      name,
		Timestamp: time.Now().Unix(),
	}
}

// WorldCreatedEvent is fired once, at World construction, for any
// observability sink that wants to know a runtime instance came up.
type WorldCreatedEvent struct {
	*BaseEvent
	WorldID string
	Version string
}

// NewWorldCreatedEvent creates a new world-created event.
func NewWorldCreatedEvent(worldID, version string) *WorldCreatedEvent {
	return &WorldCreatedEvent{
		BaseEvent: NewBaseEvent(EventNameWorldCreated),
		WorldID:   worldID,
		Version:   version,
	}
}

// TickCompletedEvent is fired after a World.Execute call drains deferred
// removals, carrying the tick's timing for a sink that samples latency.
type TickCompletedEvent struct {
	*BaseEvent
	WorldID       string
	Delta         time.Duration
	EntityCount   int
	GhostCount    int
	SystemsTiming map[string]time.Duration
}

// NewTickCompletedEvent creates a new tick-completed event.
func NewTickCompletedEvent(worldID string, delta time.Duration, entities, ghosts int, timing map[string]time.Duration) *TickCompletedEvent {
	return &TickCompletedEvent{
		BaseEvent:     NewBaseEvent(EventNameTickCompleted),
		WorldID:       worldID,
		Delta:         delta,
		EntityCount:   entities,
		GhostCount:    ghosts,
		SystemsTiming: timing,
	}
}

// EntityDisposedEvent is fired when an entity is finally released back to
// the entity pool (after any deferred drain and ghost retention).
type EntityDisposedEvent struct {
	*BaseEvent
	WorldID  string
	EntityID uint64
}

// NewEntityDisposedEvent creates a new entity-disposed event.
func NewEntityDisposedEvent(worldID string, entityID uint64) *EntityDisposedEvent {
	return &EntityDisposedEvent{
		BaseEvent: NewBaseEvent(EventNameEntityDisposed),
		WorldID:   worldID,
		EntityID:  entityID,
	}
}

// ComponentRegisteredEvent is fired the first time a component type is
// registered with a World.
type ComponentRegisteredEvent struct {
	*BaseEvent
	WorldID       string
	ComponentName string
	ComponentID   int32
	Pooled        bool
}

// NewComponentRegisteredEvent creates a new component-registered event.
func NewComponentRegisteredEvent(worldID, name string, id int32, pooled bool) *ComponentRegisteredEvent {
	return &ComponentRegisteredEvent{
		BaseEvent:     NewBaseEvent(EventNameComponentRegistered),
		WorldID:       worldID,
		ComponentName: name,
		ComponentID:   id,
		Pooled:        pooled,
	}
}

// SystemRegisteredEvent is fired when a system is added to a World.
type SystemRegisteredEvent struct {
	*BaseEvent
	WorldID    string
	SystemName string
	Priority   int
}

// NewSystemRegisteredEvent creates a new system-registered event.
func NewSystemRegisteredEvent(worldID, name string, priority int) *SystemRegisteredEvent {
	return &SystemRegisteredEvent{
		BaseEvent:  NewBaseEvent(EventNameSystemRegistered),
		WorldID:    worldID,
		SystemName: name,
		Priority:   priority,
	}
}
