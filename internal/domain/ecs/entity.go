package ecs

import "fmt"

// EntityID identifies an entity within a World. Ids are assigned
// monotonically by the owning World and are never reused while the
// entity they named is still reachable; the backing *Entity struct is
// recycled through a free list, but a fresh id is stamped on every reuse.
type EntityID uint64

// ReadOnlyView wraps a component returned by Entity.GetComponent. It
// forwards Type() transparently so callers can still branch on the
// component's kind, but Set -- the guarded write path -- always fails
// with ErrMutabilityViolation. Go cannot trap a direct field write
// through an embedded pointer the way a dynamic-language proxy would;
// Set is the closest reproducible analog, and the documented contract is
// that code wanting to mutate goes through GetMutableComponent instead.
type ReadOnlyView struct {
	Component
	entityID EntityID
}

// Set always fails: GetComponent never returns a writable target.
func (v ReadOnlyView) Set(field string, value any) error {
	return fmt.Errorf("%w: entity %d component %T field %q", ErrMutabilityViolation, v.entityID, v.Component, field)
}

// Entity is a mutable bag of components plus the bookkeeping the World
// needs to keep queries correct: which queries currently include it,
// how many system-state components are keeping it alive as a ghost, and
// a per-component-type version counter for the opt-in fast-path
// alternative to literal COMPONENT_CHANGED dispatch.
type Entity struct {
	id    EntityID
	name  string
	world *World

	components     map[ComponentTypeID]Component
	pendingRemoval map[ComponentTypeID]Component
	queries        map[QueryKey]struct{}
	versions       map[ComponentTypeID]uint64

	alive           bool
	ghost           bool
	stateComponents int
}

func newEntity(w *World) *Entity {
	return &Entity{world: w}
}

func (e *Entity) reset(id EntityID) {
	e.id = id
	e.name = ""
	e.alive = false
	e.ghost = false
	e.stateComponents = 0
	e.components = make(map[ComponentTypeID]Component)
	e.pendingRemoval = make(map[ComponentTypeID]Component)
	e.queries = make(map[QueryKey]struct{})
	e.versions = make(map[ComponentTypeID]uint64)
}

// ID returns the entity's current id.
func (e *Entity) ID() EntityID { return e.id }

// IsAlive reports whether the entity is a live, queryable member of its
// world (as opposed to detached-but-not-added, or a disposed ghost).
func (e *Entity) IsAlive() bool { return e.alive }

// IsGhost reports whether the entity has been disposed but is retained
// because one or more system-state components are still attached.
func (e *Entity) IsGhost() bool { return e.ghost }

// Name returns the entity's optional display name.
func (e *Entity) Name() string { return e.name }

// SetName (re)indexes the entity under name in its world's name lookup,
// replacing any previous name.
func (e *Entity) SetName(name string) {
	e.world.unindexName(e)
	e.name = name
	e.world.indexName(e)
}

// AddComponent attaches a new instance of component type id to the
// entity. If the type is registered and pooled, the instance is acquired
// from the pool; otherwise, a sibling instance passed as props supplies
// the value to clone from (the idiomatic stand-in for a dynamic "props
// object": Go has no way to construct an unknown concrete type from a
// generic property bag). A no-op if the component is already attached.
func (e *Entity) AddComponent(id ComponentTypeID, props ...Component) error {
	if _, exists := e.components[id]; exists {
		return nil
	}
	store, registered := e.world.componentStores[id]
	if !registered {
		e.world.warnf("entity %d: component type %d used without prior registration", e.id, id)
	}

	var instance Component
	switch {
	case registered && store.pool != nil:
		acquired, err := store.pool.acquire()
		if err != nil {
			return err
		}
		instance = acquired
		if len(props) > 0 {
			if poolable, ok := instance.(Poolable); ok {
				poolable.CopyFrom(props[0])
			}
		}
	case len(props) > 0:
		if cloner, ok := props[0].(interface{ Clone() Component }); ok {
			instance = cloner.Clone()
		} else {
			instance = props[0]
		}
	default:
		return fmt.Errorf("%w: component type %d has no pool and no prototype to construct from", ErrSchemaInvalid, id)
	}
	return e.attach(id, instance, store)
}

// AttachComponent attaches an already-constructed instance, bypassing
// pooling entirely. Used when a caller already holds the concrete value
// it wants the entity to own.
func (e *Entity) AttachComponent(instance Component) error {
	id := instance.Type()
	if _, exists := e.components[id]; exists {
		return nil
	}
	store, registered := e.world.componentStores[id]
	if !registered {
		e.world.warnf("entity %d: component type %d attached without prior registration", e.id, id)
	}
	return e.attach(id, instance, store)
}

func (e *Entity) attach(id ComponentTypeID, instance Component, store *ComponentStore) error {
	e.components[id] = instance
	e.versions[id]++
	if store != nil && store.systemState {
		e.stateComponents++
	}
	if e.alive {
		e.world.onComponentAdded(e, id)
	}
	return nil
}

// HasComponent reports whether id is currently attached. When
// includeRemoved is true, a component pending deferred removal still
// counts.
func (e *Entity) HasComponent(id ComponentTypeID, includeRemoved bool) bool {
	if _, ok := e.components[id]; ok {
		return true
	}
	if includeRemoved {
		_, ok := e.pendingRemoval[id]
		return ok
	}
	return false
}

// HasAllComponents reports whether every id in ids is attached.
func (e *Entity) HasAllComponents(ids []ComponentTypeID) bool {
	for _, id := range ids {
		if !e.HasComponent(id, false) {
			return false
		}
	}
	return true
}

// HasAnyComponents reports whether at least one id in ids is attached.
func (e *Entity) HasAnyComponents(ids []ComponentTypeID) bool {
	for _, id := range ids {
		if e.HasComponent(id, false) {
			return true
		}
	}
	return false
}

// GetComponent returns a read-only view of the attached (or, with
// includeRemoved, pending-removal) component, or nil if absent.
func (e *Entity) GetComponent(id ComponentTypeID, includeRemoved bool) Component {
	c, ok := e.components[id]
	if !ok && includeRemoved {
		c, ok = e.pendingRemoval[id]
	}
	if !ok {
		return nil
	}
	return ReadOnlyView{Component: c, entityID: e.id}
}

// GetMutableComponent returns the live, writable component instance and
// dispatches COMPONENT_CHANGED to every query that includes this
// component type and currently contains this entity.
func (e *Entity) GetMutableComponent(id ComponentTypeID) Component {
	c, ok := e.components[id]
	if !ok {
		return nil
	}
	e.versions[id]++
	e.world.dispatchComponentChanged(e, id)
	return c
}

// ComponentVersion returns the number of times component id has been
// attached or obtained mutably on this entity -- an opt-in fast-path
// alternative to subscribing for literal COMPONENT_CHANGED events.
func (e *Entity) ComponentVersion(id ComponentTypeID) uint64 { return e.versions[id] }

// GetRemovedComponent returns a component pending deferred removal, if
// any, and whether it was found.
func (e *Entity) GetRemovedComponent(id ComponentTypeID) (Component, bool) {
	c, ok := e.pendingRemoval[id]
	return c, ok
}

// GetComponentsToRemove lists the component types currently pending
// deferred removal on this entity.
func (e *Entity) GetComponentsToRemove() []ComponentTypeID {
	ids := make([]ComponentTypeID, 0, len(e.pendingRemoval))
	for id := range e.pendingRemoval {
		ids = append(ids, id)
	}
	return ids
}

// ProcessRemovedComponents finalizes every pending-removal component on
// this entity: drops it from every query that had it on a deferred
// membership hold, releases the pooled instance back to its pool, and
// clears the pending set. Called by World.processDeferredRemoval at the
// end of a tick -- this is the point at which a deferred removal first
// becomes invisible to queries.
func (e *Entity) ProcessRemovedComponents() {
	for id, instance := range e.pendingRemoval {
		delete(e.pendingRemoval, id)
		e.world.onRemoveComponent(e, id)
		if store, ok := e.world.componentStores[id]; ok && store.pool != nil {
			store.pool.release(instance)
		}
	}
}

// RemoveComponent detaches component id. It disappears from
// HasComponent/GetComponent immediately, but an immediate=false removal
// stays visible to every query it matched until the tick's deferred
// queue drains (ProcessRemovedComponents), matching the component's own
// pending-removal visibility. immediate=true, or a world built with
// deferred removal disabled, updates query membership synchronously and
// releases the instance to its pool right away.
func (e *Entity) RemoveComponent(id ComponentTypeID, immediate bool) error {
	instance, exists := e.components[id]
	if !exists {
		return nil
	}
	delete(e.components, id)

	store := e.world.componentStores[id]
	if store != nil && store.systemState {
		e.stateComponents--
	}

	effectiveImmediate := immediate || !e.world.deferredRemovalEnabled
	if effectiveImmediate {
		if e.alive || e.ghost {
			e.world.onRemoveComponent(e, id)
		}
		if store != nil && store.pool != nil {
			store.pool.release(instance)
		}
	} else {
		e.pendingRemoval[id] = instance
		e.world.enqueuePendingRemoval(e)
	}

	if e.ghost && e.stateComponents == 0 {
		e.ghost = false
		return e.selfDisposeAsGhost()
	}
	return nil
}

func (e *Entity) selfDisposeAsGhost() error {
	if e.world.deferredRemovalEnabled {
		e.world.enqueueDisposal(e)
		return nil
	}
	return e.finalizeDisposal()
}

// Dispose removes every non-state attached component (respecting
// immediate versus deferred per-component semantics) and then either
// finalizes the entity's release back to the pool or, if any
// system-state component was attached, retains it as a ghost: alive is
// false but the state component(s) stay attached and the entity remains
// in every query that matches on them until those components are
// explicitly removed.
func (e *Entity) Dispose(immediate bool) error {
	if !e.alive {
		return nil
	}
	ids := make([]ComponentTypeID, 0, len(e.components))
	for id := range e.components {
		if store := e.world.componentStores[id]; store != nil && store.systemState {
			continue
		}
		ids = append(ids, id)
	}
	for _, id := range ids {
		if err := e.RemoveComponent(id, immediate); err != nil {
			return err
		}
	}

	e.alive = false
	e.world.unindexName(e)

	if e.stateComponents > 0 {
		e.ghost = true
		return nil
	}

	if immediate || !e.world.deferredRemovalEnabled {
		return e.finalizeDisposal()
	}
	e.world.enqueueDisposal(e)
	return nil
}

// finalizeDisposal unregisters the entity from the world entirely. Any
// query membership left over from a deferred removal that never got a
// chance to drain (the entity was disposed before its own drain ran) is
// scrubbed defensively; in practice processDeferredRemoval always drains
// removalQueue before disposalQueue, so e.queries is already empty here.
func (e *Entity) finalizeDisposal() error {
	w := e.world
	for key := range e.queries {
		if q, ok := w.queries[key]; ok {
			q.removeEntity(e)
		}
	}
	delete(w.entities, e.id)
	w.notifyEntityDisposed(e)
	e.components = nil
	e.pendingRemoval = nil
	e.queries = nil
	e.versions = nil
	w.entityFreeList = append(w.entityFreeList, e)
	return nil
}

// Copy overwrites this entity's component set with a structural copy of
// other's: existing shared component types are updated via CopyFrom,
// new ones are cloned and attached.
func (e *Entity) Copy(other *Entity) error {
	for id, instance := range other.components {
		if existing, ok := e.components[id]; ok {
			if copier, ok2 := existing.(Poolable); ok2 {
				if src, ok3 := instance.(Poolable); ok3 {
					copier.CopyFrom(src)
					continue
				}
			}
		}
		var clone Component
		if cloner, ok := instance.(interface{ Clone() Component }); ok {
			clone = cloner.Clone()
		} else {
			clone = instance
		}
		if err := e.attach(id, clone, e.world.componentStores[id]); err != nil {
			return err
		}
	}
	return nil
}

// Clone creates a new, live entity in the same world with a structural
// copy of this entity's component set.
func (e *Entity) Clone() (*Entity, error) {
	clone := e.world.CreateEntity()
	if err := clone.Copy(e); err != nil {
		return nil, err
	}
	return clone, nil
}
