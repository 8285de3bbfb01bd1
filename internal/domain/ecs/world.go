package ecs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AdelNorberg/ecsy/internal/domain/event"
)

// Version is the runtime's self-reported version, carried in the
// world-created observability event.
const Version = "1.0.0"

// Logger is the narrow diagnostic sink a World uses for the warning
// cases spec'd as "log and proceed" rather than returned errors
// (duplicate registration, missing registration, entity already added).
// It is satisfied structurally by *logging.Logger without this package
// importing the infrastructure layer, preserving the domain/
// infrastructure boundary the rest of this module follows.
type Logger interface {
	Warnf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Warnf(string, ...interface{}) {}

// Sink is the narrow interface an externally-owned observability
// transport (remote devtools bridge, console hook) must satisfy to
// receive the events a World publishes. It is implemented by
// *event.EventBus; passing nil disables publication entirely.
type Sink interface {
	Publish(e event.Event) error
}

// WorldOption configures a World at construction.
type WorldOption func(*World)

// WithLogger installs the diagnostic sink warnings are routed through.
func WithLogger(l Logger) WorldOption { return func(w *World) { w.logger = l } }

// WithSink installs the observability sink world/tick events publish to.
func WithSink(s Sink) WorldOption { return func(w *World) { w.sink = s } }

// WithDeferredRemoval toggles deferred removal. When disabled, every
// RemoveComponent/Dispose call behaves as if called with immediate=true
// regardless of the argument passed in.
func WithDeferredRemoval(enabled bool) WorldOption {
	return func(w *World) { w.deferredRemovalEnabled = enabled }
}

// World owns every entity, component store, query, and system in one
// runtime instance. It is not safe for concurrent use: the scheduling
// model is single-threaded and cooperative, driven by explicit calls to
// Execute from the host application.
type World struct {
	id     uuid.UUID
	logger Logger
	sink   Sink

	componentStores map[ComponentTypeID]*ComponentStore
	queries         map[QueryKey]*Query

	entities       map[EntityID]*Entity
	nameIndex      map[string]map[EntityID]struct{}
	entityFreeList []*Entity
	nextEntityID   EntityID

	disposalQueue     []*Entity
	removalQueue      []*Entity
	pendingDisposal   map[EntityID]struct{}
	pendingRemovalSet map[EntityID]struct{}

	deferredRemovalEnabled bool
	enabled                bool
	hasTicked              bool
	lastTick               time.Time
	simClock               time.Duration

	systems  *SystemManager
	orderSeq uint64
}

// NewWorld constructs a World ready to register components and systems
// on. It publishes a world-created event to the configured sink, if any.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		id:                     uuid.New(),
		logger:                 noopLogger{},
		componentStores:        make(map[ComponentTypeID]*ComponentStore),
		queries:                make(map[QueryKey]*Query),
		entities:               make(map[EntityID]*Entity),
		nameIndex:              make(map[string]map[EntityID]struct{}),
		pendingDisposal:        make(map[EntityID]struct{}),
		pendingRemovalSet:      make(map[EntityID]struct{}),
		deferredRemovalEnabled: true,
		enabled:                true,
	}
	for _, o := range opts {
		o(w)
	}
	w.systems = newSystemManager(w)
	if w.sink != nil {
		if err := w.sink.Publish(event.NewWorldCreatedEvent(w.id.String(), Version)); err != nil {
			w.warnf("failed to publish world-created event: %v", err)
		}
	}
	return w
}

// ID returns the world's unique identifier.
func (w *World) ID() uuid.UUID { return w.id }

func (w *World) warnf(format string, args ...interface{}) { w.logger.Warnf(format, args...) }

func (w *World) nextOrder() uint64 {
	w.orderSeq++
	return w.orderSeq
}

func (w *World) notifyComponentRegistered(store *ComponentStore) {
	if w.sink == nil {
		return
	}
	if err := w.sink.Publish(event.NewComponentRegisteredEvent(w.id.String(), store.Name, int32(store.id), store.pool != nil)); err != nil {
		w.warnf("failed to publish component-registered event: %v", err)
	}
}

func (w *World) notifySystemRegistered(name string, priority int) {
	if w.sink == nil {
		return
	}
	if err := w.sink.Publish(event.NewSystemRegisteredEvent(w.id.String(), name, priority)); err != nil {
		w.warnf("failed to publish system-registered event: %v", err)
	}
}

func (w *World) notifyEntityDisposed(e *Entity) {
	if w.sink == nil {
		return
	}
	if err := w.sink.Publish(event.NewEntityDisposedEvent(w.id.String(), uint64(e.id))); err != nil {
		w.warnf("failed to publish entity-disposed event: %v", err)
	}
}

// ---- entity lifecycle ----

func (w *World) newEntityID() EntityID {
	w.nextEntityID++
	return w.nextEntityID
}

func (w *World) acquireEntity() *Entity {
	if n := len(w.entityFreeList); n > 0 {
		e := w.entityFreeList[n-1]
		w.entityFreeList = w.entityFreeList[:n-1]
		e.reset(w.newEntityID())
		return e
	}
	e := newEntity(w)
	e.reset(w.newEntityID())
	return e
}

// CreateDetachedEntity acquires an entity that is not yet visible to any
// query. Components attached to it before AddEntity do not emit
// ENTITY_ADDED; AddEntity replays them once the entity becomes visible.
func (w *World) CreateDetachedEntity() *Entity {
	return w.acquireEntity()
}

// AddEntity makes a detached entity visible: it is indexed by name (if
// named) and every already-attached component is replayed through
// onComponentAdded, which both bumps component counts and adds the
// entity to every query it now matches (emitting ENTITY_ADDED for each).
// Calling AddEntity on an already-live entity is a no-op with a logged
// warning.
func (w *World) AddEntity(e *Entity) error {
	if e.alive {
		w.warnf("entity %d already added", e.id)
		return nil
	}
	e.alive = true
	w.entities[e.id] = e
	if e.name != "" {
		w.indexName(e)
	}
	for id := range e.components {
		w.onComponentAdded(e, id)
	}
	return nil
}

// CreateEntity acquires an entity and immediately adds it to the world.
func (w *World) CreateEntity() *Entity {
	e := w.acquireEntity()
	_ = w.AddEntity(e)
	return e
}

func (w *World) indexName(e *Entity) {
	if e.name == "" {
		return
	}
	set, ok := w.nameIndex[e.name]
	if !ok {
		set = make(map[EntityID]struct{})
		w.nameIndex[e.name] = set
	}
	set[e.id] = struct{}{}
}

func (w *World) unindexName(e *Entity) {
	if e.name == "" {
		return
	}
	if set, ok := w.nameIndex[e.name]; ok {
		delete(set, e.id)
		if len(set) == 0 {
			delete(w.nameIndex, e.name)
		}
	}
}

// FindEntityByName returns one entity registered under name, or nil.
func (w *World) FindEntityByName(name string) *Entity {
	for id := range w.nameIndex[name] {
		return w.entities[id]
	}
	return nil
}

// GetEntitiesByName returns every live entity registered under name.
func (w *World) GetEntitiesByName(name string) []*Entity {
	ids := w.nameIndex[name]
	out := make([]*Entity, 0, len(ids))
	for id := range ids {
		out = append(out, w.entities[id])
	}
	return out
}

// ---- query maintenance ----

func contains(ids []ComponentTypeID, target ComponentTypeID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func (w *World) onComponentAdded(e *Entity, t ComponentTypeID) {
	if store, ok := w.componentStores[t]; ok {
		store.count++
	}
	for _, q := range w.queries {
		_, has := q.indexOf(e.id)
		switch {
		case contains(q.Exclude, t) && has:
			q.removeEntity(e)
		case contains(q.Include, t) && !has && q.match(e):
			q.addEntity(e)
		}
	}
}

func (w *World) onRemoveComponent(e *Entity, t ComponentTypeID) {
	if store, ok := w.componentStores[t]; ok {
		store.count--
	}
	for _, q := range w.queries {
		_, has := q.indexOf(e.id)
		switch {
		case contains(q.Exclude, t) && !has && q.match(e):
			q.addEntity(e)
		case contains(q.Include, t) && has && !q.match(e):
			q.removeEntity(e)
		}
	}
}

func (w *World) dispatchComponentChanged(e *Entity, t ComponentTypeID) {
	for _, q := range w.queries {
		if !contains(q.Include, t) {
			continue
		}
		if _, has := q.indexOf(e.id); !has {
			continue
		}
		q.dispatcher.Dispatch(QueryEvent{Type: ComponentChanged, Entity: e, Component: t})
	}
}

// GetQuery returns the Query matching terms, creating and bootstrap-
// scanning it on first use. Queries are cached by their canonical key,
// so two predicates with the same terms in any order share one Query.
func (w *World) GetQuery(terms []QueryTerm) (*Query, error) {
	key, include, exclude, err := w.canonicalize(terms)
	if err != nil {
		return nil, err
	}
	if q, ok := w.queries[key]; ok {
		return q, nil
	}
	q := newQuery(key, include, exclude)
	for _, e := range w.entities {
		if e.alive && q.match(e) {
			q.addEntitySilently(e)
		}
	}
	w.queries[key] = q
	return q, nil
}

// QueryByKey looks up an already-materialized query by its canonical
// key, without creating one. Used by the introspection endpoint, which
// only ever sees keys a query has already reported via Stats.
func (w *World) QueryByKey(key QueryKey) (*Query, bool) {
	q, ok := w.queries[key]
	return q, ok
}

// ---- deferred removal ----

func (w *World) enqueueDisposal(e *Entity) {
	if _, exists := w.pendingDisposal[e.id]; exists {
		return
	}
	w.pendingDisposal[e.id] = struct{}{}
	w.disposalQueue = append(w.disposalQueue, e)
}

func (w *World) enqueuePendingRemoval(e *Entity) {
	if _, exists := w.pendingRemovalSet[e.id]; exists {
		return
	}
	w.pendingRemovalSet[e.id] = struct{}{}
	w.removalQueue = append(w.removalQueue, e)
}

// processDeferredRemoval drains both deferred queues. removalQueue goes
// first so that a disposed entity's own deferred component removals
// drop their query membership before finalizeDisposal detaches it from
// the world -- otherwise finalizeDisposal would run against queries the
// entity was still, correctly, a member of. A panic or error from an
// individual entity's finalization is isolated (logged) so the rest of
// the batch still drains.
func (w *World) processDeferredRemoval() {
	removal := w.removalQueue
	w.removalQueue = nil
	w.pendingRemovalSet = make(map[EntityID]struct{})
	for _, e := range removal {
		w.safeProcessRemoved(e)
	}

	disposal := w.disposalQueue
	w.disposalQueue = nil
	w.pendingDisposal = make(map[EntityID]struct{})
	for _, e := range disposal {
		w.safeFinalizeDisposal(e)
	}
}

func (w *World) safeFinalizeDisposal(e *Entity) {
	defer func() {
		if r := recover(); r != nil {
			w.warnf("panic during deferred disposal of entity %d: %v", e.id, r)
		}
	}()
	if err := e.finalizeDisposal(); err != nil {
		w.warnf("deferred disposal failed for entity %d: %v", e.id, err)
	}
}

func (w *World) safeProcessRemoved(e *Entity) {
	defer func() {
		if r := recover(); r != nil {
			w.warnf("panic during deferred component removal of entity %d: %v", e.id, r)
		}
	}()
	e.ProcessRemovedComponents()
}

// ---- systems ----

// RegisterSystem adds sys to the world under name at priority, resolving
// its declared queries and, if sys implements Initializer, running Init.
func (w *World) RegisterSystem(name string, sys System, priority int) error {
	if err := w.systems.Register(name, sys, priority); err != nil {
		return err
	}
	w.notifySystemRegistered(name, priority)
	return nil
}

// RemoveSystem removes the system registered under name: it is disabled,
// its reactive listeners are unregistered, and it is dropped from both
// the registration and execution lists.
func (w *World) RemoveSystem(name string) { w.systems.Remove(name) }

// GetSystem returns the system registered under name, or nil.
func (w *World) GetSystem(name string) System {
	if rs, ok := w.systems.byName[name]; ok {
		return rs.system
	}
	return nil
}

// GetSystems returns every registered system in registration order.
func (w *World) GetSystems() []System {
	out := make([]System, 0, len(w.systems.all))
	for _, rs := range w.systems.all {
		out = append(out, rs.system)
	}
	return out
}

// ---- execution ----

// Execute drives one tick: runs every enabled executable system in
// (priority, registration order), then, if deferred removal is enabled,
// drains the disposal and removal queues. If delta is nil, the elapsed
// wall-clock time since the previous tick is used (zero on the first
// tick); if simTime is nil, an internally accumulated clock is used. A
// stopped world (see Stop) is a complete no-op: no system runs, no
// events fire.
func (w *World) Execute(ctx context.Context, delta *time.Duration, simTime *time.Duration) error {
	if !w.enabled {
		return nil
	}
	dt := w.resolveDelta(delta)
	st := w.resolveSimTime(simTime, dt)

	if err := w.systems.executeAll(ctx, dt, st); err != nil {
		return err
	}
	if w.deferredRemovalEnabled {
		w.processDeferredRemoval()
	}
	w.notifyTickCompleted(dt)
	return nil
}

func (w *World) notifyTickCompleted(dt time.Duration) {
	if w.sink == nil {
		return
	}
	timing := make(map[string]time.Duration, len(w.systems.all))
	ghosts := 0
	for _, e := range w.entities {
		if e.ghost {
			ghosts++
		}
	}
	for _, rs := range w.systems.all {
		timing[rs.name] = rs.executeTime
	}
	if err := w.sink.Publish(event.NewTickCompletedEvent(w.id.String(), dt, len(w.entities), ghosts, timing)); err != nil {
		w.warnf("failed to publish tick-completed event: %v", err)
	}
}

func (w *World) resolveDelta(delta *time.Duration) time.Duration {
	if delta != nil {
		return *delta
	}
	now := time.Now()
	var dt time.Duration
	if w.hasTicked {
		dt = now.Sub(w.lastTick)
	}
	w.lastTick = now
	w.hasTicked = true
	return dt
}

func (w *World) resolveSimTime(simTime *time.Duration, dt time.Duration) time.Duration {
	if simTime != nil {
		return *simTime
	}
	w.simClock += dt
	return w.simClock
}

// Stop disables the world: Execute becomes a no-op and every system is
// broadcast a stop (disabled, timing reset). Play reverses both.
func (w *World) Stop() {
	w.enabled = false
	w.systems.StopAll()
}

// Play re-enables a world previously stopped with Stop.
func (w *World) Play() {
	w.enabled = true
	w.systems.PlayAll()
}

// Enabled reports whether the world currently executes ticks.
func (w *World) Enabled() bool { return w.enabled }

// ---- stats ----

// WorldStats aggregates entity, component, query, and system counts in
// one snapshot, the basis for both the Prometheus collector and the
// introspection handler.
type WorldStats struct {
	WorldID         string
	Entities        int
	Ghosts          int
	ComponentCounts map[string]int64
	Pools           map[string]PoolStats
	Queries         map[QueryKey]QueryStats
	Systems         []SystemStats
	DeferredQueue   int
}

// Stats returns a snapshot of the world's current occupancy.
func (w *World) Stats() WorldStats {
	ghosts := 0
	for _, e := range w.entities {
		if e.ghost {
			ghosts++
		}
	}
	counts := make(map[string]int64, len(w.componentStores))
	pools := make(map[string]PoolStats, len(w.componentStores))
	for _, store := range w.componentStores {
		counts[store.Name] = store.Count()
		if ps, ok := store.PoolStats(); ok {
			pools[store.Name] = ps
		}
	}
	queries := make(map[QueryKey]QueryStats, len(w.queries))
	for k, q := range w.queries {
		queries[k] = q.Stats()
	}
	return WorldStats{
		WorldID:         w.id.String(),
		Entities:        len(w.entities),
		Ghosts:          ghosts,
		ComponentCounts: counts,
		Pools:           pools,
		Queries:         queries,
		Systems:         w.systems.Stats(),
		DeferredQueue:   len(w.disposalQueue) + len(w.removalQueue),
	}
}
