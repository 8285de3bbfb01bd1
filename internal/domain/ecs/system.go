package ecs

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// ChangeFilter narrows a Changed listener to specific component types, or
// leaves it open to any change within the query's Include set.
type ChangeFilter struct {
	Any    bool
	Fields []ComponentTypeID
}

// AnyChange builds a filter matching COMPONENT_CHANGED for any component
// type in the query's Include set.
func AnyChange() *ChangeFilter { return &ChangeFilter{Any: true} }

// ChangeOf builds a filter matching COMPONENT_CHANGED only for the named
// component types.
func ChangeOf(types ...ComponentTypeID) *ChangeFilter { return &ChangeFilter{Fields: types} }

func (f *ChangeFilter) matches(t ComponentTypeID) bool {
	return f.Any || contains(f.Fields, t)
}

// ListenSpec declares which of a query's reactive events a system wants
// buffered for it between ticks.
type ListenSpec struct {
	Added   bool
	Removed bool
	Changed *ChangeFilter
}

// QuerySpec is one entry in a System's QueryDeclarations: a named query
// predicate, whether the system requires at least one match to execute,
// and an optional reactive subscription.
type QuerySpec struct {
	Name       string
	Components []QueryTerm
	Mandatory  bool
	Listen     *ListenSpec
}

// BoundQuery is the resolved, per-system view of one QuerySpec: the
// shared Query plus this system's own event buffers, cleared after every
// Execute.
type BoundQuery struct {
	Query     *Query
	Mandatory bool
	Reactive  bool
	Added     []*Entity
	Removed   []*Entity
	Changed   []*Entity

	listenerIDs []boundListener
}

type boundListener struct {
	eventType QueryEventType
	id        int
}

func (b *BoundQuery) clear() {
	b.Added = b.Added[:0]
	b.Removed = b.Removed[:0]
	b.Changed = b.Changed[:0]
}

// System declares the queries it needs. A System that also implements
// Executor runs every tick; one that only implements System is resolved
// and kept available (via SystemManager/World lookups) without ever
// being driven automatically -- the two-list split spec'd for the
// scheduler.
type System interface {
	QueryDeclarations() []QuerySpec
}

// Executor is the optional execute step a System can implement to be
// driven every tick.
type Executor interface {
	Execute(ctx context.Context, sc *SystemContext) error
}

// Initializer is an optional one-time setup step run once at
// registration, after queries are resolved.
type Initializer interface {
	Init(w *World) error
}

// SystemContext is handed to Executor.Execute for one tick: the world,
// the tick's delta/sim time, and this system's resolved, buffered
// queries.
type SystemContext struct {
	World *World
	Delta time.Duration
	Time  time.Duration

	queries map[string]*BoundQuery
}

// Query returns the bound query registered under name in this system's
// QueryDeclarations, or nil if no such name was declared.
func (sc *SystemContext) Query(name string) *BoundQuery { return sc.queries[name] }

type registeredSystem struct {
	name        string
	system      System
	priority    int
	order       uint64
	enabled     bool
	initialized bool
	executeTime time.Duration
	queries     map[string]*BoundQuery
}

func (r *registeredSystem) canExecute() bool {
	for _, q := range r.queries {
		if q.Mandatory && q.Query.Len() == 0 {
			return false
		}
	}
	return true
}

func (r *registeredSystem) clearEvents() {
	for _, q := range r.queries {
		q.clear()
	}
}

// SystemStats snapshots one registered system for introspection.
type SystemStats struct {
	Name        string
	Enabled     bool
	Priority    int
	ExecuteTime time.Duration
	Queries     map[string]QueryStats
}

// SystemManager owns registration order, priority scheduling, and
// per-tick execution of every system registered on a World. It
// maintains two lists, matching spec.md §4.7: all registered systems,
// and the subset that also implements Executor, kept sorted by
// (priority ascending, registration order ascending). The order counter
// is monotonic for the lifetime of the manager and never reset, so a
// removed-then-re-added system always sorts after everything registered
// before its removal.
type SystemManager struct {
	world     *World
	all       []*registeredSystem
	execOrder []*registeredSystem
	byName    map[string]*registeredSystem
}

func newSystemManager(w *World) *SystemManager {
	return &SystemManager{world: w, byName: make(map[string]*registeredSystem)}
}

// Register resolves sys's declared queries against w, wires any reactive
// listeners into per-system event buffers, runs Init if sys implements
// Initializer, and inserts sys into the execution order if it implements
// Executor. Re-registering an existing name is a no-op with a logged
// warning.
func (sm *SystemManager) Register(name string, sys System, priority int) error {
	if _, exists := sm.byName[name]; exists {
		sm.world.warnf("system %q already registered", name)
		return nil
	}
	rs := &registeredSystem{
		name:     name,
		system:   sys,
		priority: priority,
		order:    sm.world.nextOrder(),
		enabled:  true,
		queries:  make(map[string]*BoundQuery),
	}
	for _, decl := range sys.QueryDeclarations() {
		q, err := sm.world.GetQuery(decl.Components)
		if err != nil {
			return fmt.Errorf("system %q query %q: %w", name, decl.Name, err)
		}
		bq := &BoundQuery{Query: q, Mandatory: decl.Mandatory}
		if decl.Listen != nil {
			bq.Reactive = true
			q.reactive = true
			wireListeners(q, bq, decl.Listen)
		}
		rs.queries[decl.Name] = bq
	}
	if init, ok := sys.(Initializer); ok {
		if err := init.Init(sm.world); err != nil {
			return fmt.Errorf("system %q init: %w", name, err)
		}
	}
	rs.initialized = true

	sm.all = append(sm.all, rs)
	sm.byName[name] = rs
	if _, ok := sys.(Executor); ok {
		sm.execOrder = append(sm.execOrder, rs)
		sm.resort()
	}
	return nil
}

func wireListeners(q *Query, bq *BoundQuery, listen *ListenSpec) {
	if listen.Added {
		id := q.dispatcher.AddListener(EntityAdded, func(e QueryEvent) {
			bq.Added = append(bq.Added, e.Entity)
		})
		bq.listenerIDs = append(bq.listenerIDs, boundListener{EntityAdded, id})
	}
	if listen.Removed {
		id := q.dispatcher.AddListener(EntityRemoved, func(e QueryEvent) {
			bq.Removed = append(bq.Removed, e.Entity)
		})
		bq.listenerIDs = append(bq.listenerIDs, boundListener{EntityRemoved, id})
	}
	if listen.Changed != nil {
		filter := listen.Changed
		id := q.dispatcher.AddListener(ComponentChanged, func(e QueryEvent) {
			if filter.matches(e.Component) {
				bq.Changed = append(bq.Changed, e.Entity)
			}
		})
		bq.listenerIDs = append(bq.listenerIDs, boundListener{ComponentChanged, id})
	}
}

// Remove removes the system registered under name: it stops receiving
// ticks and its reactive listeners are unregistered from their queries.
// This implements the redesigned remove-by-identity behavior (spec.md
// §9's open question about the original's indexOf-based removal): lookup
// is by registration name, the true identity key, rather than by
// searching a list for an equal value.
func (sm *SystemManager) Remove(name string) {
	rs, ok := sm.byName[name]
	if !ok {
		return
	}
	rs.enabled = false
	for _, bq := range rs.queries {
		for _, l := range bq.listenerIDs {
			bq.Query.dispatcher.RemoveListener(l.eventType, l.id)
		}
	}
	delete(sm.byName, name)
	sm.all = removeRegistered(sm.all, rs)
	sm.execOrder = removeRegistered(sm.execOrder, rs)
}

func removeRegistered(list []*registeredSystem, target *registeredSystem) []*registeredSystem {
	for i, rs := range list {
		if rs == target {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

func (sm *SystemManager) resort() {
	sort.SliceStable(sm.execOrder, func(i, j int) bool {
		a, b := sm.execOrder[i], sm.execOrder[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.order < b.order
	})
}

func (sm *SystemManager) executeAll(ctx context.Context, delta, simTime time.Duration) error {
	for _, rs := range sm.execOrder {
		if !rs.enabled {
			continue
		}
		if err := sm.executeSystem(ctx, rs, delta, simTime); err != nil {
			return err
		}
	}
	return nil
}

// executeSystem invokes one system's Execute, times it, and clears its
// per-query event buffers regardless of outcome so the next tick starts
// empty. A failing system aborts the whole tick: the error propagates to
// the caller of World.Execute rather than being swallowed here.
func (sm *SystemManager) executeSystem(ctx context.Context, rs *registeredSystem, delta, simTime time.Duration) error {
	if !rs.initialized || !rs.canExecute() {
		return nil
	}
	exec, ok := rs.system.(Executor)
	if !ok {
		return nil
	}
	sc := &SystemContext{World: sm.world, Delta: delta, Time: simTime, queries: rs.queries}
	start := time.Now()
	err := exec.Execute(ctx, sc)
	rs.executeTime = time.Since(start)
	rs.clearEvents()
	if err != nil {
		return fmt.Errorf("system %q: %w", rs.name, err)
	}
	return nil
}

// StopAll disables every registered system and resets their timing.
func (sm *SystemManager) StopAll() {
	for _, rs := range sm.all {
		rs.enabled = false
		rs.executeTime = 0
	}
}

// PlayAll re-enables every registered system.
func (sm *SystemManager) PlayAll() {
	for _, rs := range sm.all {
		rs.enabled = true
	}
}

// Stats snapshots every registered system in registration order.
func (sm *SystemManager) Stats() []SystemStats {
	out := make([]SystemStats, 0, len(sm.all))
	for _, rs := range sm.all {
		queries := make(map[string]QueryStats, len(rs.queries))
		for name, bq := range rs.queries {
			queries[name] = bq.Query.Stats()
		}
		out = append(out, SystemStats{
			Name:        rs.name,
			Enabled:     rs.enabled,
			Priority:    rs.priority,
			ExecuteTime: rs.executeTime,
			Queries:     queries,
		})
	}
	return out
}
