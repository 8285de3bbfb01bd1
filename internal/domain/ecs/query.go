package ecs

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kamstrup/intmap"
)

// QueryTerm is one element of a query's predicate: either an include
// (the entity must carry this component) or, via Not, an exclude (the
// entity must not carry it).
type QueryTerm struct {
	Component ComponentTypeID
	Exclude   bool
}

// In builds an include term, the counterpart of Not.
func In(c ComponentTypeID) QueryTerm { return QueryTerm{Component: c} }

// Not builds an exclude term: entities carrying c never match.
func Not(c ComponentTypeID) QueryTerm { return QueryTerm{Component: c, Exclude: true} }

// QueryKey is the canonical, permutation-stable string identifying a
// query's predicate -- two predicates with the same terms in any order
// produce the same key and therefore share a Query instance.
type QueryKey string

// QueryStats snapshots one query's occupancy for introspection.
type QueryStats struct {
	Key         QueryKey
	NumEntities int
	Reactive    bool
}

// Query is a materialized view over a World's entities: every entity
// currently satisfying Include (all present) and Exclude (all absent).
// Membership is maintained incrementally by the World as components are
// added and removed; Query never re-scans to answer Entities().
type Query struct {
	key      QueryKey
	Include  []ComponentTypeID
	Exclude  []ComponentTypeID
	entities []*Entity
	index    *intmap.Map[EntityID, int]

	reactive   bool
	dispatcher *EventDispatcher
}

func newQuery(key QueryKey, include, exclude []ComponentTypeID) *Query {
	return &Query{
		key:        key,
		Include:    include,
		Exclude:    exclude,
		index:      intmap.New[EntityID, int](16),
		dispatcher: NewEventDispatcher(),
	}
}

// Key returns the query's canonical key.
func (q *Query) Key() QueryKey { return q.key }

// Entities returns the query's current materialized result set. Callers
// must not mutate the returned slice.
func (q *Query) Entities() []*Entity { return q.entities }

// Len returns the number of entities currently matching.
func (q *Query) Len() int { return len(q.entities) }

// Dispatcher exposes the query's reactive event dispatcher so a
// SystemManager can wire per-query listeners into a system's event
// buffers.
func (q *Query) Dispatcher() *EventDispatcher { return q.dispatcher }

func (q *Query) match(e *Entity) bool {
	for _, t := range q.Include {
		if !e.HasComponent(t, false) {
			return false
		}
	}
	for _, t := range q.Exclude {
		if e.HasComponent(t, false) {
			return false
		}
	}
	return true
}

func (q *Query) indexOf(id EntityID) (int, bool) { return q.index.Get(id) }

func (q *Query) addEntitySilently(e *Entity) {
	if _, already := q.indexOf(e.id); already {
		return
	}
	q.index.Put(e.id, len(q.entities))
	q.entities = append(q.entities, e)
	e.queries[q.key] = struct{}{}
}

func (q *Query) addEntity(e *Entity) {
	q.addEntitySilently(e)
	q.dispatcher.Dispatch(QueryEvent{Type: EntityAdded, Entity: e})
}

func (q *Query) removeEntity(e *Entity) {
	idx, ok := q.indexOf(e.id)
	if !ok {
		return
	}
	last := len(q.entities) - 1
	moved := q.entities[last]
	q.entities[idx] = moved
	q.entities = q.entities[:last]
	q.index.Del(e.id)
	if moved.id != e.id {
		q.index.Put(moved.id, idx)
	}
	delete(e.queries, q.key)
	q.dispatcher.Dispatch(QueryEvent{Type: EntityRemoved, Entity: e})
}

// Stats snapshots the query's current occupancy.
func (q *Query) Stats() QueryStats {
	return QueryStats{Key: q.key, NumEntities: len(q.entities), Reactive: q.reactive}
}

// canonicalize builds the sorted, permutation-stable key for a term list
// and splits it into include/exclude id slices. A missing-registration
// lookup for a term's component name is a logged warning, not a failure;
// the key still forms using the type's fallback "#id" name.
func (w *World) canonicalize(terms []QueryTerm) (QueryKey, []ComponentTypeID, []ComponentTypeID, error) {
	var include, exclude []ComponentTypeID
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		name := w.componentName(t.Component)
		if t.Exclude {
			exclude = append(exclude, t.Component)
			names = append(names, "!"+name)
		} else {
			include = append(include, t.Component)
			names = append(names, name)
		}
	}
	if len(include) == 0 {
		return "", nil, nil, ErrEmptyQuery
	}
	sort.Strings(names)
	return QueryKey(strings.Join(names, ",")), include, exclude, nil
}

func (w *World) componentName(id ComponentTypeID) string {
	if store, ok := w.componentStores[id]; ok {
		return store.Name
	}
	w.warnf("component type %d used in a query without prior registration", id)
	return componentFallbackName(id)
}

func componentFallbackName(id ComponentTypeID) string {
	return "#" + strconv.FormatInt(int64(id), 10)
}
