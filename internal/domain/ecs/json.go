package ecs

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToJSON serializes the query's predicate and current size as a
// protobuf Struct, the wire shape the introspection endpoint hands to
// connect-go without needing a generated message type. Component ids are
// resolved to their registered names through w, since a Query only ever
// knows the raw ComponentTypeIDs it was built from.
func (q *Query) ToJSON(w *World) (*structpb.Struct, error) {
	included := make([]any, len(q.Include))
	for i, id := range q.Include {
		included[i] = w.componentName(id)
	}
	not := make([]any, len(q.Exclude))
	for i, id := range q.Exclude {
		not[i] = w.componentName(id)
	}
	components, err := structpb.NewStruct(map[string]any{
		"included": included,
		"not":      not,
	})
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{
		"key":         string(q.key),
		"reactive":    q.reactive,
		"components":  components.AsMap(),
		"numEntities": float64(len(q.entities)),
	})
}

// listening reports which of EntityAdded/EntityRemoved/ComponentChanged
// this bound query actually subscribed a listener for.
func (bq *BoundQuery) listening() (added, removed, changed bool) {
	for _, l := range bq.listenerIDs {
		switch l.eventType {
		case EntityAdded:
			added = true
		case EntityRemoved:
			removed = true
		case ComponentChanged:
			changed = true
		}
	}
	return added, removed, changed
}

// ToJSON serializes one registered system's scheduling state and bound
// queries as a protobuf Struct.
func (sm *SystemManager) ToJSON(name string) (*structpb.Struct, error) {
	rs, ok := sm.byName[name]
	if !ok {
		return structpb.NewStruct(nil)
	}
	queries := make(map[string]any, len(rs.queries))
	for qname, bq := range rs.queries {
		entry := map[string]any{
			"key":       string(bq.Query.key),
			"mandatory": bq.Mandatory,
			"reactive":  bq.Reactive,
			"entities":  float64(bq.Query.Len()),
		}
		if bq.Reactive {
			added, removed, changed := bq.listening()
			listen := make(map[string]any, 3)
			if added {
				listen["added"] = map[string]any{"entities": float64(len(bq.Added))}
			}
			if removed {
				listen["removed"] = map[string]any{"entities": float64(len(bq.Removed))}
			}
			if changed {
				listen["changed"] = map[string]any{"entities": float64(len(bq.Changed))}
			}
			entry["listen"] = listen
		}
		queries[qname] = entry
	}
	return structpb.NewStruct(map[string]any{
		"name":        rs.name,
		"enabled":     rs.enabled,
		"priority":    float64(rs.priority),
		"executeTime": rs.executeTime.Seconds(),
		"queries":     queries,
	})
}

// ToJSON serializes the world's aggregate stats as a protobuf Struct.
func (w *World) ToJSON() (*structpb.Struct, error) {
	stats := w.Stats()
	counts := make(map[string]any, len(stats.ComponentCounts))
	for name, count := range stats.ComponentCounts {
		counts[name] = float64(count)
	}
	queries := make(map[string]any, len(stats.Queries))
	for key, qs := range stats.Queries {
		queries[string(key)] = map[string]any{
			"entities": float64(qs.NumEntities),
			"reactive": qs.Reactive,
		}
	}
	systems := make([]any, len(stats.Systems))
	for i, s := range stats.Systems {
		systems[i] = map[string]any{
			"name":        s.Name,
			"enabled":     s.Enabled,
			"priority":    float64(s.Priority),
			"executeTime": s.ExecuteTime.Seconds(),
		}
	}
	return structpb.NewStruct(map[string]any{
		"world":      stats.WorldID,
		"version":    Version,
		"entities":   float64(stats.Entities),
		"ghosts":     float64(stats.Ghosts),
		"components": counts,
		"queries":    queries,
		"systems":    systems,
	})
}

// SystemJSON serializes one registered system's scheduling state, by
// name, as a protobuf Struct.
func (w *World) SystemJSON(name string) (*structpb.Struct, error) {
	return w.systems.ToJSON(name)
}

// MarshalJSON renders a protobuf Struct as compact JSON text.
func MarshalJSON(s *structpb.Struct) ([]byte, error) {
	return protojson.Marshal(s)
}
