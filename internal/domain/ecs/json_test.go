package ecs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_ToJSONUsesComponentNamesUnderComponentsNesting(t *testing.T) {
	w := newTestWorld(t)
	q, err := w.GetQuery([]QueryTerm{In(testTypePosition), Not(testTypeVelocity)})
	require.NoError(t, err)

	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))

	out, err := q.ToJSON(w)
	require.NoError(t, err)
	m := out.AsMap()

	assert.Equal(t, string(q.key), m["key"])
	assert.Equal(t, q.reactive, m["reactive"])
	assert.Equal(t, 1.0, m["numEntities"])

	components, ok := m["components"].(map[string]interface{})
	require.True(t, ok, "components must be a nested object, not flat included/excluded fields")
	included, ok := components["included"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"#1000"}, included, "newTestWorld registers components without WithName, so the fallback #<id> name is used")
	not, ok := components["not"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"#1001"}, not)
}

func TestSystemManager_ToJSONSurfacesListenWhenReactive(t *testing.T) {
	w := newTestWorld(t)
	require.NoError(t, w.RegisterSystem("movement", &movementSystem{}, 0))

	rs := w.systems.byName["movement"]
	bq := rs.queries["moving"]
	bq.Reactive = true
	bq.listenerIDs = append(bq.listenerIDs, boundListener{eventType: EntityAdded})
	bq.Added = append(bq.Added, &Entity{})

	out, err := w.systems.ToJSON("movement")
	require.NoError(t, err)
	m := out.AsMap()

	queries, ok := m["queries"].(map[string]interface{})
	require.True(t, ok)
	moving, ok := queries["moving"].(map[string]interface{})
	require.True(t, ok)

	listen, ok := moving["listen"].(map[string]interface{})
	require.True(t, ok, "a reactive bound query must surface a listen object")
	added, ok := listen["added"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1.0, added["entities"])
	_, hasRemoved := listen["removed"]
	assert.False(t, hasRemoved, "only the subscriptions actually requested are listed")
}

func TestSystemManager_ToJSONOmitsListenWhenNotReactive(t *testing.T) {
	w := newTestWorld(t)
	require.NoError(t, w.RegisterSystem("movement", &movementSystem{}, 0))

	out, err := w.systems.ToJSON("movement")
	require.NoError(t, err)
	m := out.AsMap()

	queries := m["queries"].(map[string]interface{})
	moving := queries["moving"].(map[string]interface{})
	_, hasListen := moving["listen"]
	assert.False(t, hasListen)
}

func TestWorld_ToJSONReportsAggregateStats(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))
	require.NoError(t, w.Execute(context.Background(), durationPtr(time.Millisecond), nil))

	out, err := w.ToJSON()
	require.NoError(t, err)
	m := out.AsMap()

	assert.Equal(t, 1.0, m["entities"])
	assert.Equal(t, 0.0, m["ghosts"])
	assert.Equal(t, Version, m["version"])
}
