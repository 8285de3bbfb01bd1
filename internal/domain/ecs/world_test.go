package ecs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdelNorberg/ecsy/internal/domain/event"
)

type capturingSink struct {
	published []event.Event
}

func (s *capturingSink) Publish(e event.Event) error {
	s.published = append(s.published, e)
	return nil
}

func (s *capturingSink) names() []string {
	out := make([]string, len(s.published))
	for i, e := range s.published {
		out[i] = e.EventName()
	}
	return out
}

type capturingLogger struct {
	warnings []string
}

func (l *capturingLogger) Warnf(format string, args ...interface{}) {
	l.warnings = append(l.warnings, format)
}

func TestWorld_NewWorldPublishesWorldCreated(t *testing.T) {
	sink := &capturingSink{}
	NewWorld(WithSink(sink))

	require.Len(t, sink.published, 1)
	assert.Equal(t, event.EventNameWorldCreated, sink.published[0].EventName())
}

func TestWorld_RegisterComponentPublishesComponentRegistered(t *testing.T) {
	sink := &capturingSink{}
	w := NewWorld(WithSink(sink))
	require.NoError(t, RegisterComponent[*positionComponent](w, testTypePosition, &positionComponent{}))

	assert.Contains(t, sink.names(), event.EventNameComponentRegistered)
}

func TestWorld_RegisterSystemPublishesSystemRegistered(t *testing.T) {
	sink := &capturingSink{}
	w := newTestWorld(t)
	w.sink = sink
	require.NoError(t, w.RegisterSystem("movement", &movementSystem{}, 0))

	assert.Contains(t, sink.names(), event.EventNameSystemRegistered)
}

func TestWorld_ExecutePublishesTickCompleted(t *testing.T) {
	sink := &capturingSink{}
	w := newTestWorld(t)
	w.sink = sink

	dt := 16 * time.Millisecond
	require.NoError(t, w.Execute(context.Background(), &dt, nil))

	assert.Contains(t, sink.names(), event.EventNameTickCompleted)
}

func TestWorld_DisposeOfNonGhostPublishesEntityDisposed(t *testing.T) {
	sink := &capturingSink{}
	w := newTestWorld(t)
	w.sink = sink

	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))
	require.NoError(t, e.Dispose(true))

	assert.Contains(t, sink.names(), event.EventNameEntityDisposed)
}

func TestWorld_DuplicateComponentRegistrationWarnsAndNoOps(t *testing.T) {
	logger := &capturingLogger{}
	w := NewWorld(WithLogger(logger))
	require.NoError(t, RegisterComponent[*positionComponent](w, testTypePosition, &positionComponent{X: 1}))
	require.NoError(t, RegisterComponent[*positionComponent](w, testTypePosition, &positionComponent{X: 2}))

	assert.NotEmpty(t, logger.warnings)
	stats, _ := w.componentStores[testTypePosition].PoolStats()
	assert.Equal(t, 0, stats.Total, "the second registration must not replace the first store's pool")
}

func TestWorld_StopPreventsExecuteAndPlayResumes(t *testing.T) {
	w := newTestWorld(t)
	sys := &movementSystem{}
	require.NoError(t, w.RegisterSystem("movement", sys, 0))

	w.Stop()
	assert.False(t, w.Enabled())
	require.NoError(t, w.Execute(context.Background(), durationPtr(time.Millisecond), nil))
	assert.Equal(t, 0, sys.runs, "Stop must make Execute a complete no-op")

	w.Play()
	assert.True(t, w.Enabled())
	require.NoError(t, w.Execute(context.Background(), durationPtr(time.Millisecond), nil))
	assert.Equal(t, 1, sys.runs)
}

func TestWorld_DeferredRemovalDrainsAtEndOfTick(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))

	require.NoError(t, e.RemoveComponent(testTypePosition, false))
	assert.True(t, e.HasComponent(testTypePosition, true), "deferred removal is still pending before the tick drains")

	require.NoError(t, w.Execute(context.Background(), durationPtr(time.Millisecond), nil))
	assert.False(t, e.HasComponent(testTypePosition, true), "World.Execute drains the pending-removal queue")
}

func TestWorld_DeferredDisposalDrainsAtEndOfTick(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	id := e.ID()
	require.NoError(t, e.AddComponent(testTypePosition))

	require.NoError(t, e.Dispose(false))
	assert.NotNil(t, w.entities[id], "deferred disposal enqueues the entity but does not unregister it until the tick drains")

	require.NoError(t, w.Execute(context.Background(), durationPtr(time.Millisecond), nil))
	assert.Nil(t, w.entities[id], "World.Execute drains the disposal queue")
}

func TestWorld_StatsReportsEntitiesGhostsAndComponents(t *testing.T) {
	w := newTestWorld(t)
	e1 := w.CreateEntity()
	require.NoError(t, e1.AddComponent(testTypePosition))
	e2 := w.CreateEntity()
	require.NoError(t, e2.AddComponent(testTypePosition))
	require.NoError(t, e2.AddComponent(testTypeState))
	require.NoError(t, e2.Dispose(true))

	stats := w.Stats()
	assert.Equal(t, 2, stats.Entities, "the ghost is retained in the entity map alongside e1")
	assert.Equal(t, 1, stats.Ghosts)
	assert.Equal(t, int64(1), stats.ComponentCounts["#1000"], "e2's non-state position component was removed by Dispose; only e1's remains attached")
}

func TestWorld_FindAndGetEntitiesByName(t *testing.T) {
	w := newTestWorld(t)
	a := w.CreateEntity()
	a.SetName("npc")
	b := w.CreateEntity()
	b.SetName("npc")

	found := w.GetEntitiesByName("npc")
	assert.Len(t, found, 2)

	assert.NotNil(t, w.FindEntityByName("npc"))
	assert.Nil(t, w.FindEntityByName("missing"))
}

func TestWorld_ResolveDeltaUsesWallClockWhenNilFirstTickIsZero(t *testing.T) {
	w := newTestWorld(t)
	require.NoError(t, w.Execute(context.Background(), nil, nil))
	assert.True(t, w.hasTicked, "a nil delta reads the wall clock")
	assert.Equal(t, time.Duration(0), w.simClock, "the first tick's delta is zero")
}
