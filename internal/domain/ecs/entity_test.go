package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTypePosition ComponentTypeID = iota + 1000
	testTypeVelocity
	testTypeTag
	testTypeState
)

type positionComponent struct {
	X, Y float64
}

func (p *positionComponent) Type() ComponentTypeID { return testTypePosition }
func (p *positionComponent) Clone() Component {
	clone := *p
	return &clone
}
func (p *positionComponent) CopyFrom(src Component) {
	if s, ok := src.(*positionComponent); ok {
		*p = *s
	}
}

type velocityComponent struct {
	DX, DY float64
}

func (v *velocityComponent) Type() ComponentTypeID { return testTypeVelocity }
func (v *velocityComponent) Clone() Component {
	clone := *v
	return &clone
}
func (v *velocityComponent) CopyFrom(src Component) {
	if s, ok := src.(*velocityComponent); ok {
		*v = *s
	}
}

type markerTag struct{}

func (markerTag) Type() ComponentTypeID { return testTypeTag }
func (markerTag) Clone() Component      { return markerTag{} }
func (markerTag) CopyFrom(Component)    {}

type stateComponent struct{ Phase int }

func (s *stateComponent) Type() ComponentTypeID { return testTypeState }
func (s *stateComponent) Clone() Component {
	clone := *s
	return &clone
}
func (s *stateComponent) CopyFrom(src Component) {
	if o, ok := src.(*stateComponent); ok {
		*s = *o
	}
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w := NewWorld()
	require.NoError(t, RegisterComponent[*positionComponent](w, testTypePosition, &positionComponent{}))
	require.NoError(t, RegisterComponent[*velocityComponent](w, testTypeVelocity, &velocityComponent{}))
	require.NoError(t, RegisterComponent[markerTag](w, testTypeTag, markerTag{}, Tag()))
	require.NoError(t, RegisterComponent[*stateComponent](w, testTypeState, &stateComponent{}, SystemStateComponent()))
	return w
}

func TestEntity_AddComponentAcquiresFromPool(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()

	require.NoError(t, e.AddComponent(testTypePosition))
	assert.True(t, e.HasComponent(testTypePosition, false))

	pos := e.GetComponent(testTypePosition, false)
	require.NotNil(t, pos)
	assert.Equal(t, testTypePosition, pos.Type())
}

func TestEntity_AddComponentIsNoOpWhenAlreadyAttached(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))

	mutable := e.GetMutableComponent(testTypePosition).(*positionComponent)
	mutable.X = 5

	require.NoError(t, e.AddComponent(testTypePosition))
	assert.Equal(t, 5.0, e.GetMutableComponent(testTypePosition).(*positionComponent).X, "re-adding an attached component must not replace it")
}

func TestEntity_AddComponentWithPropsCopiesFields(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()

	props := &positionComponent{X: 10, Y: 20}
	require.NoError(t, e.AddComponent(testTypePosition, props))

	pos := e.GetMutableComponent(testTypePosition).(*positionComponent)
	assert.Equal(t, 10.0, pos.X)
	assert.Equal(t, 20.0, pos.Y)
}

func TestEntity_GetComponentReturnsReadOnlyView(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition, &positionComponent{X: 1}))

	view := e.GetComponent(testTypePosition, false)
	ro, ok := view.(ReadOnlyView)
	require.True(t, ok)

	err := ro.Set("X", 2.0)
	assert.ErrorIs(t, err, ErrMutabilityViolation)
}

func TestEntity_GetMutableComponentDispatchesComponentChanged(t *testing.T) {
	w := newTestWorld(t)
	q, err := w.GetQuery([]QueryTerm{In(testTypePosition)})
	require.NoError(t, err)
	var changed int
	q.dispatcher.AddListener(ComponentChanged, func(e QueryEvent) { changed++ })

	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))
	e.GetMutableComponent(testTypePosition)

	assert.Equal(t, 1, changed)
}

func TestEntity_RemoveComponentImmediateReleasesToPool(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))

	require.NoError(t, e.RemoveComponent(testTypePosition, true))
	assert.False(t, e.HasComponent(testTypePosition, false))
	assert.False(t, e.HasComponent(testTypePosition, true), "immediate removal does not leave a pending-removal trace")
}

func TestEntity_RemoveComponentDeferredStaysVisibleUntilDrain(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))

	require.NoError(t, e.RemoveComponent(testTypePosition, false))
	assert.False(t, e.HasComponent(testTypePosition, false), "removed components disappear from the live set immediately")
	assert.True(t, e.HasComponent(testTypePosition, true), "but remain visible via includeRemoved until drained")

	e.ProcessRemovedComponents()
	assert.False(t, e.HasComponent(testTypePosition, true))
}

func TestEntity_DeferredRemovalDisabledActsImmediate(t *testing.T) {
	w := NewWorld(WithDeferredRemoval(false))
	require.NoError(t, RegisterComponent[*positionComponent](w, testTypePosition, &positionComponent{}))
	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))

	require.NoError(t, e.RemoveComponent(testTypePosition, false))
	assert.False(t, e.HasComponent(testTypePosition, true), "deferred removal disabled means every removal is effectively immediate")
}

func TestEntity_DisposeGhostRetainedUntilStateComponentCleared(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))
	require.NoError(t, e.AddComponent(testTypeState))

	require.NoError(t, e.Dispose(true))
	assert.False(t, e.IsAlive())
	assert.True(t, e.IsGhost(), "an entity with an attached system-state component becomes a ghost, not fully disposed")
	assert.True(t, e.HasComponent(testTypeState, false), "the state component itself survives disposal")
	assert.False(t, e.HasComponent(testTypePosition, false), "non-state components are still removed")

	require.NoError(t, e.RemoveComponent(testTypeState, true))
	assert.False(t, e.IsGhost(), "removing the last state component self-disposes the ghost")
}

func TestEntity_DisposeWithoutStateComponentsFullyReleases(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))
	id := e.ID()

	require.NoError(t, e.Dispose(true))
	assert.False(t, e.IsAlive())
	assert.False(t, e.IsGhost())
	assert.Nil(t, w.entities[id])
}

func TestEntity_CreateDetachedThenAddReplaysComponents(t *testing.T) {
	w := newTestWorld(t)
	q, err := w.GetQuery([]QueryTerm{In(testTypePosition)})
	require.NoError(t, err)

	e := w.CreateDetachedEntity()
	require.NoError(t, e.AddComponent(testTypePosition))
	assert.Equal(t, 0, q.Len(), "components attached before AddEntity do not appear in queries yet")

	require.NoError(t, w.AddEntity(e))
	assert.Equal(t, 1, q.Len(), "AddEntity replays already-attached components into matching queries")
}

func TestEntity_CloneCopiesComponentSet(t *testing.T) {
	w := newTestWorld(t)
	original := w.CreateEntity()
	require.NoError(t, original.AddComponent(testTypePosition, &positionComponent{X: 3, Y: 4}))

	clone, err := original.Clone()
	require.NoError(t, err)
	assert.NotEqual(t, original.ID(), clone.ID())
	pos := clone.GetMutableComponent(testTypePosition).(*positionComponent)
	assert.Equal(t, 3.0, pos.X)
	assert.Equal(t, 4.0, pos.Y)
}

func TestEntity_SetNameUpdatesWorldIndex(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	e.SetName("player")

	assert.Same(t, e, w.FindEntityByName("player"))

	e.SetName("hero")
	assert.Nil(t, w.FindEntityByName("player"))
	assert.Same(t, e, w.FindEntityByName("hero"))
}

func TestEntity_HasAllAndHasAnyComponents(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))

	assert.True(t, e.HasAnyComponents([]ComponentTypeID{testTypePosition, testTypeVelocity}))
	assert.False(t, e.HasAllComponents([]ComponentTypeID{testTypePosition, testTypeVelocity}))

	require.NoError(t, e.AddComponent(testTypeVelocity))
	assert.True(t, e.HasAllComponents([]ComponentTypeID{testTypePosition, testTypeVelocity}))
}
