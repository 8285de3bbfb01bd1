package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterComponent_DefaultNameFallsBackToHashID(t *testing.T) {
	w := NewWorld()
	require.NoError(t, RegisterComponent[*positionComponent](w, testTypePosition, &positionComponent{}))

	store := w.componentStores[testTypePosition]
	assert.Equal(t, "#1000", store.Name)
}

func TestRegisterComponent_WithNameOverridesDefault(t *testing.T) {
	w := NewWorld()
	require.NoError(t, RegisterComponent[*positionComponent](w, testTypePosition, &positionComponent{}, WithName("Position")))

	store := w.componentStores[testTypePosition]
	assert.Equal(t, "Position", store.Name)
}

func TestRegisterComponent_TagAndSystemStateFlags(t *testing.T) {
	w := NewWorld()
	require.NoError(t, RegisterComponent[markerTag](w, testTypeTag, markerTag{}, Tag()))
	require.NoError(t, RegisterComponent[*stateComponent](w, testTypeState, &stateComponent{}, SystemStateComponent()))

	assert.True(t, w.componentStores[testTypeTag].IsTag())
	assert.True(t, w.componentStores[testTypeState].IsSystemState())
	assert.False(t, w.componentStores[testTypeTag].IsSystemState())
}

func TestRegisterComponent_WithoutPoolSkipsPooling(t *testing.T) {
	w := NewWorld()
	require.NoError(t, RegisterComponent[*positionComponent](w, testTypePosition, &positionComponent{}, WithoutPool()))

	store := w.componentStores[testTypePosition]
	assert.False(t, store.Pooled())
	_, ok := store.PoolStats()
	assert.False(t, ok)
}

func TestRegisterComponent_PooledByDefault(t *testing.T) {
	w := NewWorld()
	require.NoError(t, RegisterComponent[*positionComponent](w, testTypePosition, &positionComponent{}))

	store := w.componentStores[testTypePosition]
	assert.True(t, store.Pooled())
}

func TestRegisterComponent_InvalidSchemaIsRejected(t *testing.T) {
	w := NewWorld()
	badSchema := Schema{
		"x": {Kind: PropertyType{}, Default: 0},
	}
	err := RegisterComponent[*positionComponent](w, testTypePosition, &positionComponent{}, WithSchema(badSchema))
	assert.ErrorIs(t, err, ErrSchemaInvalid)
	_, registered := w.componentStores[testTypePosition]
	assert.False(t, registered)
}

func TestRegisterComponent_ValidSchemaIsAccepted(t *testing.T) {
	w := NewWorld()
	schema := Schema{
		"x": {Kind: Number, Default: 0.0},
		"y": {Kind: Number, Default: 0.0},
	}
	require.NoError(t, RegisterComponent[*positionComponent](w, testTypePosition, &positionComponent{}, WithSchema(schema)))

	store := w.componentStores[testTypePosition]
	assert.Len(t, store.Schema(), 2)
}

func TestRegisterComponent_CountTracksAttachAndDetach(t *testing.T) {
	w := newTestWorld(t)
	store := w.componentStores[testTypePosition]
	assert.Equal(t, int64(0), store.Count())

	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))
	assert.Equal(t, int64(1), store.Count())

	require.NoError(t, e.RemoveComponent(testTypePosition, true))
	assert.Equal(t, int64(0), store.Count())
}
