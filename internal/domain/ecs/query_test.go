package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_CanonicalKeyIsPermutationStable(t *testing.T) {
	w := newTestWorld(t)

	q1, err := w.GetQuery([]QueryTerm{In(testTypePosition), In(testTypeVelocity)})
	require.NoError(t, err)
	q2, err := w.GetQuery([]QueryTerm{In(testTypeVelocity), In(testTypePosition)})
	require.NoError(t, err)

	assert.Same(t, q1, q2, "two predicates with the same terms in any order must share one Query")
}

func TestQuery_EmptyQueryIsRejected(t *testing.T) {
	w := newTestWorld(t)

	_, err := w.GetQuery(nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = w.GetQuery([]QueryTerm{Not(testTypePosition)})
	assert.ErrorIs(t, err, ErrEmptyQuery, "an all-exclude term list has no include terms to match against")
}

func TestQuery_MatchesOnEntityCreation(t *testing.T) {
	w := newTestWorld(t)
	q, err := w.GetQuery([]QueryTerm{In(testTypePosition)})
	require.NoError(t, err)

	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))

	assert.Equal(t, 1, q.Len())
	assert.Same(t, e, q.Entities()[0])
}

func TestQuery_ExcludeFlipRemovesAndRestoresMembership(t *testing.T) {
	w := newTestWorld(t)
	q, err := w.GetQuery([]QueryTerm{In(testTypePosition), Not(testTypeVelocity)})
	require.NoError(t, err)

	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))
	assert.Equal(t, 1, q.Len())

	require.NoError(t, e.AddComponent(testTypeVelocity))
	assert.Equal(t, 0, q.Len(), "adding an excluded component must drop the entity from the query")

	require.NoError(t, e.RemoveComponent(testTypeVelocity, true))
	assert.Equal(t, 1, q.Len(), "removing the excluded component restores membership")
}

func TestQuery_BootstrapScansExistingEntities(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))

	q, err := w.GetQuery([]QueryTerm{In(testTypePosition)})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Len(), "GetQuery bootstrap-scans already-live entities on first use")
}

func TestQuery_RemoveEntityIsConstantTimeSwapRemoval(t *testing.T) {
	w := newTestWorld(t)
	q, err := w.GetQuery([]QueryTerm{In(testTypePosition)})
	require.NoError(t, err)

	var entities []*Entity
	for i := 0; i < 5; i++ {
		e := w.CreateEntity()
		require.NoError(t, e.AddComponent(testTypePosition))
		entities = append(entities, e)
	}
	assert.Equal(t, 5, q.Len())

	mid := entities[2]
	require.NoError(t, mid.RemoveComponent(testTypePosition, true))

	assert.Equal(t, 4, q.Len())
	for _, e := range q.Entities() {
		assert.NotEqual(t, mid.ID(), e.ID())
	}
}

func TestQuery_ReactiveDispatchOnAddAndRemove(t *testing.T) {
	w := newTestWorld(t)
	q, err := w.GetQuery([]QueryTerm{In(testTypePosition)})
	require.NoError(t, err)

	var added, removed int
	q.Dispatcher().AddListener(EntityAdded, func(e QueryEvent) { added++ })
	q.Dispatcher().AddListener(EntityRemoved, func(e QueryEvent) { removed++ })

	e := w.CreateEntity()
	require.NoError(t, e.AddComponent(testTypePosition))
	require.NoError(t, e.RemoveComponent(testTypePosition, true))

	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
}
