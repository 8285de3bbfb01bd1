package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolTestComponent struct {
	Value int
}

func (c *poolTestComponent) Type() ComponentTypeID { return 900 }

func (c *poolTestComponent) Clone() Component {
	clone := *c
	return &clone
}

func (c *poolTestComponent) CopyFrom(src Component) {
	if s, ok := src.(*poolTestComponent); ok {
		*c = *s
	}
}

func TestPool_AcquireGrowsOnExhaustion(t *testing.T) {
	p := newPool[*poolTestComponent](&poolTestComponent{Value: 42})

	first, err := p.acquire()
	require.NoError(t, err)
	assert.Equal(t, 42, first.(*poolTestComponent).Value)

	stats := p.stats()
	assert.Equal(t, 1, stats.Total, "first acquire grows by ceil(0.2*0)+1 = 1")
	assert.Equal(t, 1, stats.Used)
	assert.Equal(t, 0, stats.Free)
}

func TestPool_GrowthFormula(t *testing.T) {
	p := newPool[*poolTestComponent](&poolTestComponent{})

	// Drain pool to force repeated growth by ceil(0.2*total)+1, then check
	// the resulting occupancy after all ten acquisitions.
	acquired := make([]Component, 0, 10)
	for i := 0; i < 10; i++ {
		c, err := p.acquire()
		require.NoError(t, err)
		acquired = append(acquired, c)
	}
	// total grows: 0->1 (acquire1), 1->? acquire2 needs growth since free=0
	// after first acquire; ceil(0.2*1)+1=2 -> total=3, free=1 used after pop =>
	// total must be at least 10 after ten acquisitions with this formula.
	stats := p.stats()
	assert.GreaterOrEqual(t, stats.Total, 10)
	assert.Equal(t, stats.Total, stats.Used)
}

func TestPool_ReleaseResetsToPrototype(t *testing.T) {
	p := newPool[*poolTestComponent](&poolTestComponent{Value: 7})

	c, err := p.acquire()
	require.NoError(t, err)
	dirty := c.(*poolTestComponent)
	dirty.Value = 999

	p.release(dirty)

	reacquired, err := p.acquire()
	require.NoError(t, err)
	assert.Equal(t, 7, reacquired.(*poolTestComponent).Value, "release must reset the instance to the prototype's value")
}

func TestPool_ReleaseIgnoresForeignType(t *testing.T) {
	p := newPool[*poolTestComponent](&poolTestComponent{})
	before := p.stats()

	other := &poolTestComponent{}
	// Wrap in a different concrete type via an anonymous struct to force a
	// failed type assertion inside release.
	type unrelated struct{ *poolTestComponent }
	p.release(unrelated{other})

	after := p.stats()
	assert.Equal(t, before, after, "release of a value the pool did not produce is a no-op")
}
