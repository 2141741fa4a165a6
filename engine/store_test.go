package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/ecsworld/entity"
)

type position struct{ X, Y float64 }

func TestStoreAllocateAndGet(t *testing.T) {
	s := NewStore[position](WithCapacity(4))

	core := s.Allocate(entity.Id(1))
	*s.valueAt(core.offset) = position{X: 1, Y: 2}

	require.True(t, core.Live())
	v := s.valueAt(core.offset)
	assert.Equal(t, position{X: 1, Y: 2}, *v)
	assert.Equal(t, entity.Id(1), core.EntityID())
}

func TestStoreSwapRemoveRelocatesTailCore(t *testing.T) {
	s := NewStore[position](WithCapacity(4))

	c1 := s.Allocate(entity.Id(1))
	*s.valueAt(c1.offset) = position{X: 1}
	c2 := s.Allocate(entity.Id(2))
	*s.valueAt(c2.offset) = position{X: 2}
	c3 := s.Allocate(entity.Id(3))
	*s.valueAt(c3.offset) = position{X: 3}

	ok := s.Free(c1.offset)
	require.True(t, ok)

	assert.False(t, c1.Live(), "freed core must be tombstoned")
	assert.True(t, c3.Live(), "tail core must be relocated, not invalidated")
	assert.Equal(t, int32(0), c3.offset, "tail core's offset must be updated in place")
	assert.Equal(t, position{X: 3}, *s.valueAt(c3.offset))
	assert.True(t, c2.Live())
	assert.Equal(t, 2, s.Allocated())
}

func TestStoreGrowthPreservesLiveCores(t *testing.T) {
	s := NewStore[position](WithCapacity(2), WithGrowthRate(2.0), WithTriggerEdge(1.0))

	cores := make([]*ComponentCore, 0, 5)
	for i := 0; i < 5; i++ {
		c := s.Allocate(entity.Id(i + 1))
		*s.valueAt(c.offset) = position{X: float64(i)}
		cores = append(cores, c)
	}

	for i, c := range cores {
		require.True(t, c.Live())
		assert.Equal(t, position{X: float64(i)}, *s.valueAt(c.offset))
	}
}

func TestStoreOffsetOfAndFreeUnknownOffset(t *testing.T) {
	s := NewStore[position]()
	c := s.Allocate(entity.Id(7))

	off, ok := s.OffsetOf(entity.Id(7))
	require.True(t, ok)
	assert.Equal(t, c.offset, off)

	assert.False(t, s.Free(99), "freeing an out-of-range offset is a no-op")
}
