package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok)

	v, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = c.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestLRU_GetPromotesToFront(t *testing.T) {
	c := NewLRU(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")     // promote "a"
	c.Put("c", 3) // should evict "b", not "a"

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestLRU_HitRateTracksHitsAndMisses(t *testing.T) {
	c := NewLRU(10)
	c.Put("a", 1)

	c.Get("a") // hit
	c.Get("a") // hit
	c.Get("x") // miss

	assert.Equal(t, int64(2), c.Hits())
	assert.Equal(t, int64(1), c.Misses())
	assert.InDelta(t, 2.0/3.0, c.HitRate(), 1e-9)
}

func TestLRU_HitRateZeroWhenUnused(t *testing.T) {
	c := NewLRU(10)
	assert.Equal(t, 0.0, c.HitRate())
}
