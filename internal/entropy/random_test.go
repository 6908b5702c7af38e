package entropy

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceDeterministic(t *testing.T) {
	a := NewSource(42)
	b := NewSource(42)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestIntBetweenBounds(t *testing.T) {
	s := NewSource(7)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := s.IntBetween(2, 5)
		require.GreaterOrEqual(t, v, 2)
		require.LessOrEqual(t, v, 5)
		seen[v] = true
	}
	// Inclusive on both ends.
	assert.True(t, seen[2])
	assert.True(t, seen[5])

	assert.Equal(t, 3, s.IntBetween(3, 3))
	assert.Equal(t, 3, s.IntBetween(3, 1))
}

func TestBoolProbabilityExtremes(t *testing.T) {
	s := NewSource(7)
	for i := 0; i < 100; i++ {
		assert.False(t, s.Bool(0))
		assert.True(t, s.Bool(1.0))
	}
}

func TestShufflePreservesElements(t *testing.T) {
	s := NewSource(99)
	items := []string{"ATL", "BOS", "CHI", "DEN", "MIA"}
	shuffled := append([]string(nil), items...)
	s.Shuffle(shuffled)

	sorted := append([]string(nil), shuffled...)
	sort.Strings(sorted)
	assert.Equal(t, items, sorted)
}

func TestSample(t *testing.T) {
	s := NewSource(1)
	items := []string{"a", "b", "c", "d", "e"}

	sample := s.Sample(items, 3)
	require.Len(t, sample, 3)
	seen := make(map[string]bool)
	for _, v := range sample {
		assert.Contains(t, items, v)
		assert.False(t, seen[v], "sample must be distinct")
		seen[v] = true
	}

	// Oversized k returns the whole population.
	assert.Len(t, s.Sample(items, 10), 5)

	// Input is never mutated.
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, items)
}
