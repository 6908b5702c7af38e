// Package entropy provides the pseudo-random source behind every stochastic
// negotiation heuristic. The source is explicitly seeded and injected so
// simulation cycles reproduce exactly under a fixed seed.
package entropy

import (
	"math/rand"
	"sync"
	"time"
)

// Source is a seedable random source safe for use from multiple goroutines.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource creates a source from an explicit seed.
func NewSource(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeSource creates a source seeded from the wall clock, for production
// runs where reproducibility is not needed.
func NewTimeSource() *Source {
	return NewSource(time.Now().UnixNano())
}

// Float64 returns a random float64 in [0, 1).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Intn returns a random int in [0, n).
func (s *Source) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// IntBetween returns a random int in [lo, hi] inclusive.
func (s *Source) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Intn(hi-lo+1)
}

// Bool returns true with probability p.
func (s *Source) Bool(p float64) bool {
	return s.Float64() < p
}

// Shuffle randomizes the order of a string slice in place.
func (s *Source) Shuffle(items []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// Sample returns k distinct items chosen at random. When k exceeds the
// population size the whole population is returned in random order.
func (s *Source) Sample(items []string, k int) []string {
	shuffled := append([]string(nil), items...)
	s.Shuffle(shuffled)
	if k > len(shuffled) {
		k = len(shuffled)
	}
	return shuffled[:k]
}
