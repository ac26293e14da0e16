// Package reservoir provides a bounded-capacity sampler that keeps a uniform
// random sample of a stream whose total length is not known in advance.
//
// The sampler is the pruning device of the generator: every chart cell and
// every per-rule output buffer is a Sampler, so memory stays bounded by the
// configured capacities no matter how many derivations are enumerated.
//
// Concurrency:
//   - A Sampler is NOT goroutine-safe; it shares its *rand.Rand with the owner.
package reservoir

import "math/rand/v2"

// Sampler keeps at most Cap() items chosen uniformly from everything passed
// to Add since the last Reset (Vitter's Algorithm R).
type Sampler[T any] struct {
	capacity int
	seen     int
	items    []T
	rng      *rand.Rand
}

// New returns an empty sampler. A capacity <= 0 yields a sampler that never
// stores anything but still counts what it was offered.
func New[T any](capacity int, rng *rand.Rand) *Sampler[T] {
	if capacity < 0 {
		capacity = 0
	}
	// items grow on demand; most chart cells stay small or empty
	return &Sampler[T]{capacity: capacity, rng: rng}
}

// Add offers x to the sampler.
//
// Complexity: O(1).
func (s *Sampler[T]) Add(x T) {
	s.seen++
	if len(s.items) < s.capacity {
		s.items = append(s.items, x)
		return
	}
	if s.capacity == 0 {
		return
	}
	// keep x with probability capacity/seen
	if j := s.rng.IntN(s.seen); j < s.capacity {
		s.items[j] = x
	}
}

// Len is the number of items currently held.
func (s *Sampler[T]) Len() int { return len(s.items) }

// Cap is the maximum number of items the sampler retains.
func (s *Sampler[T]) Cap() int { return s.capacity }

// Seen is the number of items offered since construction or the last Reset.
func (s *Sampler[T]) Seen() int { return s.seen }

// Items returns the retained sample. The slice is owned by the sampler and is
// only valid until the next Add or Reset.
func (s *Sampler[T]) Items() []T { return s.items }

// At returns the i-th retained item.
func (s *Sampler[T]) At(i int) T { return s.items[i] }

// Reset drops all items and the seen counter, keeping the capacity.
func (s *Sampler[T]) Reset() {
	var zero T
	for i := range s.items {
		s.items[i] = zero
	}
	s.items = s.items[:0]
	s.seen = 0
}

// Merge offers every retained item of other to s.
func (s *Sampler[T]) Merge(other *Sampler[T]) {
	for _, x := range other.items {
		s.Add(x)
	}
}
