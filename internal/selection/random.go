package selection

import (
	"math/rand/v2"
	"sync"
)

// Source is the randomness the engine draws from. Implementations must be
// safe for concurrent use.
type Source interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// globalSource draws from the math/rand/v2 top-level functions.
type globalSource struct{}

func (globalSource) IntN(n int) int                     { return rand.IntN(n) }
func (globalSource) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// lockedSource serializes access to a *rand.Rand.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource wraps r so it can be shared between requests.
func NewSource(r *rand.Rand) Source {
	return &lockedSource{r: r}
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func (s *lockedSource) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}
