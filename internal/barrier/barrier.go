// Package barrier provides the block-wide barrier that separates the
// independent per-group phase from the cross-group merge.
package barrier

import "sync"

// Barrier is a reusable (cyclic) barrier for a fixed number of parties.
//
// Wait returns once every party has called it for the current generation.
// All writes made by any party before Wait happen before every party returns
// from that Wait.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	waiting    int
	generation uint64
}

// New creates a Barrier for parties goroutines. parties must be positive.
func New(parties int) *Barrier {
	if parties <= 0 {
		panic("barrier: parties must be positive")
	}
	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Parties returns the number of goroutines the barrier waits for.
func (b *Barrier) Parties() int { return b.parties }

// Generation returns the number of completed barrier rounds.
func (b *Barrier) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

// Wait blocks until all parties have reached the barrier.
func (b *Barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}
