// Package threadq implements the per-lane thread queue: a tiny unsorted
// buffer that admits candidates beating the group threshold.
package threadq

import (
	"github.com/hupe1980/blockselect/model"
)

// Lane is the thread queue of one lane.
//
// Keys and values are views into the group's register file, so a group can
// sort and merge all of its lanes in place.
type Lane[K, V any] struct {
	keys []K
	vals []V
	n    int
}

// Registers is the register file of a group: lanes*depth slots, where lane l
// owns [l*depth, (l+1)*depth).
type Registers[K, V any] struct {
	Keys  []K
	Vals  []V
	Lanes []Lane[K, V]
	depth int
}

// NewRegisters allocates a register file for lanes lanes of depth slots each,
// filled with the sentinel pair.
func NewRegisters[K, V any](lanes, depth int, sentinelK K, sentinelV V) *Registers[K, V] {
	r := &Registers[K, V]{
		Keys:  make([]K, lanes*depth),
		Vals:  make([]V, lanes*depth),
		Lanes: make([]Lane[K, V], lanes),
		depth: depth,
	}
	for l := range r.Lanes {
		lo, hi := l*depth, (l+1)*depth
		r.Lanes[l] = Lane[K, V]{keys: r.Keys[lo:hi:hi], vals: r.Vals[lo:hi:hi]}
	}
	r.Reset(sentinelK, sentinelV)
	return r
}

// Depth returns the per-lane capacity (NumThreadQ).
func (r *Registers[K, V]) Depth() int { return r.depth }

// Reset fills every slot with the sentinel pair and clears all fill counters.
func (r *Registers[K, V]) Reset(sentinelK K, sentinelV V) {
	for i := range r.Keys {
		r.Keys[i] = sentinelK
		r.Vals[i] = sentinelV
	}
	for l := range r.Lanes {
		r.Lanes[l].n = 0
	}
}

// Add admits (k, v) if k is strictly better than threshold under o.
// The entry is rotated in at the head; the tail entry is discarded.
// Reports whether the candidate was admitted.
func (q *Lane[K, V]) Add(o model.Order[K], threshold K, k K, v V) bool {
	if !o.Better(k, threshold) {
		return false
	}
	for i := len(q.keys) - 1; i > 0; i-- {
		q.keys[i] = q.keys[i-1]
		q.vals[i] = q.vals[i-1]
	}
	q.keys[0] = k
	q.vals[0] = v
	q.n++
	return true
}

// Full reports whether the lane has admitted NumThreadQ entries since the
// last reset.
func (q *Lane[K, V]) Full() bool { return q.n >= len(q.keys) }

// Len returns the number of entries admitted since the last reset.
func (q *Lane[K, V]) Len() int { return q.n }

// Pairs returns a copy of the lane contents, head first.
func (q *Lane[K, V]) Pairs() []model.Pair[K, V] {
	out := make([]model.Pair[K, V], len(q.keys))
	for i := range q.keys {
		out[i] = model.Pair[K, V]{Key: q.keys[i], Value: q.vals[i]}
	}
	return out
}
