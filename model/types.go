package model

import (
	"fmt"
)

// Direction selects which end of the key order wins.
type Direction int

const (
	// Smallest keeps the k smallest keys (e.g. L2 distances).
	Smallest Direction = iota
	// Largest keeps the k largest keys (e.g. inner products).
	Largest
)

func (d Direction) String() string {
	switch d {
	case Smallest:
		return "smallest"
	case Largest:
		return "largest"
	default:
		return fmt.Sprintf("Direction(%d)", d)
	}
}

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Smallest || d == Largest
}

// Pair is a single candidate: an orderable key and an opaque value.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// String returns a string representation of the Pair.
func (p Pair[K, V]) String() string {
	return fmt.Sprintf("(%v,%v)", p.Key, p.Value)
}

// Compare reports the ascending order of two keys: negative if a < b,
// zero if equal, positive if a > b (same contract as cmp.Compare).
type Compare[K any] func(a, b K) int

// Order binds a comparator to a direction.
type Order[K any] struct {
	cmp Compare[K]
	dir Direction
}

// NewOrder creates an Order. cmp must not be nil.
func NewOrder[K any](cmp Compare[K], dir Direction) Order[K] {
	return Order[K]{cmp: cmp, dir: dir}
}

// Direction returns the direction of the order.
func (o Order[K]) Direction() Direction { return o.dir }

// Better reports whether a ranks strictly before b.
func (o Order[K]) Better(a, b K) bool {
	if o.dir == Largest {
		return o.cmp(a, b) > 0
	}
	return o.cmp(a, b) < 0
}

// Reverse returns the order with the opposite direction.
func (o Order[K]) Reverse() Order[K] {
	if o.dir == Largest {
		return Order[K]{cmp: o.cmp, dir: Smallest}
	}
	return Order[K]{cmp: o.cmp, dir: Largest}
}

// Source produces candidate i of a row.
// It is called exactly once per index and may be called concurrently
// for different indices.
type Source[K, V any] func(i int) (K, V)

// RowSource produces candidate i of batch row r.
type RowSource[K, V any] func(row, i int) (K, V)

// Row binds a RowSource to a single row.
func (rs RowSource[K, V]) Row(row int) Source[K, V] {
	return func(i int) (K, V) { return rs(row, i) }
}

// SliceSource returns a Source reading from parallel key and value slices.
func SliceSource[K, V any](keys []K, values []V) Source[K, V] {
	return func(i int) (K, V) { return keys[i], values[i] }
}
