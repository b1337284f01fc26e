package testutil

import (
	"slices"

	"github.com/hupe1980/blockselect/model"
)

// ExactTopK returns the k best pairs of keys/values under o, best-first,
// padded with the sentinel pair when fewer than k candidates exist.
// Ties keep input order.
func ExactTopK[K, V any](o model.Order[K], keys []K, values []V, k int, sentinelK K, sentinelV V) []model.Pair[K, V] {
	all := make([]model.Pair[K, V], len(keys))
	for i := range keys {
		all[i] = model.Pair[K, V]{Key: keys[i], Value: values[i]}
	}
	slices.SortStableFunc(all, func(a, b model.Pair[K, V]) int {
		switch {
		case o.Better(a.Key, b.Key):
			return -1
		case o.Better(b.Key, a.Key):
			return 1
		default:
			return 0
		}
	})
	out := make([]model.Pair[K, V], k)
	for i := range out {
		if i < len(all) {
			out[i] = all[i]
		} else {
			out[i] = model.Pair[K, V]{Key: sentinelK, Value: sentinelV}
		}
	}
	return out
}

// KeysOf returns the keys of pairs.
func KeysOf[K, V any](pairs []model.Pair[K, V]) []K {
	out := make([]K, len(pairs))
	for i, p := range pairs {
		out[i] = p.Key
	}
	return out
}

const heapArity = 4

// BoundedHeap is a sequential bounded top-k structure: a 4-ary heap that
// keeps the worst retained candidate at the root for O(1) rejection.
type BoundedHeap[K, V any] struct {
	order model.Order[K]
	k     int
	items []model.Pair[K, V]
}

// NewBoundedHeap creates a BoundedHeap retaining k candidates.
func NewBoundedHeap[K, V any](o model.Order[K], k int) *BoundedHeap[K, V] {
	return &BoundedHeap[K, V]{
		order: o,
		k:     k,
		items: make([]model.Pair[K, V], 0, k),
	}
}

// Len returns the number of retained candidates.
func (h *BoundedHeap[K, V]) Len() int { return len(h.items) }

// worse reports whether a ranks after b.
func (h *BoundedHeap[K, V]) worse(a, b model.Pair[K, V]) bool {
	return h.order.Better(b.Key, a.Key)
}

// Push offers a candidate. It reports whether the candidate was retained.
func (h *BoundedHeap[K, V]) Push(k K, v V) bool {
	p := model.Pair[K, V]{Key: k, Value: v}
	if len(h.items) < h.k {
		h.items = append(h.items, p)
		h.up(len(h.items) - 1)
		return true
	}
	if !h.order.Better(k, h.items[0].Key) {
		return false
	}
	h.items[0] = p
	h.down(0)
	return true
}

// Sorted returns the retained candidates best-first, padded with the
// sentinel pair up to k.
func (h *BoundedHeap[K, V]) Sorted(sentinelK K, sentinelV V) []model.Pair[K, V] {
	out := slices.Clone(h.items)
	slices.SortFunc(out, func(a, b model.Pair[K, V]) int {
		switch {
		case h.order.Better(a.Key, b.Key):
			return -1
		case h.order.Better(b.Key, a.Key):
			return 1
		default:
			return 0
		}
	})
	for len(out) < h.k {
		out = append(out, model.Pair[K, V]{Key: sentinelK, Value: sentinelV})
	}
	return out
}

func (h *BoundedHeap[K, V]) up(j int) {
	item := h.items[j]
	for j > 0 {
		i := (j - 1) / heapArity
		if !h.worse(item, h.items[i]) {
			break
		}
		h.items[j] = h.items[i]
		j = i
	}
	h.items[j] = item
}

func (h *BoundedHeap[K, V]) down(i int) {
	n := len(h.items)
	item := h.items[i]
	for {
		first := heapArity*i + 1
		if first >= n {
			break
		}
		best := first
		last := min(first+heapArity, n)
		for c := first + 1; c < last; c++ {
			if h.worse(h.items[c], h.items[best]) {
				best = c
			}
		}
		if !h.worse(h.items[best], item) {
			break
		}
		h.items[i] = h.items[best]
		i = best
	}
	h.items[i] = item
}
