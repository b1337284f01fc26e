package mergenet

import (
	"fmt"
	"math/bits"

	"github.com/hupe1980/blockselect/model"
)

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && bits.OnesCount(uint(n)) == 1
}

func mustPowerOfTwo(n int) {
	if !IsPowerOfTwo(n) {
		panic(fmt.Sprintf("mergenet: length %d is not a power of two", n))
	}
}

// exchange places the better of (i, j) at i.
func exchange[K, V any](o model.Order[K], keys []K, vals []V, i, j int) {
	if o.Better(keys[j], keys[i]) {
		keys[i], keys[j] = keys[j], keys[i]
		vals[i], vals[j] = vals[j], vals[i]
	}
}

// Sort sorts keys best-first under o using a bitonic sorting network.
// vals is permuted alongside keys. len(keys) must be a power of two.
func Sort[K, V any](o model.Order[K], keys []K, vals []V) {
	n := len(keys)
	mustPowerOfTwo(n)
	if n == 1 {
		return
	}
	rev := o.Reverse()
	for size := 2; size <= n; size <<= 1 {
		for stride := size >> 1; stride > 0; stride >>= 1 {
			for i := 0; i < n; i++ {
				j := i ^ stride
				if j <= i {
					continue
				}
				// Blocks alternate direction so each pair of neighbours
				// forms a bitonic sequence for the next size.
				if i&size == 0 {
					exchange(o, keys, vals, i, j)
				} else {
					exchange(rev, keys, vals, i, j)
				}
			}
		}
	}
}

// BitonicMerge sorts a bitonic sequence best-first under o.
// len(keys) must be a power of two.
func BitonicMerge[K, V any](o model.Order[K], keys []K, vals []V) {
	n := len(keys)
	mustPowerOfTwo(n)
	for stride := n >> 1; stride > 0; stride >>= 1 {
		for i := 0; i < n; i++ {
			j := i ^ stride
			if j > i {
				exchange(o, keys, vals, i, j)
			}
		}
	}
}

// MergeReversed merges b into a, keeping the best len(a) entries of the
// union in a, sorted best-first.
//
// a must be sorted best-first and b worst-first; both lengths must be powers
// of two. b is left in an unspecified order.
func MergeReversed[K, V any](o model.Order[K], aK []K, aV []V, bK []K, bV []V) {
	truncate(o, aK, aV, bK, bV, true)
}

// Merge is MergeReversed for a b sorted best-first.
func Merge[K, V any](o model.Order[K], aK []K, aV []V, bK []K, bV []V) {
	truncate(o, aK, aV, bK, bV, false)
}

func truncate[K, V any](o model.Order[K], aK []K, aV []V, bK []K, bV []V, reversed bool) {
	l, r := len(aK), len(bK)
	mustPowerOfTwo(l)
	mustPowerOfTwo(r)

	// The i-th worst of a meets the i-th best of b. Keeping the better of
	// each pair yields exactly the best l of the union, and leaves a as a
	// sorted run followed by a rising run: a bitonic sequence.
	m := min(l, r)
	for i := 0; i < m; i++ {
		ai := l - 1 - i
		bi := i
		if reversed {
			bi = r - 1 - i
		}
		if o.Better(bK[bi], aK[ai]) {
			aK[ai], bK[bi] = bK[bi], aK[ai]
			aV[ai], bV[bi] = bV[bi], aV[ai]
		}
	}
	BitonicMerge(o, aK, aV)
}
