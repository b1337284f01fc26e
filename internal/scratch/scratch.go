package scratch

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// Buffer is a block scratch buffer of groups*slots pairs.
type Buffer[K, V any] struct {
	Keys   []K
	Vals   []V
	groups int
	slots  int
}

// New allocates a Buffer for groups regions of slots pairs each.
func New[K, V any](groups, slots int) *Buffer[K, V] {
	return &Buffer[K, V]{
		Keys:   make([]K, groups*slots),
		Vals:   make([]V, groups*slots),
		groups: groups,
		slots:  slots,
	}
}

// Groups returns the number of regions.
func (b *Buffer[K, V]) Groups() int { return b.groups }

// Slots returns the number of pairs per region.
func (b *Buffer[K, V]) Slots() int { return b.slots }

// Region returns the keys and values of group g. The slices are capped so
// a group cannot write into its neighbour.
func (b *Buffer[K, V]) Region(g int) ([]K, []V) {
	lo, hi := g*b.slots, (g+1)*b.slots
	return b.Keys[lo:hi:hi], b.Vals[lo:hi:hi]
}

// Reset fills the whole buffer with the sentinel pair.
func (b *Buffer[K, V]) Reset(sentinelK K, sentinelV V) {
	for i := range b.Keys {
		b.Keys[i] = sentinelK
		b.Vals[i] = sentinelV
	}
}

// SizeBytes returns the memory held by a buffer of groups*slots pairs of
// this type, not counting memory referenced by K or V.
func SizeBytes[K, V any](groups, slots int) int64 {
	var k K
	var v V
	return int64(groups*slots) * int64(unsafe.Sizeof(k)+unsafe.Sizeof(v))
}

// PoolStats reports pool activity.
type PoolStats struct {
	Gets   int64
	Allocs int64
}

// Pool recycles Buffers of one fixed shape.
type Pool[K, V any] struct {
	groups int
	slots  int
	pool   sync.Pool
	gets   atomic.Int64
	allocs atomic.Int64
}

// NewPool creates a Pool for buffers of groups regions of slots pairs.
func NewPool[K, V any](groups, slots int) *Pool[K, V] {
	p := &Pool[K, V]{groups: groups, slots: slots}
	p.pool.New = func() any {
		p.allocs.Add(1)
		return New[K, V](groups, slots)
	}
	return p
}

// Get returns a Buffer reset to the sentinel pair.
func (p *Pool[K, V]) Get(sentinelK K, sentinelV V) *Buffer[K, V] {
	p.gets.Add(1)
	b := p.pool.Get().(*Buffer[K, V])
	b.Reset(sentinelK, sentinelV)
	return b
}

// Put returns b to the pool. b must not be used afterwards.
func (p *Pool[K, V]) Put(b *Buffer[K, V]) {
	if b == nil || b.groups != p.groups || b.slots != p.slots {
		return
	}
	p.pool.Put(b)
}

// SizeBytes returns the size of one buffer of this pool.
func (p *Pool[K, V]) SizeBytes() int64 {
	return SizeBytes[K, V](p.groups, p.slots)
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[K, V]) Stats() PoolStats {
	return PoolStats{Gets: p.gets.Load(), Allocs: p.allocs.Load()}
}
