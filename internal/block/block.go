package block

import (
	"sync"

	"github.com/hupe1980/blockselect/internal/barrier"
	"github.com/hupe1980/blockselect/internal/mergenet"
	"github.com/hupe1980/blockselect/internal/scratch"
	"github.com/hupe1980/blockselect/internal/warpq"
	"github.com/hupe1980/blockselect/model"
)

// Block selects the top-k of one candidate stream. A Block is used for
// exactly one Run.
type Block[K, V any] struct {
	cfg       Config
	order     model.Order[K]
	sentinelK K
	sentinelV V

	buf    *scratch.Buffer[K, V]
	groups []*group[K, V]
	bar    *barrier.Barrier
	ran    bool
}

type group[K, V any] struct {
	queue *warpq.Queue[K, V]
	laneK []K
	laneV []V
}

// New creates a Block on buf, which must have NumGroups regions of NumWarpQ
// slots and is owned by the Block until the caller is done reading results.
func New[K, V any](cfg Config, order model.Order[K], sentinelK K, sentinelV V, buf *scratch.Buffer[K, V]) (*Block[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.NumGroups()
	if buf.Groups() != n || buf.Slots() != cfg.NumWarpQ {
		return nil, NewConfigError("scratch_slots", buf.Groups()*buf.Slots(), ErrScratchMismatch)
	}

	qcfg := warpq.Config[K, V]{
		Order:         order,
		K:             cfg.K,
		Lanes:         cfg.Lanes,
		NumThreadQ:    cfg.NumThreadQ,
		NumWarpQ:      cfg.NumWarpQ,
		SentinelKey:   sentinelK,
		SentinelValue: sentinelV,
	}

	b := &Block[K, V]{
		cfg:       cfg,
		order:     order,
		sentinelK: sentinelK,
		sentinelV: sentinelV,
		buf:       buf,
		groups:    make([]*group[K, V], n),
		bar:       barrier.New(n),
	}
	for g := range b.groups {
		wk, wv := buf.Region(g)
		b.groups[g] = &group[K, V]{
			queue: warpq.New(qcfg, wk, wv),
			laneK: make([]K, cfg.Lanes),
			laneV: make([]V, cfg.Lanes),
		}
	}
	return b, nil
}

// Config returns the block configuration.
func (b *Block[K, V]) Config() Config { return b.cfg }

// Run streams candidates 0..n-1 from src through the block and reduces them.
// src is called exactly once per index, concurrently from different groups.
// Run must be called once.
func (b *Block[K, V]) Run(src model.Source[K, V], n int) {
	if b.ran {
		panic("block: Run called twice")
	}
	b.ran = true

	var wg sync.WaitGroup
	for g := range b.groups {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			b.runGroup(g, src, n)
		}(g)
	}
	wg.Wait()
}

func (b *Block[K, V]) runGroup(g int, src model.Source[K, V], n int) {
	gs := b.groups[g]
	lanes := b.cfg.Lanes
	threads := b.cfg.BlockThreads
	limit := n / lanes * lanes

	for base := g * lanes; base < limit; base += threads {
		for l := 0; l < lanes; l++ {
			gs.laneK[l], gs.laneV[l] = src(base + l)
		}
		gs.queue.Add(gs.laneK, gs.laneV)
	}
	if limit < n && (limit%threads)/lanes == g {
		for i := limit; i < n; i++ {
			k, v := src(i)
			gs.queue.AddLane(i-limit, k, v)
		}
	}

	gs.queue.Reduce()
	b.bar.Wait()

	for stride := 1; stride < len(b.groups); stride <<= 1 {
		if g%(2*stride) == 0 {
			aK, aV := b.buf.Region(g)
			bK, bV := b.buf.Region(g + stride)
			mergenet.Merge(b.order, aK, aV, bK, bV)
		}
		b.bar.Wait()
	}
	// A single group has no merge level; the reduce still closes on a
	// second barrier.
	if len(b.groups) == 1 {
		b.bar.Wait()
	}
}

// WriteOut copies the best min(k, len(dstK)) pairs, best-first.
// Slots beyond the number of candidates hold the sentinel pair.
func (b *Block[K, V]) WriteOut(dstK []K, dstV []V) int {
	if !b.ran {
		panic("block: WriteOut before Run")
	}
	k, v := b.buf.Region(0)
	n := min(b.cfg.K, len(dstK), len(dstV))
	copy(dstK[:n], k[:n])
	copy(dstV[:n], v[:n])
	return n
}

// Stats returns the counters of all group queues combined.
func (b *Block[K, V]) Stats() warpq.Stats {
	var st warpq.Stats
	for _, gs := range b.groups {
		s := gs.queue.Stats()
		st.Offered += s.Offered
		st.Admitted += s.Admitted
		st.Merges += s.Merges
	}
	return st
}

// Barriers returns the number of block barriers passed: the flush barrier
// plus one per merge level, and never fewer than two after Run.
func (b *Block[K, V]) Barriers() uint64 { return b.bar.Generation() }
