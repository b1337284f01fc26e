package warpq

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sys/cpu"

	"github.com/hupe1980/blockselect/internal/mergenet"
	"github.com/hupe1980/blockselect/internal/threadq"
	"github.com/hupe1980/blockselect/model"
)

// State is the lifecycle state of a Queue.
type State int

const (
	StateInit State = iota
	StateAccumulating
	StateReducing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAccumulating:
		return "accumulating"
	case StateReducing:
		return "reducing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config configures a Queue. It is validated by the caller.
type Config[K, V any] struct {
	Order         model.Order[K]
	K             int
	Lanes         int
	NumThreadQ    int
	NumWarpQ      int
	SentinelKey   K
	SentinelValue V
}

// Stats counts queue activity.
type Stats struct {
	Offered  uint64 // candidates presented to a lane
	Admitted uint64 // candidates that beat the threshold
	Merges   uint64 // thread queue merges into the group queue
}

// Queue is the group queue of one lockstep group.
type Queue[K, V any] struct {
	cfg  Config[K, V]
	regs *threadq.Registers[K, V]

	// warpK/warpV live in block scratch memory.
	warpK []K
	warpV []V

	// Register copy of the group queue used during a merge.
	tmpK []K
	tmpV []V

	ballot *bitset.BitSet

	// Written on every step; padded so groups running side by side do not
	// share a cache line.
	threshold K
	state     State
	stats     Stats
	_         cpu.CacheLinePad
}

// New creates a Queue whose sorted storage is warpK/warpV (len NumWarpQ),
// normally a region of the block scratch buffer. The region is reset to the
// sentinel pair.
func New[K, V any](cfg Config[K, V], warpK []K, warpV []V) *Queue[K, V] {
	if len(warpK) != cfg.NumWarpQ || len(warpV) != cfg.NumWarpQ {
		panic(fmt.Sprintf("warpq: scratch region has %d/%d slots, want %d", len(warpK), len(warpV), cfg.NumWarpQ))
	}
	if cfg.K < 1 || cfg.K > cfg.NumWarpQ {
		panic(fmt.Sprintf("warpq: k=%d outside [1, %d]", cfg.K, cfg.NumWarpQ))
	}

	q := &Queue[K, V]{
		cfg:       cfg,
		regs:      threadq.NewRegisters[K, V](cfg.Lanes, cfg.NumThreadQ, cfg.SentinelKey, cfg.SentinelValue),
		warpK:     warpK,
		warpV:     warpV,
		tmpK:      make([]K, cfg.NumWarpQ),
		tmpV:      make([]V, cfg.NumWarpQ),
		threshold: cfg.SentinelKey,
		ballot:    bitset.New(uint(cfg.Lanes)),
	}
	for i := range warpK {
		warpK[i] = cfg.SentinelKey
		warpV[i] = cfg.SentinelValue
	}
	return q
}

// Lanes returns the group size.
func (q *Queue[K, V]) Lanes() int { return q.cfg.Lanes }

// State returns the lifecycle state.
func (q *Queue[K, V]) State() State { return q.state }

// Stats returns a snapshot of the queue counters.
func (q *Queue[K, V]) Stats() Stats { return q.stats }

// Threshold returns the key a candidate must strictly beat to be admitted:
// the key at rank k-1 of the group queue.
func (q *Queue[K, V]) Threshold() K { return q.threshold }

// Add presents one candidate per lane and then checks for overflow.
// len(keys) and len(vals) must equal Lanes(); lanes without a candidate
// pass the sentinel pair.
func (q *Queue[K, V]) Add(keys []K, vals []V) {
	if len(keys) != q.cfg.Lanes || len(vals) != q.cfg.Lanes {
		panic(fmt.Sprintf("warpq: %d/%d candidates for %d lanes", len(keys), len(vals), q.cfg.Lanes))
	}
	for l := range keys {
		q.AddLane(l, keys[l], vals[l])
	}
	q.Check()
}

// AddLane inserts into one lane's thread queue without the overflow check.
// It is meant for the tail of a stream, where fewer candidates than lanes
// remain; the caller must not add to a lane more than once between checks.
func (q *Queue[K, V]) AddLane(lane int, k K, v V) {
	q.mustAccept()
	q.stats.Offered++
	if q.regs.Lanes[lane].Add(q.cfg.Order, q.threshold, k, v) {
		q.stats.Admitted++
	}
}

// Check merges all thread queues into the group queue if any lane is full.
func (q *Queue[K, V]) Check() {
	q.ballot.ClearAll()
	for l := range q.regs.Lanes {
		if q.regs.Lanes[l].Full() {
			q.ballot.Set(uint(l))
		}
	}
	if !q.ballot.Any() {
		return
	}
	q.mergeAndReset()
}

// Flush forces a merge regardless of fill state.
func (q *Queue[K, V]) Flush() {
	for l := range q.regs.Lanes {
		if q.regs.Lanes[l].Len() > 0 {
			q.mergeAndReset()
			return
		}
	}
}

// Reduce flushes the thread queues and finalizes the queue. The group queue
// is read-only afterwards.
func (q *Queue[K, V]) Reduce() {
	q.mustAccept()
	q.state = StateReducing
	q.Flush()
	q.state = StateDone
}

// WriteOut copies the best min(k, len(dstK)) pairs into dstK/dstV.
// It returns the number of pairs written.
func (q *Queue[K, V]) WriteOut(dstK []K, dstV []V) int {
	if q.state != StateDone {
		panic("warpq: WriteOut before Reduce")
	}
	n := min(q.cfg.K, len(dstK), len(dstV))
	copy(dstK[:n], q.warpK[:n])
	copy(dstV[:n], q.warpV[:n])
	return n
}

func (q *Queue[K, V]) mustAccept() {
	switch q.state {
	case StateInit:
		q.state = StateAccumulating
	case StateAccumulating:
	default:
		panic(fmt.Sprintf("warpq: add in state %s", q.state))
	}
}

func (q *Queue[K, V]) mergeAndReset() {
	o := q.cfg.Order

	// Thread queues are sorted worst-first so that, read after the group
	// queue, the two runs form one bitonic sequence.
	mergenet.Sort(o.Reverse(), q.regs.Keys, q.regs.Vals)

	copy(q.tmpK, q.warpK)
	copy(q.tmpV, q.warpV)
	mergenet.MergeReversed(o, q.tmpK, q.tmpV, q.regs.Keys, q.regs.Vals)
	copy(q.warpK, q.tmpK)
	copy(q.warpV, q.tmpV)

	q.regs.Reset(q.cfg.SentinelKey, q.cfg.SentinelValue)
	q.threshold = q.warpK[q.cfg.K-1]
	q.stats.Merges++
}
