package blockselect

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/blockselect/internal/block"
	"github.com/hupe1980/blockselect/internal/resource"
	"github.com/hupe1980/blockselect/internal/scratch"
	"github.com/hupe1980/blockselect/internal/warpq"
	"github.com/hupe1980/blockselect/keys"
	"github.com/hupe1980/blockselect/model"
)

const tracerName = "github.com/hupe1980/blockselect"

// Direction selects the k smallest or the k largest keys.
type Direction = model.Direction

const (
	// Smallest keeps the k smallest keys.
	Smallest = model.Smallest
	// Largest keeps the k largest keys.
	Largest = model.Largest
)

// MaxK is the largest k ParamsForK supports.
const MaxK = 2048

// ParamsForK returns the group queue and thread queue capacities for k.
func ParamsForK(k int) (numWarpQ, numThreadQ int, err error) {
	switch {
	case k <= 0:
		return 0, 0, configError("k", k, ErrInvalidK)
	case k <= 32:
		return 32, 2, nil
	case k <= 64:
		return 64, 4, nil
	case k <= 128:
		return 128, 4, nil
	case k <= 256:
		return 256, 4, nil
	case k <= 512:
		return 512, 8, nil
	case k <= 1024:
		return 1024, 8, nil
	case k <= MaxK:
		return MaxK, 8, nil
	default:
		return 0, 0, configError("k", k, ErrKExceedsWarpQ)
	}
}

// Config is the effective shape of a Selector.
type Config struct {
	K            int
	Direction    Direction
	Lanes        int
	NumThreadQ   int
	NumWarpQ     int
	BlockThreads int
}

// NumGroups returns the number of groups per block.
func (c Config) NumGroups() int { return c.BlockThreads / c.Lanes }

// Result holds the k best pairs of one row, best first.
// Positions without a candidate hold the sentinel pair. Candidates keyed with
// the sentinel itself are not admitted and are indistinguishable from
// padding.
type Result[K, V any] struct {
	Keys   []K
	Values []V
}

// Len returns the number of result slots.
func (r Result[K, V]) Len() int { return len(r.Keys) }

// Pairs returns the result as pairs.
func (r Result[K, V]) Pairs() []model.Pair[K, V] {
	out := make([]model.Pair[K, V], len(r.Keys))
	for i := range r.Keys {
		out[i] = model.Pair[K, V]{Key: r.Keys[i], Value: r.Values[i]}
	}
	return out
}

// Selector runs exact top-k selection over candidate streams.
// A Selector is safe for concurrent use.
type Selector[K, V any] struct {
	cfg         Config
	blockCfg    block.Config
	order       model.Order[K]
	sentinelK   K
	sentinelV   V
	parallelism int

	pool    *scratch.Pool[K, V]
	rc      *resource.Controller
	logger  *Logger
	metrics MetricsObserver
	tracer  trace.Tracer
}

// New creates a Selector for keys described by traits. sentinelValue pads
// result slots that no candidate filled.
func New[K, V any](traits keys.Traits[K], sentinelValue V, opts ...Option) (*Selector[K, V], error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	if traits.Compare == nil {
		return nil, configError("compare", 0, ErrNilComparator)
	}
	if !o.direction.Valid() {
		return nil, configError("direction", int(o.direction), ErrInvalidDirection)
	}
	if o.parallelism <= 0 {
		return nil, configError("parallelism", o.parallelism, ErrInvalidParallelism)
	}

	numThreadQ, numWarpQ := o.numThreadQ, o.numWarpQ
	if numWarpQ == 0 {
		wq, tq, err := ParamsForK(o.k)
		if err != nil {
			return nil, err
		}
		numWarpQ = wq
		if numThreadQ == 0 {
			numThreadQ = tq
		}
	}

	bc := block.Config{
		K:            o.k,
		Lanes:        o.lanes,
		NumThreadQ:   numThreadQ,
		NumWarpQ:     numWarpQ,
		BlockThreads: o.blockThreads,
	}
	if err := bc.Validate(); err != nil {
		return nil, err
	}

	maxRows := o.maxRows
	if maxRows <= 0 {
		maxRows = o.parallelism
	}

	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	s := &Selector[K, V]{
		cfg: Config{
			K:            bc.K,
			Direction:    o.direction,
			Lanes:        bc.Lanes,
			NumThreadQ:   bc.NumThreadQ,
			NumWarpQ:     bc.NumWarpQ,
			BlockThreads: bc.BlockThreads,
		},
		blockCfg:    bc,
		order:       traits.Order(o.direction),
		sentinelK:   traits.Sentinel(o.direction),
		sentinelV:   sentinelValue,
		parallelism: o.parallelism,
		pool:        scratch.NewPool[K, V](bc.NumGroups(), bc.NumWarpQ),
		rc: resource.NewController(resource.Config{
			ScratchLimitBytes: o.memoryLimit,
			MaxConcurrentRows: int64(maxRows),
			RowsPerSecond:     o.rowsPerSecond,
			RowBurst:          o.rowBurst,
		}),
		logger:  o.logger,
		metrics: o.metrics,
		tracer:  tp.Tracer(tracerName),
	}

	s.logger.LogConfig(context.Background(), s.cfg)
	return s, nil
}

// Config returns the effective configuration.
func (s *Selector[K, V]) Config() Config { return s.cfg }

// K returns the number of results per row.
func (s *Selector[K, V]) K() int { return s.cfg.K }

// SentinelKey returns the key padding empty result slots.
func (s *Selector[K, V]) SentinelKey() K { return s.sentinelK }

// ScratchBytes returns the scratch memory one row holds while it runs.
func (s *Selector[K, V]) ScratchBytes() int64 { return s.pool.SizeBytes() }

// ScratchStats returns the scratch pool counters.
func (s *Selector[K, V]) ScratchStats() scratch.PoolStats { return s.pool.Stats() }

// PeakScratchBytes returns the highest scratch reservation observed.
func (s *Selector[K, V]) PeakScratchBytes() int64 { return s.rc.PeakMemoryUsage() }

// SelectRow selects the k best of the n candidates produced by src.
// src is called exactly once for every index in [0, n), concurrently from
// the groups of the block, and must not retain state across calls.
//
// SelectRow waits for a row slot when WithMaxConcurrentRows rows are already
// in flight. It does not wait for scratch memory: if the memory limit is
// reached it fails with ErrMemoryLimitExceeded.
func (s *Selector[K, V]) SelectRow(src model.Source[K, V], n int) (Result[K, V], error) {
	start := time.Now()
	res, err := s.selectRow(src, n)
	s.metrics.OnSelect(1, s.cfg.K, time.Since(start), err)
	return res, err
}

func (s *Selector[K, V]) selectRow(src model.Source[K, V], n int) (Result[K, V], error) {
	if n < 0 {
		return Result[K, V]{}, fmt.Errorf("%w: n=%d", ErrNegativeCount, n)
	}
	if err := s.rc.AcquireRow(context.Background()); err != nil {
		return Result[K, V]{}, err
	}
	defer s.rc.ReleaseRow()

	bytes := s.pool.SizeBytes()
	if err := s.rc.TryAcquireMemory(bytes); err != nil {
		return Result[K, V]{}, err
	}
	defer s.rc.ReleaseMemory(bytes)

	res, st, err := s.run(src, n)
	s.logger.LogSelect(context.Background(), n, s.cfg.K, st.Merges, err)
	return res, err
}

// SelectBatch selects the k best candidates of every row. Row r draws
// candidate i from src(r, i). Rows run concurrently up to the configured
// parallelism, each with its own block and scratch buffer.
//
// Cancellation is observed between rows; a row that has started runs to
// completion. On error the partial results are discarded.
func (s *Selector[K, V]) SelectBatch(ctx context.Context, rows, n int, src model.RowSource[K, V]) ([]Result[K, V], error) {
	ctx, span := s.tracer.Start(ctx, "blockselect.SelectBatch", trace.WithAttributes(
		attribute.Int("blockselect.rows", rows),
		attribute.Int("blockselect.candidates", n),
		attribute.Int("blockselect.k", s.cfg.K),
	))
	defer span.End()

	start := time.Now()
	results, err := s.selectBatch(ctx, rows, n, src)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.OnSelect(rows, s.cfg.K, elapsed, err)
	s.logger.LogBatch(ctx, rows, n, elapsed, err)

	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Selector[K, V]) selectBatch(ctx context.Context, rows, n int, src model.RowSource[K, V]) ([]Result[K, V], error) {
	if rows < 0 {
		return nil, fmt.Errorf("%w: rows=%d", ErrNegativeCount, rows)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: n=%d", ErrNegativeCount, n)
	}

	results := make([]Result[K, V], rows)
	bytes := s.pool.SizeBytes()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	var launchErr error
	for r := 0; r < rows; r++ {
		if err := s.rc.WaitRow(gctx); err != nil {
			launchErr = err
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.rc.AcquireRow(gctx); err != nil {
				return err
			}
			defer s.rc.ReleaseRow()

			if err := s.rc.AcquireMemory(gctx, bytes); err != nil {
				return fmt.Errorf("row %d: %w", r, err)
			}
			defer s.rc.ReleaseMemory(bytes)

			res, _, err := s.run(src.Row(r), n)
			if err != nil {
				return fmt.Errorf("row %d: %w", r, err)
			}
			results[r] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if launchErr != nil {
		return nil, launchErr
	}
	return results, nil
}

func (s *Selector[K, V]) run(src model.Source[K, V], n int) (Result[K, V], warpq.Stats, error) {
	buf := s.pool.Get(s.sentinelK, s.sentinelV)
	defer s.pool.Put(buf)

	blk, err := block.New(s.blockCfg, s.order, s.sentinelK, s.sentinelV, buf)
	if err != nil {
		return Result[K, V]{}, warpq.Stats{}, err
	}
	blk.Run(src, n)

	res := Result[K, V]{
		Keys:   make([]K, s.cfg.K),
		Values: make([]V, s.cfg.K),
	}
	blk.WriteOut(res.Keys, res.Values)

	st := blk.Stats()
	s.metrics.OnMerge(int(st.Merges))
	s.metrics.OnCandidates(int64(st.Offered), int64(st.Admitted))
	return res, st, nil
}
