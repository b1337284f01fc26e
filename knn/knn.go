package knn

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/blockselect"
	"github.com/hupe1980/blockselect/distance"
	"github.com/hupe1980/blockselect/keys"
)

// ErrInvalidDimension is returned when the index dimension is not positive.
var ErrInvalidDimension = errors.New("dimension must be positive")

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Neighbor is one search hit.
type Neighbor struct {
	ID       uint32  `json:"id"`
	Distance float32 `json:"distance"`
}

const noID = int64(-1)

// Index is an in-memory exact k-NN index over float32 vectors.
// Add and Search may be called concurrently.
type Index struct {
	dim     int
	metric  distance.Metric
	selOpts []blockselect.Option

	mu      sync.RWMutex
	vectors [][]float32
	norms   []float32

	selMu     sync.Mutex
	selectors map[int]*blockselect.Selector[float32, int64]
}

// Option configures an Index.
type Option func(*Index)

// WithSelectorOptions passes options to the selectors built for each k.
// WithK and WithDirection are set by the index.
func WithSelectorOptions(opts ...blockselect.Option) Option {
	return func(ix *Index) {
		ix.selOpts = append(ix.selOpts, opts...)
	}
}

// New creates an empty index.
func New(dim int, metric distance.Metric, opts ...Option) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	if _, err := distance.Provider(metric); err != nil {
		return nil, err
	}
	ix := &Index{
		dim:       dim,
		metric:    metric,
		selectors: make(map[int]*blockselect.Selector[float32, int64]),
	}
	for _, fn := range opts {
		fn(ix)
	}
	return ix, nil
}

// Dimension returns the vector dimension.
func (ix *Index) Dimension() int { return ix.dim }

// Metric returns the distance metric.
func (ix *Index) Metric() distance.Metric { return ix.metric }

// Len returns the number of vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Add appends vectors and returns the id of the first one. Ids are assigned
// sequentially. Vectors are copied.
func (ix *Index) Add(vectors ...[]float32) (uint32, error) {
	prepared := make([][]float32, len(vectors))
	norms := make([]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != ix.dim {
			return 0, &ErrDimensionMismatch{Expected: ix.dim, Actual: len(v)}
		}
		prepared[i] = ix.prepare(v)
		norms[i] = distance.SquaredNorm(prepared[i])
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if int64(len(ix.vectors))+int64(len(vectors)) > math.MaxUint32 {
		return 0, fmt.Errorf("index full: %d vectors", len(ix.vectors))
	}
	first := uint32(len(ix.vectors))
	ix.vectors = append(ix.vectors, prepared...)
	ix.norms = append(ix.norms, norms...)
	return first, nil
}

func (ix *Index) prepare(v []float32) []float32 {
	if ix.metric == distance.MetricCosine {
		if n, ok := distance.NormalizeL2Copy(v); ok {
			return n
		}
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

type searchOptions struct {
	filter *roaring.Bitmap
}

// SearchOption configures a search.
type SearchOption func(*searchOptions)

// WithFilter restricts the candidates to the ids in allowed.
// Ids beyond the index size are ignored.
func WithFilter(allowed *roaring.Bitmap) SearchOption {
	return func(o *searchOptions) {
		o.filter = allowed
	}
}

// Search returns the k nearest neighbors of every query, best first.
// A query with fewer than k candidates returns fewer hits.
func (ix *Index) Search(ctx context.Context, queries [][]float32, k int, opts ...SearchOption) ([][]Neighbor, error) {
	var so searchOptions
	for _, fn := range opts {
		fn(&so)
	}

	qs := make([][]float32, len(queries))
	qNorms := make([]float32, len(queries))
	for i, q := range queries {
		if len(q) != ix.dim {
			return nil, &ErrDimensionMismatch{Expected: ix.dim, Actual: len(q)}
		}
		qs[i] = ix.prepare(q)
		qNorms[i] = distance.SquaredNorm(qs[i])
	}

	sel, err := ix.selector(k)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	vectors, norms := ix.vectors, ix.norms
	ix.mu.RUnlock()

	filtered := so.filter != nil
	ids := candidateIDs(len(vectors), so.filter)
	n := len(vectors)
	if filtered {
		n = len(ids)
	}

	key := ix.keyFunc(qs, qNorms, vectors, norms)
	results, err := sel.SelectBatch(ctx, len(qs), n, func(row, i int) (float32, int64) {
		id := i
		if filtered {
			id = int(ids[i])
		}
		return key(row, id), int64(id)
	})
	if err != nil {
		return nil, err
	}

	out := make([][]Neighbor, len(results))
	for r, res := range results {
		hits := make([]Neighbor, 0, res.Len())
		for i, id := range res.Values {
			if id == noID {
				break
			}
			hits = append(hits, Neighbor{ID: uint32(id), Distance: res.Keys[i]})
		}
		out[r] = hits
	}
	return out, nil
}

func (ix *Index) keyFunc(qs [][]float32, qNorms []float32, vectors [][]float32, norms []float32) func(row, id int) float32 {
	switch ix.metric {
	case distance.MetricL2:
		return func(row, id int) float32 {
			return distance.SquaredL2FromNorms(qNorms[row], norms[id], distance.Dot(qs[row], vectors[id]))
		}
	case distance.MetricCosine:
		return func(row, id int) float32 {
			if qNorms[row] == 0 || norms[id] == 0 {
				return 1
			}
			return 1 - distance.Dot(qs[row], vectors[id])
		}
	default:
		return func(row, id int) float32 {
			return distance.Dot(qs[row], vectors[id])
		}
	}
}

func candidateIDs(size int, filter *roaring.Bitmap) []uint32 {
	if filter == nil {
		return nil
	}
	ids := filter.ToArray()
	end := len(ids)
	for end > 0 && int(ids[end-1]) >= size {
		end--
	}
	return ids[:end]
}

func (ix *Index) selector(k int) (*blockselect.Selector[float32, int64], error) {
	ix.selMu.Lock()
	defer ix.selMu.Unlock()

	if s, ok := ix.selectors[k]; ok {
		return s, nil
	}

	opts := append([]blockselect.Option{}, ix.selOpts...)
	opts = append(opts,
		blockselect.WithK(k),
		blockselect.WithDirection(ix.metric.Direction()),
	)
	s, err := blockselect.New(keys.Float32(), noID, opts...)
	if err != nil {
		return nil, err
	}
	ix.selectors[k] = s
	return s, nil
}
