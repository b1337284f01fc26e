package blockselect

import (
	"runtime"

	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/blockselect/model"
)

// Default block shape.
const (
	DefaultK            = 10
	DefaultLanes        = 32
	DefaultBlockThreads = 128
)

type options struct {
	k              int
	direction      model.Direction
	numThreadQ     int
	numWarpQ       int
	lanes          int
	blockThreads   int
	parallelism    int
	maxRows        int
	memoryLimit    int64
	rowsPerSecond  float64
	rowBurst       int
	logger         *Logger
	metrics        MetricsObserver
	tracerProvider trace.TracerProvider
}

func defaultOptions() options {
	return options{
		k:            DefaultK,
		direction:    model.Smallest,
		lanes:        DefaultLanes,
		blockThreads: DefaultBlockThreads,
		parallelism:  runtime.GOMAXPROCS(0),
		logger:       NoopLogger(),
		metrics:      NoopMetricsObserver{},
	}
}

// Option configures a Selector.
type Option func(*options)

// WithK sets the number of results per row.
func WithK(k int) Option {
	return func(o *options) {
		o.k = k
	}
}

// WithDirection selects the k smallest or the k largest keys.
func WithDirection(dir Direction) Option {
	return func(o *options) {
		o.direction = dir
	}
}

// WithCapacities sets the thread queue and group queue capacities.
// Both must be powers of two and numWarpQ must be at least k.
// If not set, ParamsForK chooses them.
func WithCapacities(numThreadQ, numWarpQ int) Option {
	return func(o *options) {
		o.numThreadQ = numThreadQ
		o.numWarpQ = numWarpQ
	}
}

// WithLanes sets the group size.
func WithLanes(lanes int) Option {
	return func(o *options) {
		o.lanes = lanes
	}
}

// WithBlockThreads sets the number of lanes per block.
// blockThreads/lanes groups run concurrently for every row.
func WithBlockThreads(blockThreads int) Option {
	return func(o *options) {
		o.blockThreads = blockThreads
	}
}

// WithParallelism bounds the number of rows one SelectBatch call runs at once.
// Defaults to GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithMaxConcurrentRows bounds the rows in flight across all SelectRow and
// SelectBatch calls on the selector. Further rows wait for a free slot.
// Defaults to the parallelism.
func WithMaxConcurrentRows(n int) Option {
	return func(o *options) {
		o.maxRows = n
	}
}

// WithMemoryLimit caps the scratch memory held by rows in flight.
// SelectBatch waits for memory; SelectRow fails with ErrMemoryLimitExceeded.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithRowRateLimit limits how many rows per second SelectBatch starts.
func WithRowRateLimit(rowsPerSecond float64, burst int) Option {
	return func(o *options) {
		o.rowsPerSecond = rowsPerSecond
		o.rowBurst = burst
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsObserver sets the metrics observer. If nil is passed, metrics are disabled.
func WithMetricsObserver(m MetricsObserver) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsObserver{}
		}
		o.metrics = m
	}
}

// WithTracerProvider sets the tracer provider used for batch spans.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}
