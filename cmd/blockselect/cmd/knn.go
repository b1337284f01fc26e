package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/sugawarayuuta/sonnet"

	"github.com/hupe1980/blockselect"
	"github.com/hupe1980/blockselect/distance"
	"github.com/hupe1980/blockselect/internal/config"
	"github.com/hupe1980/blockselect/internal/dataset"
	"github.com/hupe1980/blockselect/internal/telemetry"
	"github.com/hupe1980/blockselect/knn"
	"github.com/hupe1980/blockselect/prommetrics"
)

var knnCmd = &cobra.Command{
	Use:   "knn",
	Short: "Exact k-nearest-neighbor search",
	Long: `Run exact brute-force k-nearest-neighbor search. Every query is one row of
a selection batch; distances are streamed into the block selector.

Base and query vectors are read from .fvecs files. Files ending in .zst,
.lz4 or .gz are decompressed transparently. Without files, seeded random
vectors are generated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		if cfg.Output.Path != "" {
			f, err := os.Create(cfg.Output.Path)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return runKNN(ctx, cfg, logger, out)
	},
}

func init() {
	f := knnCmd.Flags()
	f.IntP("k", "k", 10, "Number of neighbors per query")
	f.String("metric", "l2", "Distance metric: l2, cosine or dot")
	f.String("base", "", "Base vectors (.fvecs[.zst|.lz4|.gz])")
	f.String("queries", "", "Query vectors (.fvecs[.zst|.lz4|.gz])")
	f.Int("limit", 0, "Read at most this many base vectors (0 = all)")
	f.Int("random-base", 10000, "Random base vectors when --base is empty")
	f.Int("random-queries", 10, "Random queries when --queries is empty")
	f.Int("dim", 128, "Dimension of random vectors")
	f.Uint64("seed", 42, "Seed for random vectors")
	f.String("filter", "", "Allowed base ids, e.g. 0-999,2000")
	f.Int("lanes", blockselect.DefaultLanes, "Lanes per group")
	f.Int("block-threads", blockselect.DefaultBlockThreads, "Lanes per block")
	f.Int("num-thread-q", 0, "Thread queue capacity (0 = derived from k)")
	f.Int("num-warp-q", 0, "Group queue capacity (0 = derived from k)")
	f.Int("parallelism", 0, "Concurrent queries (0 = GOMAXPROCS)")
	f.Int64("memory-limit", 0, "Scratch memory limit in bytes (0 = unlimited)")
	f.Float64("rows-per-second", 0, "Query admission rate (0 = unlimited)")
	f.StringP("output", "o", "text", "Output format: text or json")
	f.String("out", "", "Write results to this file instead of stdout")
	f.Bool("metrics", false, "Serve Prometheus metrics")
	f.String("metrics-addr", ":9090", "Prometheus listen address")
	f.Bool("trace", false, "Export OTLP traces")
	f.String("trace-endpoint", "", "OTLP/HTTP endpoint, e.g. http://localhost:4318")

	bindFlags(knnCmd, map[string]string{
		"selector.k":                  "k",
		"selector.lanes":              "lanes",
		"selector.block_threads":      "block-threads",
		"selector.num_thread_q":       "num-thread-q",
		"selector.num_warp_q":         "num-warp-q",
		"selector.parallelism":        "parallelism",
		"selector.memory_limit_bytes": "memory-limit",
		"selector.rows_per_second":    "rows-per-second",
		"data.metric":                 "metric",
		"data.base":                   "base",
		"data.queries":                "queries",
		"data.limit":                  "limit",
		"data.random_base":            "random-base",
		"data.random_queries":         "random-queries",
		"data.dimension":              "dim",
		"data.seed":                   "seed",
		"data.filter":                 "filter",
		"output.format":               "output",
		"output.path":                 "out",
		"metrics.enabled":             "metrics",
		"metrics.addr":                "metrics-addr",
		"telemetry.enabled":           "trace",
		"telemetry.endpoint":          "trace-endpoint",
	})

	rootCmd.AddCommand(knnCmd)
}

// Report is the output of a knn run.
type Report struct {
	Metric    string        `json:"metric"`
	K         int           `json:"k"`
	Base      int           `json:"base"`
	Queries   int           `json:"queries"`
	Dimension int           `json:"dimension"`
	ElapsedMS float64       `json:"elapsed_ms"`
	Results   []QueryResult `json:"results"`
}

// QueryResult holds the neighbors of one query.
type QueryResult struct {
	Query     int            `json:"query"`
	Neighbors []knn.Neighbor `json:"neighbors"`
}

func runKNN(ctx context.Context, cfg *config.Config, logger *blockselect.Logger, w io.Writer) error {
	tp, shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	metric, err := distance.ParseMetric(cfg.Data.Metric)
	if err != nil {
		return err
	}

	base, queries, err := loadData(cfg.Data)
	if err != nil {
		return err
	}
	if len(queries) > 0 && len(base) > 0 && len(queries[0]) != len(base[0]) {
		return &knn.ErrDimensionMismatch{Expected: len(base[0]), Actual: len(queries[0])}
	}
	dim := cfg.Data.Dimension
	if len(base) > 0 {
		dim = len(base[0])
	}
	logger.Info("data loaded", "base", len(base), "queries", len(queries), "dimension", dim, "metric", metric.String())

	opts := []blockselect.Option{
		blockselect.WithLanes(cfg.Selector.Lanes),
		blockselect.WithBlockThreads(cfg.Selector.BlockThreads),
		blockselect.WithMemoryLimit(cfg.Selector.MemoryLimitBytes),
		blockselect.WithRowRateLimit(cfg.Selector.RowsPerSecond, cfg.Selector.RowBurst),
		blockselect.WithLogger(logger),
		blockselect.WithTracerProvider(tp),
	}
	if cfg.Selector.NumWarpQ > 0 || cfg.Selector.NumThreadQ > 0 {
		opts = append(opts, blockselect.WithCapacities(cfg.Selector.NumThreadQ, cfg.Selector.NumWarpQ))
	}
	if cfg.Selector.Parallelism > 0 {
		opts = append(opts, blockselect.WithParallelism(cfg.Selector.Parallelism))
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		obs, err := prommetrics.New(reg)
		if err != nil {
			return err
		}
		opts = append(opts, blockselect.WithMetricsObserver(obs))

		srv := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	idx, err := knn.New(dim, metric, knn.WithSelectorOptions(opts...))
	if err != nil {
		return err
	}
	if len(base) > 0 {
		if _, err := idx.Add(base...); err != nil {
			return err
		}
	}

	var searchOpts []knn.SearchOption
	if cfg.Data.Filter != "" {
		allowed, err := parseFilter(cfg.Data.Filter)
		if err != nil {
			return err
		}
		searchOpts = append(searchOpts, knn.WithFilter(allowed))
	}

	start := time.Now()
	hits, err := idx.Search(ctx, queries, cfg.Selector.K, searchOpts...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	report := Report{
		Metric:    metric.String(),
		K:         cfg.Selector.K,
		Base:      len(base),
		Queries:   len(queries),
		Dimension: dim,
		ElapsedMS: float64(elapsed.Microseconds()) / 1000,
		Results:   make([]QueryResult, len(hits)),
	}
	for i, h := range hits {
		report.Results[i] = QueryResult{Query: i, Neighbors: h}
	}

	return writeReport(w, cfg.Output.Format, &report)
}

func loadData(dc config.DataConfig) (base, queries [][]float32, err error) {
	gen := dataset.NewGenerator(dc.Seed)

	if dc.Base != "" {
		base, err = dataset.ReadFile(dc.Base, dc.Limit)
		if err != nil {
			return nil, nil, err
		}
	} else {
		base = gen.Uniform(dc.RandomBase, dc.Dimension)
	}

	if dc.Queries != "" {
		queries, err = dataset.ReadFile(dc.Queries, 0)
		if err != nil {
			return nil, nil, err
		}
	} else {
		dim := dc.Dimension
		if len(base) > 0 {
			dim = len(base[0])
		}
		queries = gen.Uniform(dc.RandomQueries, dim)
	}
	return base, queries, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *blockselect.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

func writeReport(w io.Writer, format string, r *Report) error {
	if format == "json" {
		data, err := sonnet.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	if _, err := fmt.Fprintf(w, "metric=%s k=%d base=%d queries=%d dim=%d elapsed=%.3fms\n",
		r.Metric, r.K, r.Base, r.Queries, r.Dimension, r.ElapsedMS); err != nil {
		return err
	}
	for _, q := range r.Results {
		if _, err := fmt.Fprintf(w, "query %d:", q.Query); err != nil {
			return err
		}
		for _, n := range q.Neighbors {
			if _, err := fmt.Fprintf(w, " %d(%.4f)", n.ID, n.Distance); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
