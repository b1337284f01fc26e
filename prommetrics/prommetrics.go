// Package prommetrics exports selector metrics to Prometheus.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/blockselect"
)

const namespace = "blockselect"

// Observer implements blockselect.MetricsObserver with Prometheus collectors.
type Observer struct {
	selectLatency *prometheus.HistogramVec
	selects       *prometheus.CounterVec
	rows          prometheus.Counter
	merges        prometheus.Counter
	mergesPerRow  prometheus.Histogram
	offered       prometheus.Counter
	admitted      prometheus.Counter
}

var _ blockselect.MetricsObserver = (*Observer)(nil)

// New creates an Observer and registers its collectors with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func New(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &Observer{
		selectLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "select_duration_seconds",
			Help:      "Latency of SelectRow and SelectBatch calls.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"status"}),
		selects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selects_total",
			Help:      "Number of select calls by status.",
		}, []string{"status"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Number of rows selected.",
		}),
		merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_merges_total",
			Help:      "Thread queue merges into group queues.",
		}),
		mergesPerRow: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_merges_per_row",
			Help:      "Thread queue merges needed by one row.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		offered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_offered_total",
			Help:      "Candidates offered to thread queues.",
		}),
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_admitted_total",
			Help:      "Candidates that beat the group threshold.",
		}),
	}

	for _, c := range []prometheus.Collector{
		o.selectLatency, o.selects, o.rows, o.merges, o.mergesPerRow, o.offered, o.admitted,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnSelect implements blockselect.MetricsObserver.
func (o *Observer) OnSelect(rows, _ int, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.selectLatency.WithLabelValues(status).Observe(duration.Seconds())
	o.selects.WithLabelValues(status).Inc()
	o.rows.Add(float64(rows))
}

// OnMerge implements blockselect.MetricsObserver.
func (o *Observer) OnMerge(count int) {
	o.merges.Add(float64(count))
	o.mergesPerRow.Observe(float64(count))
}

// OnCandidates implements blockselect.MetricsObserver.
func (o *Observer) OnCandidates(offered, admitted int64) {
	o.offered.Add(float64(offered))
	o.admitted.Add(float64(admitted))
}
