package blockselect

import (
	"sync/atomic"
	"time"
)

// MetricsObserver receives selection metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
type MetricsObserver interface {
	// OnSelect is called once per SelectRow or SelectBatch call.
	// rows is the number of rows selected, k the result size.
	OnSelect(rows, k int, duration time.Duration, err error)

	// OnMerge is called after each row with the number of queue merges it took.
	OnMerge(count int)

	// OnCandidates is called after each row with the number of candidates
	// offered to the thread queues and the number admitted past the threshold.
	OnCandidates(offered, admitted int64)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnSelect(int, int, time.Duration, error) {}
func (NoopMetricsObserver) OnMerge(int)                             {}
func (NoopMetricsObserver) OnCandidates(int64, int64)               {}

// BasicMetricsObserver provides simple in-memory metrics collection.
type BasicMetricsObserver struct {
	SelectCount      atomic.Int64
	SelectErrors     atomic.Int64
	SelectTotalNanos atomic.Int64
	RowCount         atomic.Int64
	MergeCount       atomic.Int64
	Offered          atomic.Int64
	Admitted         atomic.Int64
}

// OnSelect implements MetricsObserver.
func (b *BasicMetricsObserver) OnSelect(rows, _ int, duration time.Duration, err error) {
	b.SelectCount.Add(1)
	b.SelectTotalNanos.Add(duration.Nanoseconds())
	b.RowCount.Add(int64(rows))
	if err != nil {
		b.SelectErrors.Add(1)
	}
}

// OnMerge implements MetricsObserver.
func (b *BasicMetricsObserver) OnMerge(count int) {
	b.MergeCount.Add(int64(count))
}

// OnCandidates implements MetricsObserver.
func (b *BasicMetricsObserver) OnCandidates(offered, admitted int64) {
	b.Offered.Add(offered)
	b.Admitted.Add(admitted)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsObserver) GetStats() BasicMetricsStats {
	st := BasicMetricsStats{
		SelectCount:  b.SelectCount.Load(),
		SelectErrors: b.SelectErrors.Load(),
		RowCount:     b.RowCount.Load(),
		MergeCount:   b.MergeCount.Load(),
		Offered:      b.Offered.Load(),
		Admitted:     b.Admitted.Load(),
	}
	if st.SelectCount > 0 {
		st.SelectAvgNanos = b.SelectTotalNanos.Load() / st.SelectCount
	}
	if st.Offered > 0 {
		st.AdmitRatio = float64(st.Admitted) / float64(st.Offered)
	}
	return st
}

// BasicMetricsStats is a snapshot of BasicMetricsObserver state.
type BasicMetricsStats struct {
	SelectCount    int64
	SelectErrors   int64
	SelectAvgNanos int64
	RowCount       int64
	MergeCount     int64
	Offered        int64
	Admitted       int64
	AdmitRatio     float64
}
