package prommetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blockselect"
	"github.com/hupe1980/blockselect/keys"
	"github.com/hupe1980/blockselect/model"
)

func TestObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := New(reg)
	require.NoError(t, err)

	o.OnSelect(3, 10, time.Millisecond, nil)
	o.OnSelect(1, 10, time.Millisecond, errors.New("boom"))
	o.OnMerge(4)
	o.OnCandidates(100, 12)

	assert.InDelta(t, 1, testutil.ToFloat64(o.selects.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(o.selects.WithLabelValues("error")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(o.rows), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(o.merges), 0)
	assert.InDelta(t, 100, testutil.ToFloat64(o.offered), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(o.admitted), 0)

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func TestObserver_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestObserver_WithSelector(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := New(reg)
	require.NoError(t, err)

	s, err := blockselect.New(keys.Float32(), -1, blockselect.WithK(2), blockselect.WithMetricsObserver(o))
	require.NoError(t, err)

	ks := []float32{5, 3, 8, 1}
	_, err = s.SelectRow(model.SliceSource(ks, []int{0, 1, 2, 3}), len(ks))
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(o.rows), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(o.offered), 0)
}
