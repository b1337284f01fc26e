package warpq

import (
	"testing"

	"github.com/hupe1980/blockselect/keys"
	"github.com/hupe1980/blockselect/model"
	"github.com/hupe1980/blockselect/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueue(t *testing.T, dir model.Direction, k, lanes, threadQ, warpQ int) *Queue[float32, string] {
	t.Helper()
	tr := keys.Float32()
	cfg := Config[float32, string]{
		Order:         tr.Order(dir),
		K:             k,
		Lanes:         lanes,
		NumThreadQ:    threadQ,
		NumWarpQ:      warpQ,
		SentinelKey:   tr.Sentinel(dir),
		SentinelValue: "",
	}
	return New(cfg, make([]float32, warpQ), make([]string, warpQ))
}

// feed presents the stream in lockstep chunks of Lanes() and handles the
// tail with AddLane, like a block does.
func feed[V any](q *Queue[float32, V], ks []float32, vs []V) {
	lanes := q.Lanes()
	limit := len(ks) / lanes * lanes
	for i := 0; i < limit; i += lanes {
		q.Add(ks[i:i+lanes], vs[i:i+lanes])
	}
	for i := limit; i < len(ks); i++ {
		q.AddLane(i-limit, ks[i], vs[i])
	}
}

var tiedKeys = struct {
	keys []float32
	vals []string
}{
	keys: []float32{5, 9, 1, 7, 3, 9, 2, 8, 0, 6},
	vals: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
}

func TestQueue_LargestTopFourWithTies(t *testing.T) {
	for _, lanes := range []int{1, 2} {
		q := newQueue(t, model.Largest, 4, lanes, 2, 4)
		feed(q, tiedKeys.keys, tiedKeys.vals)
		q.Reduce()

		outK := make([]float32, 4)
		outV := make([]string, 4)
		require.Equal(t, 4, q.WriteOut(outK, outV))

		assert.Equal(t, []float32{9, 9, 8, 7}, outK, "lanes=%d", lanes)
		assert.ElementsMatch(t, []string{"b", "f"}, outV[:2])
		assert.Equal(t, []string{"h", "d"}, outV[2:])
		assert.Equal(t, StateDone, q.State())
	}
}

func TestQueue_Underflow(t *testing.T) {
	q := newQueue(t, model.Smallest, 8, 4, 2, 8)
	feed(q, []float32{3, 1, 2}, []string{"x", "y", "z"})
	q.Reduce()

	outK := make([]float32, 8)
	outV := make([]string, 8)
	q.WriteOut(outK, outV)

	assert.Equal(t, []float32{1, 2, 3}, outK[:3])
	assert.Equal(t, []string{"y", "z", "x"}, outV[:3])
	for i := 3; i < 8; i++ {
		assert.Equal(t, keys.Float32().Highest, outK[i])
		assert.Equal(t, "", outV[i])
	}
}

func TestQueue_MatchesOracle(t *testing.T) {
	rng := testutil.NewRNG(42)
	tr := keys.Float32()

	cases := []struct {
		k, lanes, threadQ, warpQ, n int
	}{
		{1, 1, 1, 1, 100},
		{10, 4, 2, 16, 1000},
		{32, 32, 2, 32, 5000},
		{64, 8, 4, 64, 3333},
		{100, 32, 8, 128, 20000},
		{128, 16, 4, 128, 129},
	}
	for _, dir := range []model.Direction{model.Smallest, model.Largest} {
		for _, tc := range cases {
			ks := rng.Float32s(tc.n)
			vs := testutil.Iota(tc.n)

			cfg := Config[float32, int]{
				Order: tr.Order(dir), K: tc.k, Lanes: tc.lanes,
				NumThreadQ: tc.threadQ, NumWarpQ: tc.warpQ,
				SentinelKey: tr.Sentinel(dir), SentinelValue: -1,
			}
			q := New(cfg, make([]float32, tc.warpQ), make([]int, tc.warpQ))
			feed(q, ks, vs)
			q.Reduce()

			outK := make([]float32, tc.k)
			outV := make([]int, tc.k)
			q.WriteOut(outK, outV)

			want := testutil.ExactTopK(tr.Order(dir), ks, vs, tc.k, tr.Sentinel(dir), -1)
			assert.Equal(t, testutil.KeysOf(want), outK, "dir=%v case=%+v", dir, tc)
			for i, v := range outV {
				if v >= 0 {
					assert.Equal(t, ks[v], outK[i])
				}
			}

			st := q.Stats()
			assert.Equal(t, uint64(tc.n), st.Offered)
			assert.LessOrEqual(t, st.Admitted, st.Offered)
		}
	}
}

func TestQueue_ThresholdNeverLoosens(t *testing.T) {
	rng := testutil.NewRNG(7)
	tr := keys.Float32()

	for _, dir := range []model.Direction{model.Smallest, model.Largest} {
		o := tr.Order(dir)
		q := newQueue(t, dir, 16, 8, 2, 32)
		ks := rng.Float32s(4096)
		vs := make([]string, len(ks))

		prev := q.Threshold()
		for i := 0; i < len(ks); i += 8 {
			q.Add(ks[i:i+8], vs[i:i+8])
			cur := q.Threshold()
			require.False(t, o.Better(prev, cur), "dir=%v threshold loosened from %v to %v", dir, prev, cur)
			prev = cur
		}
		assert.Greater(t, q.Stats().Merges, uint64(0))
	}
}

func TestQueue_Determinism(t *testing.T) {
	run := func() ([]float32, []int) {
		rng := testutil.NewRNG(99)
		tr := keys.Float32()
		cfg := Config[float32, int]{
			Order: tr.Order(model.Smallest), K: 32, Lanes: 8,
			NumThreadQ: 4, NumWarpQ: 32,
			SentinelKey: tr.Highest, SentinelValue: -1,
		}
		q := New(cfg, make([]float32, 32), make([]int, 32))
		ks := rng.Float32s(2048)
		for i := range ks {
			ks[i] = float32(int(ks[i] * 20)) // many ties
		}
		feed(q, ks, testutil.Iota(len(ks)))
		q.Reduce()
		outK := make([]float32, 32)
		outV := make([]int, 32)
		q.WriteOut(outK, outV)
		return outK, outV
	}

	k1, v1 := run()
	k2, v2 := run()
	assert.Equal(t, k1, k2)
	assert.Equal(t, v1, v2)
}

func TestQueue_Preconditions(t *testing.T) {
	q := newQueue(t, model.Smallest, 2, 2, 2, 4)

	assert.Panics(t, func() { q.Add([]float32{1}, []string{"a"}) }, "partial participation")
	assert.Panics(t, func() { q.WriteOut(make([]float32, 2), make([]string, 2)) }, "write out before reduce")

	q.Reduce()
	assert.Panics(t, func() { q.Add([]float32{1, 2}, []string{"a", "b"}) }, "add after reduce")
	assert.Panics(t, func() { q.Reduce() }, "reduce twice")

	assert.Panics(t, func() { newQueue(t, model.Smallest, 8, 2, 2, 4) }, "k exceeds warp queue")
}

func TestQueue_ReduceWithoutAdd(t *testing.T) {
	q := newQueue(t, model.Largest, 4, 4, 2, 4)
	q.Reduce()

	outK := make([]float32, 4)
	outV := make([]string, 4)
	q.WriteOut(outK, outV)
	for _, k := range outK {
		assert.Equal(t, keys.Float32().Lowest, k)
	}
	assert.Equal(t, uint64(0), q.Stats().Merges)
}

func BenchmarkQueue_Add(b *testing.B) {
	tr := keys.Float32()
	rng := testutil.NewRNG(1)
	ks := rng.Float32s(1 << 16)
	vs := testutil.Iota(len(ks))
	cfg := Config[float32, int]{
		Order: tr.Order(model.Smallest), K: 100, Lanes: 32,
		NumThreadQ: 4, NumWarpQ: 128,
		SentinelKey: tr.Highest, SentinelValue: -1,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q := New(cfg, make([]float32, 128), make([]int, 128))
		feed(q, ks, vs)
		q.Reduce()
	}
}
