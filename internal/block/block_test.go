package block

import (
	"errors"
	"testing"

	"github.com/hupe1980/blockselect/internal/scratch"
	"github.com/hupe1980/blockselect/keys"
	"github.com/hupe1980/blockselect/model"
	"github.com/hupe1980/blockselect/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t testing.TB, cfg Config, dir model.Direction, ks []float32) ([]float32, []int, *Block[float32, int]) {
	t.Helper()
	tr := keys.Float32()
	buf := scratch.New[float32, int](cfg.NumGroups(), cfg.NumWarpQ)
	buf.Reset(tr.Sentinel(dir), -1)

	b, err := New(cfg, tr.Order(dir), tr.Sentinel(dir), -1, buf)
	require.NoError(t, err)

	b.Run(model.SliceSource(ks, testutil.Iota(len(ks))), len(ks))

	outK := make([]float32, cfg.K)
	outV := make([]int, cfg.K)
	require.Equal(t, cfg.K, b.WriteOut(outK, outV))
	return outK, outV, b
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{K: 10, Lanes: 32, NumThreadQ: 2, NumWarpQ: 32, BlockThreads: 128}
	require.NoError(t, valid.Validate())
	assert.Equal(t, 4, valid.NumGroups())

	tests := []struct {
		name  string
		mut   func(c *Config)
		field string
		cause error
	}{
		{"zero k", func(c *Config) { c.K = 0 }, "k", ErrInvalidK},
		{"k above warp queue", func(c *Config) { c.K = 33 }, "k", ErrKExceedsWarpQ},
		{"odd thread queue", func(c *Config) { c.NumThreadQ = 3 }, "num_thread_q", ErrNotPowerOfTwo},
		{"odd warp queue", func(c *Config) { c.NumWarpQ = 48 }, "num_warp_q", ErrNotPowerOfTwo},
		{"odd lanes", func(c *Config) { c.Lanes = 24 }, "lanes", ErrNotPowerOfTwo},
		{"partial group", func(c *Config) { c.BlockThreads = 48 }, "block_threads", ErrInvalidBlockThreads},
		{"three groups", func(c *Config) { c.BlockThreads = 96 }, "block_threads", ErrInvalidBlockThreads},
		{"smaller than a group", func(c *Config) { c.BlockThreads = 16 }, "block_threads", ErrInvalidBlockThreads},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mut(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.cause)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestNew_ScratchMismatch(t *testing.T) {
	cfg := Config{K: 4, Lanes: 4, NumThreadQ: 2, NumWarpQ: 4, BlockThreads: 8}
	tr := keys.Float32()
	_, err := New(cfg, tr.Order(model.Smallest), tr.Highest, -1, scratch.New[float32, int](1, 4))
	assert.ErrorIs(t, err, ErrScratchMismatch)
}

func TestBlock_LargestTopFourSingleGroup(t *testing.T) {
	cfg := Config{K: 4, Lanes: 2, NumThreadQ: 2, NumWarpQ: 4, BlockThreads: 2}
	ks := []float32{5, 9, 1, 7, 3, 9, 2, 8, 0, 6}

	outK, outV, b := run(t, cfg, model.Largest, ks)

	assert.Equal(t, []float32{9, 9, 8, 7}, outK)
	assert.ElementsMatch(t, []int{1, 5}, outV[:2])
	assert.Equal(t, []int{7, 3}, outV[2:])
	assert.Equal(t, uint64(2), b.Barriers(), "flush barrier plus closing barrier")
}

func TestBlock_MultiGroupReduce(t *testing.T) {
	// Two groups of four lanes. Chunks alternate between groups, so group 0
	// sees 0..3, 8..11 and group 1 sees 4..7, 12..15.
	cfg := Config{K: 4, Lanes: 4, NumThreadQ: 2, NumWarpQ: 4, BlockThreads: 8}
	ks := []float32{
		10, 1, 2, 3, // group 0
		50, 4, 5, 6, // group 1
		40, 7, 8, 9, // group 0
		11, 12, 30, 13, // group 1
	}

	outK, outV, b := run(t, cfg, model.Largest, ks)

	assert.Equal(t, []float32{50, 40, 30, 13}, outK)
	assert.Equal(t, []int{4, 8, 14, 15}, outV)
	assert.Equal(t, uint64(2), b.Barriers(), "flush barrier plus one merge level")
}

func TestBlock_Underflow(t *testing.T) {
	cfg := Config{K: 8, Lanes: 4, NumThreadQ: 2, NumWarpQ: 8, BlockThreads: 16}
	outK, outV, b := run(t, cfg, model.Smallest, []float32{0.5, 0.25, 0.75})

	assert.Equal(t, []float32{0.25, 0.5, 0.75}, outK[:3])
	assert.Equal(t, []int{1, 0, 2}, outV[:3])
	for i := 3; i < 8; i++ {
		assert.Equal(t, keys.Float32().Highest, outK[i])
		assert.Equal(t, -1, outV[i])
	}
	assert.Equal(t, uint64(3), b.Barriers(), "flush barrier plus two merge levels")
}

func TestBlock_Empty(t *testing.T) {
	cfg := Config{K: 2, Lanes: 2, NumThreadQ: 2, NumWarpQ: 2, BlockThreads: 4}
	outK, outV, b := run(t, cfg, model.Largest, nil)

	assert.Equal(t, []float32{keys.Float32().Lowest, keys.Float32().Lowest}, outK)
	assert.Equal(t, []int{-1, -1}, outV)
	assert.Zero(t, b.Stats().Offered)
}

func TestBlock_MatchesOracle(t *testing.T) {
	rng := testutil.NewRNG(42)
	tr := keys.Float32()

	configs := []Config{
		{K: 1, Lanes: 1, NumThreadQ: 1, NumWarpQ: 1, BlockThreads: 1},
		{K: 7, Lanes: 4, NumThreadQ: 2, NumWarpQ: 8, BlockThreads: 16},
		{K: 32, Lanes: 32, NumThreadQ: 2, NumWarpQ: 32, BlockThreads: 128},
		{K: 50, Lanes: 8, NumThreadQ: 4, NumWarpQ: 64, BlockThreads: 64},
		{K: 128, Lanes: 32, NumThreadQ: 8, NumWarpQ: 128, BlockThreads: 256},
		{K: 256, Lanes: 16, NumThreadQ: 8, NumWarpQ: 256, BlockThreads: 32},
	}
	sizes := []int{0, 1, 3, 31, 33, 1000, 4097, 20011}

	for _, dir := range []model.Direction{model.Smallest, model.Largest} {
		for _, cfg := range configs {
			for _, n := range sizes {
				ks := rng.Float32s(n)
				outK, outV, b := run(t, cfg, dir, ks)

				want := testutil.ExactTopK(tr.Order(dir), ks, testutil.Iota(n), cfg.K, tr.Sentinel(dir), -1)
				require.Equal(t, testutil.KeysOf(want), outK, "dir=%v cfg=%+v n=%d", dir, cfg, n)
				for i, v := range outV {
					if v >= 0 {
						require.Equal(t, ks[v], outK[i])
					}
				}
				assert.Equal(t, uint64(n), b.Stats().Offered)
			}
		}
	}
}

func TestBlock_TiesKeepKeyOrder(t *testing.T) {
	rng := testutil.NewRNG(3)
	cfg := Config{K: 64, Lanes: 8, NumThreadQ: 4, NumWarpQ: 64, BlockThreads: 32}
	tr := keys.Float32()

	raw := rng.Ints(5000, 10)
	ks := make([]float32, len(raw))
	for i, r := range raw {
		ks[i] = float32(r)
	}

	outK, outV, _ := run(t, cfg, model.Smallest, ks)
	want := testutil.ExactTopK(tr.Order(model.Smallest), ks, testutil.Iota(len(ks)), cfg.K, tr.Highest, -1)
	assert.Equal(t, testutil.KeysOf(want), outK)

	seen := map[int]bool{}
	for _, v := range outV {
		assert.False(t, seen[v], "value %d returned twice", v)
		seen[v] = true
	}
}

func TestBlock_Determinism(t *testing.T) {
	cfg := Config{K: 32, Lanes: 8, NumThreadQ: 2, NumWarpQ: 32, BlockThreads: 64}
	ks := testutil.NewRNG(5).Float32s(10000)

	k1, v1, _ := run(t, cfg, model.Largest, ks)
	for i := 0; i < 5; i++ {
		k2, v2, _ := run(t, cfg, model.Largest, ks)
		assert.Equal(t, k1, k2)
		assert.Equal(t, v1, v2)
	}
}

func TestBlock_RunOnce(t *testing.T) {
	cfg := Config{K: 1, Lanes: 1, NumThreadQ: 1, NumWarpQ: 1, BlockThreads: 1}
	_, _, b := run(t, cfg, model.Smallest, []float32{1})
	assert.Panics(t, func() { b.Run(model.SliceSource([]float32{2}, []int{0}), 1) })
}

func BenchmarkBlock(b *testing.B) {
	cfg := Config{K: 100, Lanes: 32, NumThreadQ: 4, NumWarpQ: 128, BlockThreads: 128}
	ks := testutil.NewRNG(1).Float32s(1 << 18)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		run(b, cfg, model.Smallest, ks)
	}
}
