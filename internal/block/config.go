package block

import (
	"github.com/hupe1980/blockselect/internal/mergenet"
)

// Config is the shape of a block.
type Config struct {
	// K is the number of results.
	K int
	// Lanes is the group size.
	Lanes int
	// NumThreadQ is the per-lane thread queue capacity.
	NumThreadQ int
	// NumWarpQ is the per-group queue capacity.
	NumWarpQ int
	// BlockThreads is the number of lanes in the whole block.
	BlockThreads int
}

// NumGroups returns the number of groups in the block.
func (c Config) NumGroups() int {
	return c.BlockThreads / c.Lanes
}

// Validate checks the configuration and returns a *ConfigError.
func (c Config) Validate() error {
	if c.K <= 0 {
		return NewConfigError("k", c.K, ErrInvalidK)
	}
	for _, f := range []struct {
		name  string
		value int
	}{
		{"lanes", c.Lanes},
		{"num_thread_q", c.NumThreadQ},
		{"num_warp_q", c.NumWarpQ},
	} {
		if !mergenet.IsPowerOfTwo(f.value) {
			return NewConfigError(f.name, f.value, ErrNotPowerOfTwo)
		}
	}
	if c.K > c.NumWarpQ {
		return NewConfigError("k", c.K, ErrKExceedsWarpQ)
	}
	if c.BlockThreads < c.Lanes || c.BlockThreads%c.Lanes != 0 || !mergenet.IsPowerOfTwo(c.NumGroups()) {
		return NewConfigError("block_threads", c.BlockThreads, ErrInvalidBlockThreads)
	}
	return nil
}
