package blockselect

import (
	"errors"

	"github.com/hupe1980/blockselect/internal/block"
	"github.com/hupe1980/blockselect/internal/resource"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = block.ErrInvalidK
	// ErrKExceedsWarpQ is returned when k is larger than the group queue capacity.
	ErrKExceedsWarpQ = block.ErrKExceedsWarpQ
	// ErrNotPowerOfTwo is returned when a capacity is not a power of two.
	ErrNotPowerOfTwo = block.ErrNotPowerOfTwo
	// ErrInvalidBlockThreads is returned when the block thread count is not a
	// power-of-two multiple of the group size.
	ErrInvalidBlockThreads = block.ErrInvalidBlockThreads
	// ErrNilComparator is returned when the key traits carry no comparator.
	ErrNilComparator = errors.New("comparator must not be nil")
	// ErrInvalidDirection is returned for an unknown selection direction.
	ErrInvalidDirection = errors.New("invalid direction")
	// ErrInvalidParallelism is returned when parallelism is not positive.
	ErrInvalidParallelism = errors.New("parallelism must be positive")
	// ErrNegativeCount is returned when a row or candidate count is negative.
	ErrNegativeCount = errors.New("count must not be negative")
	// ErrMemoryLimitExceeded is returned when a row cannot reserve its scratch memory.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// ConfigError reports an invalid selector configuration field.
//
// The sentinel cause can be matched with errors.Is:
//
//	var ce *blockselect.ConfigError
//	if errors.As(err, &ce) && errors.Is(err, blockselect.ErrNotPowerOfTwo) {
//	    log.Printf("field %s", ce.Field)
//	}
type ConfigError = block.ConfigError

func configError(field string, value int, cause error) error {
	return block.NewConfigError(field, value, cause)
}
