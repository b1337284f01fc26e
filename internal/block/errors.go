package block

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")
	// ErrKExceedsWarpQ is returned when k is larger than the group queue.
	ErrKExceedsWarpQ = errors.New("k exceeds warp queue capacity")
	// ErrNotPowerOfTwo is returned when a capacity is not a power of two.
	ErrNotPowerOfTwo = errors.New("capacity must be a power of two")
	// ErrInvalidBlockThreads is returned when the block thread count is not
	// a power-of-two multiple of the group size.
	ErrInvalidBlockThreads = errors.New("block threads must be a power-of-two multiple of the group size")
	// ErrScratchMismatch is returned when a scratch buffer does not match
	// the block shape.
	ErrScratchMismatch = errors.New("scratch buffer does not match block shape")
)

// ConfigError reports an invalid selector configuration field.
//
// The sentinel cause can be matched with errors.Is.
type ConfigError struct {
	Field string
	Value int
	cause error
}

// NewConfigError creates a ConfigError for field with the given cause.
func NewConfigError(field string, value int, cause error) *ConfigError {
	return &ConfigError{Field: field, Value: value, cause: cause}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s=%d: %v", e.Field, e.Value, e.cause)
}

func (e *ConfigError) Unwrap() error { return e.cause }
