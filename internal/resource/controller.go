package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a scratch reservation would exceed the limit.
var ErrMemoryLimitExceeded = errors.New("scratch memory limit exceeded")

// Config holds the limits applied to row selection.
type Config struct {
	// ScratchLimitBytes caps the scratch memory held by in-flight rows.
	// If 0, usage is only tracked.
	ScratchLimitBytes int64

	// MaxConcurrentRows is the maximum number of rows selected at once.
	// If 0, defaults to 1.
	MaxConcurrentRows int64

	// RowsPerSecond limits how fast rows are admitted. If 0, unlimited.
	RowsPerSecond float64

	// RowBurst is the token bucket size for row admission. Defaults to 1.
	RowBurst int
}

// Controller governs scratch memory, row concurrency and row admission rate.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64
	memPeak atomic.Int64

	rowSem *semaphore.Weighted

	rowLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentRows <= 0 {
		cfg.MaxConcurrentRows = 1
	}
	if cfg.RowBurst <= 0 {
		cfg.RowBurst = 1
	}

	c := &Controller{
		cfg:    cfg,
		rowSem: semaphore.NewWeighted(cfg.MaxConcurrentRows),
	}

	if cfg.ScratchLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.ScratchLimitBytes)
	}

	if cfg.RowsPerSecond > 0 {
		c.rowLimiter = rate.NewLimiter(rate.Limit(cfg.RowsPerSecond), cfg.RowBurst)
	}

	return c
}

// TryAcquireMemory reserves scratch bytes without blocking.
// Returns ErrMemoryLimitExceeded if the limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}

	c.track(bytes)
	return nil
}

// AcquireMemory reserves scratch bytes, waiting for other rows to release theirs.
// A single request larger than the limit can never succeed and fails immediately.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if bytes > c.cfg.ScratchLimitBytes {
			return fmt.Errorf("%w: need %d bytes, limit %d", ErrMemoryLimitExceeded, bytes, c.cfg.ScratchLimitBytes)
		}
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.track(bytes)
	return nil
}

func (c *Controller) track(bytes int64) {
	used := c.memUsed.Add(bytes)
	for {
		peak := c.memPeak.Load()
		if used <= peak || c.memPeak.CompareAndSwap(peak, used) {
			return
		}
	}
}

// ReleaseMemory releases reserved scratch bytes.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the scratch bytes currently reserved.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// PeakMemoryUsage returns the highest reservation observed.
func (c *Controller) PeakMemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memPeak.Load()
}

// MemoryLimit returns the configured limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.ScratchLimitBytes
}

// MaxConcurrentRows returns the row concurrency limit.
func (c *Controller) MaxConcurrentRows() int {
	if c == nil {
		return 0
	}
	return int(c.cfg.MaxConcurrentRows)
}

// AcquireRow reserves a row slot. Blocks if all slots are busy.
func (c *Controller) AcquireRow(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rowSem.Acquire(ctx, 1)
}

// TryAcquireRow reserves a row slot without blocking.
func (c *Controller) TryAcquireRow() bool {
	if c == nil {
		return true
	}
	return c.rowSem.TryAcquire(1)
}

// ReleaseRow releases a row slot.
func (c *Controller) ReleaseRow() {
	if c == nil {
		return
	}
	c.rowSem.Release(1)
}

// WaitRow blocks until the admission rate allows another row.
func (c *Controller) WaitRow(ctx context.Context) error {
	if c == nil || c.rowLimiter == nil {
		return nil
	}
	return c.rowLimiter.Wait(ctx)
}

// AllowRow reports whether a row may be admitted now, consuming a token if so.
func (c *Controller) AllowRow() bool {
	if c == nil || c.rowLimiter == nil {
		return true
	}
	return c.rowLimiter.AllowN(time.Now(), 1)
}
