// Package resource governs the resources consumed by batch selection.
//
// A Controller manages three things:
//
//   - Scratch memory: every row holds one block scratch buffer while it runs.
//     Reservations are tracked and optionally capped with a weighted semaphore.
//   - Row concurrency: the number of rows selected at the same time.
//   - Row admission: a token bucket limiting how fast rows start.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                       Controller                            │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Scratch Limit  │  Row Slots      │  Row Rate Limiter       │
//	│  (semaphore)    │  (semaphore)    │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireMemory  │  AcquireRow     │  WaitRow                │
//	│  TryAcquire...  │  TryAcquireRow  │  AllowRow               │
//	│  ReleaseMemory  │  ReleaseRow     │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// Usage:
//
//	rc := resource.NewController(resource.Config{
//	    ScratchLimitBytes: 64 << 20,
//	    MaxConcurrentRows: 8,
//	})
//
//	if err := rc.AcquireMemory(ctx, scratchBytes); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(scratchBytes)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully: they become no-ops.
package resource
