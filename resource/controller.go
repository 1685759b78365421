// Package resource manages process-local resource accounting for a
// database instance: managed memory, background sync concurrency, and IO
// throughput toward the shared object store.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxBackgroundSyncs is the maximum number of concurrent background
	// store synchronization jobs. If 0, defaults to 1.
	MaxBackgroundSyncs int64

	// IOLimitBytesPerSec is the maximum IO throughput for background
	// writes to the shared store. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller tracks and limits instance-local resources. The health
// monitor reports its memory figure as the instance's managed memory
// usage when a controller is configured.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Concurrency
	syncSem *semaphore.Weighted

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxBackgroundSyncs <= 0 {
		cfg.MaxBackgroundSyncs = 1
	}

	c := &Controller{
		cfg:     cfg,
		syncSem: semaphore.NewWeighted(cfg.MaxBackgroundSyncs),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireMemory attempts to reserve memory.
// If a hard limit is configured and usage would exceed it,
// this blocks until memory is available or ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory attempts to reserve memory without blocking.
// Returns true if acquired, false if the limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current managed memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireSync reserves a background sync slot. Blocks if all slots are busy.
func (c *Controller) AcquireSync(ctx context.Context) error {
	return c.syncSem.Acquire(ctx, 1)
}

// TryAcquireSync attempts to reserve a background sync slot without blocking.
func (c *Controller) TryAcquireSync() bool {
	return c.syncSem.TryAcquire(1)
}

// ReleaseSync releases a background sync slot.
func (c *Controller) ReleaseSync() {
	c.syncSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}
