package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTrackingWithoutLimit(t *testing.T) {
	c := NewController(Config{})

	assert.True(t, c.TryAcquireMemory(1<<20))
	assert.EqualValues(t, 1<<20, c.MemoryUsage())

	c.ReleaseMemory(1 << 20)
	assert.Zero(t, c.MemoryUsage())
}

func TestMemoryHardLimit(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	assert.True(t, c.TryAcquireMemory(60))
	assert.False(t, c.TryAcquireMemory(50))
	assert.EqualValues(t, 60, c.MemoryUsage())

	c.ReleaseMemory(60)
	assert.True(t, c.TryAcquireMemory(100))
}

func TestAcquireMemoryHonorsCancellation(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})
	require.NoError(t, c.AcquireMemory(context.Background(), 10))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := c.AcquireMemory(ctx, 5)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSyncSlots(t *testing.T) {
	c := NewController(Config{MaxBackgroundSyncs: 2})

	assert.True(t, c.TryAcquireSync())
	assert.True(t, c.TryAcquireSync())
	assert.False(t, c.TryAcquireSync())

	c.ReleaseSync()
	assert.True(t, c.TryAcquireSync())
}

func TestNilControllerIsNoop(t *testing.T) {
	var c *Controller

	assert.True(t, c.TryAcquireMemory(100))
	require.NoError(t, c.AcquireMemory(context.Background(), 100))
	c.ReleaseMemory(100)
	assert.Zero(t, c.MemoryUsage())
	require.NoError(t, c.AcquireIO(context.Background(), 100))
}

func TestIOThrottle(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Within burst: returns promptly.
	start := time.Now()
	require.NoError(t, c.AcquireIO(context.Background(), 1024))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
