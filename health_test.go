package vecfleet

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecfleet/resource"
)

type captureSink struct {
	mu      sync.Mutex
	updates []HealthMetrics
}

func (s *captureSink) UpdateMetrics(m HealthMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, m)
}

func (s *captureSink) last() (HealthMetrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.updates) == 0 {
		return HealthMetrics{}, false
	}
	return s.updates[len(s.updates)-1], true
}

func TestHealthyByDefault(t *testing.T) {
	h := NewHealthMonitor(nil)

	status := h.GetHealthStatus()
	assert.Equal(t, Healthy, status.Status)
	assert.Empty(t, status.Warnings)
	assert.Empty(t, status.Errors)
	assert.GreaterOrEqual(t, status.Uptime, time.Duration(0))
}

func TestRequestAggregates(t *testing.T) {
	h := NewHealthMonitor(nil, WithMetricsWindow(time.Minute))

	for i := 0; i < 60; i++ {
		h.RecordRequest(10, false)
	}
	for i := 0; i < 4; i++ {
		h.RecordRequest(50, true)
	}

	m := h.snapshot(false)
	assert.InDelta(t, float64(64)/60, m.RequestsPerSecond, 1e-9)
	assert.InDelta(t, (60*10.0+4*50.0)/64, m.AverageLatency, 1e-9)
	assert.InDelta(t, 4.0/64, m.ErrorRate, 1e-9)
}

func TestCacheHitRate(t *testing.T) {
	h := NewHealthMonitor(nil)

	for i := 0; i < 8; i++ {
		h.RecordCacheAccess(true)
	}
	for i := 0; i < 2; i++ {
		h.RecordCacheAccess(false)
	}

	m := h.snapshot(false)
	assert.InDelta(t, 0.8, m.CacheHitRate, 1e-9)
}

func TestVectorCountPropagatesToSink(t *testing.T) {
	sink := &captureSink{}
	h := NewHealthMonitor(sink)

	h.UpdateVectorCount(12000)
	h.updateHealth()

	m, ok := sink.last()
	require.True(t, ok)
	assert.Equal(t, 12000, m.VectorCount)
}

func TestStartPushesImmediately(t *testing.T) {
	sink := &captureSink{}
	h := NewHealthMonitor(sink, WithHealthInterval(time.Hour))

	h.Start()
	defer h.Stop()

	_, ok := sink.last()
	assert.True(t, ok)
}

func TestStopIsIdempotent(t *testing.T) {
	h := NewHealthMonitor(nil, WithHealthInterval(time.Hour))
	h.Start()
	h.Stop()
	h.Stop()
	h.Start()
	h.Stop()
}

func TestMemoryClassificationBoundaries(t *testing.T) {
	thresholds := Thresholds{
		MemoryWarningBytes:  1000,
		MemoryCriticalBytes: 2000,
		CacheHitRateWarning: 0.5,
		ErrorRateWarning:    0.05,
		ErrorRateCritical:   0.20,
		LatencyWarningMs:    1000,
	}

	tests := []struct {
		name     string
		memory   int64
		status   HealthState
		warnings int
		errors   int
	}{
		{name: "below warning", memory: 1000, status: Healthy},
		{name: "just above warning", memory: 1001, status: Degraded, warnings: 1},
		{name: "at critical", memory: 2000, status: Degraded, warnings: 1},
		{name: "above critical", memory: 2001, status: Unhealthy, errors: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := resource.NewController(resource.Config{})
			rc.TryAcquireMemory(tt.memory)
			h := NewHealthMonitor(nil,
				WithThresholds(thresholds),
				WithHealthResourceController(rc),
			)

			status := h.GetHealthStatus()
			assert.Equal(t, tt.status, status.Status)
			assert.Len(t, status.Warnings, tt.warnings)
			assert.Len(t, status.Errors, tt.errors)
		})
	}
}

func TestCombinedCriticalConditions(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	rc.TryAcquireMemory(5000)

	h := NewHealthMonitor(nil,
		WithThresholds(Thresholds{
			MemoryWarningBytes:  1000,
			MemoryCriticalBytes: 2000,
			ErrorRateWarning:    0.05,
			ErrorRateCritical:   0.20,
			LatencyWarningMs:    1000,
		}),
		WithHealthResourceController(rc),
	)

	// Critical memory and critical error rate simultaneously.
	for i := 0; i < 10; i++ {
		h.RecordRequest(5, i < 3) // 30% errors
	}

	status := h.GetHealthStatus()
	assert.Equal(t, Unhealthy, status.Status)
	assert.Len(t, status.Errors, 2)
}

func TestCacheAndLatencyWarnings(t *testing.T) {
	h := NewHealthMonitor(nil)

	for i := 0; i < 10; i++ {
		h.RecordCacheAccess(i < 3) // 30% hit rate
	}
	h.RecordRequest(5000, false)

	status := h.GetHealthStatus()
	assert.Equal(t, Degraded, status.Status)
	assert.Contains(t, status.Warnings, "Low cache hit rate")
	require.Len(t, status.Warnings, 2)
}

func TestNoCacheWarningWithoutTraffic(t *testing.T) {
	h := NewHealthMonitor(nil)

	// Hit rate is 0 without any cache traffic; that must not warn.
	status := h.GetHealthStatus()
	assert.NotContains(t, status.Warnings, "Low cache hit rate")
}

func TestResetMetrics(t *testing.T) {
	h := NewHealthMonitor(nil)

	h.RecordRequest(10, true)
	h.RecordCacheAccess(true)
	h.UpdateVectorCount(99)
	h.ResetMetrics()

	m := h.snapshot(false)
	assert.Zero(t, m.RequestsPerSecond)
	assert.Zero(t, m.ErrorRate)
	assert.Zero(t, m.CacheHitRate)
	assert.Zero(t, m.VectorCount)
}

func TestWindowPruning(t *testing.T) {
	h := NewHealthMonitor(nil, WithMetricsWindow(10*time.Millisecond))

	h.RecordRequest(10, false)
	time.Sleep(20 * time.Millisecond)
	h.updateHealth()

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Empty(t, h.requestWindow)
	assert.Empty(t, h.latencyWindow)
	// Cumulative counters survive pruning.
	assert.EqualValues(t, 1, h.requestCount)
}
