package vecfleet

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/hupe1980/vecfleet/resource"
)

const (
	// DefaultHealthInterval is the default health-tick interval.
	DefaultHealthInterval = 30 * time.Second

	// DefaultMetricsWindow is the sliding window for request-rate and
	// latency aggregates.
	DefaultMetricsWindow = 60 * time.Second

	// maxLatencySamples caps the latency window length so a request burst
	// cannot grow it without bound between ticks.
	maxLatencySamples = 4096
)

// Thresholds are the classification boundaries for health status.
// Rules are evaluated independently and then combined: any error makes the
// instance unhealthy, any warning degraded.
type Thresholds struct {
	MemoryWarningBytes  int64
	MemoryCriticalBytes int64
	CacheHitRateWarning float64
	ErrorRateWarning    float64
	ErrorRateCritical   float64
	LatencyWarningMs    float64
}

// DefaultThresholds returns the classification boundaries used when none
// are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MemoryWarningBytes:  6 << 30,
		MemoryCriticalBytes: 8 << 30,
		CacheHitRateWarning: 0.5,
		ErrorRateWarning:    0.05,
		ErrorRateCritical:   0.20,
		LatencyWarningMs:    1000,
	}
}

// MetricsSink receives periodic health snapshots. *Coordinator satisfies
// this; the monitor deliberately depends only on the sink, not on the
// coordinator type.
type MetricsSink interface {
	UpdateMetrics(HealthMetrics)
}

type healthOptions struct {
	interval   time.Duration
	window     time.Duration
	thresholds Thresholds
	logger     *Logger
	controller *resource.Controller
}

// HealthOption configures HealthMonitor construction.
type HealthOption func(*healthOptions)

// WithHealthInterval sets the health-tick interval.
func WithHealthInterval(d time.Duration) HealthOption {
	return func(o *healthOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithMetricsWindow sets the sliding window for request-rate and latency
// aggregates.
func WithMetricsWindow(d time.Duration) HealthOption {
	return func(o *healthOptions) {
		if d > 0 {
			o.window = d
		}
	}
}

// WithThresholds overrides the health classification boundaries.
func WithThresholds(t Thresholds) HealthOption {
	return func(o *healthOptions) {
		o.thresholds = t
	}
}

// WithHealthLogger configures structured logging for the monitor.
func WithHealthLogger(logger *Logger) HealthOption {
	return func(o *healthOptions) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithHealthResourceController sources the memory-usage figure from a
// resource controller's managed-memory accounting instead of the Go heap.
func WithHealthResourceController(rc *resource.Controller) HealthOption {
	return func(o *healthOptions) {
		o.controller = rc
	}
}

type latencySample struct {
	at time.Time
	ms float64
}

// HealthMonitor converts raw local counters into periodic health snapshots
// and a threshold-based classification, and feeds snapshots into a
// MetricsSink (normally the coordinator).
//
// All state is process-local and non-persisted. The record methods are
// called on the request path: they take a short critical section and never
// touch storage.
type HealthMonitor struct {
	sink MetricsSink
	opts healthOptions

	mu            sync.Mutex
	requestCount  int64
	errorCount    int64
	requestWindow []time.Time
	latencyWindow []latencySample
	cacheHits     int64
	cacheMisses   int64
	vectorCount   int
	lastCheck     time.Time
	lastMetrics   HealthMetrics

	// CPU usage is approximated from process CPU time over wall time
	// between ticks.
	lastCPUTime  time.Duration
	lastCPUCheck time.Time

	startTime time.Time

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewHealthMonitor creates a monitor pushing snapshots into sink.
// A nil sink is allowed for local-only use.
func NewHealthMonitor(sink MetricsSink, optFns ...HealthOption) *HealthMonitor {
	o := healthOptions{
		interval:   DefaultHealthInterval,
		window:     DefaultMetricsWindow,
		thresholds: DefaultThresholds(),
		logger:     NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	now := time.Now()
	return &HealthMonitor{
		sink:         sink,
		opts:         o,
		startTime:    now,
		lastCPUCheck: now,
		lastCPUTime:  processCPUTime(),
	}
}

// RecordRequest records one served request with its latency.
// Cheap and non-blocking; safe on the hot path.
func (h *HealthMonitor) RecordRequest(latencyMs float64, isError bool) {
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.requestCount++
	if isError {
		h.errorCount++
	}
	h.requestWindow = append(h.requestWindow, now)
	if len(h.latencyWindow) < maxLatencySamples {
		h.latencyWindow = append(h.latencyWindow, latencySample{at: now, ms: latencyMs})
	}
}

// RecordCacheAccess records a cache hit or miss.
func (h *HealthMonitor) RecordCacheAccess(hit bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hit {
		h.cacheHits++
	} else {
		h.cacheMisses++
	}
}

// UpdateVectorCount sets the last-known index size.
func (h *HealthMonitor) UpdateVectorCount(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vectorCount = n
}

// Start runs an immediate health tick and then ticks on a fixed interval
// until Stop. Repeated calls are no-ops.
func (h *HealthMonitor) Start() {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	if h.running {
		return
	}
	h.running = true

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	h.updateHealth()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(h.opts.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.updateHealth()
			}
		}
	}()
}

// Stop cancels the health tick. Repeated calls are no-ops.
func (h *HealthMonitor) Stop() {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	h.cancel()
	h.wg.Wait()
}

// updateHealth computes the current snapshot, pushes the shared-document
// subset into the sink and prunes the sliding windows.
func (h *HealthMonitor) updateHealth() {
	m := h.snapshot(true)

	if h.sink != nil {
		h.sink.UpdateMetrics(HealthMetrics{
			VectorCount:  m.VectorCount,
			CacheHitRate: m.CacheHitRate,
			MemoryUsage:  m.MemoryUsage,
			CPUUsage:     m.CPUUsage,
		})
	}

	h.opts.logger.Debug("health tick",
		"rps", m.RequestsPerSecond,
		"avg_latency_ms", m.AverageLatency,
		"error_rate", m.ErrorRate,
		"cache_hit_rate", m.CacheHitRate,
		"memory_bytes", m.MemoryUsage,
		"cpu_pct", m.CPUUsage,
	)
}

// snapshot computes current metrics under the lock. When prune is set the
// sliding windows are trimmed to the metrics window afterwards.
func (h *HealthMonitor) snapshot(prune bool) HealthMetrics {
	now := time.Now()
	cutoff := now.Add(-h.opts.window)

	h.mu.Lock()
	defer h.mu.Unlock()

	var hitRate float64
	if total := h.cacheHits + h.cacheMisses; total > 0 {
		hitRate = float64(h.cacheHits) / float64(total)
	}

	inWindow := 0
	for _, t := range h.requestWindow {
		if t.After(cutoff) {
			inWindow++
		}
	}
	rps := float64(inWindow) / h.opts.window.Seconds()

	var avgLatency float64
	samples := 0
	for _, s := range h.latencyWindow {
		if s.at.After(cutoff) {
			avgLatency += s.ms
			samples++
		}
	}
	if samples > 0 {
		avgLatency /= float64(samples)
	}

	var errorRate float64
	if h.requestCount > 0 {
		errorRate = float64(h.errorCount) / float64(h.requestCount)
	}

	m := HealthMetrics{
		VectorCount:       h.vectorCount,
		CacheHitRate:      hitRate,
		MemoryUsage:       h.memoryUsage(),
		CPUUsage:          h.cpuUsage(now),
		RequestsPerSecond: rps,
		AverageLatency:    avgLatency,
		ErrorRate:         errorRate,
	}
	h.lastMetrics = m
	h.lastCheck = now

	if prune {
		h.requestWindow = pruneTimes(h.requestWindow, cutoff)
		h.latencyWindow = pruneSamples(h.latencyWindow, cutoff)
	}

	return m
}

func (h *HealthMonitor) memoryUsage() int64 {
	if h.opts.controller != nil {
		return h.opts.controller.MemoryUsage()
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.HeapAlloc)
}

// cpuUsage approximates CPU percent from process CPU time consumed since
// the previous call over elapsed wall time. Caller holds h.mu.
func (h *HealthMonitor) cpuUsage(now time.Time) float64 {
	cpuTime := processCPUTime()
	wall := now.Sub(h.lastCPUCheck)
	if wall <= 0 {
		return 0
	}

	used := cpuTime - h.lastCPUTime
	h.lastCPUTime = cpuTime
	h.lastCPUCheck = now

	pct := float64(used) / float64(wall) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// GetHealthStatus classifies the current metrics snapshot.
//
// Threshold rules are evaluated independently, not mutually exclusive:
// simultaneous critical memory and critical error rate produce both
// entries in Errors.
func (h *HealthMonitor) GetHealthStatus() HealthStatus {
	m := h.snapshot(false)
	t := h.opts.thresholds

	var warnings, errs []string

	switch {
	case t.MemoryCriticalBytes > 0 && m.MemoryUsage > t.MemoryCriticalBytes:
		errs = append(errs, "Critical memory usage")
	case t.MemoryWarningBytes > 0 && m.MemoryUsage > t.MemoryWarningBytes:
		warnings = append(warnings, "High memory usage")
	}

	if h.hasCacheTraffic() && m.CacheHitRate < t.CacheHitRateWarning {
		warnings = append(warnings, "Low cache hit rate")
	}

	switch {
	case m.ErrorRate > t.ErrorRateCritical:
		errs = append(errs, fmt.Sprintf("Critical error rate: %.1f%%", m.ErrorRate*100))
	case m.ErrorRate > t.ErrorRateWarning:
		warnings = append(warnings, fmt.Sprintf("Elevated error rate: %.1f%%", m.ErrorRate*100))
	}

	if m.AverageLatency > t.LatencyWarningMs {
		warnings = append(warnings, fmt.Sprintf("High average latency: %.0fms", m.AverageLatency))
	}

	status := Healthy
	if len(warnings) > 0 {
		status = Degraded
	}
	if len(errs) > 0 {
		status = Unhealthy
	}

	return HealthStatus{
		Status:   status,
		Uptime:   time.Since(h.startTime),
		Warnings: warnings,
		Errors:   errs,
		Metrics:  m,
	}
}

func (h *HealthMonitor) hasCacheTraffic() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cacheHits+h.cacheMisses > 0
}

// ResetMetrics clears all counters and windows. Test/debug use only.
func (h *HealthMonitor) ResetMetrics() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.requestCount = 0
	h.errorCount = 0
	h.requestWindow = nil
	h.latencyWindow = nil
	h.cacheHits = 0
	h.cacheMisses = 0
	h.vectorCount = 0
	h.lastMetrics = HealthMetrics{}
}

func pruneTimes(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func pruneSamples(ss []latencySample, cutoff time.Time) []latencySample {
	kept := ss[:0]
	for _, s := range ss {
		if s.at.After(cutoff) {
			kept = append(kept, s)
		}
	}
	return kept
}
