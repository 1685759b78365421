package vecfleet

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting coordination metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordRegistration is called after each registration attempt settles.
	RecordRegistration(duration time.Duration, err error)

	// RecordHeartbeat is called after each heartbeat cycle.
	// evicted is the number of stale instances removed in this cycle.
	RecordHeartbeat(duration time.Duration, evicted int, err error)

	// RecordWatch is called after each config-watch cycle.
	// changed is true when a newer document version was observed.
	RecordWatch(duration time.Duration, changed bool, err error)

	// RecordConflict is called when a read-merge-write attempt detects a
	// concurrent writer.
	RecordConflict()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRegistration(time.Duration, error)   {}
func (NoopMetricsCollector) RecordHeartbeat(time.Duration, int, error) {}
func (NoopMetricsCollector) RecordWatch(time.Duration, bool, error)    {}
func (NoopMetricsCollector) RecordConflict()                           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RegistrationCount  atomic.Int64
	RegistrationErrors atomic.Int64
	HeartbeatCount     atomic.Int64
	HeartbeatErrors    atomic.Int64
	HeartbeatNanos     atomic.Int64
	EvictedInstances   atomic.Int64
	WatchCount         atomic.Int64
	WatchErrors        atomic.Int64
	WatchChanges       atomic.Int64
	ConflictCount      atomic.Int64
}

// RecordRegistration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRegistration(duration time.Duration, err error) {
	b.RegistrationCount.Add(1)
	if err != nil {
		b.RegistrationErrors.Add(1)
	}
}

// RecordHeartbeat implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHeartbeat(duration time.Duration, evicted int, err error) {
	b.HeartbeatCount.Add(1)
	b.HeartbeatNanos.Add(duration.Nanoseconds())
	b.EvictedInstances.Add(int64(evicted))
	if err != nil {
		b.HeartbeatErrors.Add(1)
	}
}

// RecordWatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWatch(duration time.Duration, changed bool, err error) {
	b.WatchCount.Add(1)
	if changed {
		b.WatchChanges.Add(1)
	}
	if err != nil {
		b.WatchErrors.Add(1)
	}
}

// RecordConflict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordConflict() {
	b.ConflictCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RegistrationCount:  b.RegistrationCount.Load(),
		RegistrationErrors: b.RegistrationErrors.Load(),
		HeartbeatCount:     b.HeartbeatCount.Load(),
		HeartbeatErrors:    b.HeartbeatErrors.Load(),
		HeartbeatAvgNanos:  b.avgHeartbeatNanos(),
		EvictedInstances:   b.EvictedInstances.Load(),
		WatchCount:         b.WatchCount.Load(),
		WatchErrors:        b.WatchErrors.Load(),
		WatchChanges:       b.WatchChanges.Load(),
		ConflictCount:      b.ConflictCount.Load(),
	}
}

func (b *BasicMetricsCollector) avgHeartbeatNanos() int64 {
	count := b.HeartbeatCount.Load()
	if count == 0 {
		return 0
	}
	return b.HeartbeatNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RegistrationCount  int64
	RegistrationErrors int64
	HeartbeatCount     int64
	HeartbeatErrors    int64
	HeartbeatAvgNanos  int64
	EvictedInstances   int64
	WatchCount         int64
	WatchErrors        int64
	WatchChanges       int64
	ConflictCount      int64
}
