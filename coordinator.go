package vecfleet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/vecfleet/blobstore"
)

const (
	// CanonicalConfigPath is the system-reserved location of the shared
	// config document.
	CanonicalConfigPath = "_system/config.json"

	// LegacyConfigPath is the pre-migration location. Read-fallback only;
	// writes there are best-effort.
	LegacyConfigPath = "system/config.json"

	// DefaultHeartbeatInterval is the default interval between heartbeat
	// writes.
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultWatchInterval is the default interval between config-change
	// polls.
	DefaultWatchInterval = 10 * time.Second

	// DefaultInstanceTimeout is how stale a heartbeat may be before the
	// entry is evicted by any instance's cleanup pass.
	DefaultInstanceTimeout = 2 * time.Minute
)

// Coordinator is the single source of truth for fleet-wide settings,
// instance membership and role, using only plain reads/writes against a
// blobstore.Store. The shared document is never locked; each instance only
// ever mutates its own instances entry, so concurrent writes from
// different instances are safely mergeable by re-read-and-reapply.
//
// Construct one Coordinator per process and pass it explicitly to the
// health monitor and affinity partitioner.
type Coordinator struct {
	store blobstore.Store
	docs  *blobstore.DocumentStore
	opts  options

	logger  *Logger
	metrics MetricsCollector

	instanceID string

	mu          sync.RWMutex
	role        Role
	current     *SharedConfig
	lastVersion int64
	pending     HealthMetrics
	callbacks   []func(*SharedConfig)
	initialized bool
	closed      bool

	startTime time.Time
	runCtx    context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewCoordinator creates a coordinator on top of the given store.
// Call Initialize before using it.
func NewCoordinator(store blobstore.Store, optFns ...Option) *Coordinator {
	o := applyOptions(optFns)

	id := o.instanceID
	if id == "" {
		id = "inst-" + uuid.NewString()
	}

	return &Coordinator{
		store:      store,
		docs:       blobstore.NewDocumentStore(store, o.codec),
		opts:       o,
		logger:     o.logger.WithInstance(id),
		metrics:    o.metricsCollector,
		instanceID: id,
	}
}

// Initialize loads or creates the shared document, resolves this
// instance's role, registers the instance and starts the heartbeat and
// config-watch loops.
//
// Role must come from an explicit source: the WithRole option, or an entry
// already present in the document for this instance ID. Otherwise
// Initialize fails with ErrRoleUnresolved.
func (c *Coordinator) Initialize(ctx context.Context) (*SharedConfig, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.initialized {
		cfg := c.current.Clone()
		c.mu.Unlock()
		return cfg, nil
	}
	c.mu.Unlock()

	cfg, err := c.loadOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	role, err := c.resolveRole(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.checkSettings(cfg.Settings); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.role = role
	c.current = cfg
	c.lastVersion = cfg.Version
	c.startTime = time.Now()
	c.mu.Unlock()

	start := time.Now()
	_, err = c.readModifyWrite(ctx, func(doc *SharedConfig) {
		doc.Instances[c.instanceID] = &InstanceInfo{
			InstanceID:    c.instanceID,
			Role:          role,
			LastHeartbeat: time.Now().UTC(),
		}
	}, false)
	c.metrics.RecordRegistration(time.Since(start), err)
	if err != nil {
		c.logger.LogRegister(ctx, c.instanceID, role, 0, err)
		return nil, fmt.Errorf("register instance: %w", err)
	}

	c.mu.Lock()
	c.initialized = true
	c.runCtx, c.cancel = context.WithCancel(context.Background())
	current := c.current.Clone()
	c.mu.Unlock()

	c.logger.LogRegister(ctx, c.instanceID, role, current.Version, nil)

	c.wg.Add(2)
	go c.heartbeatLoop()
	go c.watchLoop()

	return current, nil
}

// loadOrCreate reads the canonical document, falling back to the legacy
// path migration, and synthesizes a fresh document when neither exists.
func (c *Coordinator) loadOrCreate(ctx context.Context) (*SharedConfig, error) {
	var cfg SharedConfig
	err := c.docs.GetJSON(ctx, c.opts.canonicalPath, &cfg)
	if err == nil {
		c.normalize(&cfg)
		return &cfg, nil
	}
	if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, fmt.Errorf("load shared config: %w", err)
	}

	// Not-found is not an error: try the legacy location before creating.
	if migrated, mcfg := c.migrateLegacy(ctx); migrated {
		return mcfg, nil
	}

	settings := c.opts.settings
	if !c.opts.settingsSet {
		settings = DefaultSettings()
	}
	fresh := NewSharedConfig(settings)
	if err := c.putConfig(ctx, fresh); err != nil {
		return nil, fmt.Errorf("create shared config: %w", err)
	}
	return fresh, nil
}

// migrateLegacy copies a not-yet-migrated legacy document to the canonical
// path. Marking the legacy copy as migrated is best-effort: a failure is
// logged and ignored, availability wins over migration completeness.
func (c *Coordinator) migrateLegacy(ctx context.Context) (bool, *SharedConfig) {
	if c.opts.legacyPath == "" {
		return false, nil
	}

	var legacy SharedConfig
	if err := c.docs.GetJSON(ctx, c.opts.legacyPath, &legacy); err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			c.logger.Warn("legacy config unreadable", "path", c.opts.legacyPath, "error", err)
		}
		return false, nil
	}
	if legacy.MigratedFrom != "" {
		// Already migrated; the canonical copy is authoritative even if
		// it has since been deleted.
		return false, nil
	}

	c.normalize(&legacy)
	legacy.MigratedFrom = c.opts.legacyPath
	if err := c.putConfig(ctx, &legacy); err != nil {
		c.logger.LogMigration(ctx, c.opts.legacyPath, c.opts.canonicalPath, err)
		return false, nil
	}

	// Dual-write the migration marker back to the legacy location.
	if data, err := c.docs.Codec().Marshal(&legacy); err == nil {
		if err := c.store.Put(ctx, c.opts.legacyPath, data); err != nil {
			c.logger.LogMigration(ctx, c.opts.legacyPath, c.opts.canonicalPath, err)
			return true, &legacy
		}
	}

	c.logger.LogMigration(ctx, c.opts.legacyPath, c.opts.canonicalPath, nil)
	return true, &legacy
}

func (c *Coordinator) resolveRole(cfg *SharedConfig) (Role, error) {
	if c.opts.role != "" {
		if !c.opts.role.Valid() {
			return "", fmt.Errorf("%w: unknown role %q", ErrRoleUnresolved, c.opts.role)
		}
		return c.opts.role, nil
	}
	if info, ok := cfg.Instances[c.instanceID]; ok && info.Role.Valid() {
		return info.Role, nil
	}
	return "", ErrRoleUnresolved
}

// checkSettings guards against an instance silently disagreeing with the
// fleet on the partitioning scheme.
func (c *Coordinator) checkSettings(fleet Settings) error {
	if !c.opts.settingsSet {
		return nil
	}
	local := c.opts.settings
	if local.PartitionCount != 0 && local.PartitionCount != fleet.PartitionCount {
		return &ErrSettingsMismatch{Field: "partitionCount", Local: local.PartitionCount, Fleet: fleet.PartitionCount}
	}
	if local.PartitionStrategy != "" && local.PartitionStrategy != fleet.PartitionStrategy {
		return &ErrSettingsMismatch{Field: "partitionStrategy", Local: local.PartitionStrategy, Fleet: fleet.PartitionStrategy}
	}
	return nil
}

func (c *Coordinator) normalize(cfg *SharedConfig) {
	if cfg.Instances == nil {
		cfg.Instances = make(map[string]*InstanceInfo)
	}
}

// readModifyWrite runs one bounded-retry optimistic write cycle: read the
// latest document, detect concurrent writers by version comparison, apply
// this instance's own mutation on top, bump the version and write back.
//
// Because each instance only mutates its own entry (plus the logically
// safe stale eviction), losing a race is resolved by re-reading and
// re-applying, never by blindly overwriting the whole document.
func (c *Coordinator) readModifyWrite(ctx context.Context, apply func(*SharedConfig), evict bool) (int, error) {
	c.mu.RLock()
	expected := c.lastVersion
	c.mu.RUnlock()

	policy := c.opts.retryPolicy
	var lastErr error

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := policy.sleep(ctx, attempt-1); err != nil {
				return 0, err
			}
		}

		var cfg SharedConfig
		err := c.docs.GetJSON(ctx, c.opts.canonicalPath, &cfg)
		switch {
		case errors.Is(err, blobstore.ErrNotFound):
			// Document vanished underneath us; rebuild from the last
			// known settings rather than losing the fleet agreement.
			c.mu.RLock()
			cfg = *NewSharedConfig(c.current.Settings)
			c.mu.RUnlock()
		case err != nil:
			lastErr = err
			continue
		}
		c.normalize(&cfg)

		if cfg.Version != expected {
			c.metrics.RecordConflict()
			c.logger.LogConflict(ctx, expected, cfg.Version, attempt)
			expected = cfg.Version
		}

		evicted := 0
		if evict {
			evicted = c.evictStale(ctx, &cfg)
		}
		apply(&cfg)
		cfg.Version++
		cfg.UpdatedAt = time.Now().UTC()

		if err := c.putConfig(ctx, &cfg); err != nil {
			lastErr = err
			continue
		}

		c.setCurrent(&cfg)
		return evicted, nil
	}

	if lastErr == nil {
		lastErr = ErrConflictRetriesExhausted
		return 0, lastErr
	}
	return 0, fmt.Errorf("%w: %w", ErrConflictRetriesExhausted, lastErr)
}

// evictStale removes instances whose heartbeat has expired. Removing an
// expired entry is safe regardless of which instance performs it.
func (c *Coordinator) evictStale(ctx context.Context, cfg *SharedConfig) int {
	cutoff := time.Now().Add(-c.opts.instanceTimeout)
	evicted := 0
	for id, info := range cfg.Instances {
		if id == c.instanceID {
			continue
		}
		if info.LastHeartbeat.Before(cutoff) {
			c.logger.LogEviction(ctx, id, info.LastHeartbeat)
			delete(cfg.Instances, id)
			evicted++
		}
	}
	return evicted
}

func (c *Coordinator) putConfig(ctx context.Context, cfg *SharedConfig) error {
	data, err := c.docs.Codec().Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode shared config: %w", err)
	}
	if rc := c.opts.controller; rc != nil {
		if err := rc.AcquireIO(ctx, len(data)); err != nil {
			return err
		}
	}
	return c.store.Put(ctx, c.opts.canonicalPath, data)
}

func (c *Coordinator) setCurrent(cfg *SharedConfig) {
	c.mu.Lock()
	c.current = cfg.Clone()
	c.lastVersion = cfg.Version
	c.mu.Unlock()
}

// heartbeatLoop re-writes this instance's liveness entry and metrics on a
// fixed interval and performs the stale-instance cleanup pass. Failures
// are logged and retried on the next tick; a storage outage only delays
// convergence, it never stops the instance.
func (c *Coordinator) heartbeatLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opts.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.runCtx.Done():
			return
		case <-ticker.C:
			c.heartbeat(c.runCtx)
		}
	}
}

func (c *Coordinator) heartbeat(ctx context.Context) {
	c.mu.RLock()
	role := c.role
	pending := c.pending
	c.mu.RUnlock()

	start := time.Now()
	evicted, err := c.readModifyWrite(ctx, func(cfg *SharedConfig) {
		info, ok := cfg.Instances[c.instanceID]
		if !ok {
			// Someone evicted us (e.g. after a long GC pause); re-register.
			info = &InstanceInfo{InstanceID: c.instanceID, Role: role}
			cfg.Instances[c.instanceID] = info
		}
		info.LastHeartbeat = time.Now().UTC()
		info.Metrics = pending
	}, true)

	c.metrics.RecordHeartbeat(time.Since(start), evicted, err)

	c.mu.RLock()
	version := c.lastVersion
	c.mu.RUnlock()
	c.logger.LogHeartbeat(ctx, version, evicted, err)
}

// watchLoop polls the shared document for versions newer than the last one
// this instance observed and fans the change out to registered callbacks.
func (c *Coordinator) watchLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opts.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.runCtx.Done():
			return
		case <-ticker.C:
			c.watch(c.runCtx)
		}
	}
}

func (c *Coordinator) watch(ctx context.Context) {
	start := time.Now()

	var cfg SharedConfig
	err := c.docs.GetJSON(ctx, c.opts.canonicalPath, &cfg)
	if err != nil {
		c.metrics.RecordWatch(time.Since(start), false, err)
		if !errors.Is(err, blobstore.ErrNotFound) {
			c.logger.Warn("config watch failed, keeping last known config", "error", err)
		}
		return
	}
	c.normalize(&cfg)

	c.mu.Lock()
	changed := cfg.Version > c.lastVersion
	var oldVersion int64
	var callbacks []func(*SharedConfig)
	if changed {
		oldVersion = c.lastVersion
		c.current = cfg.Clone()
		c.lastVersion = cfg.Version
		callbacks = append(callbacks, c.callbacks...)
	}
	c.mu.Unlock()

	c.metrics.RecordWatch(time.Since(start), changed, nil)

	if changed {
		c.logger.LogConfigChange(ctx, oldVersion, cfg.Version)
		for _, fn := range callbacks {
			fn(cfg.Clone())
		}
	}
}

// OnConfigUpdate registers a callback invoked from the watch loop whenever
// a newer document version is observed. The callback receives a private
// clone and must not block for long; it delays subsequent watch ticks.
func (c *Coordinator) OnConfigUpdate(fn func(*SharedConfig)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.callbacks = append(c.callbacks, fn)
	c.mu.Unlock()
}

// UpdateMetrics merges a partial metrics snapshot into this instance's
// pending metrics. The merge is applied to the shared document on the next
// heartbeat rather than written immediately, bounding write frequency.
// Zero-valued fields are treated as unreported and leave the pending value
// unchanged.
func (c *Coordinator) UpdateMetrics(m HealthMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m.VectorCount != 0 {
		c.pending.VectorCount = m.VectorCount
	}
	if m.CacheHitRate != 0 {
		c.pending.CacheHitRate = m.CacheHitRate
	}
	if m.MemoryUsage != 0 {
		c.pending.MemoryUsage = m.MemoryUsage
	}
	if m.CPUUsage != 0 {
		c.pending.CPUUsage = m.CPUUsage
	}
	if m.RequestsPerSecond != 0 {
		c.pending.RequestsPerSecond = m.RequestsPerSecond
	}
	if m.AverageLatency != 0 {
		c.pending.AverageLatency = m.AverageLatency
	}
	if m.ErrorRate != 0 {
		c.pending.ErrorRate = m.ErrorRate
	}
}

// Config returns a clone of the last-loaded shared document.
func (c *Coordinator) Config() *SharedConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Clone()
}

// Role returns this instance's resolved role. Empty before Initialize.
func (c *Coordinator) Role() Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// InstanceID returns this instance's unique ID.
func (c *Coordinator) InstanceID() string {
	return c.instanceID
}

// InstancesByRole returns the instances holding the given role in the
// last-loaded document.
func (c *Coordinator) InstancesByRole(role Role) []*InstanceInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	return c.current.Clone().InstancesByRole(role)
}

// Uptime returns the time since Initialize completed.
func (c *Coordinator) Uptime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.startTime.IsZero() {
		return 0
	}
	return time.Since(c.startTime)
}

// Close cancels the heartbeat and watch loops and waits for in-flight
// storage operations to finish. Repeated calls are no-ops.
func (c *Coordinator) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		cancel := c.cancel
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		c.wg.Wait()
	})
	return nil
}
