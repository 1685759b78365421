package vecfleet

import (
	"time"
)

// Role governs whether an instance may mutate data.
type Role string

const (
	// RoleWriter may ingest and mutate vectors.
	RoleWriter Role = "writer"
	// RoleReader serves queries only.
	RoleReader Role = "reader"
	// RoleHybrid both writes and serves queries.
	RoleHybrid Role = "hybrid"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleWriter, RoleReader, RoleHybrid:
		return true
	}
	return false
}

// CanWrite reports whether the role permits mutations.
func (r Role) CanWrite() bool {
	return r == RoleWriter || r == RoleHybrid
}

// Settings are the fleet-wide parameters agreed at first write.
//
// Once the first instance commits them, later instances must treat them as
// read-only inputs. Two instances deriving these independently would
// partition data incompatibly.
type Settings struct {
	PartitionStrategy string `json:"partitionStrategy"`
	PartitionCount    int    `json:"partitionCount"`
	Dimensions        int    `json:"dimensions"`
	DistanceMetric    string `json:"distanceMetric"`
}

// DefaultSettings returns the settings a bootstrapping instance commits
// when no shared document exists yet.
func DefaultSettings() Settings {
	return Settings{
		PartitionStrategy: "hash",
		PartitionCount:    DefaultPartitionCount,
		Dimensions:        384,
		DistanceMetric:    "cosine",
	}
}

// HealthMetrics is the per-instance metrics snapshot embedded in the
// shared document and returned by the health monitor locally.
// All fields are optional in the document; zero values mean "unreported".
type HealthMetrics struct {
	VectorCount       int     `json:"vectorCount,omitempty"`
	CacheHitRate      float64 `json:"cacheHitRate,omitempty"`
	MemoryUsage       int64   `json:"memoryUsage,omitempty"`
	CPUUsage          float64 `json:"cpuUsage,omitempty"`
	RequestsPerSecond float64 `json:"requestsPerSecond,omitempty"`
	AverageLatency    float64 `json:"averageLatency,omitempty"`
	ErrorRate         float64 `json:"errorRate,omitempty"`
}

// InstanceInfo is one instance's entry in the shared document.
//
// Mutation discipline: only the owning instance writes its entry (via
// registration and heartbeat); any instance may delete an entry whose
// heartbeat has expired.
type InstanceInfo struct {
	InstanceID    string        `json:"instanceId"`
	Role          Role          `json:"role"`
	LastHeartbeat time.Time     `json:"lastHeartbeat"`
	Metrics       HealthMetrics `json:"metrics"`
}

// SharedConfig is the single document of record in the object store.
//
// Version increases monotonically on every successful write and is the
// only cross-instance ordering primitive: concurrent writers are detected
// (not prevented) by version comparison.
type SharedConfig struct {
	Version      int64                    `json:"version"`
	UpdatedAt    time.Time                `json:"updatedAt"`
	Settings     Settings                 `json:"settings"`
	Instances    map[string]*InstanceInfo `json:"instances"`
	MigratedFrom string                   `json:"migratedFrom,omitempty"`
}

// NewSharedConfig creates an empty document with the given settings.
func NewSharedConfig(settings Settings) *SharedConfig {
	return &SharedConfig{
		Version:   0,
		UpdatedAt: time.Now().UTC(),
		Settings:  settings,
		Instances: make(map[string]*InstanceInfo),
	}
}

// Clone returns a deep copy. The coordinator hands cloned documents to
// callers so cached state is never aliased across goroutines.
func (c *SharedConfig) Clone() *SharedConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Instances = make(map[string]*InstanceInfo, len(c.Instances))
	for id, info := range c.Instances {
		cp := *info
		out.Instances[id] = &cp
	}
	return &out
}

// InstancesByRole returns the instances holding the given role.
func (c *SharedConfig) InstancesByRole(role Role) []*InstanceInfo {
	var out []*InstanceInfo
	for _, info := range c.Instances {
		if info.Role == role {
			out = append(out, info)
		}
	}
	return out
}

// HealthState classifies overall instance health.
type HealthState string

const (
	// Healthy means no thresholds are exceeded.
	Healthy HealthState = "healthy"
	// Degraded means at least one warning threshold is exceeded.
	Degraded HealthState = "degraded"
	// Unhealthy means at least one critical threshold is exceeded.
	Unhealthy HealthState = "unhealthy"
)

// HealthStatus is the derived, non-persisted classification of an
// instance's local metrics.
type HealthStatus struct {
	Status   HealthState   `json:"status"`
	Uptime   time.Duration `json:"uptime"`
	Warnings []string      `json:"warnings"`
	Errors   []string      `json:"errors"`
	Metrics  HealthMetrics `json:"metrics"`
}
