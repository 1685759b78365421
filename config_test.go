package vecfleet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecfleet/codec"
)

func TestRoleValidation(t *testing.T) {
	assert.True(t, RoleWriter.Valid())
	assert.True(t, RoleReader.Valid())
	assert.True(t, RoleHybrid.Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("admin").Valid())

	assert.True(t, RoleWriter.CanWrite())
	assert.True(t, RoleHybrid.CanWrite())
	assert.False(t, RoleReader.CanWrite())
}

func TestSharedConfigClone(t *testing.T) {
	cfg := NewSharedConfig(DefaultSettings())
	cfg.Version = 7
	cfg.Instances["inst-a"] = &InstanceInfo{
		InstanceID:    "inst-a",
		Role:          RoleWriter,
		LastHeartbeat: time.Now().UTC(),
		Metrics:       HealthMetrics{VectorCount: 10},
	}

	clone := cfg.Clone()
	require.NotNil(t, clone)

	// Mutating the clone must not leak into the original.
	clone.Instances["inst-a"].Metrics.VectorCount = 999
	clone.Instances["inst-b"] = &InstanceInfo{InstanceID: "inst-b"}

	assert.Equal(t, 10, cfg.Instances["inst-a"].Metrics.VectorCount)
	assert.NotContains(t, cfg.Instances, "inst-b")
}

func TestSharedConfigCloneNil(t *testing.T) {
	var cfg *SharedConfig
	assert.Nil(t, cfg.Clone())
}

func TestSharedConfigRoundTrip(t *testing.T) {
	cfg := NewSharedConfig(Settings{
		PartitionStrategy: "hash",
		PartitionCount:    100,
		Dimensions:        384,
		DistanceMetric:    "cosine",
	})
	cfg.Version = 7
	cfg.Instances["inst-abc"] = &InstanceInfo{
		InstanceID:    "inst-abc",
		Role:          RoleWriter,
		LastHeartbeat: time.Now().UTC().Truncate(time.Millisecond),
		Metrics:       HealthMetrics{VectorCount: 12000, CacheHitRate: 0.82},
	}

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}, codec.Zstd{Inner: codec.GoJSON{}}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(cfg)
			require.NoError(t, err)

			var got SharedConfig
			require.NoError(t, c.Unmarshal(data, &got))
			assert.Equal(t, cfg.Version, got.Version)
			assert.Equal(t, cfg.Settings, got.Settings)
			require.Contains(t, got.Instances, "inst-abc")
			assert.Equal(t, cfg.Instances["inst-abc"].Metrics, got.Instances["inst-abc"].Metrics)
		})
	}
}

func TestInstancesByRoleHelper(t *testing.T) {
	cfg := NewSharedConfig(DefaultSettings())
	cfg.Instances["w1"] = &InstanceInfo{InstanceID: "w1", Role: RoleWriter}
	cfg.Instances["w2"] = &InstanceInfo{InstanceID: "w2", Role: RoleWriter}
	cfg.Instances["r1"] = &InstanceInfo{InstanceID: "r1", Role: RoleReader}

	assert.Len(t, cfg.InstancesByRole(RoleWriter), 2)
	assert.Len(t, cfg.InstancesByRole(RoleReader), 1)
	assert.Empty(t, cfg.InstancesByRole(RoleHybrid))
}

func TestRoleFromEnv(t *testing.T) {
	t.Setenv("VECFLEET_ROLE", "writer")
	role, ok := RoleFromEnv("VECFLEET_ROLE")
	require.True(t, ok)
	assert.Equal(t, RoleWriter, role)

	t.Setenv("VECFLEET_ROLE", "boss")
	_, ok = RoleFromEnv("VECFLEET_ROLE")
	assert.False(t, ok)

	_, ok = RoleFromEnv("VECFLEET_ROLE_UNSET")
	assert.False(t, ok)
}
