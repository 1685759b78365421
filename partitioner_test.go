package vecfleet

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHashPartitioner(t *testing.T) {
	t.Run("rejects non-positive counts", func(t *testing.T) {
		for _, count := range []int{0, -1, -100} {
			_, err := NewHashPartitioner(count)
			var target *ErrInvalidPartitionCount
			require.ErrorAs(t, err, &target)
			assert.Equal(t, count, target.Count)
		}
	})

	t.Run("accepts positive counts", func(t *testing.T) {
		p, err := NewHashPartitioner(100)
		require.NoError(t, err)
		assert.Equal(t, 100, p.PartitionCount())
	})
}

func TestGetPartitionDeterminism(t *testing.T) {
	p, err := NewHashPartitioner(100)
	require.NoError(t, err)

	first := p.GetPartition("user-42")
	for i := 0; i < 1000; i++ {
		assert.Equal(t, first, p.GetPartition("user-42"))
	}

	// A fresh partitioner with the same count must agree.
	q, err := NewHashPartitioner(100)
	require.NoError(t, err)
	assert.Equal(t, first, q.GetPartition("user-42"))
}

func TestGetPartitionPathFormat(t *testing.T) {
	tests := []struct {
		count int
		width int
	}{
		{count: 10, width: 3},
		{count: 100, width: 3},
		{count: 1000, width: 3},
		{count: 10000, width: 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("count=%d", tt.count), func(t *testing.T) {
			p, err := NewHashPartitioner(tt.count)
			require.NoError(t, err)

			path := p.GetPartition("some-id")
			assert.Len(t, path, tt.width+1)
			assert.Equal(t, byte('p'), path[0])
		})
	}
}

func TestGetPartitionUniformity(t *testing.T) {
	const (
		partitions = 100
		ids        = 100000
	)

	p, err := NewHashPartitioner(partitions)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	counts := make(map[string]int)
	for i := 0; i < ids; i++ {
		id := fmt.Sprintf("entity-%d-%d", rng.Int63(), i)
		counts[p.GetPartition(id)]++
	}

	// Every partition should receive traffic, with bounded skew around the
	// expected ids/partitions mean.
	require.Len(t, counts, partitions)
	expected := float64(ids) / partitions
	for path, n := range counts {
		assert.InDelta(t, expected, float64(n), expected*0.5, "partition %s is skewed", path)
	}
}

func TestGetPartitionsForBatch(t *testing.T) {
	p, err := NewHashPartitioner(3)
	require.NoError(t, err)

	ids := []string{"a", "b", "c", "d", "e", "f", "a"}
	groups := p.GetPartitionsForBatch(ids)

	// Union by multiset equals the input.
	total := 0
	for path, group := range groups {
		total += len(group)
		for _, id := range group {
			assert.Equal(t, path, p.GetPartition(id))
		}
	}
	assert.Equal(t, len(ids), total)

	// Groups are keyed by distinct partitions.
	for path := range groups {
		_, err := p.PartitionIndex(path)
		assert.NoError(t, err)
	}
}

func TestGetPartitionsForBatchEmpty(t *testing.T) {
	p, err := NewHashPartitioner(10)
	require.NoError(t, err)
	assert.Empty(t, p.GetPartitionsForBatch(nil))
}

func TestAllPartitions(t *testing.T) {
	p, err := NewHashPartitioner(100)
	require.NoError(t, err)

	paths := p.AllPartitions()
	require.Len(t, paths, 100)
	assert.Equal(t, "p000", paths[0])
	assert.Equal(t, "p007", paths[7])
	assert.Equal(t, "p099", paths[99])

	for i, path := range paths {
		idx, err := p.PartitionIndex(path)
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}
}

func TestPartitionIndexMalformed(t *testing.T) {
	p, err := NewHashPartitioner(100)
	require.NoError(t, err)

	for _, path := range []string{"", "p", "x007", "007", "pabc", "p-1", "p100", "p1000"} {
		_, err := p.PartitionIndex(path)
		var target *ErrMalformedPartitionPath
		require.ErrorAs(t, err, &target, "path %q should not parse", path)
		assert.Equal(t, path, target.Path)
	}
}
