package vecfleet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/vecfleet/internal/hash"
)

// DefaultPartitionCount is the partition count a bootstrapping fleet
// commits when none is configured.
const DefaultPartitionCount = 100

// HashPartitioner deterministically maps entity IDs to a fixed set of
// partitions.
//
// The mapping depends only on the ID and the partition count, never on
// fleet membership or time. This is what lets any number of concurrent
// writers route without coordination: the same ID always lands in the
// same partition, in every process.
//
// Domain or category tags on an entity are carried as metadata alongside
// the write, never encoded into the partition path, so skewed domains do
// not produce hot partitions.
type HashPartitioner struct {
	partitionCount int
	pathWidth      int
}

// NewHashPartitioner creates a partitioner over partitionCount partitions.
func NewHashPartitioner(partitionCount int) (*HashPartitioner, error) {
	if partitionCount <= 0 {
		return nil, &ErrInvalidPartitionCount{Count: partitionCount}
	}

	width := len(strconv.Itoa(partitionCount - 1))
	if width < 3 {
		width = 3
	}

	return &HashPartitioner{
		partitionCount: partitionCount,
		pathWidth:      width,
	}, nil
}

// PartitionCount returns the fixed number of partitions.
func (p *HashPartitioner) PartitionCount() int {
	return p.partitionCount
}

// GetPartition returns the partition path for the given entity ID,
// e.g. "p007" for index 7 of 100.
func (p *HashPartitioner) GetPartition(id string) string {
	return p.pathFor(p.indexFor(id))
}

// GetPartitionsForBatch groups a batch of IDs by target partition so a
// caller can issue one batched write per partition instead of one write
// per ID.
func (p *HashPartitioner) GetPartitionsForBatch(ids []string) map[string][]string {
	groups := make(map[string][]string)
	for _, id := range ids {
		path := p.GetPartition(id)
		groups[path] = append(groups[path], id)
	}
	return groups
}

// AllPartitions enumerates every partition path in index order.
func (p *HashPartitioner) AllPartitions() []string {
	paths := make([]string, p.partitionCount)
	for i := range paths {
		paths[i] = p.pathFor(i)
	}
	return paths
}

// PartitionIndex parses a partition path back to its index.
// Fails with ErrMalformedPartitionPath on anything it did not produce.
func (p *HashPartitioner) PartitionIndex(path string) (int, error) {
	digits, ok := strings.CutPrefix(path, "p")
	if !ok || digits == "" {
		return 0, &ErrMalformedPartitionPath{Path: path}
	}
	idx, err := strconv.Atoi(digits)
	if err != nil {
		return 0, &ErrMalformedPartitionPath{Path: path, cause: err}
	}
	if idx < 0 || idx >= p.partitionCount {
		return 0, &ErrMalformedPartitionPath{Path: path, cause: fmt.Errorf("index %d out of range [0,%d)", idx, p.partitionCount)}
	}
	return idx, nil
}

func (p *HashPartitioner) indexFor(id string) int {
	return int(hash.CRC32C([]byte(id)) % uint32(p.partitionCount))
}

func (p *HashPartitioner) pathFor(index int) string {
	return fmt.Sprintf("p%0*d", p.pathWidth, index)
}
