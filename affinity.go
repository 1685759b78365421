package vecfleet

import (
	"sort"
	"sync"
)

// AffinityPartitioner layers a soft ownership preference on top of
// HashPartitioner for writer instances.
//
// Each writer claims a contiguous, evenly-sized slice of the partition
// index space, derived from the sorted list of writer instance IDs in the
// shared config. Preference is advisory only: GetPartition is never
// altered by affinity, so correctness of where data lives depends only on
// the ID, not on fleet membership at write time.
type AffinityPartitioner struct {
	*HashPartitioner

	instanceID string

	mu        sync.RWMutex
	preferred map[int]struct{}
}

// NewAffinityPartitioner creates an affinity partitioner for the given
// instance. Preferences start empty; call Recompute with the current
// shared config, and register Recompute with Coordinator.OnConfigUpdate so
// preferences track fleet membership.
func NewAffinityPartitioner(partitionCount int, instanceID string) (*AffinityPartitioner, error) {
	base, err := NewHashPartitioner(partitionCount)
	if err != nil {
		return nil, err
	}
	return &AffinityPartitioner{
		HashPartitioner: base,
		instanceID:      instanceID,
		preferred:       make(map[int]struct{}),
	}, nil
}

// Recompute rebuilds the preferred partition set from the writer
// membership in cfg. Safe to call from the coordinator's config-watch
// callback.
func (p *AffinityPartitioner) Recompute(cfg *SharedConfig) {
	preferred := make(map[int]struct{})

	if cfg != nil {
		var writers []string
		for id, info := range cfg.Instances {
			if info.Role == RoleWriter {
				writers = append(writers, id)
			}
		}
		// Sorted for a deterministic slice assignment across the fleet.
		sort.Strings(writers)

		self := -1
		for i, id := range writers {
			if id == p.instanceID {
				self = i
				break
			}
		}

		if self >= 0 {
			per := (p.partitionCount + len(writers) - 1) / len(writers)
			lo := self * per
			hi := lo + per
			if hi > p.partitionCount {
				hi = p.partitionCount
			}
			for i := lo; i < hi; i++ {
				preferred[i] = struct{}{}
			}
		}
	}

	p.mu.Lock()
	p.preferred = preferred
	p.mu.Unlock()
}

// IsPreferredPartition reports whether this writer owns the partition.
// Unknown paths are simply not preferred.
func (p *AffinityPartitioner) IsPreferredPartition(path string) bool {
	idx, err := p.PartitionIndex(path)
	if err != nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.preferred[idx]
	return ok
}

// PreferredPartitions returns the owned partition paths in index order.
func (p *AffinityPartitioner) PreferredPartitions() []string {
	p.mu.RLock()
	indices := make([]int, 0, len(p.preferred))
	for i := range p.preferred {
		indices = append(indices, i)
	}
	p.mu.RUnlock()

	sort.Ints(indices)
	paths := make([]string, len(indices))
	for i, idx := range indices {
		paths[i] = p.pathFor(idx)
	}
	return paths
}
