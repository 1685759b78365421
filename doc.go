// Package vecfleet coordinates a fleet of vector-database instances that
// share one object store as their only coordination medium: no consensus
// service, no message broker, no locks.
//
// Three components cooperate per instance:
//
//   - Coordinator owns the shared configuration document: fleet settings,
//     instance membership, role, heartbeat and change detection, all via
//     plain reads/writes of a blobstore.Store with optimistic versioning.
//   - HashPartitioner (and its AffinityPartitioner variant) routes writes
//     from any number of concurrent writers to a fixed set of partitions
//     deterministically, with no coordination at write time.
//   - HealthMonitor turns local counters into a periodically published
//     health snapshot consumed by the coordinator.
//
// The design trades strong consistency, leader election and sub-second
// failure detection for operational simplicity on commodity object
// storage: concurrent writers are detected (not prevented) through a
// monotonically increasing document version, stale instances are evicted
// by any live instance's cleanup pass, and a fully unreachable store
// degrades an instance to last-known-config operation instead of taking
// it down.
//
// Basic usage:
//
//	store := blobstore.NewMemoryStore()
//	coord := vecfleet.NewCoordinator(store,
//	    vecfleet.WithRole(vecfleet.RoleWriter),
//	)
//	cfg, err := coord.Initialize(ctx)
//	if err != nil {
//	    // handle err
//	}
//	defer coord.Close()
//
//	monitor := vecfleet.NewHealthMonitor(coord)
//	monitor.Start()
//	defer monitor.Stop()
//
//	aff, _ := vecfleet.NewAffinityPartitioner(cfg.Settings.PartitionCount, coord.InstanceID())
//	aff.Recompute(cfg)
//	coord.OnConfigUpdate(aff.Recompute)
package vecfleet
