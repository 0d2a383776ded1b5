// Package nebulahash supplies the deterministic hashing used to derive
// per-orbit random seeds and to checksum rendered channel data, plus a
// sharded concurrent counter map (ConcurrentCounters). The progress
// estimator keeps its own counters and does not use that map.
package nebulahash

import (
	"github.com/dgryski/go-farm"
)

// SeedFarm derives a deterministic 64-bit seed for orbit index idx within
// the named channel. Two renders of the same channel name and orbit index
// always produce the same seed, independent of how many worker threads
// are involved or in what order jobs are dispatched — this is what makes
// a render reproducible across thread counts.
func SeedFarm(channelName string, idx uint64) uint64 {
	return farm.Hash64WithSeed([]byte(channelName), idx)
}
