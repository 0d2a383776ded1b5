package nebulahash

import (
	"sync"

	"blainsmith.com/go/seahash"
)

const numCounterShards = 64

type counterShard struct {
	mu     sync.Mutex
	counts map[string]uint64
}

// ConcurrentCounters is a sharded, thread-safe map from name to a running
// count, used to track per-channel or per-image job-completion counts
// without the progress estimator contending a single mutex shared by
// every scheduler worker.
type ConcurrentCounters struct {
	shards [numCounterShards]counterShard
}

// NewConcurrentCounters returns an empty counter map.
func NewConcurrentCounters() *ConcurrentCounters {
	c := &ConcurrentCounters{}
	for i := range c.shards {
		c.shards[i].counts = make(map[string]uint64)
	}
	return c
}

func (c *ConcurrentCounters) shardFor(name string) *counterShard {
	h := seahash.Sum64([]byte(name))
	return &c.shards[h%uint64(numCounterShards)]
}

// Add increments the named counter by delta and returns its new value.
func (c *ConcurrentCounters) Add(name string, delta uint64) uint64 {
	shard := c.shardFor(name)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.counts[name] += delta
	return shard.counts[name]
}

// Get returns the named counter's current value.
func (c *ConcurrentCounters) Get(name string) uint64 {
	shard := c.shardFor(name)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	return shard.counts[name]
}

// Total sums every counter across every shard. Intended for periodic
// progress snapshots, not the hot path.
func (c *ConcurrentCounters) Total() uint64 {
	var total uint64
	for i := range c.shards {
		c.shards[i].mu.Lock()
		for _, v := range c.shards[i].counts {
			total += v
		}
		c.shards[i].mu.Unlock()
	}
	return total
}
