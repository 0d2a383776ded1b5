package orbitsched

import (
	"sync/atomic"

	"github.com/grailbio/nebulabrot/channel"
	"github.com/grailbio/nebulabrot/orbit"
)

// job is a contiguous orbit-index range within a channel's orbit_count:
// orbits [start, start+count) are rendered by whichever worker pops this
// job. Carrying the global start index (rather than just a count, as
// the reference implementation does) is what makes a channel's final
// counters independent of how orbit_count was partitioned into jobs.
type job struct {
	start, count uint64
}

// renderChannel is one registered orbit channel's scheduling state: its
// spec, destination buffer, remaining job queue and thread/job
// bookkeeping used by the leave protocol.
type renderChannel struct {
	name string
	spec orbit.IterationSpec
	cost float64

	dest *channel.Buffer

	jobs []job

	// unfinishedJobs is written by notifyJobCompletion (under the
	// manager's notify mutex) and read by leaveChannel (under the leave
	// mutex) — a genuine cross-mutex access, so it is an atomic counter
	// rather than a plain int guarded by either lock alone.
	unfinishedJobs int32

	// threadsOnChannel is only ever touched under the leave mutex.
	threadsOnChannel int
}

func (c *renderChannel) popJob() (job, bool) {
	if len(c.jobs) == 0 {
		return job{}, false
	}
	j := c.jobs[len(c.jobs)-1]
	c.jobs = c.jobs[:len(c.jobs)-1]
	return j, true
}

func (c *renderChannel) decrementUnfinished() int32 {
	return atomic.AddInt32(&c.unfinishedJobs, -1)
}

func (c *renderChannel) unfinishedCount() int32 {
	return atomic.LoadInt32(&c.unfinishedJobs)
}

// partitionOrbits splits total orbits into numJobs contiguous,
// non-overlapping ranges whose sizes differ by at most one and sum
// exactly to total: the first (total mod numJobs) jobs get one extra
// orbit. numJobs is clamped to at least 1.
func partitionOrbits(total uint64, numJobs int) []job {
	if numJobs < 1 {
		numJobs = 1
	}
	base := total / uint64(numJobs)
	rem := total % uint64(numJobs)
	jobs := make([]job, numJobs)
	var offset uint64
	for i := 0; i < numJobs; i++ {
		size := base
		if uint64(i) < rem {
			size++
		}
		jobs[i] = job{start: offset, count: size}
		offset += size
	}
	return jobs
}
