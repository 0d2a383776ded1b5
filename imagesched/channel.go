package imagesched

import (
	"sync"
	"sync/atomic"

	"github.com/grailbio/nebulabrot/raster"
)

// pixelJob is a contiguous, disjoint pixel-index range [start, end)
// within the image's flattened row-major pixel array.
type pixelJob struct {
	start, end int
}

// imageRenderChannel is one registered image's scheduling state,
// mirroring orbitsched.renderChannel but over pixel-range jobs instead
// of orbit-count jobs.
type imageRenderChannel struct {
	filename string
	spec     Spec
	cost     float64

	dest *raster.Buffer

	jobs []pixelJob

	unfinishedJobs   int32 // atomic: written under notify mutex, read under leave mutex
	threadsOnChannel int   // only touched under the leave mutex

	failed int32 // atomic bool; set at most once by failImage

	resolveOnce sync.Once
	resolved    resolvedInputs
	resolveErr  error
}

func (c *imageRenderChannel) popJob() (pixelJob, bool) {
	if len(c.jobs) == 0 {
		return pixelJob{}, false
	}
	j := c.jobs[len(c.jobs)-1]
	c.jobs = c.jobs[:len(c.jobs)-1]
	return j, true
}

func (c *imageRenderChannel) decrementUnfinished() int32 {
	return atomic.AddInt32(&c.unfinishedJobs, -1)
}

func (c *imageRenderChannel) isFailed() bool {
	return atomic.LoadInt32(&c.failed) != 0
}

// markFailed sets the failed flag and reports whether this call was the
// one that transitioned it (so the caller emits its diagnostic exactly
// once).
func (c *imageRenderChannel) markFailed() bool {
	return atomic.CompareAndSwapInt32(&c.failed, 0, 1)
}

// partitionPixels splits [0, pixelCount) into numJobs contiguous,
// disjoint ranges whose sizes differ by at most one and whose union is
// exactly [0, pixelCount).
func partitionPixels(pixelCount int, numJobs int) []pixelJob {
	if numJobs < 1 {
		numJobs = 1
	}
	base := pixelCount / numJobs
	rem := pixelCount % numJobs
	jobs := make([]pixelJob, numJobs)
	offset := 0
	for i := 0; i < numJobs; i++ {
		size := base
		if i < rem {
			size++
		}
		jobs[i] = pixelJob{start: offset, end: offset + size}
		offset += size
	}
	return jobs
}
