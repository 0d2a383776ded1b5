package orbit

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/grailbio/nebulabrot/nebulahash"
)

// ErrSeedExhaustion is reported when a renderer's configuration can
// never produce an escaping orbit (e.g. an inner function, radius and
// norm limit combination where nothing escapes within the allotted
// inner iterations). The owning worker terminates gracefully; other
// workers keep accumulating.
var ErrSeedExhaustion = errors.New("orbit: no escaping seed found")

// probeAttempts bounds the upfront sanity check PrepareSeeds performs
// before a renderer commits to a channel. perOrbitAttempts bounds the
// rejection-sampling retries for a single orbit once the configuration
// has already been validated; exhausting it mid-run is treated as one
// skipped orbit rather than a fatal error, since PrepareSeeds already
// established that escaping points exist.
const (
	probeAttempts    = 4096
	perOrbitAttempts = 256
)

// Renderer is a single-thread Monte-Carlo orbit sampler for one
// (function, inner-iteration-count, viewport) configuration. It is not
// safe for concurrent use; the scheduler constructs one per
// worker-channel attachment.
type Renderer struct {
	width, height int
	xmid, ymid    float64
	size          float64
	randomRadius  float64
	normLimit     float64
	innerIter     int
	fn            Func
	channelName   string

	xmin, yrange, ymin float64
}

// NewRenderer builds a renderer for the given channel. channelName feeds
// the deterministic per-orbit seed derivation (nebulahash.SeedFarm), so
// two renderers built for the same channel name and spec always produce
// identical output for the same orbit index, independent of thread
// count or job ordering.
func NewRenderer(channelName string, width, height int, xmid, ymid, size, randomRadius, normLimit float64, innerIter int, fn Func) *Renderer {
	yrange := size * float64(height) / float64(width)
	return &Renderer{
		width:        width,
		height:       height,
		xmid:         xmid,
		ymid:         ymid,
		size:         size,
		randomRadius: randomRadius,
		normLimit:    normLimit,
		innerIter:    innerIter,
		fn:           fn,
		channelName:  channelName,
		xmin:         xmid - size/2,
		yrange:       yrange,
		ymin:         ymid - yrange/2,
	}
}

// PrepareSeeds sanity-checks that this renderer's configuration can
// produce at least one escaping orbit, using a fixed, deterministic
// probe independent of any job's orbit-index range. It must be called
// once before RenderOrbits after a worker attaches to a new channel.
func (r *Renderer) PrepareSeeds() error {
	for i := uint64(0); i < probeAttempts; i++ {
		seed := nebulahash.SeedFarm(r.channelName+"#probe", i)
		rng := rand.New(rand.NewSource(int64(seed)))
		if _, ok := r.findEscapingCandidate(rng); ok {
			return nil
		}
	}
	return ErrSeedExhaustion
}

func (r *Renderer) randomPointInDisc(rng *rand.Rand) complex128 {
	// Uniform sampling within a disc of radius randomRadius: sample the
	// radius as sqrt(u) to avoid clustering samples near the center.
	theta := rng.Float64() * 2 * math.Pi
	radius := r.randomRadius * math.Sqrt(rng.Float64())
	return complex(radius*math.Cos(theta), radius*math.Sin(theta))
}

func (r *Renderer) escapes(c complex128) bool {
	z := complex(0, 0)
	for i := 0; i < r.innerIter; i++ {
		z = r.fn(z, c)
		if cmplx.Abs(z) > r.normLimit {
			return true
		}
	}
	return false
}

func (r *Renderer) findEscapingCandidate(rng *rand.Rand) (complex128, bool) {
	for attempt := 0; attempt < perOrbitAttempts; attempt++ {
		c := r.randomPointInDisc(rng)
		if r.escapes(c) {
			return c, true
		}
	}
	return 0, false
}

// mapToPixel returns the pixel index for z within the viewport, or -1
// if z falls outside it.
func (r *Renderer) mapToPixel(z complex128) int {
	re, im := real(z), imag(z)
	px := int(math.Floor((re - r.xmin) / r.size * float64(r.width)))
	py := int(math.Floor((im - r.ymin) / r.yrange * float64(r.height)))
	if px < 0 || px >= r.width || py < 0 || py >= r.height {
		return -1
	}
	return py*r.width + px
}

// RenderOrbits accumulates count orbits, starting at global orbit index
// startIndex, into dst (a row-major width*height counter array owned by
// the caller). startIndex must be the orbit's position within the whole
// channel's orbit_count, not within the job: this is what makes the
// result independent of how jobs are partitioned across threads.
//
// It returns the number of orbits it actually plotted; this is
// ordinarily equal to count; it can be lower if isolated per-orbit
// rejection sampling failed after PrepareSeeds already validated the
// configuration, which is treated as a small, expected sampling loss
// rather than a fatal error.
func (r *Renderer) RenderOrbits(dst []uint32, startIndex, count uint64) uint64 {
	var plotted uint64
	for i := uint64(0); i < count; i++ {
		orbitIndex := startIndex + i
		seed := nebulahash.SeedFarm(r.channelName, orbitIndex)
		rng := rand.New(rand.NewSource(int64(seed)))
		c, ok := r.findEscapingCandidate(rng)
		if !ok {
			continue
		}
		z := complex(0, 0)
		for step := 0; step < r.innerIter; step++ {
			z = r.fn(z, c)
			if idx := r.mapToPixel(z); idx >= 0 {
				dst[idx]++
			}
			if cmplx.Abs(z) > r.normLimit {
				break
			}
		}
		plotted++
	}
	return plotted
}
