package imagesched

import (
	"github.com/grailbio/nebulabrot/channel"
)

// resolvedInputs caches, per image, the concrete channel buffers and
// per-channel multipliers it needs during compositing, computed once up
// front so doJob never touches the collection's map under contention.
type resolvedInputs struct {
	data       [][]uint32
	maxValues  []uint32
	multiplier []float64
}

// resolveInputs validates an image's channel references against src and
// precomputes the per-channel normalization multipliers:
//
//	multiplier[j] = 1                                   if desiredMax[j] <= 0
//	multiplier[j] = desiredMax[j] * completedIters[j] / maxValue[j]   otherwise
//
// It returns ErrMissingChannel if any ChannelNames entry is absent from
// src, and ErrDesiredMaxArity if DesiredMax is non-empty but does not
// match ChannelNames in length.
func resolveInputs(spec Spec, src *channel.Collection) (resolvedInputs, error) {
	if len(spec.DesiredMax) != 0 && len(spec.DesiredMax) != len(spec.ChannelNames) {
		return resolvedInputs{}, ErrDesiredMaxArity
	}
	r := resolvedInputs{
		data:       make([][]uint32, len(spec.ChannelNames)),
		maxValues:  make([]uint32, len(spec.ChannelNames)),
		multiplier: make([]float64, len(spec.ChannelNames)),
	}
	for i, name := range spec.ChannelNames {
		buf, ok := src.Get(name)
		if !ok {
			return resolvedInputs{}, ErrMissingChannel
		}
		r.data[i] = buf.Data()
		r.maxValues[i] = buf.MaxValue()

		desired := 0.0
		if len(spec.DesiredMax) != 0 {
			desired = spec.DesiredMax[i]
		}
		if desired <= 0 {
			r.multiplier[i] = 1
			continue
		}
		if buf.MaxValue() == 0 {
			r.multiplier[i] = 0
			continue
		}
		r.multiplier[i] = desired * float64(buf.CompletedIterations()) / float64(buf.MaxValue())
	}
	return r, nil
}

// doJob runs one pixel-range job: for ModePixel it normalizes each
// pixel's per-channel values and feeds them through the registered
// PixelKernel; for ModeWhole it slices every input channel (and the
// destination) to the job's range and runs WholeImageKernel once. The
// channel lookup and multiplier computation happen at most once per
// image (the first worker to reach this image resolves and caches it);
// a resolution failure fails the image and every subsequent job for it
// observes the cached error without re-resolving.
//
// Per pixel i and channel j:
//
//	value[j] = multiplier[j] * raw[j][i] / maxValue[j]   (0 if maxValue[j] == 0)
func (m *Manager) doJob(im *imageRenderChannel, job pixelJob, src *channel.Collection) {
	im.resolveOnce.Do(func() {
		im.resolved, im.resolveErr = resolveInputs(im.spec, src)
	})
	if im.resolveErr != nil {
		m.failImage(im, im.resolveErr)
		return
	}
	in := im.resolved
	dest := im.dest.Data()

	switch im.spec.Mode {
	case ModeWhole:
		channels := make([][]uint32, len(in.data))
		for i, d := range in.data {
			channels[i] = d[job.start:job.end]
		}
		im.spec.Whole(channels, in.maxValues, dest[job.start:job.end])
	default:
		values := make([]float64, len(in.data))
		for i := job.start; i < job.end; i++ {
			for j, d := range in.data {
				if in.maxValues[j] == 0 {
					values[j] = 0
					continue
				}
				values[j] = in.multiplier[j] * float64(d[i]) / float64(in.maxValues[j])
			}
			dest[i] = im.spec.Pixel(values)
		}
	}
}
