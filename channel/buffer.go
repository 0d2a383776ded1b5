// Package channel implements the density accumulators ("channels") that
// back Nebulabrot-style Monte-Carlo rendering: a dense per-pixel counter
// array, its ordered collection, and the byte-exact format used to
// persist and reload them.
package channel

import (
	"errors"
	"sync"

	"v.io/x/lib/vlog"
)

// ErrDimensionMismatch is returned by MergeWith when the two buffers'
// counter arrays differ in length.
var ErrDimensionMismatch = errors.New("channel: dimension mismatch")

// ErrHeaderMismatch is returned by Collection.LoadFile when the file's
// (width, height) header does not match the collection being loaded into.
var ErrHeaderMismatch = errors.New("channel: raw file header does not match collection resolution")

// ErrCorruptInput is returned by Collection.LoadFile when a record ends
// before a full payload is read.
var ErrCorruptInput = errors.New("channel: raw file truncated mid-record")

// Buffer owns a dense row-major W*H array of visit counts plus the
// bookkeeping the scheduler needs to fold per-worker partial results
// into one shared destination without serialising the hot accumulation
// loop. The zero value is not usable; construct with NewBuffer.
type Buffer struct {
	width, height int
	data          []uint32

	// maxValue is valid only once UpdateMaxValue has run since the last
	// mutation; MergeWith intentionally leaves it stale.
	maxValue uint32

	// completedIterations is the number of orbit seeds whose samples
	// have been folded into data, across every successful accumulation
	// or merge.
	completedIterations uint64

	mergeMu sync.Mutex
}

// NewBuffer allocates a zeroed buffer of the given pixel dimensions.
func NewBuffer(width, height int) *Buffer {
	if width <= 0 || height <= 0 {
		vlog.Fatalf("channel: invalid buffer dimensions %dx%d", width, height)
	}
	return &Buffer{
		width:  width,
		height: height,
		data:   make([]uint32, width*height),
	}
}

func (b *Buffer) Width() int  { return b.width }
func (b *Buffer) Height() int { return b.height }

// Data returns the buffer's backing counters in row-major order. The
// slice is writable by the buffer's single owning goroutine; any other
// caller must go through MergeWith.
func (b *Buffer) Data() []uint32 { return b.data }

// MaxValue returns the cached maximum set by the most recent
// UpdateMaxValue call (or read from a raw-results file by LoadFile). It
// is zero for a freshly allocated buffer, and stale after any mutation
// until UpdateMaxValue runs again.
func (b *Buffer) MaxValue() uint32 { return b.maxValue }

// CompletedIterations returns the number of orbit seeds accumulated into
// this buffer so far, across direct accumulation and merges.
func (b *Buffer) CompletedIterations() uint64 { return b.completedIterations }

// AddCompletedIterations credits n additional orbit seeds to the buffer.
// Called by the buffer's owning worker after finishing a job; it is not
// safe to call concurrently with MergeWith on the same buffer unless the
// caller already holds equivalent external synchronization.
func (b *Buffer) AddCompletedIterations(n uint64) {
	b.completedIterations += n
}

// Clear zeros every counter, including the completed-iteration count.
// The cached max value is now stale; callers must call UpdateMaxValue
// again before trusting MaxValue.
func (b *Buffer) Clear() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.completedIterations = 0
}

// MergeWith folds other's counters and completed-iteration count into b
// under b's own mutex, so that many private per-worker buffers can be
// retired into a single shared destination without the owning thread
// ever blocking on the accumulation hot path. It does not refresh
// MaxValue; callers must call UpdateMaxValue once no further merges are
// pending (see the scheduler's channel-retirement protocol).
func (b *Buffer) MergeWith(other *Buffer) error {
	if len(b.data) != len(other.data) {
		return ErrDimensionMismatch
	}
	b.mergeMu.Lock()
	defer b.mergeMu.Unlock()
	for i, v := range other.data {
		b.data[i] += v
	}
	b.completedIterations += other.completedIterations
	return nil
}

// UpdateMaxValue performs a sequential scan to set MaxValue to the
// largest counter in the buffer. Callers must ensure no concurrent
// writer is mutating data while this runs.
func (b *Buffer) UpdateMaxValue() {
	var max uint32
	for _, v := range b.data {
		if v > max {
			max = v
		}
	}
	b.maxValue = max
}

// At returns the counter at pixel (x, y).
func (b *Buffer) At(x, y int) uint32 {
	return b.data[y*b.width+x]
}
