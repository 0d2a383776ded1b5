package imagesched

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/grailbio/nebulabrot/channel"
	"github.com/grailbio/nebulabrot/progress"
	"github.com/grailbio/nebulabrot/raster"
)

// ErrNameConflict is returned by Add when a filename is already
// registered.
var ErrNameConflict = errors.New("imagesched: filename already registered")

// ErrAlreadyRunning is returned by Execute when another Execute call on
// the same manager is already in flight.
var ErrAlreadyRunning = errors.New("imagesched: execute already in progress")

// ErrMissingChannel is surfaced (via the sink, not returned) when an
// image references a channel name absent from the input collection.
var ErrMissingChannel = errors.New("imagesched: referenced channel not found")

// ErrDesiredMaxArity is surfaced (via the sink) when DesiredMax is
// non-empty but its length does not match ChannelNames.
var ErrDesiredMaxArity = errors.New("imagesched: desired_max length does not match channel count")

// Manager plans and dispatches image-compositing jobs that read from a
// read-only channel.Collection and write RGBA PNGs.
type Manager struct {
	numThreads int
	sink       progress.Sink

	executeMu sync.Mutex
	running   bool

	addMu  sync.Mutex
	names  map[string]bool
	images []*imageRenderChannel

	dispatchMu sync.Mutex
	notifyMu   sync.Mutex
	leaveMu    sync.Mutex
}

// New creates a manager that will dispatch across numThreads workers. A
// nil sink defaults to progress.NopSink.
func New(numThreads int, sink progress.Sink) *Manager {
	if sink == nil {
		sink = progress.NopSink{}
	}
	if numThreads < 1 {
		numThreads = 1
	}
	return &Manager{numThreads: numThreads, sink: sink, names: make(map[string]bool)}
}

// Add registers a named output image. filename must be unique.
func (m *Manager) Add(filename string, spec Spec) error {
	m.addMu.Lock()
	defer m.addMu.Unlock()
	if m.names[filename] {
		return ErrNameConflict
	}
	m.names[filename] = true
	m.images = append(m.images, &imageRenderChannel{filename: filename, spec: spec})
	return nil
}

// SavedFile pairs a registered image's filename with the path its PNG
// was actually written to (after collision resolution), or the empty
// path if the image failed.
type SavedFile struct {
	Filename string
	Path     string
	Failed   bool
}

// Execute composites every registered image against src and writes its
// PNG. src must not be mutated for the duration of the call; its
// channel max values and completed-iteration counts are read without
// locking, matching the immutable-during-compositing guarantee the
// orbit scheduler provides once it has returned.
func (m *Manager) Execute(ctx context.Context, src *channel.Collection) ([]SavedFile, error) {
	m.executeMu.Lock()
	if m.running {
		m.executeMu.Unlock()
		return nil, ErrAlreadyRunning
	}
	m.running = true
	m.executeMu.Unlock()
	defer func() {
		m.executeMu.Lock()
		m.running = false
		m.executeMu.Unlock()
	}()

	if len(m.images) == 0 {
		return nil, nil
	}

	pixelCount := src.Width() * src.Height()

	var totalCost float64
	for _, im := range m.images {
		im.cost = im.spec.cost(pixelCount)
		totalCost += im.cost
	}

	sort.Slice(m.images, func(i, j int) bool {
		a, b := m.images[i], m.images[j]
		if a.spec.Mode != b.spec.Mode {
			// Whole-image kernels run first (REDESIGN: the reference's
			// enum ordering sorted PIXEL_FUNC before IMAGE_FUNC; this
			// inverts it per the documented intent that a single large
			// whole-image job should not delay pipeline drain).
			return a.spec.Mode == ModeWhole
		}
		if a.cost != b.cost {
			return a.cost < b.cost
		}
		return a.filename < b.filename
	})

	approxJobCount := approxJobCount(m.numThreads, totalCost)

	jobsTotal := 0
	for _, im := range m.images {
		im.dest = raster.NewBuffer(src.Width(), src.Height())
		if im.spec.Mode == ModeWhole {
			im.jobs = []pixelJob{{start: 0, end: pixelCount}}
			im.unfinishedJobs = 1
		} else {
			costShare := 1.0 / float64(len(m.images))
			if totalCost > 0 {
				costShare = im.cost / totalCost
			}
			numJobs := int(math.Max(1, math.Round(costShare*float64(approxJobCount))))
			im.jobs = partitionPixels(pixelCount, numJobs)
			im.unfinishedJobs = int32(len(im.jobs))
		}
		im.threadsOnChannel = 0
		jobsTotal += len(im.jobs)
	}

	estimator := progress.NewEstimator(jobsTotal, m.numThreads, m.sink)
	estimator.Start()

	n := len(m.images)
	var wg sync.WaitGroup
	m.leaveMu.Lock()
	startImages := make([]int, m.numThreads)
	idx := n - 1
	for i := 0; i < m.numThreads; i++ {
		m.images[idx].threadsOnChannel++
		startImages[i] = idx
		if idx == 0 {
			idx = n - 1
		} else {
			idx--
		}
	}
	m.leaveMu.Unlock()

	var resultsMu sync.Mutex
	results := make(map[string]SavedFile, len(m.images))

	for i := 0; i < m.numThreads; i++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			m.runWorker(ctx, start, src, estimator, &resultsMu, results)
		}(startImages[i])
	}
	wg.Wait()

	ordered := make([]SavedFile, 0, len(m.images))
	for _, im := range m.images {
		if sf, ok := results[im.filename]; ok {
			ordered = append(ordered, sf)
			continue
		}
		// An image is recorded by notifyJobCompletion only when its
		// unfinished-job count reaches zero. A failed image has its
		// queued jobs cleared, so its count can stay above zero; such
		// images are reported here.
		ordered = append(ordered, SavedFile{Filename: im.filename, Failed: im.isFailed()})
	}
	return ordered, nil
}

func approxJobCount(numThreads int, totalCost float64) int {
	logTerm := 0.0
	if totalCost >= 1 {
		logTerm = math.Floor(math.Log2(totalCost))
	}
	return 3*numThreads + int(logTerm)
}

func (m *Manager) runWorker(ctx context.Context, startImage int, src *channel.Collection, estimator *progress.Estimator, resultsMu *sync.Mutex, results map[string]SavedFile) {
	current := startImage
	for {
		j, imgIdx, ok := m.getAJob(current)
		if !ok {
			m.leaveImage(current, -1)
			return
		}
		if imgIdx != current {
			m.leaveImage(current, imgIdx)
			current = imgIdx
		}
		im := m.images[current]
		if !im.isFailed() {
			m.doJob(im, j, src)
		}
		m.notifyJobCompletion(ctx, current, estimator, resultsMu, results)
	}
}

func (m *Manager) getAJob(preferred int) (pixelJob, int, bool) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	n := len(m.images)
	idx := preferred
	for i := 0; i < n; i++ {
		if j, ok := m.images[idx].popJob(); ok {
			return j, idx, true
		}
		if idx == 0 {
			idx = n - 1
		} else {
			idx--
		}
	}
	return pixelJob{}, 0, false
}

func (m *Manager) leaveImage(prev, next int) {
	m.leaveMu.Lock()
	if next >= 0 {
		m.images[next].threadsOnChannel++
	}
	m.images[prev].threadsOnChannel--
	m.leaveMu.Unlock()
}

// notifyJobCompletion decrements the image's unfinished-job count and,
// if this was the last job for that image (the "last job wins" rule),
// saves its PNG exactly once: file I/O happens outside the notify
// mutex so it never blocks other workers' bookkeeping.
func (m *Manager) notifyJobCompletion(ctx context.Context, imgIdx int, estimator *progress.Estimator, resultsMu *sync.Mutex, results map[string]SavedFile) {
	im := m.images[imgIdx]
	m.notifyMu.Lock()
	remaining := im.decrementUnfinished()
	m.notifyMu.Unlock()
	estimator.NotifyJobCompletion()

	if remaining != 0 {
		return
	}
	sf := SavedFile{Filename: im.filename, Failed: im.isFailed()}
	if !sf.Failed {
		path, err := raster.SavePNG(ctx, im.dest, im.filename+".png")
		if err != nil {
			log.Error.Printf("imagesched: saving %q: %v", im.filename, err)
			sf.Failed = true
		} else {
			sf.Path = path
		}
	}
	resultsMu.Lock()
	results[im.filename] = sf
	resultsMu.Unlock()
}

// failImage marks an image failed and clears its job queue under both
// the job-dispatch and notify mutexes, then emits a diagnostic exactly
// once (CompareAndSwap guarantees only the first caller logs).
func (m *Manager) failImage(im *imageRenderChannel, reason error) {
	m.dispatchMu.Lock()
	m.notifyMu.Lock()
	im.jobs = nil
	first := im.markFailed()
	m.notifyMu.Unlock()
	m.dispatchMu.Unlock()
	if first {
		m.sink.Message("imagesched: image %q failed: %v", im.filename, reason)
	}
}
