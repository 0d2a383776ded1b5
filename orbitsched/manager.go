// Package orbitsched implements the parallel job planner and dispatcher
// that drives orbit.Renderer across named channels: it partitions each
// channel's requested orbit count into jobs, runs a fixed worker pool
// that steals jobs from nearby channels to amortize seed preparation,
// and merges each worker's private buffer into the shared destination
// under a per-channel mutex.
package orbitsched

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/grailbio/nebulabrot/channel"
	"github.com/grailbio/nebulabrot/orbit"
	"github.com/grailbio/nebulabrot/progress"
)

// ErrNameConflict is returned by Add when a channel name is already
// registered.
var ErrNameConflict = errors.New("orbitsched: channel name already registered")

// ErrAlreadyRunning is returned by Execute when another Execute call on
// the same manager is already in flight.
var ErrAlreadyRunning = errors.New("orbitsched: execute already in progress")

// Manager plans and dispatches orbit-accumulation jobs across a fixed
// viewport and thread pool. The zero value is not usable; construct
// with New.
type Manager struct {
	xmid, ymid   float64
	size         float64
	randomRadius float64
	normLimit    float64
	width        int
	height       int
	numThreads   int
	sink         progress.Sink

	executeMu sync.Mutex
	running   bool

	addMu    sync.Mutex
	names    map[string]bool
	channels []*renderChannel

	dispatchMu sync.Mutex
	notifyMu   sync.Mutex
	leaveMu    sync.Mutex
}

// Config bundles Manager's construction parameters.
type Config struct {
	Xmid, Ymid   float64
	Size         float64
	RandomRadius float64
	NormLimit    float64
	Width        int
	Height       int
	NumThreads   int
	Sink         progress.Sink
}

// New creates a manager for the given viewport and thread count. A nil
// Sink defaults to progress.NopSink.
func New(cfg Config) *Manager {
	sink := cfg.Sink
	if sink == nil {
		sink = progress.NopSink{}
	}
	if cfg.NumThreads < 1 {
		cfg.NumThreads = 1
	}
	return &Manager{
		xmid:         cfg.Xmid,
		ymid:         cfg.Ymid,
		size:         cfg.Size,
		randomRadius: cfg.RandomRadius,
		normLimit:    cfg.NormLimit,
		width:        cfg.Width,
		height:       cfg.Height,
		numThreads:   cfg.NumThreads,
		sink:         sink,
		names:        make(map[string]bool),
	}
}

// Add registers a named orbit channel. Names must be unique; a
// duplicate returns ErrNameConflict. Validity (inner_iterations >= 2)
// is not checked here — an invalid channel is accepted but dropped with
// a diagnostic at Execute time, matching the reference scheduler's
// behavior of validating at plan time, not registration time.
func (m *Manager) Add(name string, spec orbit.IterationSpec) error {
	m.addMu.Lock()
	defer m.addMu.Unlock()
	if m.names[name] {
		return ErrNameConflict
	}
	m.names[name] = true
	m.channels = append(m.channels, &renderChannel{name: name, spec: spec, cost: spec.Cost()})
	return nil
}

// Execute plans and runs the registered channels, returning a
// Collection of their accumulated density buffers. It refuses
// concurrent invocations on the same manager.
func (m *Manager) Execute() (*channel.Collection, error) {
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

	result := channel.NewCollection(m.width, m.height)
	if len(m.channels) == 0 {
		return result, nil
	}

	sort.Slice(m.channels, func(i, j int) bool {
		a, b := m.channels[i], m.channels[j]
		if a.cost != b.cost {
			return a.cost < b.cost
		}
		return a.name < b.name
	})

	var totalCost float64
	for _, ch := range m.channels {
		totalCost += ch.cost
	}
	approxJobCount := approxJobCount(m.numThreads, totalCost)

	accepted := make([]*renderChannel, 0, len(m.channels))
	jobsTotal := 0
	for _, ch := range m.channels {
		if !ch.spec.Valid() {
			m.sink.Message("orbitsched: channel %q has fewer than 2 inner iterations, dropping", ch.name)
			continue
		}
		ch.dest = channel.NewBuffer(m.width, m.height)
		result.Put(ch.name, ch.dest)

		costShare := 1.0 / float64(len(m.channels))
		if totalCost > 0 {
			costShare = ch.cost / totalCost
		}
		numJobs := int(math.Max(1, math.Round(costShare*float64(approxJobCount))))
		ch.jobs = partitionOrbits(ch.spec.OrbitCount, numJobs)
		ch.unfinishedJobs = int32(len(ch.jobs))
		ch.threadsOnChannel = 0
		jobsTotal += len(ch.jobs)
		accepted = append(accepted, ch)
	}
	m.channels = accepted
	if jobsTotal == 0 {
		m.sink.Message("orbitsched: no channels to render")
		return result, nil
	}

	estimator := progress.NewEstimator(jobsTotal, m.numThreads, m.sink)
	estimator.Start()

	n := len(m.channels)
	var wg sync.WaitGroup
	m.leaveMu.Lock()
	startChannels := make([]int, m.numThreads)
	idx := n - 1
	for i := 0; i < m.numThreads; i++ {
		m.channels[idx].threadsOnChannel++
		startChannels[i] = idx
		if idx == 0 {
			idx = n - 1
		} else {
			idx--
		}
	}
	m.leaveMu.Unlock()

	for i := 0; i < m.numThreads; i++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			m.runWorker(start, estimator)
		}(startChannels[i])
	}
	wg.Wait()

	return result, nil
}

func approxJobCount(numThreads int, totalCost float64) int {
	logTerm := 0.0
	if totalCost >= 1 {
		logTerm = math.Floor(math.Log2(totalCost))
	}
	return 3*numThreads + int(logTerm)
}

// runWorker implements the attached-channel loop (one goroutine per
// worker slot): acquire a job, switch channels (merging and rebuilding
// the renderer) when necessary, accumulate, and report completion,
// until no jobs remain anywhere.
func (m *Manager) runWorker(startChannel int, estimator *progress.Estimator) {
	priv := channel.NewBuffer(m.width, m.height)
	var renderer *orbit.Renderer
	current := startChannel

	for {
		j, chIdx, ok := m.getAJob(current)
		if !ok {
			m.leaveChannel(current, -1, priv)
			return
		}
		if chIdx != current {
			m.leaveChannel(current, chIdx, priv)
			priv.Clear()
			current = chIdx
			renderer = nil
		}
		ch := m.channels[current]
		if renderer == nil {
			renderer = orbit.NewRenderer(ch.name, m.width, m.height, m.xmid, m.ymid, m.size, m.randomRadius, m.normLimit, ch.spec.InnerIterations, ch.spec.Fn)
			if err := renderer.PrepareSeeds(); err != nil {
				m.sink.Message("orbitsched: channel %q: %v", ch.name, err)
				m.leaveChannel(current, -1, priv)
				return
			}
		}
		renderer.RenderOrbits(priv.Data(), j.start, j.count)
		priv.AddCompletedIterations(j.count)
		m.notifyJobCompletion(current, estimator)
	}
}

// getAJob walks channels in decreasing index order, cyclically starting
// from preferred, under the job-dispatch mutex, returning the first
// non-empty queue's tail job.
func (m *Manager) getAJob(preferred int) (job, int, bool) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	n := len(m.channels)
	idx := preferred
	for i := 0; i < n; i++ {
		if j, ok := m.channels[idx].popJob(); ok {
			return j, idx, true
		}
		if idx == 0 {
			idx = n - 1
		} else {
			idx--
		}
	}
	return job{}, 0, false
}

// leaveChannel merges priv into prev's destination, then under the
// leave mutex moves one thread from prev to next (next < 0 means the
// worker is terminating, not switching). If prev becomes fully retired
// (no threads, no unfinished jobs), UpdateMaxValue runs on its
// destination exactly once, outside the leave mutex.
func (m *Manager) leaveChannel(prev, next int, priv *channel.Buffer) {
	ch := m.channels[prev]
	if err := ch.dest.MergeWith(priv); err != nil {
		log.Error.Printf("orbitsched: merging channel %q: %v", ch.name, err)
	}

	m.leaveMu.Lock()
	if next >= 0 {
		m.channels[next].threadsOnChannel++
	}
	ch.threadsOnChannel--
	retire := ch.threadsOnChannel == 0 && ch.unfinishedCount() == 0
	m.leaveMu.Unlock()

	if retire {
		ch.dest.UpdateMaxValue()
	}
}

func (m *Manager) notifyJobCompletion(chIdx int, estimator *progress.Estimator) {
	m.notifyMu.Lock()
	m.channels[chIdx].decrementUnfinished()
	m.notifyMu.Unlock()
	estimator.NotifyJobCompletion()
}
