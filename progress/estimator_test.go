package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimatorTracksFinishedCount(t *testing.T) {
	sink := &CollectingSink{}
	e := NewEstimator(10, 4, sink)
	e.Start()
	for i := 0; i < 5; i++ {
		e.NotifyJobCompletion()
	}
	assert.Equal(t, 5, e.Finished())
	assert.Equal(t, 10, e.Total())
}

func TestEstimatorGatesToOncePerSecond(t *testing.T) {
	sink := &CollectingSink{}
	e := NewEstimator(100, 4, sink)
	e.Start()
	for i := 0; i < 20; i++ {
		e.NotifyJobCompletion()
	}
	// All twenty completions land within the same wall-clock second, so
	// at most one progress event should have been emitted.
	assert.LessOrEqual(t, len(sink.Progresses), 1)
}

func TestEstimatorSuppressesFinalProgress(t *testing.T) {
	sink := &CollectingSink{}
	e := NewEstimator(3, 2, sink)
	e.Start()
	e.NotifyJobCompletion()
	time.Sleep(time.Millisecond)
	e.NotifyJobCompletion()
	time.Sleep(time.Millisecond)
	e.NotifyJobCompletion()
	assert.Equal(t, 3, e.Finished())
	for _, p := range sink.Progresses {
		assert.True(t, p.Finished < p.Total)
	}
}

func TestNopSinkDiscardsEverything(t *testing.T) {
	var s NopSink
	s.Progress(1, 2, time.Second, time.Second)
	s.Message("ignored %d", 1)
}
