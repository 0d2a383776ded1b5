package progress

import (
	"fmt"
	"time"

	"github.com/grailbio/base/log"
)

// Sink receives progress and diagnostic output from the scheduling
// managers. The reference implementation prints directly to stdout from
// inside the scheduler; routing it through an injectable interface lets
// tests capture output and lets callers silence it entirely.
type Sink interface {
	// Progress reports that finished of total jobs have completed, with
	// elapsed time so far and an estimated remaining duration.
	Progress(finished, total int, elapsed, eta time.Duration)
	// Message reports a one-off diagnostic (channel dropped, image
	// failed, seed exhaustion, and the like).
	Message(format string, args ...interface{})
}

// LogSink reports through github.com/grailbio/base/log, matching the
// logging conventions used elsewhere in the scheduling packages.
type LogSink struct{}

func (LogSink) Progress(finished, total int, elapsed, eta time.Duration) {
	log.Printf("(%d/%d) elapsed: %s, estimated remaining: %s", finished, total, elapsed, eta)
}

func (LogSink) Message(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// NopSink discards everything. Useful for tests and for callers that
// don't want progress output.
type NopSink struct{}

func (NopSink) Progress(finished, total int, elapsed, eta time.Duration) {}
func (NopSink) Message(format string, args ...interface{})              {}

// CollectingSink records every call it receives, for tests that need to
// assert on progress/diagnostic output without touching real logging.
type CollectingSink struct {
	Progresses []ProgressEvent
	Messages   []string
}

type ProgressEvent struct {
	Finished, Total int
	Elapsed, ETA    time.Duration
}

func (s *CollectingSink) Progress(finished, total int, elapsed, eta time.Duration) {
	s.Progresses = append(s.Progresses, ProgressEvent{finished, total, elapsed, eta})
}

func (s *CollectingSink) Message(format string, args ...interface{}) {
	s.Messages = append(s.Messages, fmt.Sprintf(format, args...))
}
