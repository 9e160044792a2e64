package live

import (
	"fmt"
	"sync"
)

// Clock is the output device's playback clock in seconds.
type Clock interface {
	Now() float64
}

// PlaybackSource is one buffer placed on the output timeline.
// Stop on a source that already finished is a no-op.
type PlaybackSource interface {
	Stop()
}

// Output places decoded buffers on a playback timeline.
//
// Schedule must not block and must not call onEnded synchronously; onEnded
// fires once when the buffer finishes playing naturally, never after Stop.
// Close releases the output graph and is idempotent.
type Output interface {
	Schedule(samples []float32, startAt float64, onEnded func()) (PlaybackSource, error)
	Close() error
}

type scheduledSource struct {
	src      PlaybackSource
	startAt  float64
	duration float64
}

// Scheduler places model audio back to back on the output clock in
// arrival order.
type Scheduler struct {
	out      Output
	clock    Clock
	format   AudioConfig
	recorder Recorder

	mu     sync.Mutex
	next   float64
	epoch  uint64
	active map[*scheduledSource]struct{}
}

// NewScheduler creates a scheduler for 24 kHz mono payloads.
func NewScheduler(out Output, clock Clock, recorder Recorder) *Scheduler {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Scheduler{
		out:      out,
		clock:    clock,
		format:   OutputAudioConfig(),
		recorder: recorder,
		active:   make(map[*scheduledSource]struct{}),
	}
}

// Enqueue decodes a PCM16LE payload and schedules it at
// max(nextPlaybackTime, clock now). It returns the start time. A zero
// duration means nothing was scheduled.
func (s *Scheduler) Enqueue(payload []byte) (startAt float64, duration float64, err error) {
	samples, err := DecodePCM16(payload)
	if err != nil {
		return 0, 0, err
	}
	if len(samples) == 0 {
		return 0, 0, nil
	}
	duration = s.format.Duration(len(samples))
	entry := &scheduledSource{duration: duration}

	s.mu.Lock()
	startAt = s.next
	if now := s.clock.Now(); now > startAt {
		startAt = now
	}
	entry.startAt = startAt
	s.next = startAt + duration
	epoch := s.epoch
	s.active[entry] = struct{}{}
	s.mu.Unlock()

	src, err := s.out.Schedule(samples, startAt, func() { s.finish(entry) })
	if err != nil {
		s.finish(entry)
		return 0, 0, fmt.Errorf("schedule playback: %w", err)
	}

	s.mu.Lock()
	_, tracked := s.active[entry]
	stale := s.epoch != epoch
	if tracked && !stale {
		entry.src = src
	}
	s.mu.Unlock()

	// An interrupt raced with scheduling; the buffer must not play.
	if stale {
		src.Stop()
		return 0, 0, nil
	}

	s.recorder.RecordPlaybackScheduled(duration)
	return startAt, duration, nil
}

func (s *Scheduler) finish(entry *scheduledSource) {
	s.mu.Lock()
	delete(s.active, entry)
	s.mu.Unlock()
}

// Interrupt stops every active source, empties the active set and rewinds
// nextPlaybackTime to zero. It returns the number of sources stopped.
func (s *Scheduler) Interrupt() int {
	n := s.flush()
	s.recorder.RecordInterruption()
	return n
}

func (s *Scheduler) flush() int {
	s.mu.Lock()
	var srcs []PlaybackSource
	for entry := range s.active {
		if entry.src != nil {
			srcs = append(srcs, entry.src)
		}
	}
	n := len(s.active)
	clear(s.active)
	s.next = 0
	s.epoch++
	s.mu.Unlock()

	for _, src := range srcs {
		src.Stop()
	}
	return n
}

// NextPlaybackTime returns the time at which the next buffer may start.
func (s *Scheduler) NextPlaybackTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Active returns the number of scheduled sources that have not finished.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
