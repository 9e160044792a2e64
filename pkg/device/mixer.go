package device

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/vango-go/vai-studio/pkg/core/live"
)

// ErrClosed is returned when scheduling on a closed output.
var ErrClosed = errors.New("device: output is closed")

// Mixer sums scheduled buffers onto a single timeline and renders it as
// float32 little-endian mono PCM. The clock is the number of frames rendered
// so far; it advances only as Read is called.
type Mixer struct {
	rate int

	mu     sync.Mutex
	pos    int64
	voices []*voice
	closed bool
}

type voice struct {
	m       *Mixer
	samples []float32
	start   int64
	onEnded func()
	done    bool
}

// NewMixer creates a mixer for the given sample rate.
func NewMixer(sampleRate int) *Mixer {
	if sampleRate <= 0 {
		sampleRate = live.OutputSampleRate
	}
	return &Mixer{rate: sampleRate}
}

// SampleRate returns the timeline rate.
func (m *Mixer) SampleRate() int { return m.rate }

// Now returns the timeline position in seconds.
func (m *Mixer) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.pos) / float64(m.rate)
}

// Schedule places samples on the timeline at startAt seconds. A start in
// the past plays immediately. onEnded runs on the render goroutine after
// the last frame is rendered, unless the source was stopped first.
func (m *Mixer) Schedule(samples []float32, startAt float64, onEnded func()) (live.PlaybackSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	start := int64(math.Round(startAt * float64(m.rate)))
	if start < m.pos {
		start = m.pos
	}
	v := &voice{m: m, samples: samples, start: start, onEnded: onEnded}
	m.voices = append(m.voices, v)
	return v, nil
}

// Stop removes the voice from the timeline. It is a no-op once the voice
// has finished or was already stopped.
func (v *voice) Stop() {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if v.done {
		return
	}
	v.done = true
	v.m.removeLocked(v)
}

func (m *Mixer) removeLocked(target *voice) {
	for i, v := range m.voices {
		if v == target {
			m.voices = append(m.voices[:i], m.voices[i+1:]...)
			return
		}
	}
}

// Active returns the number of voices still on the timeline.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// Read renders the next frames into p. It never blocks and always returns
// a whole number of frames; silence is rendered where nothing is scheduled.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}

	m.mu.Lock()
	from := m.pos
	for i := 0; i < frames; i++ {
		t := from + int64(i)
		var sum float32
		for _, v := range m.voices {
			if idx := t - v.start; idx >= 0 && idx < int64(len(v.samples)) {
				sum += v.samples[idx]
			}
		}
		if sum > 1 {
			sum = 1
		} else if sum < -1 {
			sum = -1
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(sum))
	}
	m.pos = from + int64(frames)

	var ended []func()
	kept := m.voices[:0]
	for _, v := range m.voices {
		if v.start+int64(len(v.samples)) <= m.pos {
			v.done = true
			if v.onEnded != nil {
				ended = append(ended, v.onEnded)
			}
			continue
		}
		kept = append(kept, v)
	}
	clear(m.voices[len(kept):])
	m.voices = kept
	m.mu.Unlock()

	for _, fn := range ended {
		fn()
	}
	return frames * 4, nil
}

// Reset drops every voice without firing onEnded. The clock keeps running.
func (m *Mixer) Reset() {
	m.mu.Lock()
	for _, v := range m.voices {
		v.done = true
	}
	clear(m.voices)
	m.voices = m.voices[:0]
	m.mu.Unlock()
}

// Close resets the mixer and rejects further scheduling.
func (m *Mixer) Close() error {
	m.Reset()
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
