package live

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now float64
}

func (c *fakeClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now float64) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

type releaseLog struct {
	mu    sync.Mutex
	steps []string
}

func (l *releaseLog) add(step string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.steps = append(l.steps, step)
	l.mu.Unlock()
}

func (l *releaseLog) Steps() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.steps...)
}

type fakeSource struct {
	mu      sync.Mutex
	startAt float64
	frames  int
	onEnded func()
	stopped int
	ended   bool
}

// End simulates natural completion.
func (s *fakeSource) End() {
	s.mu.Lock()
	if s.ended || s.stopped > 0 {
		s.mu.Unlock()
		return
	}
	s.ended = true
	cb := s.onEnded
	s.mu.Unlock()
	cb()
}

func (s *fakeSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.stopped++
}

func (s *fakeSource) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped > 0
}

type fakeOutput struct {
	mu          sync.Mutex
	sources     []*fakeSource
	scheduleErr error
	closed      int
	log         *releaseLog

	// onSchedule runs after a buffer is placed, outside the lock.
	onSchedule func()
}

func (o *fakeOutput) Schedule(samples []float32, startAt float64, onEnded func()) (PlaybackSource, error) {
	o.mu.Lock()
	if o.scheduleErr != nil {
		o.mu.Unlock()
		return nil, o.scheduleErr
	}
	src := &fakeSource{startAt: startAt, frames: len(samples), onEnded: onEnded}
	o.sources = append(o.sources, src)
	hook := o.onSchedule
	o.mu.Unlock()
	if hook != nil {
		hook()
	}
	return src, nil
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	o.closed++
	o.mu.Unlock()
	o.log.add("output graph")
	return nil
}

func (o *fakeOutput) Sources() []*fakeSource {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*fakeSource(nil), o.sources...)
}

func (o *fakeOutput) Closed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

type fakeCapture struct {
	rate      int
	startErr  error
	startGate chan struct{}
	log       *releaseLog

	mu      sync.Mutex
	onChunk func(AudioChunk)
	started bool
	stops   int
	closes  int
}

func (c *fakeCapture) Start(ctx context.Context, onChunk func(AudioChunk)) error {
	if c.startGate != nil {
		select {
		case <-c.startGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.startErr != nil {
		return c.startErr
	}
	c.mu.Lock()
	c.onChunk = onChunk
	c.started = true
	c.mu.Unlock()
	return nil
}

func (c *fakeCapture) SampleRate() int { return c.rate }

func (c *fakeCapture) Stop() error {
	c.mu.Lock()
	c.stops++
	c.mu.Unlock()
	c.log.add("microphone")
	return nil
}

func (c *fakeCapture) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.log.add("input graph")
	return nil
}

func (c *fakeCapture) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Push delivers a chunk as the device callback would.
func (c *fakeCapture) Push(samples []float32) {
	c.mu.Lock()
	cb := c.onChunk
	c.mu.Unlock()
	if cb != nil {
		cb(AudioChunk{Samples: samples, SampleRate: c.rate})
	}
}

func (c *fakeCapture) Counts() (stops, closes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops, c.closes
}

type fakeConn struct {
	mu      sync.Mutex
	sent    []Blob
	sendErr error
	closes  int
	log     *releaseLog
}

func (c *fakeConn) SendRealtimeInput(blob Blob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	if c.closes > 0 {
		return errors.New("connection closed")
	}
	c.sent = append(c.sent, blob)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.log.add("wire")
	return nil
}

func (c *fakeConn) Sent() []Blob {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Blob(nil), c.sent...)
}

func (c *fakeConn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

type fakeConnector struct {
	conn *fakeConn
	err  error
	gate chan struct{}

	// afterOpen runs once OnOpen returned, before Connect does.
	afterOpen func()

	mu      sync.Mutex
	handler WireHandler
	cfg     SessionConfig
}

func (f *fakeConnector) Connect(ctx context.Context, cfg SessionConfig, h WireHandler) (Conn, error) {
	f.mu.Lock()
	f.handler = h
	f.cfg = cfg
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	h.OnOpen(f.conn)
	if f.afterOpen != nil {
		f.afterOpen()
	}
	return f.conn, nil
}

func (f *fakeConnector) Handler() WireHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler
}

type fakeRecorder struct {
	mu            sync.Mutex
	outcomes      []SendOutcome
	interruptions int
	scheduled     int
	starts        int
	ends          []SessionState
}

func (r *fakeRecorder) RecordSessionStart() {
	r.mu.Lock()
	r.starts++
	r.mu.Unlock()
}

func (r *fakeRecorder) RecordSessionEnd(state SessionState, _ time.Duration) {
	r.mu.Lock()
	r.ends = append(r.ends, state)
	r.mu.Unlock()
}

func (r *fakeRecorder) RecordUplink(o SendOutcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
}

func (r *fakeRecorder) RecordPlaybackScheduled(float64) {
	r.mu.Lock()
	r.scheduled++
	r.mu.Unlock()
}

func (r *fakeRecorder) Scheduled() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scheduled
}

func (r *fakeRecorder) RecordInterruption() {
	r.mu.Lock()
	r.interruptions++
	r.mu.Unlock()
}

func (r *fakeRecorder) Outcomes() []SendOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SendOutcome(nil), r.outcomes...)
}

func (r *fakeRecorder) Ends() []SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SessionState(nil), r.ends...)
}

// pcmPayload returns a silent PCM16 payload of the given length at 24 kHz.
func pcmPayload(seconds float64) []byte {
	frames := int(math.Round(seconds * OutputSampleRate))
	return make([]byte, frames*2)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type sessionHarness struct {
	log       *releaseLog
	clock     *fakeClock
	output    *fakeOutput
	capture   *fakeCapture
	conn      *fakeConn
	connector *fakeConnector
	recorder  *fakeRecorder
	session   *Session
}

func newSessionHarness(t *testing.T) *sessionHarness {
	t.Helper()
	log := &releaseLog{}
	h := &sessionHarness{
		log:      log,
		clock:    &fakeClock{},
		output:   &fakeOutput{log: log},
		capture:  &fakeCapture{rate: 48000, log: log},
		conn:     &fakeConn{log: log},
		recorder: &fakeRecorder{},
	}
	h.connector = &fakeConnector{conn: h.conn}
	return h
}

func (h *sessionHarness) build() *Session {
	h.session = NewSession(DefaultSessionConfig(), Dependencies{
		Connector: h.connector,
		Capture:   h.capture,
		Output:    h.output,
		Clock:     h.clock,
		Recorder:  h.recorder,
	})
	return h.session
}

func drainEvents(s *Session) []Event {
	var out []Event
	for {
		select {
		case ev := <-s.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}
