package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vango-go/vai-studio/pkg/core"
)

// Dependencies are the resources a Session owns for its lifetime.
type Dependencies struct {
	Connector Connector
	Capture   CaptureSource
	Output    Output
	Clock     Clock
	Recorder  Recorder
}

var transitions = map[SessionState][]SessionState{
	StateIdle:       {StateConnecting, StateClosed},
	StateConnecting: {StateOpen, StateErrored, StateClosed},
	StateOpen:       {StateErrored, StateClosed},
	StateErrored:    {StateClosed},
}

// ErrStoppedWhileConnecting is returned by Start when the session was closed
// before Start could return.
var ErrStoppedWhileConnecting = errors.New("live: session stopped while connecting")

// Session is one live voice conversation.
//
// All state changes go through transitionLocked. Wire, capture and playback
// callbacks run on their own goroutines and become no-ops once the session
// has left the state they expect.
type Session struct {
	id         string
	cfg        SessionConfig
	deps       Dependencies
	logger     *slog.Logger
	recorder   Recorder
	scheduler  *Scheduler
	uplink     *Uplink
	transcript *Transcript

	mu        sync.Mutex
	state     SessionState
	conn      Conn
	err       error
	processor bool
	startedAt time.Time
	cancel    context.CancelFunc

	teardownOnce sync.Once
	doneOnce     sync.Once
	events       chan Event
	done         chan struct{}
}

// NewSession creates an idle session.
func NewSession(cfg SessionConfig, deps Dependencies) *Session {
	cfg = cfg.withDefaults()
	if deps.Recorder == nil {
		deps.Recorder = NopRecorder{}
	}

	s := &Session{
		id:         "live_" + uuid.NewString(),
		cfg:        cfg,
		deps:       deps,
		recorder:   deps.Recorder,
		transcript: NewTranscript(),
		state:      StateIdle,
		events:     make(chan Event, cfg.EventBuffer),
		done:       make(chan struct{}),
	}
	s.logger = cfg.Logger.With("session_id", s.id)
	s.scheduler = NewScheduler(deps.Output, deps.Clock, deps.Recorder)
	s.uplink = NewUplink(s.currentSender, deps.Recorder)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that moved the session to StateErrored, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Events returns the channel for receiving session events.
// Events are dropped when the channel is full.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed when the session reaches StateClosed or StateErrored.
func (s *Session) Done() <-chan struct{} { return s.done }

// Transcript returns the session's conversation log.
func (s *Session) Transcript() *Transcript { return s.transcript }

// NextPlaybackTime returns the playback cursor in seconds.
func (s *Session) NextPlaybackTime() float64 { return s.scheduler.NextPlaybackTime() }

// ActiveSources returns the number of buffers scheduled and not yet finished.
func (s *Session) ActiveSources() int { return s.scheduler.Active() }

// Start acquires the microphone and the wire connection concurrently.
// If either fails, everything already acquired is released, the session
// moves to StateErrored and the typed error is returned.
func (s *Session) Start(ctx context.Context) error {
	if s.deps.Connector == nil || s.deps.Capture == nil || s.deps.Output == nil || s.deps.Clock == nil {
		return core.NewInvalidRequestError("live session requires a connector, capture source, output and clock")
	}

	s.mu.Lock()
	if _, ok := s.transitionLocked(StateConnecting); !ok {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("live: cannot start session in state %s", state)
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.processor = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.recorder.RecordSessionStart()
	s.logger.Info("live session connecting", "model", s.cfg.Model)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.deps.Capture.Start(gctx, s.onChunk)
	})
	g.Go(func() error {
		_, err := s.deps.Connector.Connect(gctx, s.cfg, wireHandler{s})
		return err
	})

	if err := g.Wait(); err != nil {
		if s.State() == StateClosed {
			return fmt.Errorf("%w: %w", ErrStoppedWhileConnecting, err)
		}
		s.fail(err)
		return err
	}

	// Stop or a wire failure can land after both halves succeeded.
	switch s.State() {
	case StateClosed:
		return ErrStoppedWhileConnecting
	case StateErrored:
		return s.Err()
	}
	return nil
}

// Stop ends the session. It is idempotent and safe to call from any
// goroutine, including while Start is still connecting.
func (s *Session) Stop() error {
	s.mu.Lock()
	from, ok := s.transitionLocked(StateClosed)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	s.teardown()
	if from != StateErrored {
		s.emit(&ClosedEvent{Reason: "stopped"})
		s.markDone(StateClosed)
	}
	s.logger.Info("live session stopped", "from", from.String())
	return nil
}

// transitionLocked moves to next if the transition is allowed.
// The caller must hold s.mu.
func (s *Session) transitionLocked(next SessionState) (SessionState, bool) {
	from := s.state
	for _, allowed := range transitions[from] {
		if allowed == next {
			s.state = next
			s.emit(&StateChangedEvent{From: from, To: next})
			return from, true
		}
	}
	return from, false
}

func (s *Session) currentSender() (BlobSender, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen || s.conn == nil {
		return nil, false
	}
	return s.conn, true
}

func (s *Session) onChunk(chunk AudioChunk) {
	s.mu.Lock()
	attached := s.processor
	s.mu.Unlock()
	if !attached {
		return
	}
	s.uplink.Send(chunk)
}

func (s *Session) onOpen(conn Conn) {
	s.mu.Lock()
	if _, ok := s.transitionLocked(StateOpen); !ok {
		s.mu.Unlock()
		// Stopped or failed while the handshake was in flight.
		_ = conn.Close()
		return
	}
	s.conn = conn
	entry := s.transcript.Append(SpeakerSystem, ConnectedMessage)
	s.emit(&TranscriptEvent{Entry: entry})
	s.mu.Unlock()

	s.logger.Info("live session open")
}

func (s *Session) onMessage(msg ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen {
		return
	}

	for _, payload := range msg.Audio {
		startAt, duration, err := s.scheduler.Enqueue(payload)
		if err != nil {
			s.logger.Warn("dropping model audio", "error", err)
			s.emit(&WarningEvent{Err: err, Message: core.UserMessage(err)})
			continue
		}
		if duration > 0 {
			s.emit(&AudioScheduledEvent{StartAt: startAt, Duration: duration})
		}
	}

	if msg.Interrupted {
		stopped := s.scheduler.Interrupt()
		s.logger.Debug("model output interrupted", "stopped", stopped)
		s.emit(&InterruptedEvent{Stopped: stopped})
	}

	if msg.OutputTranscript != "" {
		s.emit(&TranscriptEvent{Entry: s.transcript.Append(SpeakerModel, msg.OutputTranscript)})
	}
	if msg.InputTranscript != "" {
		s.emit(&TranscriptEvent{Entry: s.transcript.Append(SpeakerUser, msg.InputTranscript)})
	}
	if msg.TurnComplete {
		s.emit(&TurnCompleteEvent{})
	}
}

func (s *Session) onClose(reason string) {
	s.mu.Lock()
	if s.state != StateOpen && s.state != StateConnecting {
		s.mu.Unlock()
		return
	}
	s.transitionLocked(StateClosed)
	s.mu.Unlock()

	s.teardown()
	s.logger.Info("live session closed by server", "reason", reason)
	s.emit(&ClosedEvent{Reason: reason})
	s.markDone(StateClosed)
}

// fail moves the session to StateErrored, releases every resource and then
// surfaces the error.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if _, ok := s.transitionLocked(StateErrored); !ok {
		s.mu.Unlock()
		return
	}
	s.err = err
	s.mu.Unlock()

	s.teardown()
	s.logger.Error("live session failed", "error", err)
	s.emit(&ErrorEvent{Err: err, Message: core.UserMessage(err)})
	s.markDone(StateErrored)
}

// teardown releases resources in order: wire, microphone, input graph,
// output graph, processor. It runs at most once.
func (s *Session) teardown() {
	s.teardownOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		conn := s.conn
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		s.release("wire", func() error {
			if conn == nil {
				return nil
			}
			return conn.Close()
		})
		s.release("microphone", s.deps.Capture.Stop)
		s.release("input graph", s.deps.Capture.Close)
		s.release("output graph", func() error {
			s.scheduler.flush()
			return s.deps.Output.Close()
		})

		s.mu.Lock()
		s.processor = false
		s.mu.Unlock()
	})
}

func (s *Session) release(name string, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("release failed", "resource", name, "error", err)
	}
}

func (s *Session) markDone(final SessionState) {
	s.doneOnce.Do(func() {
		s.mu.Lock()
		started := s.startedAt
		s.mu.Unlock()
		var d time.Duration
		if !started.IsZero() {
			d = time.Since(started)
		}
		s.recorder.RecordSessionEnd(final, d)
		close(s.done)
	})
}

// emit sends an event without blocking.
func (s *Session) emit(event Event) {
	select {
	case s.events <- event:
	default:
		// Channel full, drop event
	}
}

// wireHandler adapts Session to WireHandler without exporting the callbacks.
type wireHandler struct{ s *Session }

func (h wireHandler) OnOpen(conn Conn)            { h.s.onOpen(conn) }
func (h wireHandler) OnMessage(msg ServerMessage) { h.s.onMessage(msg) }
func (h wireHandler) OnError(err error)           { h.s.fail(err) }
func (h wireHandler) OnClose(reason string)       { h.s.onClose(reason) }
