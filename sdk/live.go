package vai

import (
	"context"
	"log/slog"

	"github.com/vango-go/vai-studio/pkg/core/live"
	"github.com/vango-go/vai-studio/pkg/device"
)

// PlaybackDevice is an output timeline with its own clock.
type PlaybackDevice interface {
	live.Output
	live.Clock
}

// DeviceFactory opens fresh audio devices for each live session.
type DeviceFactory interface {
	OpenCapture() (live.CaptureSource, error)
	OpenPlayback() (PlaybackDevice, error)
}

// systemDevices uses the default microphone and speaker.
type systemDevices struct {
	logger *slog.Logger
}

func (d systemDevices) OpenCapture() (live.CaptureSource, error) {
	return device.NewMicrophone(device.WithMicrophoneLogger(d.logger)), nil
}

func (d systemDevices) OpenPlayback() (PlaybackDevice, error) {
	return device.OpenSpeaker(live.OutputSampleRate)
}

// LiveService runs voice conversations. Only one session is active at a
// time; Start fails with ErrSessionActive while another is live.
type LiveService struct {
	client     *Client
	controller *live.Controller
}

func newLiveService(c *Client) *LiveService {
	s := &LiveService{client: c}
	s.controller = live.NewController(s.newSession)
	return s
}

// Start opens the microphone and the connection concurrently and returns
// the running session. Read its Events until Done is closed.
func (s *LiveService) Start(ctx context.Context) (*live.Session, error) {
	return s.controller.Start(ctx)
}

// Stop ends the current session. It is idempotent.
func (s *LiveService) Stop() error {
	return s.controller.Stop()
}

// Current returns the most recent session, or nil.
func (s *LiveService) Current() *live.Session {
	return s.controller.Current()
}

func (s *LiveService) newSession(ctx context.Context) (*live.Session, error) {
	c := s.client
	p, err := c.gemini(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	capture, err := c.devices.OpenCapture()
	if err != nil {
		return nil, err
	}
	playback, err := c.devices.OpenPlayback()
	if err != nil {
		_ = capture.Close()
		return nil, err
	}
	return live.NewSession(c.liveConfig, live.Dependencies{
		Connector: tracedConnector{client: c, inner: p},
		Capture:   capture,
		Output:    playback,
		Clock:     playback,
		Recorder:  c.recorder,
	}), nil
}

// tracedConnector wraps the dial and handshake in a vai.live.connect span.
type tracedConnector struct {
	client *Client
	inner  live.Connector
}

func (t tracedConnector) Connect(ctx context.Context, cfg live.SessionConfig, h live.WireHandler) (live.Conn, error) {
	var conn live.Conn
	err := t.client.observe(ctx, "live.connect", cfg.Model, func(ctx context.Context) error {
		var err error
		conn, err = t.inner.Connect(ctx, cfg, h)
		return err
	})
	return conn, err
}
