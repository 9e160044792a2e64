package device

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/live"
)

const (
	// DefaultCaptureRate is requested from the capture device; miniaudio
	// converts from the hardware rate.
	DefaultCaptureRate = 48000
)

// MicrophoneOption configures a Microphone.
type MicrophoneOption func(*Microphone)

// WithCaptureRate sets the capture sample rate.
func WithCaptureRate(rate int) MicrophoneOption {
	return func(m *Microphone) {
		if rate > 0 {
			m.rate = rate
		}
	}
}

// WithChunkSize sets the number of frames delivered per chunk.
func WithChunkSize(frames int) MicrophoneOption {
	return func(m *Microphone) {
		if frames > 0 {
			m.chunkSize = frames
		}
	}
}

// WithMicrophoneLogger sets the logger.
func WithMicrophoneLogger(l *slog.Logger) MicrophoneOption {
	return func(m *Microphone) {
		if l != nil {
			m.logger = l
		}
	}
}

// Microphone is a malgo capture device. It is single-use: once closed it
// cannot be started again.
type Microphone struct {
	rate      int
	chunkSize int
	logger    *slog.Logger

	mu      sync.Mutex
	mctx    *malgo.AllocatedContext
	device  *malgo.Device
	chunker *chunker
	onChunk func(live.AudioChunk)
	running bool
	closed  bool
}

var _ live.CaptureSource = (*Microphone)(nil)

// NewMicrophone creates an unopened microphone.
func NewMicrophone(opts ...MicrophoneOption) *Microphone {
	m := &Microphone{
		rate:      DefaultCaptureRate,
		chunkSize: live.DefaultChunkSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SampleRate returns the rate chunks are delivered at.
func (m *Microphone) SampleRate() int { return m.rate }

// Start opens the default capture device and begins delivering chunks.
func (m *Microphone) Start(ctx context.Context, onChunk func(live.AudioChunk)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return core.NewDeviceUnavailableError("microphone was already released")
	}
	if m.running {
		return nil
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return core.NewDeviceUnavailableError(fmt.Sprintf("init audio backend: %v", err))
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(m.rate)

	m.chunker = newChunker(m.chunkSize)
	m.onChunk = onChunk
	device, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{Data: m.onData})
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return captureError("open microphone", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		return captureError("start microphone", err)
	}

	m.mctx, m.device, m.running = mctx, device, true
	m.logger.Debug("microphone started", "sample_rate", m.rate, "chunk_size", m.chunkSize)
	return nil
}

// onData runs on the miniaudio thread.
func (m *Microphone) onData(_, input []byte, _ uint32) {
	samples := bytesToFloat32(input)

	m.mu.Lock()
	if !m.running || m.chunker == nil {
		m.mu.Unlock()
		return
	}
	chunks := m.chunker.push(samples)
	cb := m.onChunk
	m.mu.Unlock()

	for _, c := range chunks {
		cb(live.AudioChunk{Samples: c, SampleRate: m.rate})
	}
}

// Stop stops capturing. Buffered partial chunks are discarded.
func (m *Microphone) Stop() error {
	m.mu.Lock()
	device := m.device
	wasRunning := m.running
	m.running = false
	m.mu.Unlock()

	if !wasRunning || device == nil {
		return nil
	}
	if err := device.Stop(); err != nil {
		return fmt.Errorf("stop microphone: %w", err)
	}
	return nil
}

// Close releases the device and the audio backend. It is idempotent.
func (m *Microphone) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.running = false
	device, mctx := m.device, m.mctx
	m.device, m.mctx, m.chunker = nil, nil, nil
	m.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
	if mctx != nil {
		if err := mctx.Uninit(); err != nil {
			mctx.Free()
			return fmt.Errorf("release audio backend: %w", err)
		}
		mctx.Free()
	}
	return nil
}

// captureError classifies a device failure as denied or unavailable.
func captureError(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "denied") || strings.Contains(msg, "access") {
		return core.NewDeviceDeniedError(fmt.Sprintf("%s: %v", op, err))
	}
	return core.NewDeviceUnavailableError(fmt.Sprintf("%s: %v", op, err))
}

// chunker regroups device callbacks into fixed-size chunks.
type chunker struct {
	size int
	buf  []float32
}

func newChunker(size int) *chunker {
	return &chunker{size: size, buf: make([]float32, 0, size)}
}

func (c *chunker) push(samples []float32) [][]float32 {
	var out [][]float32
	for len(samples) > 0 {
		n := min(c.size-len(c.buf), len(samples))
		c.buf = append(c.buf, samples[:n]...)
		samples = samples[n:]
		if len(c.buf) == c.size {
			out = append(out, c.buf)
			c.buf = make([]float32, 0, c.size)
		}
	}
	return out
}

// bytesToFloat32 decodes little-endian float32 samples. A trailing partial
// sample is ignored.
func bytesToFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
