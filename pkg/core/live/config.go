package live

import "log/slog"

// SessionState represents the lifecycle state of a live session.
type SessionState int

const (
	// StateIdle is the initial state before Start.
	StateIdle SessionState = iota
	// StateConnecting is while the microphone and wire are being acquired.
	StateConnecting
	// StateOpen is after the wire handshake completed.
	StateOpen
	// StateClosed is terminal: the session was stopped or closed by the server.
	StateClosed
	// StateErrored means the session failed and released its resources.
	// Only Stop moves it on, to StateClosed.
	StateErrored
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	case StateErrored:
		return "ERRORED"
	default:
		return "UNKNOWN"
	}
}

// Live reports whether the state holds (or is acquiring) session resources.
func (s SessionState) Live() bool {
	return s == StateConnecting || s == StateOpen
}

const (
	// InputSampleRate is the rate the wire expects for uplink audio.
	InputSampleRate = 16000
	// OutputSampleRate is the rate of audio returned by the model.
	OutputSampleRate = 24000
	// DefaultChunkSize is the number of samples per captured chunk.
	DefaultChunkSize = 4096

	DefaultModel             = "gemini-2.5-flash-native-audio-preview-12-2025"
	DefaultVoice             = "Puck"
	DefaultSystemInstruction = "You are a helpful AI assistant. Keep responses short and conversational."

	// ConnectedMessage is the system transcript line written when a session opens.
	ConnectedMessage = "Connection established. Start speaking!"
)

// SessionConfig holds all configuration for a live session.
type SessionConfig struct {
	// Model is the native-audio model to converse with.
	Model string `json:"model" yaml:"model"`

	// Voice is the prebuilt voice name used for responses.
	Voice string `json:"voice" yaml:"voice"`

	// SystemInstruction is sent once in the session setup.
	SystemInstruction string `json:"system_instruction" yaml:"system_instruction"`

	// InputTranscription and OutputTranscription request transcripts of
	// the user's and the model's speech.
	InputTranscription  bool `json:"input_transcription" yaml:"input_transcription"`
	OutputTranscription bool `json:"output_transcription" yaml:"output_transcription"`

	// EventBuffer is the capacity of the Events channel. Default: 256.
	EventBuffer int `json:"event_buffer" yaml:"event_buffer"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

// DefaultSessionConfig returns a SessionConfig with the standard voice defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Model:               DefaultModel,
		Voice:               DefaultVoice,
		SystemInstruction:   DefaultSystemInstruction,
		InputTranscription:  true,
		OutputTranscription: true,
		EventBuffer:         256,
	}
}

func (c SessionConfig) withDefaults() SessionConfig {
	d := DefaultSessionConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.Voice == "" {
		c.Voice = d.Voice
	}
	if c.SystemInstruction == "" {
		c.SystemInstruction = d.SystemInstruction
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = d.EventBuffer
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// AudioConfig specifies audio format parameters.
type AudioConfig struct {
	// SampleRate in Hz. Common values: 16000, 24000, 44100, 48000.
	SampleRate int `json:"sample_rate"`

	// Channels: 1 for mono, 2 for stereo.
	Channels int `json:"channels"`

	// BitsPerSample: 16 for the wire PCM format.
	BitsPerSample int `json:"bits_per_sample"`
}

// OutputAudioConfig is the format of model audio payloads.
func OutputAudioConfig() AudioConfig {
	return AudioConfig{SampleRate: OutputSampleRate, Channels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the audio byte rate.
func (c AudioConfig) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// Duration returns the playback length in seconds of n frames.
func (c AudioConfig) Duration(frames int) float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(frames) / float64(c.SampleRate)
}

// DurationMs returns the duration in milliseconds for the given byte count.
func (c AudioConfig) DurationMs(bytes int) int {
	if c.BytesPerSecond() == 0 {
		return 0
	}
	return (bytes * 1000) / c.BytesPerSecond()
}
