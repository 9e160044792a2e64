package live

import "context"

// CaptureSource is an exclusive microphone input.
//
// Start begins pushing fixed-size chunks at the device's native rate to
// onChunk, from a device goroutine. Stop halts the stream (the media
// tracks) and Close releases the input graph. Both are synchronous and
// idempotent. A stopped source cannot be restarted.
type CaptureSource interface {
	Start(ctx context.Context, onChunk func(AudioChunk)) error
	SampleRate() int
	Stop() error
	Close() error
}

// ServerMessage is one decoded inbound frame from the wire.
type ServerMessage struct {
	// Audio holds PCM16LE payloads at OutputSampleRate in arrival order.
	Audio [][]byte

	Interrupted      bool
	InputTranscript  string
	OutputTranscript string
	TurnComplete     bool
}

// WireHandler receives wire callbacks. Implementations must not block.
type WireHandler interface {
	// OnOpen is called once the handshake completed, before any OnMessage.
	OnOpen(conn Conn)
	OnMessage(msg ServerMessage)
	// OnError is called once for a failure after the handshake.
	OnError(err error)
	// OnClose is called once when the server closes the connection cleanly.
	OnClose(reason string)
}

// Conn is an open wire connection.
type Conn interface {
	SendRealtimeInput(blob Blob) error
	// Close is idempotent and does not invoke handler callbacks.
	Close() error
}

// Connector dials the bidirectional audio endpoint.
type Connector interface {
	// Connect blocks until the handshake completes or fails. On success
	// it has already called h.OnOpen with the returned Conn.
	Connect(ctx context.Context, cfg SessionConfig, h WireHandler) (Conn, error)
}
