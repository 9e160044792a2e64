package live

// SendOutcome reports what happened to one captured chunk.
type SendOutcome int

const (
	// Sent means the chunk was encoded and handed to the wire.
	Sent SendOutcome = iota
	// DroppedNotOpen means the session was not Open; the chunk was discarded.
	DroppedNotOpen
	// DroppedSendFailed means the wire rejected the write; the chunk was discarded.
	DroppedSendFailed
)

func (o SendOutcome) String() string {
	switch o {
	case Sent:
		return "sent"
	case DroppedNotOpen:
		return "dropped_not_open"
	case DroppedSendFailed:
		return "dropped_send_failed"
	default:
		return "unknown"
	}
}

// BlobSender is the part of a Conn the uplink writes to.
type BlobSender interface {
	SendRealtimeInput(blob Blob) error
}

// Uplink resamples, encodes and sends captured chunks. It never buffers or
// retries: a chunk that cannot be sent right now is dropped.
type Uplink struct {
	target   func() (BlobSender, bool)
	recorder Recorder
}

// NewUplink creates an uplink that asks target for the current sender.
// target reports false whenever the session is not Open.
func NewUplink(target func() (BlobSender, bool), recorder Recorder) *Uplink {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Uplink{target: target, recorder: recorder}
}

// Send delivers one chunk at most once.
func (u *Uplink) Send(chunk AudioChunk) SendOutcome {
	outcome := u.send(chunk)
	u.recorder.RecordUplink(outcome)
	return outcome
}

func (u *Uplink) send(chunk AudioChunk) SendOutcome {
	sender, open := u.target()
	if !open || sender == nil {
		return DroppedNotOpen
	}
	samples := Resample(chunk.Samples, chunk.SampleRate, InputSampleRate)
	if err := sender.SendRealtimeInput(EncodeBlob(samples)); err != nil {
		return DroppedSendFailed
	}
	return Sent
}
