package live

// Event is the interface for all live session events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// StateChangedEvent is emitted on every lifecycle transition.
type StateChangedEvent struct {
	From SessionState `json:"from"`
	To   SessionState `json:"to"`
}

func (e *StateChangedEvent) EventType() string { return "state.changed" }

// TranscriptEvent carries a newly appended transcript entry.
type TranscriptEvent struct {
	Entry TranscriptEntry `json:"entry"`
}

func (e *TranscriptEvent) EventType() string { return "transcript" }

// AudioScheduledEvent is emitted when a model audio payload is placed on the timeline.
type AudioScheduledEvent struct {
	StartAt  float64 `json:"start_at"`
	Duration float64 `json:"duration"`
}

func (e *AudioScheduledEvent) EventType() string { return "audio.scheduled" }

// InterruptedEvent is emitted when the server interrupts model output.
type InterruptedEvent struct {
	Stopped int `json:"stopped"`
}

func (e *InterruptedEvent) EventType() string { return "interrupted" }

// TurnCompleteEvent marks the end of a model turn.
type TurnCompleteEvent struct{}

func (e *TurnCompleteEvent) EventType() string { return "turn.complete" }

// ErrorEvent is emitted after the session failed and tore down.
type ErrorEvent struct {
	Err     error  `json:"-"`
	Message string `json:"message"`
}

func (e *ErrorEvent) EventType() string { return "error" }

// ClosedEvent is emitted once when the session reaches StateClosed.
type ClosedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e *ClosedEvent) EventType() string { return "closed" }

// WarningEvent reports a recoverable problem, such as an undecodable
// audio payload, that does not end the session.
type WarningEvent struct {
	Err     error  `json:"-"`
	Message string `json:"message"`
}

func (e *WarningEvent) EventType() string { return "warning" }
