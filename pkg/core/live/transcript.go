package live

import (
	"sync"
	"time"
)

// Speaker tags a transcript entry.
type Speaker int

const (
	SpeakerSystem Speaker = iota
	SpeakerUser
	SpeakerModel
)

// Prefix returns the label shown before a transcript line.
func (s Speaker) Prefix() string {
	switch s {
	case SpeakerUser:
		return "You"
	case SpeakerModel:
		return "Gemini"
	default:
		return "System"
	}
}

// TranscriptEntry is one line of the conversation log.
type TranscriptEntry struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// String formats the entry the way it is displayed, e.g. "You: hello".
func (e TranscriptEntry) String() string {
	return e.Speaker.Prefix() + ": " + e.Text
}

// Transcript is an append-only, in-memory conversation log.
// Fragments are kept in arrival order and never merged or deduplicated.
type Transcript struct {
	mu      sync.Mutex
	entries []TranscriptEntry
	now     func() time.Time
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

// Append adds an entry and returns it.
func (t *Transcript) Append(speaker Speaker, text string) TranscriptEntry {
	e := TranscriptEntry{Speaker: speaker, Text: text, At: t.now()}
	t.mu.Lock()
	t.entries = append(t.entries, e)
	t.mu.Unlock()
	return e
}

// Entries returns a copy of all entries.
func (t *Transcript) Entries() []TranscriptEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TranscriptEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
