package live

import "time"

// Recorder receives session measurements. pkg/metrics provides the
// Prometheus implementation.
type Recorder interface {
	RecordSessionStart()
	RecordSessionEnd(state SessionState, duration time.Duration)
	RecordUplink(outcome SendOutcome)
	RecordPlaybackScheduled(duration float64)
	RecordInterruption()
}

// NopRecorder discards all measurements.
type NopRecorder struct{}

func (NopRecorder) RecordSessionStart()                          {}
func (NopRecorder) RecordSessionEnd(SessionState, time.Duration) {}
func (NopRecorder) RecordUplink(SendOutcome)                     {}
func (NopRecorder) RecordPlaybackScheduled(float64)              {}
func (NopRecorder) RecordInterruption()                          {}
