// Package live implements the client side of a real-time voice conversation
// with a bidirectional audio model.
//
// A Session captures microphone audio, resamples it to the wire input rate,
// streams it over a wire connection, and schedules the audio returned by the
// model for gapless playback. Interruptions from the server flush playback
// immediately.
//
// # Architecture
//
//   - CaptureSource: pushes fixed-size chunks at the device's native rate
//   - Resample: nearest-neighbour rate conversion to 16 kHz
//   - Uplink: encodes chunks as PCM16 blobs and sends them only while Open
//   - Session: owns the connection lifecycle and every resource it acquires
//   - Scheduler: places decoded 24 kHz buffers back to back on the output clock
//   - Transcript: append-only log of system, user and model lines
//
// # Data Flow
//
//	Capture → Resample → Uplink → (wire) → Session → Scheduler → Output
//	                                          │
//	                                          └── Transcript
//
// # State Machine
//
//	IDLE → CONNECTING → OPEN → CLOSED
//	           │          │
//	           └──────────┴──→ ERRORED → CLOSED
//
// Interruption is an event, not a state: it stops every playing buffer and
// rewinds the playback cursor to zero while the session stays OPEN.
//
// # Usage
//
//	session := live.NewSession(live.DefaultSessionConfig(), live.Dependencies{
//	    Connector: geminiLive,
//	    Capture:   mic,
//	    Output:    speaker,
//	    Clock:     speaker,
//	})
//	if err := session.Start(ctx); err != nil {
//	    fmt.Println(core.UserMessage(err))
//	    return
//	}
//	defer session.Stop()
//
//	for {
//	    select {
//	    case ev := <-session.Events():
//	        if t, ok := ev.(*live.TranscriptEvent); ok {
//	            fmt.Println(t.Entry)
//	        }
//	    case <-session.Done():
//	        return
//	    }
//	}
package live
