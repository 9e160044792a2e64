// Package device connects live sessions to local audio hardware.
//
// Microphone captures mono float32 audio through miniaudio (malgo) and
// delivers it in fixed-size chunks. Speaker plays scheduled buffers through
// oto; its Mixer keeps a sample-accurate timeline that doubles as the
// playback clock, so a Speaker satisfies both live.Output and live.Clock.
package device
