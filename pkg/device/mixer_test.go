package device

import (
	"encoding/binary"
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func render(t *testing.T, m *Mixer, frames int) []float32 {
	t.Helper()
	buf := make([]byte, frames*4)
	n, err := m.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != frames*4 {
		t.Fatalf("Read = %d bytes, want %d", n, frames*4)
	}
	out := make([]float32, frames)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func ones(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestMixer_ClockAdvancesWithRendering(t *testing.T) {
	m := NewMixer(1000)
	if m.Now() != 0 {
		t.Fatalf("Now = %v, want 0", m.Now())
	}
	render(t, m, 250)
	if m.Now() != 0.25 {
		t.Fatalf("Now = %v, want 0.25", m.Now())
	}
}

func TestMixer_PlacesBuffersAtStartTime(t *testing.T) {
	m := NewMixer(1000)
	if _, err := m.Schedule(ones(3, 0.5), 0.002, nil); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	got := render(t, m, 6)
	want := []float32{0, 0, 0.5, 0.5, 0.5, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame %d = %v, want %v (all %v)", i, got[i], want[i], got)
		}
	}
}

func TestMixer_PastStartPlaysImmediately(t *testing.T) {
	m := NewMixer(1000)
	render(t, m, 10)
	m.Schedule(ones(2, 0.25), 0, nil)
	got := render(t, m, 3)
	if got[0] != 0.25 || got[1] != 0.25 || got[2] != 0 {
		t.Fatalf("rendered %v", got)
	}
}

func TestMixer_SumsAndClamps(t *testing.T) {
	m := NewMixer(1000)
	m.Schedule(ones(2, 0.75), 0, nil)
	m.Schedule(ones(2, 0.75), 0, nil)
	got := render(t, m, 2)
	if got[0] != 1 || got[1] != 1 {
		t.Fatalf("rendered %v, want clamped to 1", got)
	}
}

func TestMixer_OnEndedFiresOnceAfterLastFrame(t *testing.T) {
	m := NewMixer(1000)
	var ended atomic.Int32
	m.Schedule(ones(4, 0.1), 0, func() { ended.Add(1) })

	render(t, m, 3)
	if ended.Load() != 0 {
		t.Fatalf("onEnded fired before the last frame")
	}
	render(t, m, 1)
	render(t, m, 10)
	if ended.Load() != 1 {
		t.Fatalf("onEnded fired %d times, want 1", ended.Load())
	}
	if m.Active() != 0 {
		t.Fatalf("Active = %d, want 0", m.Active())
	}
}

func TestMixer_StopSilencesWithoutOnEnded(t *testing.T) {
	m := NewMixer(1000)
	var ended atomic.Int32
	src, _ := m.Schedule(ones(10, 0.5), 0, func() { ended.Add(1) })

	render(t, m, 2)
	src.Stop()
	src.Stop()
	got := render(t, m, 20)
	for i, v := range got {
		if v != 0 {
			t.Fatalf("frame %d = %v after Stop", i, v)
		}
	}
	if ended.Load() != 0 {
		t.Fatalf("onEnded fired after Stop")
	}
}

func TestMixer_OnEndedMayReenter(t *testing.T) {
	m := NewMixer(1000)
	m.Schedule(ones(1, 0.1), 0, func() {
		// Schedulers take their own locks and query the clock here.
		_ = m.Now()
		_, _ = m.Schedule(ones(1, 0.2), m.Now(), nil)
	})
	render(t, m, 1)
	if got := render(t, m, 1); got[0] != 0.2 {
		t.Fatalf("re-entrant schedule rendered %v", got)
	}
}

func TestMixer_CloseRejectsScheduling(t *testing.T) {
	m := NewMixer(1000)
	var ended atomic.Int32
	m.Schedule(ones(5, 0.5), 0, func() { ended.Add(1) })
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := m.Schedule(ones(1, 1), 0, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("Schedule after Close err = %v, want ErrClosed", err)
	}
	render(t, m, 10)
	if ended.Load() != 0 {
		t.Fatalf("onEnded fired for a voice dropped by Close")
	}
}

func TestMixer_PartialFrameIgnored(t *testing.T) {
	m := NewMixer(1000)
	n, err := m.Read(make([]byte, 6))
	if err != nil || n != 4 {
		t.Fatalf("Read(6) = %d, %v; want 4, nil", n, err)
	}
}
