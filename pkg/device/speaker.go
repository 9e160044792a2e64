package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/live"
)

// oto allows one context per process; every Speaker shares it.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoErr  error
)

func sharedContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
			BufferSize:   50 * time.Millisecond,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx, otoRate = ctx, sampleRate
	})
	if otoErr != nil {
		return nil, core.NewDeviceUnavailableError(fmt.Sprintf("open audio output: %v", otoErr))
	}
	if otoRate != sampleRate {
		return nil, core.NewDeviceUnavailableError(fmt.Sprintf("audio output already opened at %d Hz", otoRate))
	}
	return otoCtx, nil
}

// Speaker is one session's output graph: a Mixer rendered by an oto player.
type Speaker struct {
	mixer  *Mixer
	player *oto.Player

	closeOnce sync.Once
}

var (
	_ live.Output = (*Speaker)(nil)
	_ live.Clock  = (*Speaker)(nil)
)

// OpenSpeaker starts a player at sampleRate (24 kHz if zero).
func OpenSpeaker(sampleRate int) (*Speaker, error) {
	if sampleRate <= 0 {
		sampleRate = live.OutputSampleRate
	}
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	mixer := NewMixer(sampleRate)
	player := ctx.NewPlayer(mixer)
	player.Play()
	return &Speaker{mixer: mixer, player: player}, nil
}

// Now returns the playback clock in seconds.
func (s *Speaker) Now() float64 { return s.mixer.Now() }

// Schedule places samples on the timeline.
func (s *Speaker) Schedule(samples []float32, startAt float64, onEnded func()) (live.PlaybackSource, error) {
	return s.mixer.Schedule(samples, startAt, onEnded)
}

// Close silences the speaker and releases its player. The shared oto
// context stays open for the next session.
func (s *Speaker) Close() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.mixer.Close()
		s.player.Pause()
		err = s.player.Close()
	})
	return err
}
