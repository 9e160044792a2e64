package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/vango-go/vai-studio/internal/config"
	"github.com/vango-go/vai-studio/pkg/core/live"
	vai "github.com/vango-go/vai-studio/sdk"
)

func (a *app) runVoice(ctx context.Context, args []string) error {
	fs := newFlagSet(a, "voice")
	voice := fs.String("voice", a.cfg.Live.Voice, "prebuilt voice name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := a.cfg.Validate(config.NeedAPIKey); err != nil {
		return err
	}
	a.cfg.Live.Voice = *voice

	client, err := a.client()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stderr, "Connecting... press Ctrl+C to hang up.")
	session, err := client.Live.Start(ctx)
	if err != nil {
		if errors.Is(err, vai.ErrSessionActive) {
			return errors.New("a voice session is already running")
		}
		if errors.Is(err, vai.ErrStoppedWhileConnecting) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer client.Live.Stop()

	return a.printSession(ctx, session)
}

// printSession prints transcript lines until the session ends or ctx is
// cancelled.
func (a *app) printSession(ctx context.Context, s *live.Session) error {
	for {
		select {
		case <-ctx.Done():
			_ = s.Stop()
			a.drainEvents(s)
			return nil
		case ev := <-s.Events():
			a.printEvent(ev)
		case <-s.Done():
			a.drainEvents(s)
			return s.Err()
		}
	}
}

func (a *app) drainEvents(s *live.Session) {
	for {
		select {
		case ev := <-s.Events():
			a.printEvent(ev)
		default:
			return
		}
	}
}

func (a *app) printEvent(ev live.Event) {
	switch e := ev.(type) {
	case *live.TranscriptEvent:
		fmt.Fprintln(a.stdout, e.Entry.String())
	case *live.InterruptedEvent:
		a.logger.Debug("model interrupted", "stopped", e.Stopped)
	case *live.WarningEvent:
		a.logger.Warn(e.Message, "error", e.Err)
	case *live.ClosedEvent:
		fmt.Fprintf(a.stderr, "Session closed: %s\n", e.Reason)
	case *live.StateChangedEvent:
		a.logger.Debug("session state", "from", e.From.String(), "to", e.To.String())
	}
}
