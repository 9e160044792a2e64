package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrSessionActive is returned when a session is started while another is
// still idle, connecting or open.
var ErrSessionActive = errors.New("live: a session is already active")

// Controller enforces that at most one Session is live at a time.
type Controller struct {
	mu            sync.Mutex
	current       *Session
	starting      bool
	stopRequested bool
	cancelBuild   context.CancelFunc
	newSession    func(context.Context) (*Session, error)
}

// NewController creates a controller that builds sessions with factory.
// The factory is called once per Start, without the controller lock held,
// and must return a fresh Session with its own capture source. Its context
// is cancelled if Stop is called while it runs.
func NewController(factory func(context.Context) (*Session, error)) *Controller {
	return &Controller{newSession: factory}
}

// Start creates and starts a new session. It fails with ErrSessionActive
// if the previous session has not finished or another Start is still
// building one. A previous session that errored is closed first.
func (c *Controller) Start(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	if c.starting {
		c.mu.Unlock()
		return nil, ErrSessionActive
	}
	var errored *Session
	if prev := c.current; prev != nil {
		switch prev.State() {
		case StateClosed:
		case StateErrored:
			errored = prev
		default:
			c.mu.Unlock()
			return nil, ErrSessionActive
		}
	}
	buildCtx, cancel := context.WithCancel(ctx)
	c.starting = true
	c.stopRequested = false
	c.cancelBuild = cancel
	c.mu.Unlock()

	if errored != nil {
		_ = errored.Stop()
	}

	s, err := c.newSession(buildCtx)
	cancel()

	c.mu.Lock()
	c.starting = false
	c.cancelBuild = nil
	stopped := c.stopRequested
	if err != nil {
		c.mu.Unlock()
		if stopped {
			return nil, fmt.Errorf("%w: %w", ErrStoppedWhileConnecting, err)
		}
		return nil, err
	}
	c.current = s
	c.mu.Unlock()

	if stopped {
		_ = s.Stop()
		return s, ErrStoppedWhileConnecting
	}
	if err := s.Start(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Stop stops the current session, if any, or abandons a session that is
// still being built. It is idempotent.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.starting {
		c.stopRequested = true
		c.cancelBuild()
		c.mu.Unlock()
		return nil
	}
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Stop()
}

// Current returns the most recently started session, or nil.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
