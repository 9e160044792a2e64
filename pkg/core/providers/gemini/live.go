package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/live"
)

// Connect dials the Live API, sends the setup frame and waits for
// setupComplete. On success h.OnOpen runs before any server message is
// delivered, and the returned connection is already reading.
func (p *Provider) Connect(ctx context.Context, cfg live.SessionConfig, h live.WireHandler) (live.Conn, error) {
	if p.apiKey == "" {
		return nil, core.NewInvalidRequestError("gemini: API key is required for Live sessions")
	}
	endpoint, err := p.liveEndpoint()
	if err != nil {
		return nil, err
	}

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, p.connectTimeout)
		defer cancel()
	}

	ws, resp, err := p.dialer.DialContext(dialCtx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if ctxErr := dialCtx.Err(); ctxErr != nil && resp == nil {
			return nil, core.NewConnectionError("Live dial cancelled", ctxErr)
		}
		return nil, mapDialError(resp, err)
	}

	// Unblock the handshake read if the caller gives up.
	stop := context.AfterFunc(dialCtx, func() { _ = ws.Close() })
	err = p.handshake(ws, cfg)
	stopped := stop()
	if err != nil {
		_ = ws.Close()
		if !stopped {
			return nil, core.NewConnectionError("Live setup cancelled", dialCtx.Err())
		}
		return nil, err
	}
	if !stopped {
		_ = ws.Close()
		return nil, core.NewConnectionError("Live setup cancelled", dialCtx.Err())
	}

	c := &liveConn{
		ws:           ws,
		handler:      h,
		logger:       p.logger.With("model", cfg.Model),
		writeTimeout: p.writeTimeout,
		done:         make(chan struct{}),
	}
	h.OnOpen(c)
	go c.readLoop()
	return c, nil
}

func (p *Provider) liveEndpoint() (string, error) {
	u, err := url.Parse(p.liveURL)
	if err != nil {
		return "", core.NewInvalidRequestError(fmt.Sprintf("gemini: invalid Live URL %q: %v", p.liveURL, err))
	}
	q := u.Query()
	q.Set("key", p.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *Provider) handshake(ws *websocket.Conn, cfg live.SessionConfig) error {
	_ = ws.SetWriteDeadline(time.Now().Add(p.connectTimeout))
	if err := ws.WriteJSON(buildSetup(cfg)); err != nil {
		return core.NewConnectionError("send Live setup", err)
	}
	_ = ws.SetWriteDeadline(time.Time{})

	_ = ws.SetReadDeadline(time.Now().Add(p.connectTimeout))
	defer ws.SetReadDeadline(time.Time{})
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if mapped := mapCloseError(err); mapped != nil {
				return mapped
			}
			return core.NewConnectionError("Live API closed the connection during setup", err)
		}
		var msg liveServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return core.NewConnectionError("decode Live setup reply", err)
		}
		if msg.SetupComplete != nil {
			return nil
		}
		p.logger.Debug("ignoring Live frame before setupComplete")
	}
}

// liveConn is an open Live websocket.
type liveConn struct {
	ws           *websocket.Conn
	handler      live.WireHandler
	logger       *slog.Logger
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}
}

// SendRealtimeInput writes one mediaChunks frame. A peer that stops
// reading makes the write fail after the write timeout instead of blocking
// the capture callback.
func (c *liveConn) SendRealtimeInput(blob live.Blob) error {
	if c.closed.Load() {
		return errors.New("gemini: live connection is closed")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteJSON(liveClientMessage{
		RealtimeInput: &liveRealtimeInput{MediaChunks: []live.Blob{blob}},
	})
}

// Close sends a normal close frame and closes the socket. It does not wait
// for the read loop or for an in-flight write, and no handler callback
// fires after it.
func (c *liveConn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		// WriteControl may run concurrently with WriteJSON.
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(c.writeTimeout))
		_ = c.ws.Close()
	})
	return nil
}

func (c *liveConn) readLoop() {
	defer close(c.done)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			if mapped := mapCloseError(err); mapped != nil {
				c.handler.OnError(mapped)
				return
			}
			reason := "server closed the session"
			var ce *websocket.CloseError
			if errors.As(err, &ce) && strings.TrimSpace(ce.Text) != "" {
				reason = ce.Text
			}
			c.handler.OnClose(reason)
			return
		}

		var msg liveServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("dropping undecodable Live frame", "error", err)
			continue
		}
		if msg.GoAway != nil {
			c.logger.Warn("Live API is going away", "time_left", msg.GoAway.TimeLeft)
		}
		if msg.ServerContent == nil {
			continue
		}
		out, err := toServerMessage(msg.ServerContent)
		if err != nil {
			c.logger.Warn("skipping model audio", "error", err)
		}
		if c.closed.Load() {
			return
		}
		c.handler.OnMessage(out)
	}
}
