package gemini

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Option configures the Provider.
type Option func(*Provider)

// WithBaseURL sets the base URL for REST requests.
// Default: https://generativelanguage.googleapis.com/
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// WithLiveURL sets the Live websocket endpoint (without the key parameter).
func WithLiveURL(url string) Option {
	return func(p *Provider) {
		p.liveURL = url
	}
}

// WithHTTPClient sets the HTTP client for REST requests and video downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithDialer sets the websocket dialer used for Live sessions.
func WithDialer(d *websocket.Dialer) Option {
	return func(p *Provider) {
		if d != nil {
			p.dialer = d
		}
	}
}

// WithModels replaces the genai client. Used by tests and by callers that
// share one genai client.
func WithModels(m Models) Option {
	return func(p *Provider) {
		p.models = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPollInterval sets how often pending video operations are polled.
func WithPollInterval(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithConnectTimeout bounds the Live dial and setup handshake.
func WithConnectTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.connectTimeout = d
		}
	}
}

// WithWriteTimeout bounds each realtime input write on a Live session.
func WithWriteTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.writeTimeout = d
		}
	}
}
