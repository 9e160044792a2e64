package vai

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-go/vai-studio/pkg/core/credential"
	"github.com/vango-go/vai-studio/pkg/core/live"
	"github.com/vango-go/vai-studio/pkg/core/providers/gemini"
)

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithAPIKey uses a fixed Gemini API key.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.credentials = credential.NewStatic(key)
	}
}

// WithCredentialProvider sets where the API key comes from and how the
// user is asked for one.
func WithCredentialProvider(p credential.Provider) ClientOption {
	return func(c *Client) {
		c.credentials = p
	}
}

// WithStore sets the store for search history and the last image.
// The default keeps values in memory.
func WithStore(s KeyValueStore) ClientOption {
	return func(c *Client) {
		c.store = s
	}
}

// WithHTTPClient sets a custom HTTP client for REST calls and downloads.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithBaseURL overrides the Gemini REST endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithLiveURL overrides the Gemini Live websocket endpoint.
func WithLiveURL(url string) ClientOption {
	return func(c *Client) {
		c.liveURL = url
	}
}

// WithPollInterval sets how often a pending video is polled.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithLogger sets the logger for the client.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithTracer sets the OpenTelemetry tracer for the client.
func WithTracer(t trace.Tracer) ClientOption {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithRecorder sets the metrics sink. *metrics.Metrics satisfies Recorder.
func WithRecorder(r Recorder) ClientOption {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithLiveConfig sets the configuration for live sessions.
func WithLiveConfig(cfg live.SessionConfig) ClientOption {
	return func(c *Client) {
		c.liveConfig = cfg
	}
}

// WithDevices replaces the microphone and speaker used by live sessions.
func WithDevices(d DeviceFactory) ClientOption {
	return func(c *Client) {
		c.devices = d
	}
}

// WithGeminiOptions passes extra options to the Gemini provider.
func WithGeminiOptions(opts ...gemini.Option) ClientOption {
	return func(c *Client) {
		c.geminiOpts = append(c.geminiOpts, opts...)
	}
}
