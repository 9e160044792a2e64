// Package vai is the Go client for the studio: grounded web search, image
// and video generation, and live voice conversations against the Gemini API.
//
// The client runs in-process and calls the Gemini API directly.
package vai

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/credential"
	"github.com/vango-go/vai-studio/pkg/core/live"
	"github.com/vango-go/vai-studio/pkg/core/providers/gemini"
)

// Client is the main entry point for the SDK.
type Client struct {
	Search *SearchService
	Images *ImageService
	Videos *VideoService
	Live   *LiveService

	credentials  credential.Provider
	gate         *credential.Gate
	store        KeyValueStore
	logger       *slog.Logger
	tracer       trace.Tracer
	recorder     Recorder
	httpClient   *http.Client
	baseURL      string
	liveURL      string
	pollInterval time.Duration
	geminiOpts   []gemini.Option
	liveConfig   live.SessionConfig
	devices      DeviceFactory

	mu          sync.Mutex
	provider    *gemini.Provider
	providerKey string
}

// NewClient creates a new client. The Gemini API key is read from the
// environment (GEMINI_API_KEY, GOOGLE_API_KEY or API_KEY) unless WithAPIKey
// or WithCredentialProvider is given.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		logger:     slog.Default(),
		tracer:     noop.NewTracerProvider().Tracer("vai"),
		recorder:   nopRecorder{},
		httpClient: &http.Client{},
		liveConfig: live.DefaultSessionConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.credentials == nil {
		c.credentials = credential.NewEnv()
	}
	if c.store == nil {
		c.store = newMemoryStore()
	}
	if c.devices == nil {
		c.devices = systemDevices{logger: c.logger}
	}
	if c.liveConfig.Logger == nil {
		c.liveConfig.Logger = c.logger
	}
	c.gate = credential.NewGate(c.credentials)

	c.Search = &SearchService{client: c, history: NewHistory(c.store)}
	c.Images = &ImageService{client: c, last: NewLastImage(c.store)}
	c.Videos = &VideoService{client: c}
	c.Live = newLiveService(c)
	return c
}

// Credentials returns the gate that guards paid-key operations.
func (c *Client) Credentials() *credential.Gate { return c.gate }

// Store returns the key-value store used for history and the last image.
func (c *Client) Store() KeyValueStore { return c.store }

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// gemini returns a provider for the current API key, rebuilding it when
// the key changes.
func (c *Client) gemini(ctx context.Context) (*gemini.Provider, error) {
	key := c.credentials.APIKey()
	if key == "" {
		return nil, core.NewQuotaOrAuthError("no Gemini API key configured", 0)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil && c.providerKey == key {
		return c.provider, nil
	}

	opts := []gemini.Option{
		gemini.WithHTTPClient(c.httpClient),
		gemini.WithLogger(c.logger),
	}
	if c.baseURL != "" {
		opts = append(opts, gemini.WithBaseURL(c.baseURL))
	}
	if c.liveURL != "" {
		opts = append(opts, gemini.WithLiveURL(c.liveURL))
	}
	if c.pollInterval > 0 {
		opts = append(opts, gemini.WithPollInterval(c.pollInterval))
	}
	opts = append(opts, c.geminiOpts...)

	p, err := gemini.New(ctx, key, opts...)
	if err != nil {
		return nil, err
	}
	c.provider = p
	c.providerKey = key
	return p, nil
}
