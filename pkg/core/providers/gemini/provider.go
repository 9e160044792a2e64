// Package gemini implements the Google Gemini API provider.
// Search, image and video generation go through the genai SDK; the Live
// voice API is spoken directly over a websocket.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/genai"

	"github.com/vango-go/vai-studio/pkg/core"
)

const (
	// DefaultBaseURL is the default Gemini REST endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/"

	// DefaultLiveURL is the Gemini Live websocket endpoint; the API key is
	// appended as the key query parameter.
	DefaultLiveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultAPIVersion is the REST API version used by the genai client.
	DefaultAPIVersion = "v1beta"

	// DefaultConnectTimeout bounds the Live dial and setup handshake.
	DefaultConnectTimeout = 15 * time.Second

	// DefaultWriteTimeout bounds one realtime input write. A write that
	// cannot finish in time fails and the chunk is dropped.
	DefaultWriteTimeout = 500 * time.Millisecond

	// DefaultPollInterval is how often a pending video operation is polled.
	DefaultPollInterval = 10 * time.Second
)

// Models is the subset of the genai SDK the provider calls. It is satisfied
// by NewGenAIModels and by fakes in tests.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateVideos(ctx context.Context, model, prompt string, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
}

// Provider talks to the Gemini API with a single API key.
type Provider struct {
	apiKey         string
	baseURL        string
	liveURL        string
	httpClient     *http.Client
	dialer         *websocket.Dialer
	models         Models
	logger         *slog.Logger
	pollInterval   time.Duration
	connectTimeout time.Duration
	writeTimeout   time.Duration
}

// New creates a Gemini provider. Unless WithModels is given, a genai client
// is built for apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Provider, error) {
	p := &Provider{
		apiKey:         apiKey,
		baseURL:        DefaultBaseURL,
		liveURL:        DefaultLiveURL,
		httpClient:     &http.Client{},
		dialer:         websocket.DefaultDialer,
		logger:         slog.Default(),
		pollInterval:   DefaultPollInterval,
		connectTimeout: DefaultConnectTimeout,
		writeTimeout:   DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.models == nil {
		if p.apiKey == "" {
			return nil, core.NewInvalidRequestError("gemini: API key is required")
		}
		models, err := NewGenAIModels(ctx, &genai.ClientConfig{
			APIKey:     p.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: p.httpClient,
			HTTPOptions: genai.HTTPOptions{
				BaseURL:    p.baseURL,
				APIVersion: DefaultAPIVersion,
			},
		})
		if err != nil {
			return nil, err
		}
		p.models = models
	}
	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "gemini"
}

// APIKey returns the key the provider authenticates with.
func (p *Provider) APIKey() string {
	return p.apiKey
}

type genaiModels struct {
	client *genai.Client
}

// NewGenAIModels adapts a genai client to Models.
func NewGenAIModels(ctx context.Context, cfg *genai.ClientConfig) (Models, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &genaiModels{client: client}, nil
}

func (m *genaiModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.client.Models.GenerateContent(ctx, model, contents, config)
}

func (m *genaiModels) GenerateVideos(ctx context.Context, model, prompt string, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return m.client.Models.GenerateVideos(ctx, model, prompt, nil, config)
}

func (m *genaiModels) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return m.client.Operations.GetVideosOperation(ctx, op, nil)
}
