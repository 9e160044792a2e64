package vai

import (
	"context"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/vango-go/vai-studio/pkg/core/live"
	"github.com/vango-go/vai-studio/pkg/core/providers/gemini"
	"github.com/vango-go/vai-studio/pkg/device"
)

type fakeModels struct {
	mu sync.Mutex

	contentResp *genai.GenerateContentResponse
	contentErr  error
	contentCall int

	videoOps  []*genai.GenerateVideosOperation
	videoErr  error
	videoCall int
	polls     int
}

func (f *fakeModels) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contentCall++
	return f.contentResp, f.contentErr
}

func (f *fakeModels) GenerateVideos(context.Context, string, string, *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoCall++
	if f.videoErr != nil {
		return nil, f.videoErr
	}
	return f.videoOps[0], nil
}

func (f *fakeModels) GetVideosOperation(context.Context, *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.polls >= len(f.videoOps) {
		return f.videoOps[len(f.videoOps)-1], nil
	}
	return f.videoOps[f.polls], nil
}

// scriptedCredentials hands out a key only after RequestCredential.
type scriptedCredentials struct {
	mu       sync.Mutex
	key      string
	next     string
	requests int
	forgets  int
}

func (s *scriptedCredentials) HasCredential(context.Context) bool { return s.APIKey() != "" }

func (s *scriptedCredentials) RequestCredential(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	s.key = s.next
	return nil
}

func (s *scriptedCredentials) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

func (s *scriptedCredentials) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgets++
	s.key = ""
}

type recordedGeneration struct {
	kind, model, status string
}

type fakeRecorder struct {
	live.NopRecorder

	mu          sync.Mutex
	generations []recordedGeneration
	errors      []string
}

func (r *fakeRecorder) RecordGeneration(kind, model, status string, _ time.Duration) {
	r.mu.Lock()
	r.generations = append(r.generations, recordedGeneration{kind, model, status})
	r.mu.Unlock()
}

func (r *fakeRecorder) RecordError(component, errorType string) {
	r.mu.Lock()
	r.errors = append(r.errors, component+":"+errorType)
	r.mu.Unlock()
}

func (r *fakeRecorder) Generations() []recordedGeneration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedGeneration(nil), r.generations...)
}

// fakeCapture is a silent microphone.
type fakeCapture struct {
	mu     sync.Mutex
	stops  int
	closes int
}

func (c *fakeCapture) Start(context.Context, func(live.AudioChunk)) error { return nil }
func (c *fakeCapture) SampleRate() int                                    { return 48000 }

func (c *fakeCapture) Stop() error {
	c.mu.Lock()
	c.stops++
	c.mu.Unlock()
	return nil
}

func (c *fakeCapture) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	return nil
}

type fakeDevices struct {
	mu       sync.Mutex
	captures []*fakeCapture
}

func (d *fakeDevices) OpenCapture() (live.CaptureSource, error) {
	c := &fakeCapture{}
	d.mu.Lock()
	d.captures = append(d.captures, c)
	d.mu.Unlock()
	return c, nil
}

func (d *fakeDevices) OpenPlayback() (PlaybackDevice, error) {
	return device.NewMixer(live.OutputSampleRate), nil
}

func newTestClient(t *testing.T, m *fakeModels, opts ...ClientOption) *Client {
	t.Helper()
	base := []ClientOption{
		WithAPIKey("test-key"),
		WithDevices(&fakeDevices{}),
		WithGeminiOptions(gemini.WithModels(m), gemini.WithPollInterval(time.Millisecond)),
	}
	return NewClient(append(base, opts...)...)
}

func TestClient_RebuildsProviderWhenKeyChanges(t *testing.T) {
	creds := &scriptedCredentials{key: "first"}
	c := newTestClient(t, &fakeModels{}, WithCredentialProvider(creds))

	p1, err := c.gemini(context.Background())
	if err != nil {
		t.Fatalf("gemini: %v", err)
	}
	p2, _ := c.gemini(context.Background())
	if p1 != p2 {
		t.Fatalf("provider rebuilt for the same key")
	}

	creds.mu.Lock()
	creds.key = "second"
	creds.mu.Unlock()
	p3, err := c.gemini(context.Background())
	if err != nil {
		t.Fatalf("gemini: %v", err)
	}
	if p3 == p1 || p3.APIKey() != "second" {
		t.Fatalf("provider not rebuilt for new key")
	}
}

func TestClient_MissingKey(t *testing.T) {
	c := newTestClient(t, &fakeModels{}, WithCredentialProvider(&scriptedCredentials{}))
	if _, err := c.gemini(context.Background()); err == nil {
		t.Fatalf("expected an error without a key")
	}
}
