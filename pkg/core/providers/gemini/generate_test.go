package gemini

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

type fakeModels struct {
	mu sync.Mutex

	contentResp *genai.GenerateContentResponse
	contentErr  error
	lastModel   string
	lastConfig  *genai.GenerateContentConfig

	videoOps   []*genai.GenerateVideosOperation
	videoErr   error
	pollErr    error
	polls      int
	lastVideo  *genai.GenerateVideosConfig
	lastPrompt string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastModel = model
	f.lastConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.lastPrompt = contents[0].Parts[0].Text
	}
	return f.contentResp, f.contentErr
}

func (f *fakeModels) GenerateVideos(_ context.Context, model, prompt string, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastModel = model
	f.lastPrompt = prompt
	f.lastVideo = config
	if f.videoErr != nil {
		return nil, f.videoErr
	}
	return f.videoOps[0], nil
}

func (f *fakeModels) GetVideosOperation(_ context.Context, _ *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	f.polls++
	if f.polls >= len(f.videoOps) {
		return f.videoOps[len(f.videoOps)-1], nil
	}
	return f.videoOps[f.polls], nil
}

func newFakeProvider(t *testing.T, m *fakeModels, opts ...Option) *Provider {
	t.Helper()
	opts = append([]Option{WithModels(m), WithPollInterval(time.Millisecond)}, opts...)
	p, err := New(context.Background(), "test-key", opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNew_RequiresKeyWithoutModels(t *testing.T) {
	if _, err := New(context.Background(), ""); !core.IsType(err, core.ErrInvalidRequest) {
		t.Fatalf("err = %v, want invalid_request", err)
	}
}

func TestSearch_GroundedAnswer(t *testing.T) {
	m := &fakeModels{contentResp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: "It is sunny."}}},
			GroundingMetadata: &genai.GroundingMetadata{GroundingChunks: []*genai.GroundingChunk{
				{Web: &genai.GroundingChunkWeb{URI: "https://weather.example/a", Title: "Weather"}},
				{},
				{Web: &genai.GroundingChunkWeb{URI: "https://news.example/b"}},
			}},
		}},
	}}
	p := newFakeProvider(t, m)

	res, err := p.Search(context.Background(), "weather today")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if m.lastModel != SearchModel || m.lastPrompt != "weather today" {
		t.Fatalf("model=%q prompt=%q", m.lastModel, m.lastPrompt)
	}
	if len(m.lastConfig.Tools) != 1 || m.lastConfig.Tools[0].GoogleSearch == nil {
		t.Fatalf("google search tool not enabled: %+v", m.lastConfig.Tools)
	}
	if res.Text != "It is sunny." {
		t.Fatalf("Text = %q", res.Text)
	}
	want := []types.Source{
		{URI: "https://weather.example/a", Title: "Weather"},
		{URI: "https://news.example/b", Title: "https://news.example/b"},
	}
	if len(res.Sources) != len(want) {
		t.Fatalf("Sources = %+v", res.Sources)
	}
	for i := range want {
		if res.Sources[i] != want[i] {
			t.Fatalf("source %d = %+v, want %+v", i, res.Sources[i], want[i])
		}
	}
}

func TestSearch_MapsAPIErrors(t *testing.T) {
	m := &fakeModels{contentErr: genai.APIError{Code: 403, Status: "PERMISSION_DENIED", Message: "no access"}}
	_, err := newFakeProvider(t, m).Search(context.Background(), "q")
	if !core.IsType(err, core.ErrPermission) {
		t.Fatalf("err = %v, want permission_denied", err)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	if _, err := newFakeProvider(t, &fakeModels{}).Search(context.Background(), "  "); !core.IsType(err, core.ErrInvalidRequest) {
		t.Fatalf("err = %v, want invalid_request", err)
	}
}

func TestGenerateImage(t *testing.T) {
	m := &fakeModels{contentResp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
			{Text: "Here is your image"},
			{InlineData: &genai.Blob{Data: []byte{0x89, 'P', 'N', 'G'}}},
		}}}},
	}}
	p := newFakeProvider(t, m)

	img, err := p.GenerateImage(context.Background(), "a red fox", types.AspectTall)
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if m.lastModel != ImageModel || m.lastConfig.ImageConfig.AspectRatio != "9:16" {
		t.Fatalf("model=%q config=%+v", m.lastModel, m.lastConfig.ImageConfig)
	}
	if img.MIMEType != "image/png" {
		t.Fatalf("MIMEType = %q, want image/png default", img.MIMEType)
	}
	if got := img.DataURL(); got != "data:image/png;base64,iVBORw==" {
		t.Fatalf("DataURL = %q", got)
	}
}

func TestGenerateImage_NoImagePart(t *testing.T) {
	m := &fakeModels{contentResp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "I can't draw that."}}}}},
	}}
	if _, err := newFakeProvider(t, m).GenerateImage(context.Background(), "x", ""); !errors.Is(err, ErrNoImage) {
		t.Fatalf("err = %v, want ErrNoImage", err)
	}
}

func TestGenerateVideo_PollsUntilDone(t *testing.T) {
	m := &fakeModels{videoOps: []*genai.GenerateVideosOperation{
		{Name: "operations/v1"},
		{Name: "operations/v1"},
		{Name: "operations/v1", Done: true, Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: "https://files.example/v.mp4?alt=media", MIMEType: "video/mp4"}}},
		}},
	}}
	p := newFakeProvider(t, m)

	var attempts []int
	res, err := p.GenerateVideo(context.Background(), VideoRequest{Prompt: "waves"}, func(n int) { attempts = append(attempts, n) })
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if m.lastVideo.NumberOfVideos != 1 || m.lastVideo.Resolution != "1080p" || m.lastVideo.AspectRatio != "16:9" {
		t.Fatalf("config = %+v", m.lastVideo)
	}
	if len(attempts) != 2 || attempts[1] != 2 {
		t.Fatalf("poll attempts = %v, want [1 2]", attempts)
	}
	if res.URI != "https://files.example/v.mp4?alt=media" {
		t.Fatalf("URI = %q", res.URI)
	}
	if got := p.DownloadURL(res.URI); got != "https://files.example/v.mp4?alt=media&key=test-key" {
		t.Fatalf("DownloadURL = %q", got)
	}
}

func TestGenerateVideo_OperationError(t *testing.T) {
	m := &fakeModels{videoOps: []*genai.GenerateVideosOperation{
		{Name: "operations/v2", Done: true, Error: map[string]any{"code": float64(7), "message": "caller lacks Veo access"}},
	}}
	_, err := newFakeProvider(t, m).GenerateVideo(context.Background(), VideoRequest{Prompt: "x"}, nil)
	if !core.IsType(err, core.ErrPermission) {
		t.Fatalf("err = %v, want permission_denied", err)
	}
}

func TestGenerateVideo_Cancelled(t *testing.T) {
	m := &fakeModels{videoOps: []*genai.GenerateVideosOperation{{Name: "operations/slow"}}}
	p := newFakeProvider(t, m, WithPollInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.GenerateVideo(ctx, VideoRequest{Prompt: "x"}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestDownloadVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			http.Error(w, "missing key", http.StatusForbidden)
			return
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("mp4-bytes"))
	}))
	defer server.Close()

	p := newFakeProvider(t, &fakeModels{}, WithHTTPClient(server.Client()))

	var buf bytes.Buffer
	n, err := p.DownloadVideo(context.Background(), server.URL+"/v.mp4", &buf)
	if err != nil {
		t.Fatalf("DownloadVideo: %v", err)
	}
	if n != int64(len("mp4-bytes")) || buf.String() != "mp4-bytes" {
		t.Fatalf("downloaded %d bytes %q", n, buf.String())
	}

	if _, err := p.DownloadVideo(context.Background(), server.URL+"/missing", &buf); !core.IsType(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want not_found", err)
	}
}
