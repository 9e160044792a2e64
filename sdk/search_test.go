package vai

import (
	"context"
	"testing"

	"google.golang.org/genai"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/providers/gemini"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

func textResponse(text string, sources ...*genai.GroundingChunk) *genai.GenerateContentResponse {
	cand := &genai.Candidate{Content: &genai.Content{Role: "model"}}
	if text != "" {
		cand.Content.Parts = []*genai.Part{{Text: text}}
	}
	if len(sources) > 0 {
		cand.GroundingMetadata = &genai.GroundingMetadata{GroundingChunks: sources}
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{cand}}
}

func TestSearch_AskAppendsToHistory(t *testing.T) {
	m := &fakeModels{contentResp: textResponse("Rain later.",
		&genai.GroundingChunk{Web: &genai.GroundingChunkWeb{URI: "https://w.example", Title: "W"}})}
	rec := &fakeRecorder{}
	c := newTestClient(t, m, WithRecorder(rec))

	if h := c.Search.History(); len(h) != 1 || h[0].Text != SearchGreeting {
		t.Fatalf("initial history = %+v", h)
	}

	res, err := c.Search.Ask(context.Background(), SearchRequest{Query: "  weather?  "})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.Reply.Text != "Rain later." || len(res.Reply.Sources) != 1 {
		t.Fatalf("reply = %+v", res.Reply)
	}
	if len(res.History) != 3 {
		t.Fatalf("history len = %d, want 3", len(res.History))
	}
	if res.History[1].Role != types.RoleUser || res.History[1].Text != "weather?" {
		t.Fatalf("question = %+v", res.History[1])
	}
	if got := c.Search.History(); len(got) != 3 {
		t.Fatalf("persisted history len = %d", len(got))
	}

	gens := rec.Generations()
	if len(gens) != 1 || gens[0] != (recordedGeneration{"search", gemini.SearchModel, "ok"}) {
		t.Fatalf("generations = %+v", gens)
	}
}

func TestSearch_EmptyAnswerFallsBack(t *testing.T) {
	c := newTestClient(t, &fakeModels{contentResp: textResponse("")})
	res, err := c.Search.Ask(context.Background(), SearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.Reply.Text != NoAnswer {
		t.Fatalf("reply = %q", res.Reply.Text)
	}
}

func TestSearch_ErrorReplies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"permission", genai.APIError{Code: 403, Status: "PERMISSION_DENIED", Message: "denied"}, MsgSearchPermission},
		{"server", genai.APIError{Code: 500, Status: "INTERNAL", Message: "boom"}, MsgSearchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeModels{contentErr: tt.err})
			res, err := c.Search.Ask(context.Background(), SearchRequest{Query: "q"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if res == nil || res.Reply.Text != tt.want {
				t.Fatalf("reply = %+v, want %q", res, tt.want)
			}
			if h := c.Search.History(); h[len(h)-1].Text != tt.want {
				t.Fatalf("error reply not persisted: %+v", h)
			}
		})
	}
}

func TestSearch_EmptyQueryLeavesHistory(t *testing.T) {
	m := &fakeModels{}
	c := newTestClient(t, m)
	if _, err := c.Search.Ask(context.Background(), SearchRequest{Query: " "}); !core.IsType(err, core.ErrInvalidRequest) {
		t.Fatalf("err = %v, want invalid_request", err)
	}
	if m.contentCall != 0 || len(c.Search.History()) != 1 {
		t.Fatalf("empty query reached the model or history")
	}
}

func TestSearch_ClearHistory(t *testing.T) {
	c := newTestClient(t, &fakeModels{contentResp: textResponse("ok")})
	if _, err := c.Search.Ask(context.Background(), SearchRequest{Query: "q"}); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if err := c.Search.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if h := c.Search.History(); len(h) != 1 || h[0].Text != SearchGreeting {
		t.Fatalf("history after clear = %+v", h)
	}
}
