package gemini

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

// SearchModel answers grounded web-search questions.
const SearchModel = "gemini-3-flash-preview"

// SearchResult is a grounded answer. Text may be empty when the model
// returned no text part.
type SearchResult struct {
	Text    string
	Sources []types.Source
}

// Search asks SearchModel with the Google Search tool enabled.
func (p *Provider) Search(ctx context.Context, query string) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, core.NewInvalidRequestError("query must not be empty")
	}

	resp, err := p.models.GenerateContent(ctx, SearchModel, genai.Text(query), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return nil, mapAPIError(err)
	}

	return &SearchResult{
		Text:    resp.Text(),
		Sources: groundingSources(resp),
	}, nil
}

// groundingSources collects web sources from the first candidate.
func groundingSources(resp *genai.GenerateContentResponse) []types.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var out []types.Source
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		title := chunk.Web.Title
		if strings.TrimSpace(title) == "" {
			title = chunk.Web.URI
		}
		out = append(out, types.Source{URI: chunk.Web.URI, Title: title})
	}
	return out
}
