package vai

import (
	"context"
	"strings"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/providers/gemini"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

// NoAnswer is the reply when the model returns no text.
const NoAnswer = "I couldn't find a specific answer for that."

// SearchService is a web-grounded chat whose history is persisted.
type SearchService struct {
	client  *Client
	history *History
}

// SearchRequest is one question.
type SearchRequest struct {
	Query string
}

// SearchResult holds the reply and the full chat after it.
type SearchResult struct {
	Reply   types.Message
	History []types.Message
}

// Ask sends the query with web grounding enabled. The question and the
// reply are both appended to the history.
//
// When the API fails, Ask returns a result whose reply explains the failure
// together with the typed error.
func (s *SearchService) Ask(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, core.NewInvalidRequestError("query must not be empty")
	}
	question := types.Message{Role: types.RoleUser, Text: query}

	var answer *gemini.SearchResult
	err := s.client.observe(ctx, "search", gemini.SearchModel, func(ctx context.Context) error {
		p, err := s.client.gemini(ctx)
		if err != nil {
			return err
		}
		answer, err = p.Search(ctx, query)
		return err
	})

	reply := types.Message{Role: types.RoleModel}
	if err != nil {
		reply.Text = searchErrorMessage(err)
	} else {
		reply.Text = answer.Text
		if strings.TrimSpace(reply.Text) == "" {
			reply.Text = NoAnswer
		}
		reply.Sources = answer.Sources
	}

	all, saveErr := s.history.Append(question, reply)
	if saveErr != nil {
		s.client.logger.Warn("failed to save search history", "error", saveErr)
	}
	return &SearchResult{Reply: reply, History: all}, err
}

// History returns the stored chat, starting with the greeting.
func (s *SearchService) History() []types.Message {
	return s.history.Load()
}

// ClearHistory starts a new chat.
func (s *SearchService) ClearHistory() error {
	return s.history.Clear()
}

func searchErrorMessage(err error) string {
	if core.IsType(err, core.ErrPermission) {
		return MsgSearchPermission
	}
	return MsgSearchFailed
}
