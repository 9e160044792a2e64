package vai

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/providers/gemini"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

// VideoService generates videos. It needs a key from a paid project, so
// every call goes through the client's credential gate.
type VideoService struct {
	client *Client
}

// VideoRequest describes one video. Resolution defaults to 1080p and
// AspectRatio to 16:9.
type VideoRequest struct {
	Prompt      string
	Resolution  string
	AspectRatio types.AspectRatio

	// OnPoll, if set, is called before each status poll.
	OnPoll func(attempt int)
}

// Video is a finished video. Asset.URL carries the API key and can be
// fetched directly; URI is the bare link for Download.
type Video struct {
	Asset    types.GeneratedAsset
	URI      string
	MIMEType string
	Data     []byte
}

// Generate starts a video and waits for it. A key the API does not accept
// resets the credential gate, so the next call asks for a key again.
func (s *VideoService) Generate(ctx context.Context, req VideoRequest) (*Video, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, core.NewInvalidRequestError("prompt must not be empty")
	}
	if err := s.client.gate.Ensure(ctx); err != nil {
		return nil, err
	}

	var (
		p   *gemini.Provider
		res *gemini.VideoResult
	)
	err := s.client.observe(ctx, "video", gemini.VideoModel, func(ctx context.Context) error {
		var err error
		p, err = s.client.gemini(ctx)
		if err != nil {
			return err
		}
		res, err = p.GenerateVideo(ctx, gemini.VideoRequest{
			Prompt:      prompt,
			Resolution:  req.Resolution,
			AspectRatio: req.AspectRatio,
		}, req.OnPoll)
		return err
	})
	if err != nil {
		return nil, s.keyError(err)
	}

	v := &Video{
		URI:      res.URI,
		MIMEType: res.MIMEType,
		Data:     res.Data,
		Asset: types.GeneratedAsset{
			ID:        uuid.NewString(),
			Type:      types.AssetVideo,
			Prompt:    prompt,
			Timestamp: time.Now(),
		},
	}
	if res.URI != "" {
		v.Asset.URL = p.DownloadURL(res.URI)
	}
	return v, nil
}

// Download writes the video at uri to w.
func (s *VideoService) Download(ctx context.Context, uri string, w io.Writer) (int64, error) {
	if uri == "" {
		return 0, core.NewInvalidRequestError("video URI must not be empty")
	}
	p, err := s.client.gemini(ctx)
	if err != nil {
		return 0, err
	}
	n, err := p.DownloadVideo(ctx, uri, w)
	if err != nil {
		return n, s.keyError(err)
	}
	return n, nil
}

// keyError resets the gate when err says the key cannot use the model.
func (s *VideoService) keyError(err error) error {
	switch core.TypeOf(err) {
	case core.ErrNotFound:
		s.client.gate.Reset()
		return withMessage(core.ErrNotFound, MsgVideoKeyNotFound, err)
	case core.ErrPermission:
		s.client.gate.Reset()
		return withMessage(core.ErrPermission, MsgVideoKeyPermission, err)
	default:
		return err
	}
}
