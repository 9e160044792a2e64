package vai

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/providers/gemini"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

// ImageService generates images and remembers the last one.
type ImageService struct {
	client *Client
	last   *LastImage
}

// ImageRequest describes one image. AspectRatio defaults to 1:1.
type ImageRequest struct {
	Prompt      string
	AspectRatio types.AspectRatio
}

// Generate returns the image as an asset whose URL is a data URL.
// It returns ErrNoImage when the model answers without an image.
func (s *ImageService) Generate(ctx context.Context, req ImageRequest) (*types.GeneratedAsset, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, core.NewInvalidRequestError("prompt must not be empty")
	}

	var img *gemini.ImageResult
	err := s.client.observe(ctx, "image", gemini.ImageModel, func(ctx context.Context) error {
		p, err := s.client.gemini(ctx)
		if err != nil {
			return err
		}
		img, err = p.GenerateImage(ctx, prompt, req.AspectRatio)
		return err
	})
	if err != nil {
		return nil, err
	}

	asset := &types.GeneratedAsset{
		ID:        uuid.NewString(),
		Type:      types.AssetImage,
		URL:       img.DataURL(),
		Prompt:    prompt,
		Timestamp: time.Now(),
	}
	if err := s.last.Save(asset.URL, prompt); err != nil {
		s.client.logger.Warn("failed to save last image", "error", err)
	}
	return asset, nil
}

// Last returns the most recently generated image, if any.
func (s *ImageService) Last() (url, prompt string, ok bool) {
	return s.last.Load()
}
