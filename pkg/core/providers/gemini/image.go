package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

// ImageModel generates still images.
const ImageModel = "gemini-2.5-flash-image"

// ErrNoImage is returned when the model answered without an image part.
var ErrNoImage = errors.New("gemini: model returned no image")

// ImageResult is a generated image.
type ImageResult struct {
	MIMEType string
	Data     []byte
}

// DataURL renders the image as a data: URL.
func (r *ImageResult) DataURL() string {
	return "data:" + r.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// GenerateImage renders prompt at the given aspect ratio and returns the
// first inline image part.
func (p *Provider) GenerateImage(ctx context.Context, prompt string, aspect types.AspectRatio) (*ImageResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, core.NewInvalidRequestError("prompt must not be empty")
	}
	if aspect == "" {
		aspect = types.AspectSquare
	}

	resp, err := p.models.GenerateContent(ctx, ImageModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: string(aspect)},
	})
	if err != nil {
		return nil, mapAPIError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil, ErrNoImage
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mime := part.InlineData.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return &ImageResult{MIMEType: mime, Data: part.InlineData.Data}, nil
	}
	return nil, ErrNoImage
}
