package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/types"
)

const (
	// VideoModel generates short video clips.
	VideoModel = "veo-3.1-fast-generate-preview"

	DefaultVideoResolution = "1080p"
	DefaultVideoAspect     = types.AspectWide
)

// VideoRequest describes one video generation.
type VideoRequest struct {
	Prompt      string
	Resolution  string
	AspectRatio types.AspectRatio
}

// VideoResult is a finished video. URI is the download link without the
// API key; Data is set only when the API returned the bytes inline.
type VideoResult struct {
	URI       string
	MIMEType  string
	Data      []byte
	Operation string
}

// GenerateVideo starts a video operation and polls it until it finishes or
// ctx is cancelled. onPoll, if set, is called before each poll.
func (p *Provider) GenerateVideo(ctx context.Context, req VideoRequest, onPoll func(attempt int)) (*VideoResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, core.NewInvalidRequestError("prompt must not be empty")
	}
	if req.Resolution == "" {
		req.Resolution = DefaultVideoResolution
	}
	if req.AspectRatio == "" {
		req.AspectRatio = DefaultVideoAspect
	}

	op, err := p.models.GenerateVideos(ctx, VideoModel, req.Prompt, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     req.Resolution,
		AspectRatio:    string(req.AspectRatio),
	})
	if err != nil {
		return nil, mapAPIError(err)
	}
	p.logger.Info("video operation started", "operation", op.Name, "model", VideoModel)

	timer := time.NewTimer(p.pollInterval)
	defer timer.Stop()
	for attempt := 1; !op.Done; attempt++ {
		timer.Reset(p.pollInterval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		if onPoll != nil {
			onPoll(attempt)
		}
		next, err := p.models.GetVideosOperation(ctx, op)
		if err != nil {
			return nil, mapAPIError(err)
		}
		op = next
		p.logger.Debug("video operation polled", "operation", op.Name, "attempt", attempt, "done", op.Done)
	}

	if op.Error != nil {
		return nil, operationError(op.Error)
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 ||
		op.Response.GeneratedVideos[0] == nil || op.Response.GeneratedVideos[0].Video == nil {
		return nil, core.NewAPIError("video operation finished without a video")
	}
	v := op.Response.GeneratedVideos[0].Video
	return &VideoResult{URI: v.URI, MIMEType: v.MIMEType, Data: v.VideoBytes, Operation: op.Name}, nil
}

// DownloadURL appends the API key to a video URI.
func (p *Provider) DownloadURL(uri string) string {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "key=" + url.QueryEscape(p.apiKey)
}

// DownloadVideo streams the video at uri into w and returns the bytes written.
func (p *Provider) DownloadVideo(ctx context.Context, uri string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.DownloadURL(uri), nil)
	if err != nil {
		return 0, core.NewInvalidRequestError(fmt.Sprintf("invalid video URI: %v", err))
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, core.NewConnectionError("download video", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(body))
		switch resp.StatusCode {
		case http.StatusForbidden, http.StatusUnauthorized:
			return 0, core.NewPermissionError(msg)
		case http.StatusNotFound:
			return 0, core.NewNotFoundError(msg)
		default:
			return 0, core.NewAPIError(fmt.Sprintf("video download failed (status %d): %s", resp.StatusCode, msg))
		}
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download video: %w", err)
	}
	return n, nil
}

// operationError maps the error object of a failed long-running operation.
func operationError(m map[string]any) error {
	msg, _ := m["message"].(string)
	var code int
	switch v := m["code"].(type) {
	case float64:
		code = int(v)
	case int:
		code = v
	case int32:
		code = int(v)
	}
	// gRPC status codes: 5 NOT_FOUND, 7 PERMISSION_DENIED, 8 RESOURCE_EXHAUSTED, 16 UNAUTHENTICATED.
	switch code {
	case 7, http.StatusForbidden:
		return core.NewPermissionError(msg)
	case 5, http.StatusNotFound:
		return core.NewNotFoundError(msg)
	case 8, 16, http.StatusTooManyRequests, http.StatusUnauthorized:
		return core.NewQuotaOrAuthError(msg, 0)
	default:
		return core.NewAPIError(msg)
	}
}
