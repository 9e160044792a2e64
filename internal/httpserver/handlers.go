package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/types"
	vai "github.com/vango-go/vai-studio/sdk"
)

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Reply   types.Message   `json:"reply"`
	History []types.Message `json:"history"`
}

type historyResponse struct {
	Messages []types.Message `json:"messages"`
}

type imageRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
}

type lastImageResponse struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

type videoRequest struct {
	Prompt      string `json:"prompt"`
	Resolution  string `json:"resolution"`
	AspectRatio string `json:"aspect_ratio"`
}

type videoResponse struct {
	Asset    types.GeneratedAsset `json:"asset"`
	URI      string               `json:"uri,omitempty"`
	MIMEType string               `json:"mime_type,omitempty"`
}

type tierRequest struct {
	Tier string `json:"tier"`
}

func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	res, err := s.client.Search.Ask(c.Request().Context(), vai.SearchRequest{Query: req.Query})
	if err != nil {
		if res == nil {
			return err
		}
		status, body := errorResponseFor(err)
		body.Error.Message = res.Reply.Text
		return c.JSON(status, body)
	}
	return c.JSON(http.StatusOK, searchResponse{Reply: res.Reply, History: res.History})
}

func (s *Server) handleSearchHistory(c echo.Context) error {
	return c.JSON(http.StatusOK, historyResponse{Messages: s.client.Search.History()})
}

func (s *Server) handleClearSearchHistory(c echo.Context) error {
	if err := s.client.Search.ClearHistory(); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleImage(c echo.Context) error {
	var req imageRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	aspect, err := parseAspect(req.AspectRatio)
	if err != nil {
		return err
	}
	asset, err := s.client.Images.Generate(c.Request().Context(), vai.ImageRequest{Prompt: req.Prompt, AspectRatio: aspect})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, asset)
}

func (s *Server) handleLastImage(c echo.Context) error {
	url, prompt, ok := s.client.Images.Last()
	if !ok {
		return core.NewNotFoundError("no image has been generated yet")
	}
	return c.JSON(http.StatusOK, lastImageResponse{URL: url, Prompt: prompt})
}

func (s *Server) handleVideo(c echo.Context) error {
	var req videoRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	aspect, err := parseAspect(req.AspectRatio)
	if err != nil {
		return err
	}
	v, err := s.client.Videos.Generate(c.Request().Context(), vai.VideoRequest{
		Prompt:      req.Prompt,
		Resolution:  req.Resolution,
		AspectRatio: aspect,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, videoResponse{Asset: v.Asset, URI: v.URI, MIMEType: v.MIMEType})
}

func (s *Server) handleGetProfile(c echo.Context) error {
	p, err := s.profiles.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleSetTier(c echo.Context) error {
	var req tierRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	tier, err := types.ParseTier(req.Tier)
	if err != nil {
		return core.NewInvalidRequestError(err.Error())
	}
	id := c.Param("id")
	if err := s.profiles.SetTier(c.Request().Context(), id, tier); err != nil {
		return err
	}
	p, err := s.profiles.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func parseAspect(s string) (types.AspectRatio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	aspect, err := types.ParseAspectRatio(s)
	if err != nil {
		return "", core.NewInvalidRequestError(err.Error())
	}
	return aspect, nil
}
