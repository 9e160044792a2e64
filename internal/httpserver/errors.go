package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/credential"
	vai "github.com/vango-go/vai-studio/sdk"
)

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func statusForError(t core.ErrorType) int {
	switch t {
	case core.ErrInvalidRequest:
		return http.StatusBadRequest
	case core.ErrPermission:
		return http.StatusForbidden
	case core.ErrNotFound:
		return http.StatusNotFound
	case core.ErrQuotaOrAuth:
		return http.StatusTooManyRequests
	case core.ErrConnectionFailed, core.ErrAPI, core.ErrDecodeFailed:
		return http.StatusBadGateway
	case core.ErrDeviceDenied, core.ErrDeviceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorResponseFor converts any handler error into a status and body.
func errorResponseFor(err error) (int, errorResponse) {
	var (
		ce *core.Error
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ce):
		msg := core.UserMessage(ce)
		return statusForError(ce.Type), errorResponse{Error: errorBody{Type: string(ce.Type), Message: msg}}
	case errors.Is(err, vai.ErrNoImage):
		return http.StatusUnprocessableEntity, errorResponse{Error: errorBody{
			Type:    "no_image",
			Message: "The model did not return an image. Try a different prompt.",
		}}
	case errors.Is(err, credential.ErrMissing), errors.Is(err, credential.ErrDeclined):
		return http.StatusUnauthorized, errorResponse{Error: errorBody{
			Type:    string(core.ErrQuotaOrAuth),
			Message: "An API key from a paid project is required for this request.",
		}}
	case errors.As(err, &he):
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		t := string(core.ErrInvalidRequest)
		if he.Code >= 500 {
			t = string(core.ErrAPI)
		}
		return he.Code, errorResponse{Error: errorBody{Type: t, Message: msg}}
	default:
		return http.StatusInternalServerError, errorResponse{Error: errorBody{
			Type:    string(core.ErrAPI),
			Message: core.UserMessage(err),
		}}
	}
}

// handleError is echo's HTTPErrorHandler.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, body := errorResponseFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
