package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"google.golang.org/genai"

	"github.com/vango-go/vai-studio/pkg/core"
)

// apiError extracts a genai.APIError whether it was returned by value or
// by pointer.
func apiError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

// mapAPIError converts an error returned by the genai SDK to a core.Error.
// Errors that are already typed pass through unchanged.
func mapAPIError(err error) error {
	if err == nil {
		return nil
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		return err
	}
	ae, ok := apiError(err)
	if !ok {
		return core.NewProviderError("gemini", err)
	}

	msg := strings.TrimSpace(ae.Message)
	var out *core.Error
	switch {
	case ae.Status == "PERMISSION_DENIED" || ae.Code == http.StatusForbidden:
		out = core.NewPermissionError(msg)
	case ae.Status == "NOT_FOUND" || ae.Code == http.StatusNotFound:
		out = core.NewNotFoundError(msg)
	case ae.Status == "UNAUTHENTICATED" || ae.Code == http.StatusUnauthorized,
		ae.Status == "RESOURCE_EXHAUSTED" || ae.Code == http.StatusTooManyRequests:
		out = core.NewQuotaOrAuthError(msg, 0)
	case ae.Status == "INVALID_ARGUMENT" || ae.Status == "FAILED_PRECONDITION" || ae.Code == http.StatusBadRequest:
		out = core.NewInvalidRequestError(msg)
	default:
		out = core.NewAPIError(msg)
	}
	out.Code = ae.Status
	out.ProviderError = ae
	return out
}

// mapDialError converts a failed Live websocket dial to a core.Error.
// resp is the HTTP response of a rejected upgrade and may be nil.
func mapDialError(resp *http.Response, err error) error {
	if resp == nil {
		return core.NewConnectionError("could not reach the Live API", err)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return core.NewPermissionError(fmt.Sprintf("Live API rejected the API key (status %d)", resp.StatusCode))
	case http.StatusNotFound:
		return core.NewNotFoundError("")
	case http.StatusTooManyRequests:
		return core.NewQuotaOrAuthError("Live API quota exceeded", 0)
	default:
		return core.NewConnectionError(fmt.Sprintf("websocket dial failed (status %d)", resp.StatusCode), err)
	}
}

// mapCloseError converts a read error from an open Live socket. It returns
// nil when the server closed the session normally.
func mapCloseError(err error) error {
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		return core.NewConnectionError("Live connection lost", err)
	}
	switch ce.Code {
	case websocket.CloseNormalClosure, websocket.CloseGoingAway:
		return nil
	case websocket.ClosePolicyViolation:
		return core.NewPermissionError(strings.TrimSpace(ce.Text))
	default:
		return core.NewConnectionError(fmt.Sprintf("Live connection closed (code %d): %s", ce.Code, ce.Text), err)
	}
}
