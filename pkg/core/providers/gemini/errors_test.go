package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gorilla/websocket"
	"google.golang.org/genai"

	"github.com/vango-go/vai-studio/pkg/core"
)

func TestMapAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want core.ErrorType
	}{
		{"permission status", genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}, core.ErrPermission},
		{"not found", genai.APIError{Code: 404, Status: "NOT_FOUND"}, core.ErrNotFound},
		{"unauthenticated", genai.APIError{Code: 401, Status: "UNAUTHENTICATED"}, core.ErrQuotaOrAuth},
		{"quota", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, core.ErrQuotaOrAuth},
		{"bad request", genai.APIError{Code: 400, Status: "INVALID_ARGUMENT"}, core.ErrInvalidRequest},
		{"server", genai.APIError{Code: 500, Status: "INTERNAL"}, core.ErrAPI},
		{"pointer", &genai.APIError{Code: 403}, core.ErrPermission},
		{"wrapped", fmt.Errorf("call: %w", genai.APIError{Code: 404}), core.ErrNotFound},
		{"plain", errors.New("boom"), core.ErrAPI},
		{"already typed", core.NewDeviceDeniedError("x"), core.ErrDeviceDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.TypeOf(mapAPIError(tt.err)); got != tt.want {
				t.Fatalf("type = %q, want %q", got, tt.want)
			}
		})
	}
	if mapAPIError(nil) != nil {
		t.Fatalf("mapAPIError(nil) != nil")
	}
}

func TestMapCloseError(t *testing.T) {
	if err := mapCloseError(&websocket.CloseError{Code: websocket.CloseNormalClosure}); err != nil {
		t.Fatalf("normal close mapped to %v", err)
	}
	if err := mapCloseError(&websocket.CloseError{Code: websocket.ClosePolicyViolation, Text: "denied"}); !core.IsType(err, core.ErrPermission) {
		t.Fatalf("policy close mapped to %v", err)
	}
	if err := mapCloseError(&websocket.CloseError{Code: websocket.CloseInternalServerErr}); !core.IsType(err, core.ErrConnectionFailed) {
		t.Fatalf("internal close mapped to %v", err)
	}
	if err := mapCloseError(errors.New("eof")); !core.IsType(err, core.ErrConnectionFailed) {
		t.Fatalf("read error mapped to %v", err)
	}
}

func TestMapDialError(t *testing.T) {
	if err := mapDialError(nil, errors.New("refused")); !core.IsType(err, core.ErrConnectionFailed) {
		t.Fatalf("nil response mapped to %v", err)
	}
	if err := mapDialError(&http.Response{StatusCode: 403}, websocket.ErrBadHandshake); !core.IsType(err, core.ErrPermission) {
		t.Fatalf("403 mapped to %v", err)
	}
}

func TestOperationError(t *testing.T) {
	if err := operationError(map[string]any{"code": float64(404), "message": "gone"}); !core.IsType(err, core.ErrNotFound) {
		t.Fatalf("404 mapped to %v", err)
	}
	if err := operationError(map[string]any{"code": float64(8)}); !core.IsType(err, core.ErrQuotaOrAuth) {
		t.Fatalf("8 mapped to %v", err)
	}
	if err := operationError(map[string]any{"message": "?"}); !core.IsType(err, core.ErrAPI) {
		t.Fatalf("unknown mapped to %v", err)
	}
}
