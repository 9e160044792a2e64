package vai

import (
	"errors"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/credential"
	"github.com/vango-go/vai-studio/pkg/core/live"
	"github.com/vango-go/vai-studio/pkg/core/providers/gemini"
)

// SDK-level error type that wraps core errors
type Error = core.Error

// Error types
const (
	ErrDeviceDenied      = core.ErrDeviceDenied
	ErrDeviceUnavailable = core.ErrDeviceUnavailable
	ErrConnectionFailed  = core.ErrConnectionFailed
	ErrPermission        = core.ErrPermission
	ErrNotFound          = core.ErrNotFound
	ErrDecodeFailed      = core.ErrDecodeFailed
	ErrQuotaOrAuth       = core.ErrQuotaOrAuth
	ErrInvalidRequest    = core.ErrInvalidRequest
	ErrAPI               = core.ErrAPI
)

// Sentinel errors, compared with errors.Is.
var (
	ErrNoImage                = gemini.ErrNoImage
	ErrSessionActive          = live.ErrSessionActive
	ErrStoppedWhileConnecting = live.ErrStoppedWhileConnecting
	ErrCredentialDeclined     = credential.ErrDeclined
	ErrCredentialMissing      = credential.ErrMissing
)

// UserMessage converts err into a sentence suitable for showing to a user.
var UserMessage = core.UserMessage

// Messages shown when the video API rejects the selected key.
const (
	MsgVideoKeyNotFound   = "Requested entity was not found. Please re-select your API key."
	MsgVideoKeyPermission = "API Key Permission Denied (403). You must select a key from a paid GCP project with Veo access."
)

// Messages shown in the search chat when a request fails.
const (
	MsgSearchPermission = "Access Denied (403): Your API key does not have permission for this model or search tool."
	MsgSearchFailed     = "Sorry, I encountered an error searching for that."
)

// withMessage returns a core error of type t that shows msg and keeps err
// as its cause.
func withMessage(t core.ErrorType, msg string, err error) *core.Error {
	return &core.Error{
		Type:          t,
		Message:       msg,
		Code:          codeOf(err),
		ProviderError: err,
	}
}

func codeOf(err error) string {
	var e *core.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
