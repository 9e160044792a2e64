package core

import (
	"errors"
	"fmt"
)

// Error represents a studio error surfaced at the boundary of a user action.
type Error struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	Code          string    `json:"code,omitempty"`
	ProviderError any       `json:"provider_error,omitempty"`
	RetryAfter    *int      `json:"retry_after,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrDeviceDenied      ErrorType = "device_denied"
	ErrDeviceUnavailable ErrorType = "device_unavailable"
	ErrConnectionFailed  ErrorType = "connection_failed"
	ErrPermission        ErrorType = "permission_denied"
	ErrNotFound          ErrorType = "not_found"
	ErrDecodeFailed      ErrorType = "decode_failed"
	ErrQuotaOrAuth       ErrorType = "quota_or_auth"
	ErrInvalidRequest    ErrorType = "invalid_request"
	ErrAPI               ErrorType = "api_error"
)

// NewDeviceDeniedError is returned when the user or OS refuses microphone access.
func NewDeviceDeniedError(message string) *Error {
	return &Error{Type: ErrDeviceDenied, Message: message}
}

// NewDeviceUnavailableError is returned when no usable audio device exists.
func NewDeviceUnavailableError(message string) *Error {
	return &Error{Type: ErrDeviceUnavailable, Message: message}
}

// NewConnectionError creates a connection failure wrapping the transport error.
func NewConnectionError(message string, underlying error) *Error {
	e := &Error{Type: ErrConnectionFailed, Message: message}
	if underlying != nil {
		e.ProviderError = underlying
	}
	return e
}

// NewPermissionError creates a permission error.
func NewPermissionError(message string) *Error {
	return &Error{Type: ErrPermission, Message: message}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{Type: ErrNotFound, Message: message}
}

// NewDecodeError creates a playback decode error.
func NewDecodeError(message string) *Error {
	return &Error{Type: ErrDecodeFailed, Message: message}
}

// NewQuotaOrAuthError creates an error for calls rejected by quota or authentication.
func NewQuotaOrAuthError(message string, retryAfter int) *Error {
	e := &Error{Type: ErrQuotaOrAuth, Message: message}
	if retryAfter > 0 {
		e.RetryAfter = &retryAfter
	}
	return e
}

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{Type: ErrAPI, Message: message}
}

// NewProviderError wraps an upstream error that fits no narrower category.
func NewProviderError(provider string, underlying error) *Error {
	return &Error{
		Type:          ErrAPI,
		Message:       fmt.Sprintf("%s: %v", provider, underlying),
		ProviderError: underlying,
	}
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrConnectionFailed, ErrAPI:
		return true
	case ErrQuotaOrAuth:
		return e.RetryAfter != nil
	default:
		return false
	}
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	if ue, ok := e.ProviderError.(error); ok {
		return ue
	}
	return nil
}

// TypeOf returns the ErrorType carried by err, or "" if err is not a *Error.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsType reports whether err carries the given ErrorType.
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// UserMessage converts err into a sentence suitable for showing to a user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return "Something went wrong. Please try again."
	}
	switch e.Type {
	case ErrDeviceDenied:
		return "Microphone access was denied. Allow microphone access and try again."
	case ErrDeviceUnavailable:
		return "No microphone or speaker was found."
	case ErrConnectionFailed:
		return "Connection error. Please check your network and try again."
	case ErrPermission:
		if e.Message != "" {
			return e.Message
		}
		return "Permission denied. Your API key cannot use this model."
	case ErrNotFound:
		if e.Message != "" {
			return e.Message
		}
		return "Requested entity was not found."
	case ErrDecodeFailed:
		return "Received audio that could not be played."
	case ErrQuotaOrAuth:
		return "The request was rejected. Check your API key and quota."
	case ErrInvalidRequest:
		return e.Message
	default:
		return "Something went wrong. Please try again."
	}
}
