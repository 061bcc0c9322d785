package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for structured error handling.
const (
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeAuth        = "AUTH_ERROR"
	ErrCodeConflict    = "CONFLICT"
	ErrCodeNetwork     = "NETWORK_ERROR"
	ErrCodeRateLimit   = "RATE_LIMIT"
	ErrCodeServerError = "SERVER_ERROR"
)

// Sentinel errors
var (
	ErrRecycleBinReadOnly = errors.New("recycle bin items are not addressable")
	ErrInvalidTarget      = errors.New("current location does not accept new items")
	ErrNoChange           = errors.New("nothing to change")
	ErrEmptyName          = errors.New("name must not be empty")
	ErrNotPreviewable     = errors.New("file type cannot be previewed")
	ErrNotFound           = errors.New("not found")
	ErrUnknown            = errors.New("Unknown error")
)

// APIError represents an error from the backend.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	RequestID  string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Is maps HTTP 404 onto ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// CodeForStatus derives an error code from an HTTP status.
func CodeForStatus(status int) string {
	switch {
	case status == http.StatusNotFound:
		return ErrCodeNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrCodeAuth
	case status == http.StatusConflict:
		return ErrCodeConflict
	case status == http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case status >= 500:
		return ErrCodeServerError
	default:
		return ErrCodeBadRequest
	}
}

// MutationError wraps a failed create/rename/move/delete/restore/purge/upload.
type MutationError struct {
	Op       string
	TargetID int64
	Err      error
}

func (e *MutationError) Error() string {
	if e.TargetID != 0 {
		return fmt.Sprintf("%s %d: %v", e.Op, e.TargetID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// UserMessage returns the best human-readable message for err: the backend
// message when one was sent, else the error text, else a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ErrUnknown.Error()
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	var mutErr *MutationError
	if errors.As(err, &mutErr) && mutErr.Err != nil {
		return UserMessage(mutErr.Err)
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return ErrUnknown.Error()
}
