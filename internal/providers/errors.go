package providers

import (
	"fmt"
	"net/http"

	"archreview/internal/models"
)

// Error is a classified provider failure. Clients return it whenever the
// failure reason is known structurally (status code, missing config) so
// callers never need to parse messages.
type Error struct {
	StatusCode int
	Code       models.ErrorCode
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewStatusError builds an Error from a non-2xx HTTP response.
func NewStatusError(statusCode int, body []byte) *Error {
	msg := string(body)
	if len(msg) > 512 {
		msg = msg[:512]
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &Error{
		StatusCode: statusCode,
		Code:       CodeForStatus(statusCode),
		Message:    msg,
	}
}

// CodeForStatus maps an HTTP status code to an error code.
func CodeForStatus(status int) models.ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return models.ErrorCodeAuth
	case status == http.StatusNotFound:
		return models.ErrorCodeModelNotFound
	case status == http.StatusTooManyRequests:
		return models.ErrorCodeRateLimit
	case status >= 500:
		return models.ErrorCodeServer
	default:
		return models.ErrorCodeAPI
	}
}
