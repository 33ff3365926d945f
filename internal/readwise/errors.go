package readwise

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRemoteRequestFailed matches every failed call to the Readwise API,
// whether the server answered with an error status or never answered.
var ErrRemoteRequestFailed = errors.New("readwise request failed")

// ErrInvalidToken indicates the provided API token is invalid
var ErrInvalidToken = errors.New("invalid or expired Readwise token")

// ErrRateLimited indicates the API rate limit was exceeded
var ErrRateLimited = errors.New("readwise API rate limit exceeded")

// RequestError describes a failed Readwise request. StatusCode is zero for
// transport failures and timeouts, in which case Err holds the cause.
type RequestError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("Readwise request failed: %s", e.Message)
	}
	return fmt.Sprintf("Readwise request failed: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrRemoteRequestFailed:
		return true
	case ErrInvalidToken:
		return e.StatusCode == http.StatusUnauthorized
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}
