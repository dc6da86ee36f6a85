package domain

import (
	"errors"
	"net/http"
)

var (
	ErrPageNotFound           = errors.New("page not found")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
)

// StatusError is a non-2xx response from the page api
type StatusError struct {
	StatusCode int
	StatusText string
}

func NewStatusError(statusCode int) *StatusError {
	return &StatusError{
		StatusCode: statusCode,
		StatusText: http.StatusText(statusCode),
	}
}

// Error is the status text of the response, same as a failed fetch reports it
func (e *StatusError) Error() string {
	if e.StatusText == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.StatusText
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrTemporarilyUnavailable:
		return e.StatusCode == http.StatusTooManyRequests ||
			e.StatusCode == http.StatusServiceUnavailable ||
			e.StatusCode == http.StatusGatewayTimeout
	case ErrPageNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
