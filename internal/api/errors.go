package api

import (
	"errors"
	"fmt"
)

// ErrUnreadableBody is returned when a response body is not valid JSON.
// For an error status this means the backend's message could not be
// recovered; the call still fails.
var ErrUnreadableBody = errors.New("unreadable response body")

// Error is a non-2xx response from the backend.
// Callers can use errors.As to inspect the status:
//
//	var apiErr *api.Error
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized { ... }
type Error struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
	// Message is the backend's "message" field.
	Message string `json:"message"`
}

// Error returns the backend message as is, so views can show it verbatim.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// IsStatus checks whether err is an *Error with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}
