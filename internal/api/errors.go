// Package api provides the client for the new-api admin endpoints.
package api

import (
	"errors"
)

// APIError is a failure reported by the backend itself: the HTTP exchange
// completed but the response envelope carried success=false. Message is the
// backend's human-readable reason, forwarded verbatim so the presentation
// layer can display it unchanged.
//
// The console treats backend rejections (insufficient privilege, invalid
// action) and transport failures identically: the operation failed, local
// state is untouched, and retrying the same user action is safe.
type APIError struct {
	// StatusCode is the HTTP status of the response, when one was received.
	StatusCode int

	// Message is the backend's error message, verbatim.
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsBackendError reports whether err (or anything it wraps) is a rejection
// reported by the backend rather than a transport failure.
func IsBackendError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
