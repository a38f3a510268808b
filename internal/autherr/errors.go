// Package autherr holds the error taxonomy shared by the admission, session
// and role layers, and the mapping of those errors onto HTTP responses.
//
// Handlers never echo provider or store error text to the client: every
// failure is reduced to one of the sentinels below and answered with the
// sentinel's generic message.
package autherr

import (
	"errors"
	"net/http"

	"github.com/rahal-app/rahal-backend/internal/httputil"
)

// Client input errors
var (
	ErrMissingCredential = errors.New("missing credential") // 400
	ErrInvalidRequest    = errors.New("invalid request")    // 400
)

// Authentication errors
var (
	ErrInvalidCredential     = errors.New("invalid credential")      // 401
	ErrSessionCreationFailed = errors.New("session creation failed") // 401
	ErrMissingToken          = errors.New("missing token")           // 401
	ErrInvalidToken          = errors.New("invalid token")           // 401
)

// Authorization errors
var (
	ErrForbidden       = errors.New("not allowed")       // 403
	ErrProfileNotFound = errors.New("profile not found") // 403
	ErrRateLimited     = errors.New("too many requests") // 429
)

// ErrNotConfigured marks an operator error: required server configuration is
// missing. It is logged loudly and surfaces as a 500 unless the endpoint maps
// it to something else.
var ErrNotConfigured = errors.New("not configured")

// Status maps err onto an HTTP status code. Unknown errors are 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrMissingCredential), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrProfileNotFound):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidCredential),
		errors.Is(err, ErrSessionCreationFailed),
		errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-safe message for err. It never includes the
// wrapped cause.
func Message(err error) string {
	switch Status(err) {
	case http.StatusTooManyRequests:
		return "too many requests"
	case http.StatusBadRequest:
		if errors.Is(err, ErrMissingCredential) {
			return "missing token"
		}
		return "invalid request"
	case http.StatusForbidden:
		return "not allowed"
	case http.StatusUnauthorized:
		if errors.Is(err, ErrMissingToken) || errors.Is(err, ErrInvalidToken) {
			return "unauthorized"
		}
		return "authentication failed"
	default:
		return "internal error"
	}
}

// Write answers the request with the status and generic message for err.
func Write(w http.ResponseWriter, err error) {
	httputil.WriteError(w, Status(err), Message(err))
}
