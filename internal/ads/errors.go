package ads

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the ADS client.
var (
	// ErrAuth indicates the service rejected the API token.
	ErrAuth = errors.New("ADS authentication error")

	// ErrTransient indicates an outage-like failure (unparseable body,
	// network error, timeout, rate limit, 5xx). Callers should retry later.
	ErrTransient = errors.New("ADS temporarily unavailable")

	// ErrProtocol indicates a well-formed response that lacks the expected
	// fields, which usually means the API changed.
	ErrProtocol = errors.New("unexpected response from ADS")

	// ErrInvalidArgument indicates a request that cannot be sent.
	ErrInvalidArgument = errors.New("invalid ADS request")
)

// APIError represents a non-success HTTP status not covered by the
// sentinels above. It is classified as a protocol error.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ADS API error (status %d, %s): %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("ADS API error (status %d, %s)", e.StatusCode, e.Endpoint)
}

// Unwrap lets errors.Is(err, ErrProtocol) match an *APIError.
func (e *APIError) Unwrap() error {
	return ErrProtocol
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuth) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsTransient returns true if the request may succeed on a later attempt.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsProtocolError returns true if the response did not match the API contract.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrProtocol)
}
