package vigi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrDrugNotFound is returned when the search yields no drug.
	ErrDrugNotFound = errors.New("no drug matches the search term")

	// ErrMalformedResponse is returned when a response body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrInvalidBaseURL is returned when the base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// OpError records which remote operation failed and after how many attempts.
type OpError struct {
	// Op is the operation name: "search", "distribution" or "primaryTerm".
	Op string

	// Attempts is the number of requests sent.
	Attempts int

	Err error
}

func (e *OpError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("vigiaccess %s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("vigiaccess %s failed: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
