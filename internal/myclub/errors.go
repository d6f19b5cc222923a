package myclub

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the API answers 404 for a record.
	ErrNotFound = errors.New("record not found")

	// ErrUnexpectedShape is returned when a response body does not have the
	// envelope the endpoint is documented to return.
	ErrUnexpectedShape = errors.New("unexpected response shape")

	// ErrMissingToken is returned when the client is built without an API token.
	ErrMissingToken = errors.New("missing myClub API token")
)

// FetchError describes a failed API request.
type FetchError struct {
	// Op is the client operation that failed (e.g. "Invoice").
	Op string

	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("myclub: %s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("myclub: %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
