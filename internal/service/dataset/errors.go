package dataset

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidResourceID rejects identifiers that are empty or not a single path segment.
	ErrInvalidResourceID = errors.New("invalid resource id")
	// ErrUntrustedBody is returned when body inspection is enabled and the server sent HTML.
	ErrUntrustedBody = errors.New("response body is not tabular data")
	// ErrEmptyData is reported by Load for files without any rows.
	ErrEmptyData = errors.New("no columns to parse from file")
)

// RequestError reports a failed call to the dataset API.
type RequestError struct {
	ResourceID string
	StatusCode int
	Status     string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		status := e.Status
		if status == "" {
			status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
		}
		return fmt.Sprintf("request dataset %s: unexpected status %s", e.ResourceID, status)
	}
	return fmt.Sprintf("request dataset %s: %v", e.ResourceID, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ParseError reports a downloaded file that is not valid tabular data.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
