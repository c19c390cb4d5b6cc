package bbs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrUnsupportedURL means a URL matched no known engine pattern.
	ErrUnsupportedURL = errors.New("unsupported bbs url")
	// ErrMalformedIndex means subject.txt had no parseable leading thread key.
	ErrMalformedIndex = errors.New("malformed subject.txt")
)

// ClassificationError reports a URL no engine recognises. The URL is kept
// so the caller can show it back to the user.
type ClassificationError struct {
	URL *url.URL
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("unsupported bbs url: %s", e.URL)
}

func (e *ClassificationError) Unwrap() error {
	return ErrUnsupportedURL
}

// DiscoveryError reports that the latest thread of a board could not be
// determined, either because subject.txt could not be fetched or because
// its first line was unusable.
type DiscoveryError struct {
	URL string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("could not determine latest thread from %s: %v", e.URL, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// FetchError reports a transport failure or a non-2xx response for a GET or
// POST. StatusCode is zero when no response was received.
type FetchError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: HTTP %s", e.Method, e.URL, e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure may succeed on a later attempt:
// transport errors other than cancellation, and 5xx responses.
func (e *FetchError) Temporary() bool {
	if e.StatusCode == 0 {
		return !errors.Is(e.Err, context.Canceled)
	}
	return e.StatusCode >= 500
}

// EncodingError reports a charset label that names no known encoding.
type EncodingError struct {
	Label string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("unsupported charset %q", e.Label)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
