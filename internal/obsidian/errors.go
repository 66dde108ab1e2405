package obsidian

import (
	"errors"
	"fmt"
)

// ErrorKind classifies upstream failures so callers can map them to their
// own error surfaces without inspecting status codes.
type ErrorKind int

const (
	// KindUpstream covers transport failures, timeouts, and 5xx responses.
	KindUpstream ErrorKind = iota
	// KindAuth is a 401 from the upstream API (bad or missing token).
	KindAuth
	// KindNotFound is a 404 for a note or folder that does not exist.
	KindNotFound
	// KindConflict is a 409, e.g. creating a note that already exists.
	KindConflict
	// KindClient covers remaining 4xx responses (malformed request).
	KindClient
	// KindBadPath is a local rejection by the path policy; no request was sent.
	KindBadPath
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindClient:
		return "client"
	case KindBadPath:
		return "bad_path"
	default:
		return "upstream"
	}
}

// APIError is the error type for every failure surfaced by the adapter.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("obsidian api: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("obsidian api: %s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.err }

// KindOf extracts the error kind, defaulting to KindUpstream for errors
// that did not come from the adapter.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUpstream
}

// IsNotFound reports whether err is a 404 from the upstream API.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict reports whether err is a 409 from the upstream API.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

func classify(status int) ErrorKind {
	switch {
	case status == 401:
		return KindAuth
	case status == 404:
		return KindNotFound
	case status == 409:
		return KindConflict
	case status >= 400 && status < 500:
		return KindClient
	default:
		return KindUpstream
	}
}

func statusError(status int, message string) *APIError {
	return &APIError{Kind: classify(status), StatusCode: status, Message: message}
}

func transportError(err error) *APIError {
	return &APIError{Kind: KindUpstream, Message: "request failed", err: err}
}

func badPath(path, reason string) *APIError {
	return &APIError{Kind: KindBadPath, Message: fmt.Sprintf("invalid note path %q: %s", path, reason)}
}
