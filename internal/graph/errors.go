// Package graph provides an app-only HTTP client for the Microsoft Graph API:
// client-credential authentication, site and drive resolution, single-page
// collection listings, and pre-authenticated content downloads.
package graph

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, graph.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("graph: bad request")
	ErrUnauthorized = errors.New("graph: unauthorized")
	ErrForbidden    = errors.New("graph: forbidden")
	ErrNotFound     = errors.New("graph: not found")
	ErrGone         = errors.New("graph: resource gone")
	ErrThrottled    = errors.New("graph: throttled")
	ErrServerError  = errors.New("graph: server error")
	ErrUnexpected   = errors.New("graph: unexpected status")
)

// Download failure sentinels, carried by DownloadError.
var (
	ErrNoDownloadURL   = errors.New("graph: item has no download URL")
	ErrDownloadExpired = errors.New("graph: download URL rejected (expired or revoked)")
	ErrDownloadFailed  = errors.New("graph: download failed")
	ErrHashMismatch    = errors.New("graph: downloaded content hash mismatch")
)

// ErrAuthFailed is the sentinel wrapped by every AuthError.
var ErrAuthFailed = errors.New("graph: authentication failed")

// GraphError wraps a sentinel error with HTTP status code, request ID,
// and the API error message body for debugging.
type GraphError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *GraphError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("graph: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("graph: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// AuthError reports that the identity provider rejected the client
// credential or handed back a token that is already expired. It is terminal
// for the whole run.
type AuthError struct {
	TenantID string
	ClientID string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("graph: authentication failed for client %s in tenant %s: %v", e.ClientID, e.TenantID, e.Err)
}

func (e *AuthError) Unwrap() []error {
	return []error{ErrAuthFailed, e.Err}
}

// DownloadError reports a failed content fetch for a single named item.
// StatusCode is zero when no HTTP exchange happened.
type DownloadError struct {
	Name       string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("graph: downloading %q: HTTP %d: %v", e.Name, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("graph: downloading %q: %v", e.Name, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that is not JSON or lacks a field the
// caller depends on.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("graph: decoding %s response: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// errMissingID is wrapped in a DecodeError when a resolved object has no id.
var errMissingID = errors.New("required field \"id\" is missing")

// IsAuthFailure reports whether err means the caller's identity was refused:
// a rejected credential exchange, or a 401/403 from the API.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthFailed) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden)
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusGone:
		return ErrGone
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusOK && code < http.StatusMultipleChoices {
			return nil
		}

		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return ErrUnexpected
	}
}

// classifyDownloadStatus maps a non-2xx status from a pre-authenticated URL.
// The URL carries its own short-lived signature, so an auth-ish or gone
// status means the link is no longer usable.
func classifyDownloadStatus(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusGone:
		return ErrDownloadExpired
	default:
		return ErrDownloadFailed
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		// 509 Bandwidth Limit Exceeded (SharePoint).
		const statusBandwidthExceeded = 509
		return code == statusBandwidthExceeded
	}
}
