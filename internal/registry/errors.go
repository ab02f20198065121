// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"net"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/mark-search/pkg/types"
)

// SourceError is a registry failure mapped onto the common failure taxonomy.
// It never escapes the federation layer; it becomes a SourceStats entry.
type SourceError struct {
	Kind     types.FailureKind
	SourceID string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.Cause != nil {
		return "registry " + e.SourceID + " [" + string(e.Kind) + "]: " + e.Message + ": " + e.Cause.Error()
	}
	return "registry " + e.SourceID + " [" + string(e.Kind) + "]: " + e.Message
}

// Unwrap supports error unwrapping.
func (e *SourceError) Unwrap() error { return e.Cause }

// NewSourceError creates a failure of the given kind.
func NewSourceError(kind types.FailureKind, sourceID, message string, cause error) *SourceError {
	return &SourceError{Kind: kind, SourceID: sourceID, Message: message, Cause: cause}
}

// KindOf extracts the failure kind from err. Context errors map to Timeout
// and Cancelled; network errors map to Unreachable; anything else the
// adapter did not classify is treated as Unreachable.
func KindOf(err error) types.FailureKind {
	if err == nil {
		return types.FailureNone
	}
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return types.FailureTimeout
	case errors.Is(err, context.Canceled):
		return types.FailureCancelled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.FailureTimeout
	}
	return types.FailureUnreachable
}

// classifyTransport maps an error from http.Client.Do onto a SourceError.
// The context is consulted first: a transport error caused by an expired
// deadline is a timeout, not an unreachable registry.
func classifyTransport(ctx context.Context, sourceID string, err error) *SourceError {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return NewSourceError(types.FailureTimeout, sourceID, "deadline exceeded", err)
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return NewSourceError(types.FailureCancelled, sourceID, "request cancelled", err)
	}
	return NewSourceError(KindOf(err), sourceID, "request failed", err)
}

// classifyStatus maps a non-200 HTTP status onto a SourceError.
func classifyStatus(sourceID string, status int) *SourceError {
	msg := "HTTP " + http.StatusText(status)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewSourceError(types.FailureUnauthorized, sourceID, msg, nil)
	case status == http.StatusTooManyRequests:
		return NewSourceError(types.FailureRateLimited, sourceID, msg, nil)
	case status == http.StatusNotFound || status >= 500:
		return NewSourceError(types.FailureUnreachable, sourceID, msg, nil)
	default:
		return NewSourceError(types.FailureMalformedResponse, sourceID, msg, nil)
	}
}
