// Package apierr defines the error taxonomy shared across radar-core
// components, so callers can branch on failure class with errors.Is
// instead of string matching.
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way §7 of the spec enumerates them.
type Kind string

const (
	NotFound            Kind = "not_found"
	ParseError          Kind = "parse_error"
	UpstreamUnavailable Kind = "upstream_unavailable"
	RateLimited         Kind = "rate_limited"
	TransientNetwork    Kind = "transient_network"
	InvalidRequest      Kind = "invalid_request"
	InternalInvariant   Kind = "internal_invariant"
)

// Error wraps an underlying cause with a taxonomy Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, apierr.Sentinel(apierr.NotFound)) style checks by
// comparing Kind whenever the target is (or wraps) an *Error.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New constructs a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinel returns a comparable sentinel for a Kind, usable with errors.Is.
func Sentinel(kind Kind) error {
	return &Error{Kind: kind}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
