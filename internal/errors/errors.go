// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure the streaming client can surface carries a machine-readable Kind,
// so the command layer can decide how to present it and whether the user should
// simply retry.
//
// The package supports wrapping underlying errors while maintaining error kind information.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// StreamUnavailable indicates the response had no readable body.
	StreamUnavailable Kind = "stream_unavailable"
	// FrameParseError indicates a single malformed event frame. Recoverable.
	FrameParseError Kind = "frame_parse_error"
	// StreamTimeout indicates no bytes arrived within the idle timeout.
	StreamTimeout Kind = "stream_timeout"
	// ServerSignaledError indicates the server emitted an error event.
	ServerSignaledError Kind = "server_error"
	// TransportError indicates a network or HTTP failure.
	TransportError Kind = "transport_error"
	// Unauthorized indicates the session cookie was rejected.
	Unauthorized Kind = "unauthorized"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the Kind of the first *E in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the human-friendly message of the first *E in err's chain.
// It falls back to err.Error() for untyped errors.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *E
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
