// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bdf

import (
	"errors"
	"fmt"
)

// FormatError reports a document that violates the BDF data model or
// wire grammar. It is always scoped to the document being processed:
// callers typically discard the offending message and carry on.
//
// Callers can use errors.As to extract the reason:
//
//	var formatErr *bdf.FormatError
//	if errors.As(err, &formatErr) { ... }
type FormatError struct {
	// Reason is a short human-readable description of the violation.
	Reason string
}

func (e *FormatError) Error() string {
	return "bdf: format error: " + e.Reason
}

// formatErrorf builds a *FormatError with a formatted reason.
func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var formatErr *FormatError
	return errors.As(err, &formatErr)
}

// StreamError reports a failure of the underlying byte source or sink.
// Unlike FormatError it says nothing about the document: the stream is
// broken and the surrounding connection or transaction should be torn
// down.
type StreamError struct {
	// Op names the stream operation that failed ("read", "write",
	// "flush", "close").
	Op string

	// Err is the error returned by the underlying stream.
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("bdf: stream %s: %v", e.Op, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// IsStreamError reports whether err is or wraps a *StreamError.
func IsStreamError(err error) bool {
	var streamErr *StreamError
	return errors.As(err, &streamErr)
}
