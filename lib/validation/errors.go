// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"errors"
	"fmt"
)

// InvalidMessageError reports a well-formed message that breaks a
// client's rules. It is scoped to that message: the surrounding stream
// and transaction carry on.
type InvalidMessageError struct {
	Reason string
	Err    error
}

func (e *InvalidMessageError) Error() string {
	if e.Err != nil {
		if e.Reason == "" {
			return "invalid message: " + e.Err.Error()
		}
		return "invalid message: " + e.Reason + ": " + e.Err.Error()
	}
	return "invalid message: " + e.Reason
}

func (e *InvalidMessageError) Unwrap() error { return e.Err }

// Invalidf returns an *InvalidMessageError with a formatted reason.
func Invalidf(format string, args ...any) error {
	return &InvalidMessageError{Reason: fmt.Sprintf(format, args...)}
}

// Invalid wraps err as an *InvalidMessageError. An error that already
// is one is returned unchanged.
func Invalid(err error) error {
	if err == nil || IsInvalidMessage(err) {
		return err
	}
	return &InvalidMessageError{Err: err}
}

// IsInvalidMessage reports whether err is or wraps an
// *InvalidMessageError.
func IsInvalidMessage(err error) bool {
	var invalid *InvalidMessageError
	return errors.As(err, &invalid)
}
