// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have already written its
// own output, as "bdf validate" does for non-canonical input.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this interface on
// returned errors to distinguish "handled non-zero exit" from
// "unexpected error to display".
func (e *ExitError) ExitCode() int {
	return e.Code
}
