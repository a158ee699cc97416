// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger on stderr at the given
// level. When stderr is a terminal, uses slog.TextHandler for
// human-readable output. When stderr is piped or redirected, uses
// slog.JSONHandler.
func NewCommandLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if IsTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// IsTerminal reports whether file is attached to a terminal.
func IsTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd()))
}
