// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// DatabasePath returns the path of a not-yet-created SQLite database in
// a directory removed when the test completes.
func DatabasePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "bdf.db")
}
