// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the current time for testability. Production code
// injects Real(); tests inject Fake() with deterministic time control.
//
// Message timestamps and the clock skew check read the time through a
// Clock instead of calling time.Now directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}
