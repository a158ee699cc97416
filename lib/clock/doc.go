// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock instead of calling time.Now directly.
// In production, Real() provides the standard library behavior. In
// tests, Fake() provides a clock that moves only when Advance or Set is
// called, so message timestamps are reproducible.
//
// # Wiring Pattern
//
// Add a Clock field to structs that stamp or check times:
//
//	type Manager struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	m := &Manager{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	m := &Manager{clock: c}
//	c.Advance(time.Second) // the next message is one second newer
package clock
