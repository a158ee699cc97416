// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern for channels (event subscriptions, worker completion) so that
// tests never hang and never call time.After directly.
//
// [DatabasePath] returns a fresh SQLite database path under t.TempDir.
//
// [UniqueBytes] produces distinct author ids and message bodies without
// consulting the wall clock.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
