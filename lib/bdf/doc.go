// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bdf implements BDF, the canonical binary document format that
// every client message and every piece of stored metadata is built on.
//
// # Data Model
//
// A [Value] is a closed tagged union: null, boolean, 64-bit integer,
// 64-bit float, UTF-8 string, raw bytes, [List], or [Dict]. The zero
// Value is null. Null is a real value, distinct from absence: a Dict
// can map a key to null, and the typed accessors tell the two apart.
//
// [List] and [Dict] own their storage and expose only typed,
// bounds-checked accessors. Dict keys are always kept in ascending
// byte order, so iteration order and wire order agree and two Dicts
// built in different insertion orders encode identically.
//
// # Accessors
//
// Every container accessor comes in three flavors:
//
//   - GetT: fails with [*FormatError] if the value is absent, null, or
//     of the wrong kind.
//   - GetOptionalT: returns ok=false for absent or null, fails with
//     [*FormatError] for the wrong kind.
//   - GetTOr: returns the supplied default for absent, null, or the
//     wrong kind.
//
// List accessors always fail for an index outside [0, Len()), including
// the GetTOr variants. The default covers a bad value at a real index,
// never a missing index.
//
// # Wire Format
//
// Each value starts with a tag byte. Integers use the narrowest of
// 8/16/32/64-bit big-endian two's complement that holds the value.
// Strings and raw byte sequences carry a signed 8/16/32-bit length,
// again the narrowest that fits. Lists and dictionaries are delimited
// by an END tag; dictionary entries are (string key, value) pairs in
// ascending key order. [Writer] always produces this canonical form.
// [Reader] enforces a nesting limit and a per-value buffer budget
// while decoding, and optionally rejects any non-canonical encoding.
//
// # Errors
//
// [*FormatError] reports a document that breaks the model or the
// grammar (wrong kind, missing field, bad index, limit exceeded,
// truncated input). [*StreamError] reports a failure of the underlying
// byte stream itself and is fatal to the operation in progress.
package bdf
