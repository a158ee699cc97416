// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command bdf inspects, produces and checks BDF documents from the
// command line.
//
// Subcommands:
//
//   - decode: convert BDF to JSON. Raw values appear as {"$raw": "<hex>"}.
//   - encode: convert JSON (comments and trailing commas allowed) to
//     canonical BDF.
//   - diag: print the typed diagnostic notation of a BDF value.
//   - validate: check that input is the canonical encoding, reporting
//     the first differing byte when it is not.
//   - cbor to / cbor from: convert between BDF and deterministic CBOR.
//
// Every subcommand reads from a trailing file argument or stdin. The
// --hex flag treats input as hex. Binary output is written as hex when
// stdout is a terminal. Decoding limits come from the configuration
// file (--config or BDF_CONFIG) and may be overridden with
// --nested-limit and --max-buffer.
package main
