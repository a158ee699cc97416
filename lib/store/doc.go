// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package store is the transactional message database clients run on:
// contacts, groups, messages, per-message metadata, message states and
// the dependencies between messages, in one SQLite file.
//
// Every operation runs inside a [Txn] obtained from
// [Store.Transaction]. A write transaction is an IMMEDIATE SQLite
// transaction, so read-compare-delete-insert sequences such as
// latest-update-wins reconciliation are atomic and serialized against
// each other. A failed callback rolls the whole transaction back.
//
// # Metadata
//
// Metadata is a BDF dictionary per message (and per group). It is
// stored one row per key, each value holding the canonical BDF encoding
// of that key's value. Merging a dictionary overwrites the keys it
// names; a key merged as null is deleted. Group-scoped metadata reads
// only return delivered messages, so a client reconciling an incoming
// message never sees pending or invalid ones.
//
// # Events
//
// Events attached with [Txn.Attach] are broadcast on the store's
// [event.Bus] after the transaction commits, and discarded if it rolls
// back.
//
// # Bodies
//
// Message bodies may be stored LZ4 or zstd compressed (see
// [Config.Compression]); compression is transparent to readers.
// Deleting a message discards its body but keeps its row, so its id and
// state remain known to dependency tracking and duplicates are still
// recognized.
package store
