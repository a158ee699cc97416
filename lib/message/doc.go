// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package message defines the storage units clients exchange: groups
// and the messages stored in them.
//
// A [Group] is identified by the client that owns it plus an opaque
// descriptor the client chooses (a contact's author id, a forum name
// and public key, or nothing at all for a client's local group). A
// [Message] is a timestamped BDF body stored in one group.
//
// Both identifiers are content-derived BLAKE3 keyed hashes and are
// computed exactly once, when the group or message is created:
//
//	groupID   = BLAKE3(key="bdf.group.id",   len(clientID) || clientID || descriptor)
//	messageID = BLAKE3(key="bdf.message.id", groupID || timestamp || body)
//
// where len is a 4-byte big-endian length and timestamp is 8 bytes
// big-endian milliseconds since the Unix epoch. Changing either layout
// invalidates every stored id and every signature that covers one.
package message
