// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package validation decides the fate of incoming messages.
//
// Each client registers a [Validator] for its [message.ClientID]. A
// validator sees the decoded body of one message and either accepts it,
// returning the metadata to store and the ids of messages it depends
// on, or rejects it with an [InvalidMessageError]. Validators are pure:
// they never touch the store, so a [Manager] may run them concurrently.
//
// The Manager owns everything around the validator call. It stores the
// message, records metadata and dependencies, and moves the message
// through its states:
//
//	UNKNOWN -> INVALID    rejected, or a dependency is invalid
//	UNKNOWN -> PENDING    accepted, waiting for dependencies
//	UNKNOWN -> DELIVERED  accepted, every dependency delivered
//	PENDING -> DELIVERED  the last missing dependency was delivered
//	PENDING -> INVALID    a dependency was invalidated
//
// Delivery calls the client's [IncomingMessageHook] in the same write
// transaction, which is where latest-update-wins reconciliation runs.
// A rejection never aborts processing of other messages.
package validation
