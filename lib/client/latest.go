// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/message"
	"github.com/bureau-foundation/bdf/lib/store"
)

// Update identifies the stored message holding a subject's state.
type Update struct {
	ID      message.MessageID
	Version int64
}

// Latest returns the delivered message in groupID with the highest
// version among those whose metadata matches subject. Messages whose
// version is missing or not an integer are ignored.
func Latest(txn *store.Txn, groupID message.GroupID, subject *bdf.Dict) (Update, bool, error) {
	matches, err := txn.QueryMessageMetadata(groupID, subject)
	if err != nil {
		return Update{}, false, err
	}
	var latest Update
	found := false
	for id, metadata := range matches {
		version, err := metadata.GetInt(KeyVersion)
		if err != nil {
			continue
		}
		if !found || version > latest.Version {
			latest, found = Update{ID: id, Version: version}, true
		}
	}
	return latest, found, nil
}

// Reconcile keeps at most one message per subject: the one with the
// highest version. incoming has just been stored with the given
// version and is not yet delivered. If a delivered message for the
// same subject has an equal or higher version, incoming is deleted and
// Reconcile returns false. Otherwise every older message for the
// subject is deleted and Reconcile returns true.
//
// Reconcile must run inside the write transaction that delivers
// incoming, so the comparison and deletions apply atomically.
func Reconcile(txn *store.Txn, groupID message.GroupID, subject *bdf.Dict, incoming message.MessageID, version int64) (bool, error) {
	matches, err := txn.QueryMessageMetadata(groupID, subject)
	if err != nil {
		return false, err
	}
	delete(matches, incoming)

	for _, metadata := range matches {
		stored, err := metadata.GetInt(KeyVersion)
		if err == nil && stored >= version {
			return false, DeleteMessage(txn, incoming)
		}
	}
	for id := range matches {
		if err := DeleteMessage(txn, id); err != nil {
			return false, err
		}
	}
	return true, nil
}

// DeleteMessage drops a message's body and metadata.
func DeleteMessage(txn *store.Txn, id message.MessageID) error {
	if err := txn.DeleteMessage(id); err != nil {
		return fmt.Errorf("client: deleting message %s: %w", id, err)
	}
	if err := txn.DeleteMessageMetadata(id); err != nil {
		return fmt.Errorf("client: deleting metadata of %s: %w", id, err)
	}
	return nil
}
