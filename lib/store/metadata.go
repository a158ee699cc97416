// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"zombiezen.com/go/sqlite"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/message"
)

// MessageMetadata returns the metadata of one message, whatever its
// state. A message without metadata yields an empty dictionary.
func (t *Txn) MessageMetadata(id message.MessageID) (*bdf.Dict, error) {
	metadata := bdf.NewDict()
	err := t.query(`SELECT key, value FROM message_metadata WHERE message_id = ?`,
		func(stmt *sqlite.Stmt) error {
			return decodeEntry(metadata, stmt.ColumnText(0), columnBlob(stmt, 1))
		}, id[:])
	if err != nil {
		return nil, fmt.Errorf("store: reading metadata of %s: %w", id, err)
	}
	return metadata, nil
}

// GroupMessageMetadata returns the metadata of every delivered message
// in a group that has any.
func (t *Txn) GroupMessageMetadata(groupID message.GroupID) (map[message.MessageID]*bdf.Dict, error) {
	result := make(map[message.MessageID]*bdf.Dict)
	err := t.query(`SELECT mm.message_id, mm.key, mm.value
		FROM message_metadata mm
		JOIN messages m ON m.message_id = mm.message_id
		WHERE mm.group_id = ? AND m.state = ?`,
		func(stmt *sqlite.Stmt) error {
			id, err := message.ParseMessageID(columnBlob(stmt, 0))
			if err != nil {
				return err
			}
			metadata, ok := result[id]
			if !ok {
				metadata = bdf.NewDict()
				result[id] = metadata
			}
			return decodeEntry(metadata, stmt.ColumnText(1), columnBlob(stmt, 2))
		}, groupID[:], int64(StateDelivered))
	if err != nil {
		return nil, fmt.Errorf("store: reading metadata of group %s: %w", groupID, err)
	}
	return result, nil
}

// QueryMessageMetadata returns the metadata of delivered messages in a
// group whose metadata contains every entry of query. An empty query
// matches every message.
func (t *Txn) QueryMessageMetadata(groupID message.GroupID, query *bdf.Dict) (map[message.MessageID]*bdf.Dict, error) {
	all, err := t.GroupMessageMetadata(groupID)
	if err != nil {
		return nil, err
	}
	for id, metadata := range all {
		if !matches(metadata, query) {
			delete(all, id)
		}
	}
	return all, nil
}

func matches(metadata, query *bdf.Dict) bool {
	for key, want := range query.All() {
		got, ok := metadata.Get(key)
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// MergeMessageMetadata merges metadata into a message's metadata. Keys
// mapped to null are deleted.
func (t *Txn) MergeMessageMetadata(id message.MessageID, metadata *bdf.Dict) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	var groupID []byte
	err := t.query(`SELECT group_id FROM messages WHERE message_id = ?`,
		func(stmt *sqlite.Stmt) error {
			groupID = columnBlob(stmt, 0)
			return nil
		}, id[:])
	if err != nil {
		return fmt.Errorf("store: looking up message %s: %w", id, err)
	}
	if groupID == nil {
		return fmt.Errorf("%w: %s", ErrNoSuchMessage, id)
	}

	for key, value := range metadata.All() {
		if value.IsNull() {
			err = t.execute(`DELETE FROM message_metadata WHERE message_id = ? AND key = ?`, id[:], key)
		} else {
			var encoded []byte
			encoded, err = bdf.Encode(value)
			if err != nil {
				return fmt.Errorf("store: encoding metadata %q: %w", key, err)
			}
			err = t.execute(`INSERT INTO message_metadata (message_id, group_id, key, value)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (message_id, key) DO UPDATE SET value = excluded.value`,
				id[:], groupID, key, encoded)
		}
		if err != nil {
			return fmt.Errorf("store: merging metadata of %s: %w", id, err)
		}
	}
	return nil
}

// DeleteMessageMetadata removes all metadata of a message.
func (t *Txn) DeleteMessageMetadata(id message.MessageID) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := t.execute(`DELETE FROM message_metadata WHERE message_id = ?`, id[:]); err != nil {
		return fmt.Errorf("store: deleting metadata of %s: %w", id, err)
	}
	return nil
}
