// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"zombiezen.com/go/sqlite"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/message"
)

// AddGroup stores group. Adding a group that is already stored is a
// no-op.
func (t *Txn) AddGroup(group message.Group) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	descriptor := group.Descriptor
	if descriptor == nil {
		descriptor = []byte{}
	}
	err := t.execute(`INSERT INTO message_groups (group_id, client_id, descriptor)
		VALUES (?, ?, ?) ON CONFLICT (group_id) DO NOTHING`,
		group.ID[:], string(group.ClientID), descriptor)
	if err != nil {
		return fmt.Errorf("store: adding group %s: %w", group.ID, err)
	}
	return nil
}

// ContainsGroup reports whether a group is stored.
func (t *Txn) ContainsGroup(id message.GroupID) (bool, error) {
	found := false
	err := t.query(`SELECT 1 FROM message_groups WHERE group_id = ?`,
		func(*sqlite.Stmt) error {
			found = true
			return nil
		}, id[:])
	if err != nil {
		return false, fmt.Errorf("store: looking up group %s: %w", id, err)
	}
	return found, nil
}

// Group returns a stored group.
func (t *Txn) Group(id message.GroupID) (message.Group, error) {
	var (
		group message.Group
		found bool
	)
	err := t.query(`SELECT client_id, descriptor FROM message_groups WHERE group_id = ?`,
		func(stmt *sqlite.Stmt) error {
			found = true
			group = message.Group{
				ID:         id,
				ClientID:   message.ClientID(stmt.ColumnText(0)),
				Descriptor: columnBlob(stmt, 1),
			}
			return nil
		}, id[:])
	if err != nil {
		return message.Group{}, fmt.Errorf("store: reading group %s: %w", id, err)
	}
	if !found {
		return message.Group{}, fmt.Errorf("%w: %s", ErrNoSuchGroup, id)
	}
	return group, nil
}

// Groups returns every group owned by clientID.
func (t *Txn) Groups(clientID message.ClientID) ([]message.Group, error) {
	var groups []message.Group
	err := t.query(`SELECT group_id, descriptor FROM message_groups WHERE client_id = ? ORDER BY group_id`,
		func(stmt *sqlite.Stmt) error {
			id, err := message.ParseGroupID(columnBlob(stmt, 0))
			if err != nil {
				return err
			}
			groups = append(groups, message.Group{
				ID:         id,
				ClientID:   clientID,
				Descriptor: columnBlob(stmt, 1),
			})
			return nil
		}, string(clientID))
	if err != nil {
		return nil, fmt.Errorf("store: listing groups of %s: %w", clientID, err)
	}
	return groups, nil
}

// RemoveGroup deletes a group with all of its messages, metadata and
// dependency records.
func (t *Txn) RemoveGroup(id message.GroupID) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	found, err := t.ContainsGroup(id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNoSuchGroup, id)
	}
	for _, statement := range []string{
		`DELETE FROM message_dependencies WHERE group_id = ?`,
		`DELETE FROM message_metadata WHERE group_id = ?`,
		`DELETE FROM messages WHERE group_id = ?`,
		`DELETE FROM group_metadata WHERE group_id = ?`,
		`DELETE FROM message_groups WHERE group_id = ?`,
	} {
		if err := t.execute(statement, id[:]); err != nil {
			return fmt.Errorf("store: removing group %s: %w", id, err)
		}
	}
	return nil
}

// GroupMetadata returns a group's metadata. A group without metadata
// yields an empty dictionary.
func (t *Txn) GroupMetadata(id message.GroupID) (*bdf.Dict, error) {
	metadata := bdf.NewDict()
	err := t.query(`SELECT key, value FROM group_metadata WHERE group_id = ?`,
		func(stmt *sqlite.Stmt) error {
			return decodeEntry(metadata, stmt.ColumnText(0), columnBlob(stmt, 1))
		}, id[:])
	if err != nil {
		return nil, fmt.Errorf("store: reading metadata of group %s: %w", id, err)
	}
	return metadata, nil
}

// MergeGroupMetadata merges metadata into a group's metadata. Keys
// mapped to null are deleted.
func (t *Txn) MergeGroupMetadata(id message.GroupID, metadata *bdf.Dict) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	found, err := t.ContainsGroup(id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNoSuchGroup, id)
	}
	for key, value := range metadata.All() {
		if value.IsNull() {
			err = t.execute(`DELETE FROM group_metadata WHERE group_id = ? AND key = ?`, id[:], key)
		} else {
			var encoded []byte
			encoded, err = bdf.Encode(value)
			if err != nil {
				return fmt.Errorf("store: encoding group metadata %q: %w", key, err)
			}
			err = t.execute(`INSERT INTO group_metadata (group_id, key, value) VALUES (?, ?, ?)
				ON CONFLICT (group_id, key) DO UPDATE SET value = excluded.value`,
				id[:], key, encoded)
		}
		if err != nil {
			return fmt.Errorf("store: merging metadata of group %s: %w", id, err)
		}
	}
	return nil
}

// decodeEntry decodes one stored metadata value into dict.
func decodeEntry(dict *bdf.Dict, key string, encoded []byte) error {
	value, err := bdf.Decode(encoded)
	if err != nil {
		return fmt.Errorf("stored metadata %q: %w", key, err)
	}
	dict.Set(key, value)
	return nil
}
