// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"zombiezen.com/go/sqlite"

	"github.com/bureau-foundation/bdf/lib/message"
)

// AddMessageDependency records that dependent may only be delivered
// once dependency is delivered. The dependency need not be stored yet.
func (t *Txn) AddMessageDependency(dependent message.Message, dependency message.MessageID) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	err := t.execute(`INSERT INTO message_dependencies (message_id, group_id, dependency_id)
		VALUES (?, ?, ?) ON CONFLICT (message_id, dependency_id) DO NOTHING`,
		dependent.ID[:], dependent.GroupID[:], dependency[:])
	if err != nil {
		return fmt.Errorf("store: adding dependency %s -> %s: %w", dependent.ID, dependency, err)
	}
	return nil
}

// MessageDependencies returns the state of every message id depends
// on. Dependencies that are not stored, or are stored in a different
// group from id, report StateUnknown.
func (t *Txn) MessageDependencies(id message.MessageID) (map[message.MessageID]State, error) {
	return t.dependencyStates(`SELECT d.dependency_id, COALESCE(m.state, 0)
		FROM message_dependencies d
		LEFT JOIN messages m ON m.message_id = d.dependency_id AND m.group_id = d.group_id
		WHERE d.message_id = ?`, id)
}

// MessageDependents returns the state of every message that depends on
// id. Dependents in a group other than id's are excluded.
func (t *Txn) MessageDependents(id message.MessageID) (map[message.MessageID]State, error) {
	return t.dependencyStates(`SELECT d.message_id, COALESCE(m.state, 0)
		FROM message_dependencies d
		JOIN messages dependency ON dependency.message_id = d.dependency_id AND dependency.group_id = d.group_id
		LEFT JOIN messages m ON m.message_id = d.message_id
		WHERE d.dependency_id = ?`, id)
}

func (t *Txn) dependencyStates(query string, id message.MessageID) (map[message.MessageID]State, error) {
	states := make(map[message.MessageID]State)
	err := t.query(query, func(stmt *sqlite.Stmt) error {
		other, err := message.ParseMessageID(columnBlob(stmt, 0))
		if err != nil {
			return err
		}
		states[other] = State(stmt.ColumnInt64(1))
		return nil
	}, id[:])
	if err != nil {
		return nil, fmt.Errorf("store: reading dependencies of %s: %w", id, err)
	}
	return states, nil
}
