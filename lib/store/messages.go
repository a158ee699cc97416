// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"zombiezen.com/go/sqlite"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/message"
)

// State is a message's validation state. The values are persisted.
type State uint8

const (
	// StateUnknown: stored but not yet validated, or owned by a client
	// with no registered validator.
	StateUnknown State = 0

	// StateInvalid: rejected by its validator or by an invalid
	// dependency. Its body and metadata are deleted.
	StateInvalid State = 1

	// StatePending: valid, waiting for dependencies to be delivered.
	StatePending State = 2

	// StateDelivered: valid and handed to its client.
	StateDelivered State = 3
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateInvalid:
		return "invalid"
	case StatePending:
		return "pending"
	case StateDelivered:
		return "delivered"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// AddLocalMessage stores a message authored locally. Local messages
// skip validation: the message is stored delivered with metadata
// attached.
func (t *Txn) AddLocalMessage(msg message.Message, metadata *bdf.Dict) error {
	if err := t.insertMessage(msg, true, StateDelivered); err != nil {
		return err
	}
	return t.MergeMessageMetadata(msg.ID, metadata)
}

// AddMessage stores a message received from a contact in state
// StateUnknown. It reports false, without error, if the message is
// already stored.
func (t *Txn) AddMessage(msg message.Message) (bool, error) {
	exists, err := t.ContainsMessage(msg.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := t.insertMessage(msg, false, StateUnknown); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Txn) insertMessage(msg message.Message, local bool, state State) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	found, err := t.ContainsGroup(msg.GroupID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNoSuchGroup, msg.GroupID)
	}

	stored, algorithm := msg.Body, CompressionNone
	if len(msg.Body) >= t.store.compressThreshold {
		stored, algorithm, err = compressBody(msg.Body, t.store.compression)
		if err != nil {
			return fmt.Errorf("store: compressing message %s: %w", msg.ID, err)
		}
	}
	if stored == nil {
		stored = []byte{}
	}

	err = t.execute(`INSERT INTO messages
		(message_id, group_id, timestamp, local, state, body, compression, raw_length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID[:], msg.GroupID[:], msg.Timestamp, boolArg(local), int64(state),
		stored, int64(algorithm), int64(len(msg.Body)))
	if err != nil {
		return fmt.Errorf("store: adding message %s: %w", msg.ID, err)
	}
	return nil
}

// ContainsMessage reports whether a message row exists, including
// messages whose body has been deleted.
func (t *Txn) ContainsMessage(id message.MessageID) (bool, error) {
	found := false
	err := t.query(`SELECT 1 FROM messages WHERE message_id = ?`,
		func(*sqlite.Stmt) error {
			found = true
			return nil
		}, id[:])
	if err != nil {
		return false, fmt.Errorf("store: looking up message %s: %w", id, err)
	}
	return found, nil
}

// Message returns a stored message with its body decompressed.
func (t *Txn) Message(id message.MessageID) (message.Message, error) {
	var (
		msg       message.Message
		found     bool
		deleted   bool
		stored    []byte
		algorithm Compression
		rawLength int
	)
	err := t.query(`SELECT group_id, timestamp, body, compression, raw_length
		FROM messages WHERE message_id = ?`,
		func(stmt *sqlite.Stmt) error {
			groupID, err := message.ParseGroupID(columnBlob(stmt, 0))
			if err != nil {
				return err
			}
			found = true
			msg = message.Message{ID: id, GroupID: groupID, Timestamp: stmt.ColumnInt64(1)}
			if stmt.ColumnIsNull(2) {
				deleted = true
				return nil
			}
			stored = columnBlob(stmt, 2)
			algorithm = Compression(stmt.ColumnInt64(3))
			rawLength = int(stmt.ColumnInt64(4))
			return nil
		}, id[:])
	if err != nil {
		return message.Message{}, fmt.Errorf("store: reading message %s: %w", id, err)
	}
	if !found {
		return message.Message{}, fmt.Errorf("%w: %s", ErrNoSuchMessage, id)
	}
	if deleted {
		return message.Message{}, fmt.Errorf("%w: %s", ErrMessageDeleted, id)
	}
	msg.Body, err = decompressBody(stored, algorithm, rawLength)
	if err != nil {
		return message.Message{}, fmt.Errorf("store: message %s: %w", id, err)
	}
	return msg, nil
}

// MessageState returns a message's state. A message that is not
// stored is StateUnknown.
func (t *Txn) MessageState(id message.MessageID) (State, error) {
	state := StateUnknown
	err := t.query(`SELECT state FROM messages WHERE message_id = ?`,
		func(stmt *sqlite.Stmt) error {
			state = State(stmt.ColumnInt64(0))
			return nil
		}, id[:])
	if err != nil {
		return 0, fmt.Errorf("store: reading state of %s: %w", id, err)
	}
	return state, nil
}

// SetMessageState updates a message's state.
func (t *Txn) SetMessageState(id message.MessageID, state State) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := t.execute(`UPDATE messages SET state = ? WHERE message_id = ?`, int64(state), id[:]); err != nil {
		return fmt.Errorf("store: setting state of %s: %w", id, err)
	}
	if t.conn.Changes() == 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchMessage, id)
	}
	return nil
}

// DeleteMessage discards a message's body. The row, state and
// dependency records remain.
func (t *Txn) DeleteMessage(id message.MessageID) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := t.execute(`UPDATE messages SET body = NULL WHERE message_id = ?`, id[:]); err != nil {
		return fmt.Errorf("store: deleting message %s: %w", id, err)
	}
	if t.conn.Changes() == 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchMessage, id)
	}
	return nil
}

// MessagesToValidate returns the ids of remote messages that have a
// body and have not been validated, oldest first.
func (t *Txn) MessagesToValidate() ([]message.MessageID, error) {
	var ids []message.MessageID
	err := t.query(`SELECT message_id FROM messages
		WHERE state = ? AND local = 0 AND body IS NOT NULL
		ORDER BY timestamp, message_id`,
		func(stmt *sqlite.Stmt) error {
			id, err := message.ParseMessageID(columnBlob(stmt, 0))
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		}, int64(StateUnknown))
	if err != nil {
		return nil, fmt.Errorf("store: listing unvalidated messages: %w", err)
	}
	return ids, nil
}
