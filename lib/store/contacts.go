// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"zombiezen.com/go/sqlite"

	"github.com/bureau-foundation/bdf/lib/message"
)

// ContactID is the local identifier of a contact.
type ContactID int64

// Contact is a remote author we exchange messages with. Inactive
// contacts are known but not yet (or no longer) connected; their state
// is not shown to users.
type Contact struct {
	ID     ContactID
	Author message.AuthorID
	Active bool
}

// AddContact stores a contact for author and runs every registered
// ContactHook.
func (t *Txn) AddContact(author message.AuthorID, active bool) (Contact, error) {
	if err := t.checkWritable(); err != nil {
		return Contact{}, err
	}
	exists := false
	err := t.query(`SELECT 1 FROM contacts WHERE author_id = ?`,
		func(*sqlite.Stmt) error {
			exists = true
			return nil
		}, author[:])
	if err != nil {
		return Contact{}, fmt.Errorf("store: looking up author %s: %w", author, err)
	}
	if exists {
		return Contact{}, fmt.Errorf("%w: author %s", ErrContactExists, author)
	}

	err = t.execute(`INSERT INTO contacts (author_id, active) VALUES (?, ?)`, author[:], boolArg(active))
	if err != nil {
		return Contact{}, fmt.Errorf("store: adding contact: %w", err)
	}
	contact := Contact{
		ID:     ContactID(t.conn.LastInsertRowID()),
		Author: author,
		Active: active,
	}
	for _, hook := range t.store.hooks() {
		if err := hook.AddingContact(t, contact); err != nil {
			return Contact{}, err
		}
	}
	return contact, nil
}

// Contact returns a stored contact.
func (t *Txn) Contact(id ContactID) (Contact, error) {
	var (
		contact Contact
		found   bool
	)
	err := t.query(`SELECT author_id, active FROM contacts WHERE contact_id = ?`,
		func(stmt *sqlite.Stmt) error {
			author, err := message.ParseAuthorID(columnBlob(stmt, 0))
			if err != nil {
				return err
			}
			found = true
			contact = Contact{ID: id, Author: author, Active: stmt.ColumnInt64(1) != 0}
			return nil
		}, int64(id))
	if err != nil {
		return Contact{}, fmt.Errorf("store: reading contact %d: %w", id, err)
	}
	if !found {
		return Contact{}, fmt.Errorf("%w: %d", ErrNoSuchContact, id)
	}
	return contact, nil
}

// Contacts returns every stored contact ordered by id.
func (t *Txn) Contacts() ([]Contact, error) {
	var contacts []Contact
	err := t.query(`SELECT contact_id, author_id, active FROM contacts ORDER BY contact_id`,
		func(stmt *sqlite.Stmt) error {
			author, err := message.ParseAuthorID(columnBlob(stmt, 1))
			if err != nil {
				return err
			}
			contacts = append(contacts, Contact{
				ID:     ContactID(stmt.ColumnInt64(0)),
				Author: author,
				Active: stmt.ColumnInt64(2) != 0,
			})
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("store: listing contacts: %w", err)
	}
	return contacts, nil
}

// SetContactActive marks a contact active or inactive.
func (t *Txn) SetContactActive(id ContactID, active bool) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := t.execute(`UPDATE contacts SET active = ? WHERE contact_id = ?`, boolArg(active), int64(id)); err != nil {
		return fmt.Errorf("store: updating contact %d: %w", id, err)
	}
	if t.conn.Changes() == 0 {
		return fmt.Errorf("%w: %d", ErrNoSuchContact, id)
	}
	return nil
}

// RemoveContact runs every registered ContactHook and then deletes the
// contact. Hooks remove the per-contact groups their clients own.
func (t *Txn) RemoveContact(id ContactID) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	contact, err := t.Contact(id)
	if err != nil {
		return err
	}
	for _, hook := range t.store.hooks() {
		if err := hook.RemovingContact(t, contact); err != nil {
			return err
		}
	}
	if err := t.execute(`DELETE FROM contacts WHERE contact_id = ?`, int64(id)); err != nil {
		return fmt.Errorf("store: removing contact %d: %w", id, err)
	}
	return nil
}
