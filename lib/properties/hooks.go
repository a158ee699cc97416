// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package properties

import (
	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/client"
	"github.com/bureau-foundation/bdf/lib/message"
	"github.com/bureau-foundation/bdf/lib/store"
	"github.com/bureau-foundation/bdf/lib/validation"
)

// Validate accepts a contact's update in a contact group.
func (m *Manager) Validate(msg message.Message, group message.Group, body *bdf.List) (validation.Outcome, error) {
	if group.ID == m.localGroup.ID {
		return validation.Outcome{}, validation.Invalidf("remote message in the local properties group")
	}
	transportID, version, _, err := parseBody(body)
	if err != nil {
		return validation.Outcome{}, err
	}
	metadata := subject(transportID, false)
	metadata.Set(client.KeyVersion, bdf.Int(version))
	return validation.Outcome{Metadata: metadata}, nil
}

// IncomingMessage keeps the contact's update if it is newer than the
// one stored for its transport.
func (m *Manager) IncomingMessage(txn *store.Txn, msg message.Message, metadata *bdf.Dict) error {
	transportID, err := metadata.GetString(keyTransportID)
	if err != nil {
		return validation.Invalid(err)
	}
	version, err := metadata.GetInt(client.KeyVersion)
	if err != nil {
		return validation.Invalid(err)
	}
	current, err := client.Reconcile(txn, msg.GroupID, subject(transportID, false), msg.ID, version)
	if err != nil || !current {
		return err
	}
	contactID, err := client.ContactID(txn, msg.GroupID)
	if err != nil {
		return err
	}
	m.logger.Debug("remote transport properties updated",
		"contact_id", contactID, "transport_id", transportID, "version", version)
	txn.Attach(RemotePropertiesUpdated{ContactID: contactID, TransportID: transportID})
	return nil
}

// AddingContact creates the contact group and mirrors our current
// properties into it.
func (m *Manager) AddingContact(txn *store.Txn, contact store.Contact) error {
	group := m.ContactGroup(contact.Author)
	if err := txn.AddGroup(group); err != nil {
		return err
	}
	if err := client.SetContactID(txn, group.ID, contact.ID); err != nil {
		return err
	}
	metadata, err := txn.GroupMessageMetadata(m.localGroup.ID)
	if err != nil {
		return err
	}
	for id, entry := range metadata {
		transportID, err := entry.GetString(keyTransportID)
		if err != nil {
			return err
		}
		version, err := entry.GetInt(client.KeyVersion)
		if err != nil {
			return err
		}
		body, err := client.MessageBody(txn, id, m.reader)
		if err != nil {
			return err
		}
		_, _, props, err := parseBody(body)
		if err != nil {
			return err
		}
		if err := m.storeUpdate(txn, group.ID, transportID, version, props, true, nil); err != nil {
			return err
		}
	}
	return nil
}

// RemovingContact removes the contact group with all its messages.
func (m *Manager) RemovingContact(txn *store.Txn, contact store.Contact) error {
	return txn.RemoveGroup(m.ContactGroup(contact.Author).ID)
}
