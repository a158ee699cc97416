// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package properties

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/bounds"
	"github.com/bureau-foundation/bdf/lib/client"
	"github.com/bureau-foundation/bdf/lib/clock"
	"github.com/bureau-foundation/bdf/lib/message"
	"github.com/bureau-foundation/bdf/lib/store"
	"github.com/bureau-foundation/bdf/lib/validation"
)

// ClientID identifies the transport properties client.
const ClientID message.ClientID = "bdf.properties"

// Limits on message content, in bytes for strings.
const (
	MaxTransportIDLength = 100
	MaxProperties        = 100
	MaxPropertyLength    = 100
)

const keyTransportID = "transportId"

// Properties maps property names to values for one transport.
type Properties map[string]string

// LocalPropertiesUpdated is broadcast when our own properties for a
// transport change.
type LocalPropertiesUpdated struct {
	TransportID string
}

// RemotePropertiesUpdated is broadcast when a contact's properties for
// a transport change.
type RemotePropertiesUpdated struct {
	ContactID   store.ContactID
	TransportID string
}

// Config holds the parameters for New.
type Config struct {
	// Store holds the groups and messages. Required.
	Store *store.Store

	// Validation, if set, receives the client's validator and delivery
	// hook.
	Validation *validation.Manager

	// Local is our own author id, used to derive contact groups.
	Local message.AuthorID

	// Clock timestamps local messages. Nil means the real clock.
	Clock clock.Clock

	// Reader holds the limits stored bodies are decoded with.
	Reader bdf.ReaderConfig

	Logger *slog.Logger
}

// Manager is the transport properties client.
type Manager struct {
	store      *store.Store
	local      message.AuthorID
	clock      clock.Clock
	reader     bdf.ReaderConfig
	logger     *slog.Logger
	localGroup message.Group
}

// New stores the local group if needed and registers the client with
// the store and, when configured, the validation manager.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("properties: Config.Store is required")
	}
	manager := &Manager{
		store:      cfg.Store,
		local:      cfg.Local,
		clock:      cfg.Clock,
		reader:     cfg.Reader,
		logger:     cfg.Logger,
		localGroup: message.NewGroup(ClientID, nil),
	}
	if manager.clock == nil {
		manager.clock = clock.Real()
	}
	if manager.logger == nil {
		manager.logger = slog.New(slog.DiscardHandler)
	}

	err := cfg.Store.Transaction(ctx, false, func(txn *store.Txn) error {
		return txn.AddGroup(manager.localGroup)
	})
	if err != nil {
		return nil, fmt.Errorf("properties: adding local group: %w", err)
	}
	cfg.Store.RegisterContactHook(manager)
	if cfg.Validation != nil {
		cfg.Validation.RegisterValidator(ClientID, manager)
		cfg.Validation.RegisterIncomingMessageHook(ClientID, manager)
	}
	return manager, nil
}

// ContactGroup returns the group shared with the author of a contact.
func (m *Manager) ContactGroup(author message.AuthorID) message.Group {
	return message.NewGroup(ClientID, client.ContactGroupDescriptor(m.local, author))
}

func subject(transportID string, local bool) *bdf.Dict {
	dict := bdf.NewDict()
	dict.Set(keyTransportID, bdf.String(transportID))
	dict.Set(client.KeyLocal, bdf.Bool(local))
	return dict
}

func encodeBody(transportID string, version int64, props Properties) *bdf.List {
	return bdf.NewList(
		bdf.String(transportID),
		bdf.Int(version),
		bdf.DictValue(client.StringDict(props)),
	)
}

// parseBody checks a body and returns its fields.
func parseBody(body *bdf.List) (string, int64, Properties, error) {
	if err := bounds.CheckExactSize(body, 3); err != nil {
		return "", 0, nil, err
	}
	transportID, err := body.GetString(0)
	if err != nil {
		return "", 0, nil, err
	}
	if err := bounds.CheckLength(transportID, 1, MaxTransportIDLength); err != nil {
		return "", 0, nil, err
	}
	version, err := body.GetInt(1)
	if err != nil {
		return "", 0, nil, err
	}
	if version < 0 {
		return "", 0, nil, &bdf.FormatError{Reason: fmt.Sprintf("negative version %d", version)}
	}
	dict, err := body.GetDict(2)
	if err != nil {
		return "", 0, nil, err
	}
	props, err := client.ParseStringDict(dict, MaxProperties, MaxPropertyLength)
	if err != nil {
		return "", 0, nil, err
	}
	return transportID, version, props, nil
}

// storeUpdate stores a delivered update in groupID and deletes the
// previous one for the same subject, if any.
func (m *Manager) storeUpdate(txn *store.Txn, groupID message.GroupID, transportID string, version int64, props Properties, local bool, previous *client.Update) error {
	msg, err := client.NewMessage(groupID, message.Timestamp(m.clock.Now()), encodeBody(transportID, version, props))
	if err != nil {
		return err
	}
	metadata := subject(transportID, local)
	metadata.Set(client.KeyVersion, bdf.Int(version))
	if err := txn.AddLocalMessage(msg, metadata); err != nil {
		return err
	}
	if previous != nil {
		return client.DeleteMessage(txn, previous.ID)
	}
	return nil
}

// latest returns the properties of the newest update for a subject in
// groupID.
func (m *Manager) latest(txn *store.Txn, groupID message.GroupID, transportID string, local bool) (Properties, *client.Update, error) {
	update, found, err := client.Latest(txn, groupID, subject(transportID, local))
	if err != nil || !found {
		return nil, nil, err
	}
	body, err := client.MessageBody(txn, update.ID, m.reader)
	if err != nil {
		return nil, nil, err
	}
	_, _, props, err := parseBody(body)
	if err != nil {
		return nil, nil, fmt.Errorf("properties: stored message %s: %w", update.ID, err)
	}
	return props, &update, nil
}

// MergeLocalProperties merges props into our properties for a
// transport. An empty value removes a property. If nothing changes no
// message is stored; otherwise the new version replaces the previous
// one locally and in every contact group, and LocalPropertiesUpdated
// is broadcast.
func (m *Manager) MergeLocalProperties(ctx context.Context, transportID string, props Properties) error {
	return m.store.Transaction(ctx, false, func(txn *store.Txn) error {
		old, previous, err := m.latest(txn, m.localGroup.ID, transportID, true)
		if err != nil {
			return err
		}
		merged := maps.Clone(old)
		if merged == nil {
			merged = Properties{}
		}
		for key, value := range props {
			if value == "" {
				delete(merged, key)
			} else {
				merged[key] = value
			}
		}
		if maps.Equal(merged, old) {
			return nil
		}

		var version int64
		if previous != nil {
			version = previous.Version + 1
		}
		if err := m.storeUpdate(txn, m.localGroup.ID, transportID, version, merged, true, previous); err != nil {
			return err
		}

		contacts, err := txn.Contacts()
		if err != nil {
			return err
		}
		for _, contact := range contacts {
			groupID := m.ContactGroup(contact.Author).ID
			_, mirror, err := m.latest(txn, groupID, transportID, true)
			if err != nil {
				return err
			}
			if err := m.storeUpdate(txn, groupID, transportID, version, merged, true, mirror); err != nil {
				return err
			}
		}
		m.logger.Debug("local transport properties updated",
			"transport_id", transportID, "version", version)
		txn.Attach(LocalPropertiesUpdated{TransportID: transportID})
		return nil
	})
}

// AddRemoteProperties stores a contact's properties obtained out of
// band, for example when the contact was added in person. They are
// stored at version 0, so any update received from the contact
// replaces them. Transports for which we already hold the contact's
// properties are left alone.
func (m *Manager) AddRemoteProperties(ctx context.Context, contactID store.ContactID, props map[string]Properties) error {
	return m.store.Transaction(ctx, false, func(txn *store.Txn) error {
		contact, err := txn.Contact(contactID)
		if err != nil {
			return err
		}
		groupID := m.ContactGroup(contact.Author).ID
		for transportID, transportProps := range props {
			_, existing, err := m.latest(txn, groupID, transportID, false)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := m.storeUpdate(txn, groupID, transportID, 0, transportProps, false, nil); err != nil {
				return err
			}
			txn.Attach(RemotePropertiesUpdated{ContactID: contactID, TransportID: transportID})
		}
		return nil
	})
}

// LocalProperties returns our properties for every transport.
func (m *Manager) LocalProperties(ctx context.Context) (map[string]Properties, error) {
	all := make(map[string]Properties)
	err := m.store.Transaction(ctx, true, func(txn *store.Txn) error {
		metadata, err := txn.GroupMessageMetadata(m.localGroup.ID)
		if err != nil {
			return err
		}
		for _, entry := range metadata {
			transportID, err := entry.GetString(keyTransportID)
			if err != nil {
				return err
			}
			if _, done := all[transportID]; done {
				continue
			}
			props, _, err := m.latest(txn, m.localGroup.ID, transportID, true)
			if err != nil {
				return err
			}
			all[transportID] = props
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// LocalPropertiesFor returns our properties for one transport, empty if
// none are set.
func (m *Manager) LocalPropertiesFor(ctx context.Context, transportID string) (Properties, error) {
	var props Properties
	err := m.store.Transaction(ctx, true, func(txn *store.Txn) error {
		var err error
		props, _, err = m.latest(txn, m.localGroup.ID, transportID, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	if props == nil {
		props = Properties{}
	}
	return props, nil
}

// RemoteProperties returns every active contact's properties for a
// transport. Contacts without properties for it are omitted.
func (m *Manager) RemoteProperties(ctx context.Context, transportID string) (map[store.ContactID]Properties, error) {
	remote := make(map[store.ContactID]Properties)
	err := m.store.Transaction(ctx, true, func(txn *store.Txn) error {
		contacts, err := txn.Contacts()
		if err != nil {
			return err
		}
		for _, contact := range contacts {
			if !contact.Active {
				continue
			}
			props, _, err := m.latest(txn, m.ContactGroup(contact.Author).ID, transportID, false)
			if err != nil {
				return err
			}
			if props != nil {
				remote[contact.ID] = props
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return remote, nil
}
