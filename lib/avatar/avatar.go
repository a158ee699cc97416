// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package avatar shares profile images with contacts.
//
// Every author has one avatar group. An update body is:
//
//	[type int (always 0), version int, contentType string, image raw]
//
// and only the update with the highest version is kept.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/bounds"
	"github.com/bureau-foundation/bdf/lib/client"
	"github.com/bureau-foundation/bdf/lib/clock"
	"github.com/bureau-foundation/bdf/lib/message"
	"github.com/bureau-foundation/bdf/lib/store"
	"github.com/bureau-foundation/bdf/lib/validation"
)

// ClientID identifies the avatar client.
const ClientID message.ClientID = "bdf.avatar"

// Limits on message content, in bytes.
const (
	MaxContentTypeLength = 50
	MaxImageLength       = 32 * 1024
)

const (
	typeUpdate     = 0
	keyContentType = "contentType"
)

// AvatarUpdated is broadcast when a contact's avatar changes.
type AvatarUpdated struct {
	ContactID   store.ContactID
	MessageID   message.MessageID
	ContentType string
}

// Avatar is a stored avatar.
type Avatar struct {
	MessageID   message.MessageID
	Version     int64
	ContentType string
	Image       []byte
}

// Config holds the parameters for New.
type Config struct {
	// Store holds the groups and messages. Required.
	Store *store.Store

	// Validation, if set, receives the client's validator and delivery
	// hook.
	Validation *validation.Manager

	// Local is our own author id. Our avatar group is derived from it.
	Local message.AuthorID

	// Clock timestamps local messages. Nil means the real clock.
	Clock clock.Clock

	// Reader holds the limits stored bodies are decoded with.
	Reader bdf.ReaderConfig

	Logger *slog.Logger
}

// Manager is the avatar client.
type Manager struct {
	store    *store.Store
	clock    clock.Clock
	reader   bdf.ReaderConfig
	logger   *slog.Logger
	ownGroup message.Group
}

// New stores our avatar group if needed and registers the client with
// the store and, when configured, the validation manager.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("avatar: Config.Store is required")
	}
	manager := &Manager{
		store:    cfg.Store,
		clock:    cfg.Clock,
		reader:   cfg.Reader,
		logger:   cfg.Logger,
		ownGroup: Group(cfg.Local),
	}
	if manager.clock == nil {
		manager.clock = clock.Real()
	}
	if manager.logger == nil {
		manager.logger = slog.New(slog.DiscardHandler)
	}
	err := cfg.Store.Transaction(ctx, false, func(txn *store.Txn) error {
		return txn.AddGroup(manager.ownGroup)
	})
	if err != nil {
		return nil, fmt.Errorf("avatar: adding own group: %w", err)
	}
	cfg.Store.RegisterContactHook(manager)
	if cfg.Validation != nil {
		cfg.Validation.RegisterValidator(ClientID, manager)
		cfg.Validation.RegisterIncomingMessageHook(ClientID, manager)
	}
	return manager, nil
}

// Group returns the avatar group of author.
func Group(author message.AuthorID) message.Group {
	descriptor, _ := bdf.EncodeList(bdf.NewList(bdf.Raw(author[:])))
	return message.NewGroup(ClientID, descriptor)
}

// EncodeUpdate returns the body of an avatar update.
func EncodeUpdate(version int64, contentType string, image []byte) *bdf.List {
	return bdf.NewList(
		bdf.Int(typeUpdate),
		bdf.Int(version),
		bdf.String(contentType),
		bdf.Raw(image),
	)
}

func parseUpdate(body *bdf.List) (int64, string, []byte, error) {
	if err := bounds.CheckExactSize(body, 4); err != nil {
		return 0, "", nil, err
	}
	kind, err := body.GetInt(0)
	if err != nil {
		return 0, "", nil, err
	}
	if kind != typeUpdate {
		return 0, "", nil, validation.Invalidf("unknown message type %d", kind)
	}
	version, err := body.GetInt(1)
	if err != nil {
		return 0, "", nil, err
	}
	if version < 0 {
		return 0, "", nil, validation.Invalidf("negative version %d", version)
	}
	contentType, err := body.GetString(2)
	if err != nil {
		return 0, "", nil, err
	}
	if err := bounds.CheckLength(contentType, 1, MaxContentTypeLength); err != nil {
		return 0, "", nil, err
	}
	image, err := body.GetRaw(3)
	if err != nil {
		return 0, "", nil, err
	}
	if err := bounds.CheckLength(image, 1, MaxImageLength); err != nil {
		return 0, "", nil, err
	}
	return version, contentType, image, nil
}

// Validate accepts an update in a contact's avatar group.
func (m *Manager) Validate(msg message.Message, group message.Group, body *bdf.List) (validation.Outcome, error) {
	if group.ID == m.ownGroup.ID {
		return validation.Outcome{}, validation.Invalidf("remote message in our own avatar group")
	}
	version, contentType, _, err := parseUpdate(body)
	if err != nil {
		return validation.Outcome{}, err
	}
	metadata := bdf.NewDict()
	metadata.Set(client.KeyVersion, bdf.Int(version))
	metadata.Set(keyContentType, bdf.String(contentType))
	return validation.Outcome{Metadata: metadata}, nil
}

// IncomingMessage keeps the update if it is newer than the stored one.
func (m *Manager) IncomingMessage(txn *store.Txn, msg message.Message, metadata *bdf.Dict) error {
	version, err := metadata.GetInt(client.KeyVersion)
	if err != nil {
		return validation.Invalid(err)
	}
	contentType, err := metadata.GetString(keyContentType)
	if err != nil {
		return validation.Invalid(err)
	}
	current, err := client.Reconcile(txn, msg.GroupID, bdf.NewDict(), msg.ID, version)
	if err != nil || !current {
		return err
	}
	contactID, err := client.ContactID(txn, msg.GroupID)
	if err != nil {
		return err
	}
	m.logger.Debug("avatar updated", "contact_id", contactID, "message_id", msg.ID, "version", version)
	txn.Attach(AvatarUpdated{ContactID: contactID, MessageID: msg.ID, ContentType: contentType})
	return nil
}

// AddAvatar stores a new avatar of ours, one version above the current
// one. If another update of ours committed first with an equal or
// higher version, that one is kept and returned instead.
func (m *Manager) AddAvatar(ctx context.Context, contentType string, image []byte) (Avatar, error) {
	var latest client.Update
	var found bool
	err := m.store.Transaction(ctx, true, func(txn *store.Txn) error {
		var err error
		latest, found, err = client.Latest(txn, m.ownGroup.ID, bdf.NewDict())
		return err
	})
	if err != nil {
		return Avatar{}, err
	}
	var version int64
	if found {
		version = latest.Version + 1
	}
	body := EncodeUpdate(version, contentType, image)
	if _, _, _, err := parseUpdate(body); err != nil {
		return Avatar{}, err
	}
	msg, err := client.NewMessage(m.ownGroup.ID, message.Timestamp(m.clock.Now()), body)
	if err != nil {
		return Avatar{}, err
	}

	avatar := Avatar{MessageID: msg.ID, Version: version, ContentType: contentType, Image: image}
	err = m.store.Transaction(ctx, false, func(txn *store.Txn) error {
		latest, found, err := client.Latest(txn, m.ownGroup.ID, bdf.NewDict())
		if err != nil {
			return err
		}
		if found && latest.Version >= version {
			avatar, err = m.read(txn, latest)
			return err
		}
		metadata := bdf.NewDict()
		metadata.Set(client.KeyVersion, bdf.Int(version))
		metadata.Set(keyContentType, bdf.String(contentType))
		if err := txn.AddLocalMessage(msg, metadata); err != nil {
			return err
		}
		if found {
			return client.DeleteMessage(txn, latest.ID)
		}
		return nil
	})
	if err != nil {
		return Avatar{}, err
	}
	return avatar, nil
}

func (m *Manager) read(txn *store.Txn, update client.Update) (Avatar, error) {
	body, err := client.MessageBody(txn, update.ID, m.reader)
	if err != nil {
		return Avatar{}, err
	}
	version, contentType, image, err := parseUpdate(body)
	if err != nil {
		return Avatar{}, fmt.Errorf("avatar: stored message %s: %w", update.ID, err)
	}
	return Avatar{MessageID: update.ID, Version: version, ContentType: contentType, Image: image}, nil
}

// Avatar returns the current avatar of author. The bool is false if
// none is stored.
func (m *Manager) Avatar(ctx context.Context, author message.AuthorID) (Avatar, bool, error) {
	return m.current(ctx, Group(author).ID)
}

// OwnAvatar returns our current avatar.
func (m *Manager) OwnAvatar(ctx context.Context) (Avatar, bool, error) {
	return m.current(ctx, m.ownGroup.ID)
}

func (m *Manager) current(ctx context.Context, groupID message.GroupID) (avatar Avatar, found bool, err error) {
	err = m.store.Transaction(ctx, true, func(txn *store.Txn) error {
		latest, ok, err := client.Latest(txn, groupID, bdf.NewDict())
		if err != nil || !ok {
			return err
		}
		found = true
		avatar, err = m.read(txn, latest)
		return err
	})
	return avatar, found, err
}

// AddingContact creates the contact's avatar group.
func (m *Manager) AddingContact(txn *store.Txn, contact store.Contact) error {
	group := Group(contact.Author)
	if err := txn.AddGroup(group); err != nil {
		return err
	}
	return client.SetContactID(txn, group.ID, contact.ID)
}

// RemovingContact removes the contact's avatar group.
func (m *Manager) RemovingContact(txn *store.Txn, contact store.Contact) error {
	return txn.RemoveGroup(Group(contact.Author).ID)
}
