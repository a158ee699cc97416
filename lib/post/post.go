// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package post implements signed posts in forums.
//
// A forum is a group whose descriptor names it and carries the public
// key that signs its posts:
//
//	[name string, publicKey raw(32)]
//
// A post body is:
//
//	[parent raw(32) or null, text string, signature raw]
//
// The signature covers the canonical encoding of
//
//	[groupId raw, timestamp int, parent, text]
//
// under the label "bdf.post". A post with a parent depends on it and is
// not delivered before its parent.
package post

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/bounds"
	"github.com/bureau-foundation/bdf/lib/client"
	"github.com/bureau-foundation/bdf/lib/message"
	"github.com/bureau-foundation/bdf/lib/signature"
	"github.com/bureau-foundation/bdf/lib/store"
	"github.com/bureau-foundation/bdf/lib/validation"
)

// ClientID identifies the post client.
const ClientID message.ClientID = "bdf.post"

// SignatureLabel separates post signatures from every other use of the
// forum key.
const SignatureLabel = "bdf.post"

// Limits on content, in bytes.
const (
	MaxForumNameLength = 100
	MaxTextLength      = 32 * 1024
)

const (
	keyTimestamp = "timestamp"
	keyRead      = "read"
	keyParent    = "parent"
)

// PostAdded is broadcast when a post is delivered or added locally.
type PostAdded struct {
	GroupID   message.GroupID
	MessageID message.MessageID
}

// Header describes a stored post without its text.
type Header struct {
	ID        message.MessageID
	Parent    message.MessageID
	HasParent bool
	Timestamp int64
	Read      bool
}

// Forum is a parsed forum descriptor.
type Forum struct {
	Group     message.Group
	Name      string
	PublicKey []byte
}

// NewForum returns the forum named name whose posts are signed by
// publicKey.
func NewForum(name string, publicKey []byte) (Forum, error) {
	descriptor, err := bdf.EncodeList(bdf.NewList(bdf.String(name), bdf.Raw(publicKey)))
	if err != nil {
		return Forum{}, err
	}
	return ParseForum(message.NewGroup(ClientID, descriptor))
}

// ParseForum checks a forum group's descriptor.
func ParseForum(group message.Group) (Forum, error) {
	descriptor, err := bdf.DecodeList(group.Descriptor)
	if err != nil {
		return Forum{}, err
	}
	if err := bounds.CheckExactSize(descriptor, 2); err != nil {
		return Forum{}, err
	}
	name, err := descriptor.GetString(0)
	if err != nil {
		return Forum{}, err
	}
	if err := bounds.CheckLength(name, 1, MaxForumNameLength); err != nil {
		return Forum{}, err
	}
	publicKey, err := descriptor.GetRaw(1)
	if err != nil {
		return Forum{}, err
	}
	if err := bounds.CheckExactLength(publicKey, signature.PublicKeySize); err != nil {
		return Forum{}, err
	}
	return Forum{Group: group, Name: name, PublicKey: publicKey}, nil
}

func parentValue(parent *message.MessageID) bdf.Value {
	if parent == nil {
		return bdf.Null()
	}
	return bdf.Raw(parent[:])
}

// signedTuple is the list a post signature covers.
func signedTuple(groupID message.GroupID, timestamp int64, parent bdf.Value, text string) *bdf.List {
	return bdf.NewList(bdf.Raw(groupID[:]), bdf.Int(timestamp), parent, bdf.String(text))
}

// Create signs and returns a post. parent may be nil.
func Create(signer signature.Signer, groupID message.GroupID, timestamp int64, parent *message.MessageID, text string) (message.Message, error) {
	sig, err := client.Sign(signer, SignatureLabel, signedTuple(groupID, timestamp, parentValue(parent), text))
	if err != nil {
		return message.Message{}, fmt.Errorf("post: signing: %w", err)
	}
	body := bdf.NewList(parentValue(parent), bdf.String(text), bdf.Raw(sig))
	return client.NewMessage(groupID, timestamp, body)
}

// parsed is a validated post body.
type parsed struct {
	parent    *message.MessageID
	text      string
	signature []byte
}

func parseBody(body *bdf.List) (parsed, error) {
	if err := bounds.CheckExactSize(body, 3); err != nil {
		return parsed{}, err
	}
	var post parsed
	rawParent, hasParent, err := body.GetOptionalRaw(0)
	if err != nil {
		return parsed{}, err
	}
	if err := bounds.CheckOptionalLength(rawParent, hasParent, message.IDLength, message.IDLength); err != nil {
		return parsed{}, err
	}
	if hasParent {
		parent, err := message.ParseMessageID(rawParent)
		if err != nil {
			return parsed{}, err
		}
		post.parent = &parent
	}
	if post.text, err = body.GetString(1); err != nil {
		return parsed{}, err
	}
	if err := bounds.CheckLength(post.text, 1, MaxTextLength); err != nil {
		return parsed{}, err
	}
	if post.signature, err = body.GetRaw(2); err != nil {
		return parsed{}, err
	}
	if err := bounds.CheckLength(post.signature, 1, signature.MaxSize); err != nil {
		return parsed{}, err
	}
	return post, nil
}

// Config holds the parameters for New.
type Config struct {
	// Store holds the forums and posts. Required.
	Store *store.Store

	// Validation, if set, receives the client's validator and delivery
	// hook.
	Validation *validation.Manager

	// Verifier checks post signatures. Nil means Ed25519.
	Verifier signature.Verifier

	Logger *slog.Logger
}

// Manager is the post client.
type Manager struct {
	store    *store.Store
	verifier signature.Verifier
	logger   *slog.Logger
}

// New registers the client with the validation manager, when
// configured.
func New(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("post: Config.Store is required")
	}
	manager := &Manager{store: cfg.Store, verifier: cfg.Verifier, logger: cfg.Logger}
	if manager.verifier == nil {
		manager.verifier = signature.Ed25519Verifier{}
	}
	if manager.logger == nil {
		manager.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Validation != nil {
		cfg.Validation.RegisterValidator(ClientID, manager)
		cfg.Validation.RegisterIncomingMessageHook(ClientID, manager)
	}
	return manager, nil
}

// Validate checks a post's fields and signature. A post with a parent
// depends on the parent.
func (m *Manager) Validate(msg message.Message, group message.Group, body *bdf.List) (validation.Outcome, error) {
	forum, err := ParseForum(group)
	if err != nil {
		return validation.Outcome{}, validation.Invalidf("malformed forum descriptor: %v", err)
	}
	post, err := parseBody(body)
	if err != nil {
		return validation.Outcome{}, err
	}
	tuple := signedTuple(group.ID, msg.Timestamp, parentValue(post.parent), post.text)
	if err := client.VerifySignature(m.verifier, SignatureLabel, post.signature, forum.PublicKey, tuple); err != nil {
		return validation.Outcome{}, err
	}
	outcome := validation.Outcome{Metadata: metadata(msg.Timestamp, post.parent, false)}
	if post.parent != nil {
		outcome.Dependencies = []message.MessageID{*post.parent}
	}
	return outcome, nil
}

func metadata(timestamp int64, parent *message.MessageID, read bool) *bdf.Dict {
	dict := bdf.NewDict()
	dict.Set(keyTimestamp, bdf.Int(timestamp))
	dict.Set(keyRead, bdf.Bool(read))
	if parent != nil {
		dict.Set(keyParent, bdf.Raw(parent[:]))
	}
	return dict
}

// IncomingMessage announces a delivered post.
func (m *Manager) IncomingMessage(txn *store.Txn, msg message.Message, _ *bdf.Dict) error {
	txn.Attach(PostAdded{GroupID: msg.GroupID, MessageID: msg.ID})
	return nil
}

// AddForum stores a forum.
func (m *Manager) AddForum(ctx context.Context, forum Forum) error {
	return m.store.Transaction(ctx, false, func(txn *store.Txn) error {
		return txn.AddGroup(forum.Group)
	})
}

// RemoveForum removes a forum and its posts.
func (m *Manager) RemoveForum(ctx context.Context, groupID message.GroupID) error {
	return m.store.Transaction(ctx, false, func(txn *store.Txn) error {
		return txn.RemoveGroup(groupID)
	})
}

// AddLocalPost stores a post we created with Create. It is delivered
// immediately and marked read.
func (m *Manager) AddLocalPost(ctx context.Context, msg message.Message) error {
	body, err := bdf.DecodeList(msg.Body)
	if err != nil {
		return err
	}
	post, err := parseBody(body)
	if err != nil {
		return err
	}
	return m.store.Transaction(ctx, false, func(txn *store.Txn) error {
		if err := txn.AddLocalMessage(msg, metadata(msg.Timestamp, post.parent, true)); err != nil {
			return err
		}
		txn.Attach(PostAdded{GroupID: msg.GroupID, MessageID: msg.ID})
		return nil
	})
}

// Headers returns the delivered posts of a forum, oldest first.
func (m *Manager) Headers(ctx context.Context, groupID message.GroupID) ([]Header, error) {
	var headers []Header
	err := m.store.Transaction(ctx, true, func(txn *store.Txn) error {
		all, err := txn.GroupMessageMetadata(groupID)
		if err != nil {
			return err
		}
		for id, entry := range all {
			header, err := parseHeader(id, entry)
			if err != nil {
				return fmt.Errorf("post: metadata of %s: %w", id, err)
			}
			headers = append(headers, header)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(headers, func(a, b Header) int {
		if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return headers, nil
}

func parseHeader(id message.MessageID, entry *bdf.Dict) (Header, error) {
	header := Header{ID: id}
	var err error
	if header.Timestamp, err = entry.GetInt(keyTimestamp); err != nil {
		return Header{}, err
	}
	header.Read = entry.GetBoolOr(keyRead, false)
	parent, ok, err := entry.GetOptionalRaw(keyParent)
	if err != nil {
		return Header{}, err
	}
	if ok {
		if header.Parent, err = message.ParseMessageID(parent); err != nil {
			return Header{}, err
		}
		header.HasParent = true
	}
	return header, nil
}

// Text returns the text of a stored post.
func (m *Manager) Text(ctx context.Context, id message.MessageID) (string, error) {
	var text string
	err := m.store.Transaction(ctx, true, func(txn *store.Txn) error {
		body, err := client.MessageBody(txn, id, bdf.ReaderConfig{})
		if err != nil {
			return err
		}
		post, err := parseBody(body)
		if err != nil {
			return err
		}
		text = post.text
		return nil
	})
	return text, err
}

// SetRead marks a post read or unread.
func (m *Manager) SetRead(ctx context.Context, id message.MessageID, read bool) error {
	return m.store.Transaction(ctx, false, func(txn *store.Txn) error {
		update := bdf.NewDict()
		update.Set(keyRead, bdf.Bool(read))
		return txn.MergeMessageMetadata(id, update)
	})
}
