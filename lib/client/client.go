// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client holds the helpers shared by the clients built on BDF
// messages: converting bodies between lists and bytes, signing and
// verifying BDF tuples, parsing common fields, and latest-update-wins
// reconciliation of versioned updates.
package client

import (
	"bytes"
	"fmt"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/bounds"
	"github.com/bureau-foundation/bdf/lib/message"
	"github.com/bureau-foundation/bdf/lib/signature"
	"github.com/bureau-foundation/bdf/lib/store"
	"github.com/bureau-foundation/bdf/lib/validation"
)

// Metadata keys shared across clients.
const (
	KeyVersion   = "version"
	KeyLocal     = "local"
	KeyContactID = "contactId"
)

// EncodeBody returns the canonical encoding of a message body.
func EncodeBody(body *bdf.List) ([]byte, error) {
	return bdf.EncodeList(body)
}

// NewMessage encodes body and returns the message it forms in groupID.
func NewMessage(groupID message.GroupID, timestamp int64, body *bdf.List) (message.Message, error) {
	encoded, err := EncodeBody(body)
	if err != nil {
		return message.Message{}, fmt.Errorf("client: encoding body: %w", err)
	}
	return message.New(groupID, timestamp, encoded), nil
}

// MessageBody reads a stored message and decodes its body.
func MessageBody(txn *store.Txn, id message.MessageID, reader bdf.ReaderConfig) (*bdf.List, error) {
	msg, err := txn.Message(id)
	if err != nil {
		return nil, err
	}
	body, err := bdf.DecodeListWith(msg.Body, reader)
	if err != nil {
		return nil, fmt.Errorf("client: decoding message %s: %w", id, err)
	}
	return body, nil
}

// ContactGroupDescriptor returns the descriptor of the group two
// authors share. Both sides compute the same descriptor.
func ContactGroupDescriptor(local, remote message.AuthorID) []byte {
	first, second := local, remote
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}
	// Two fixed-size raw values cannot fail to encode.
	encoded, _ := bdf.EncodeList(bdf.NewList(bdf.Raw(first[:]), bdf.Raw(second[:])))
	return encoded
}

// SetContactID records in a group's metadata which contact the group is
// shared with.
func SetContactID(txn *store.Txn, groupID message.GroupID, contactID store.ContactID) error {
	metadata := bdf.NewDict()
	metadata.Set(KeyContactID, bdf.Int(int64(contactID)))
	return txn.MergeGroupMetadata(groupID, metadata)
}

// ContactID returns the contact a group is shared with.
func ContactID(txn *store.Txn, groupID message.GroupID) (store.ContactID, error) {
	metadata, err := txn.GroupMetadata(groupID)
	if err != nil {
		return 0, err
	}
	id, err := metadata.GetInt(KeyContactID)
	if err != nil {
		return 0, fmt.Errorf("client: group %s has no contact: %w", groupID, err)
	}
	return store.ContactID(id), nil
}

// Sign signs the canonical encoding of tuple under label.
func Sign(signer signature.Signer, label string, tuple *bdf.List) ([]byte, error) {
	encoded, err := bdf.EncodeList(tuple)
	if err != nil {
		return nil, fmt.Errorf("client: encoding signed tuple: %w", err)
	}
	return signer.Sign(label, encoded)
}

// VerifySignature checks sig over the canonical encoding of tuple. A
// bad signature or key is an *validation.InvalidMessageError.
func VerifySignature(verifier signature.Verifier, label string, sig, publicKey []byte, tuple *bdf.List) error {
	encoded, err := bdf.EncodeList(tuple)
	if err != nil {
		return validation.Invalid(err)
	}
	if err := verifier.Verify(label, sig, encoded, publicKey); err != nil {
		return validation.Invalid(err)
	}
	return nil
}

// ParseStringDict converts a dictionary of strings into a map, checking
// its size and the byte length of every key and value.
func ParseStringDict(dict *bdf.Dict, maxEntries, maxLength int) (map[string]string, error) {
	if err := bounds.CheckSize(dict, 0, maxEntries); err != nil {
		return nil, err
	}
	parsed := make(map[string]string, dict.Len())
	for key := range dict.All() {
		value, err := dict.GetString(key)
		if err != nil {
			return nil, err
		}
		if err := bounds.CheckLength(key, 1, maxLength); err != nil {
			return nil, err
		}
		if err := bounds.CheckLength(value, 1, maxLength); err != nil {
			return nil, err
		}
		parsed[key] = value
	}
	return parsed, nil
}

// StringDict is the inverse of ParseStringDict.
func StringDict(entries map[string]string) *bdf.Dict {
	dict := bdf.NewDict()
	for key, value := range entries {
		dict.Set(key, bdf.String(value))
	}
	return dict
}
