// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// IDLength is the size in bytes of every identifier in this package.
const IDLength = 32

// GroupID identifies a group.
type GroupID [IDLength]byte

// MessageID identifies a message.
type MessageID [IDLength]byte

// AuthorID identifies the author of messages, typically a contact. It
// is derived from the author's public key by the identity layer and is
// opaque here.
type AuthorID [IDLength]byte

// ClientID names the client (feature module) that owns a group, such
// as "transport-properties" or "avatar".
type ClientID string

func (id GroupID) Bytes() []byte   { return id[:] }
func (id MessageID) Bytes() []byte { return id[:] }
func (id AuthorID) Bytes() []byte  { return id[:] }

func (id GroupID) String() string   { return hex.EncodeToString(id[:]) }
func (id MessageID) String() string { return hex.EncodeToString(id[:]) }
func (id AuthorID) String() string  { return hex.EncodeToString(id[:]) }

// IsZero reports whether id is the zero value.
func (id MessageID) IsZero() bool { return id == MessageID{} }

// ParseGroupID converts raw bytes, for example a BDF raw field, to a
// GroupID.
func ParseGroupID(raw []byte) (GroupID, error) {
	var id GroupID
	if len(raw) != IDLength {
		return id, fmt.Errorf("group id is %d bytes, want %d", len(raw), IDLength)
	}
	copy(id[:], raw)
	return id, nil
}

// ParseMessageID converts raw bytes, for example a BDF raw field, to a
// MessageID.
func ParseMessageID(raw []byte) (MessageID, error) {
	var id MessageID
	if len(raw) != IDLength {
		return id, fmt.Errorf("message id is %d bytes, want %d", len(raw), IDLength)
	}
	copy(id[:], raw)
	return id, nil
}

// ParseAuthorID converts raw bytes to an AuthorID.
func ParseAuthorID(raw []byte) (AuthorID, error) {
	var id AuthorID
	if len(raw) != IDLength {
		return id, fmt.Errorf("author id is %d bytes, want %d", len(raw), IDLength)
	}
	copy(id[:], raw)
	return id, nil
}

// ParseMessageIDHex parses the hex form produced by MessageID.String.
func ParseMessageIDHex(text string) (MessageID, error) {
	raw, err := hex.DecodeString(text)
	if err != nil {
		return MessageID{}, fmt.Errorf("parsing message id: %w", err)
	}
	return ParseMessageID(raw)
}

// domainKey is a 32-byte key for BLAKE3 keyed hashing: the ASCII
// domain name zero-padded to 32 bytes.
type domainKey [32]byte

var (
	groupDomainKey = domainKey{
		'b', 'd', 'f', '.', 'g', 'r', 'o', 'u', 'p', '.', 'i', 'd', 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	messageDomainKey = domainKey{
		'b', 'd', 'f', '.', 'm', 'e', 's', 's', 'a', 'g', 'e', '.', 'i', 'd', 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

func newHasher(key domainKey) *blake3.Hasher {
	// NewKeyed only fails for a key that is not 32 bytes.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("message: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

// ComputeGroupID derives the id of the group owned by clientID with the
// given descriptor.
func ComputeGroupID(clientID ClientID, descriptor []byte) GroupID {
	hasher := newHasher(groupDomainKey)
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(clientID)))
	hasher.Write(length[:])
	hasher.WriteString(string(clientID))
	hasher.Write(descriptor)
	var id GroupID
	copy(id[:], hasher.Sum(nil))
	return id
}

// ComputeMessageID derives the id of a message from its group,
// timestamp and body.
func ComputeMessageID(groupID GroupID, timestamp int64, body []byte) MessageID {
	hasher := newHasher(messageDomainKey)
	hasher.Write(groupID[:])
	var stamp [8]byte
	binary.BigEndian.PutUint64(stamp[:], uint64(timestamp))
	hasher.Write(stamp[:])
	hasher.Write(body)
	var id MessageID
	copy(id[:], hasher.Sum(nil))
	return id
}
