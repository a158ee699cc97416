// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"bytes"
	"time"
)

// Group is the unit of message storage and visibility.
type Group struct {
	ID         GroupID
	ClientID   ClientID
	Descriptor []byte
}

// NewGroup returns the group owned by clientID with the given
// descriptor. The descriptor is copied.
func NewGroup(clientID ClientID, descriptor []byte) Group {
	return Group{
		ID:         ComputeGroupID(clientID, descriptor),
		ClientID:   clientID,
		Descriptor: bytes.Clone(descriptor),
	}
}

// Message is a timestamped body stored in a group. Timestamp is
// milliseconds since the Unix epoch.
type Message struct {
	ID        MessageID
	GroupID   GroupID
	Timestamp int64
	Body      []byte
}

// New returns a message with its content-derived id.
func New(groupID GroupID, timestamp int64, body []byte) Message {
	return Message{
		ID:        ComputeMessageID(groupID, timestamp, body),
		GroupID:   groupID,
		Timestamp: timestamp,
		Body:      body,
	}
}

// Time returns the message timestamp as a time.Time.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// Timestamp converts t to the millisecond representation used by
// Message.
func Timestamp(t time.Time) int64 {
	return t.UnixMilli()
}
