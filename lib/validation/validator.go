// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"time"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/message"
	"github.com/bureau-foundation/bdf/lib/store"
)

// DefaultMaxClockSkew is how far in the future a message timestamp may
// be before the message is rejected.
const DefaultMaxClockSkew = 24 * time.Hour

// Outcome is what a validator returns for an accepted message.
type Outcome struct {
	// Metadata is merged into the message's stored metadata. Nil
	// stores none.
	Metadata *bdf.Dict

	// Dependencies must all be delivered before the message is.
	Dependencies []message.MessageID
}

// Validator checks the body of one message against a client's schema.
// Implementations must not retain body and must be safe to call from
// several goroutines. Errors are rejections; a *bdf.FormatError from a
// failed field access is treated the same as an *InvalidMessageError.
type Validator interface {
	Validate(msg message.Message, group message.Group, body *bdf.List) (Outcome, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(msg message.Message, group message.Group, body *bdf.List) (Outcome, error)

func (f ValidatorFunc) Validate(msg message.Message, group message.Group, body *bdf.List) (Outcome, error) {
	return f(msg, group, body)
}

// IncomingMessageHook is called when a message of the hook's client is
// delivered, inside the write transaction that delivers it. The
// message's metadata is already stored. Returning an
// *InvalidMessageError invalidates the message; any other error rolls
// the transaction back.
type IncomingMessageHook interface {
	IncomingMessage(txn *store.Txn, msg message.Message, metadata *bdf.Dict) error
}

// Check runs the steps every message goes through before its client's
// rules apply: the timestamp must not be more than maxSkew ahead of
// now, and the body must decode as a single list under reader. It then
// calls validator. Every failure comes back as an
// *InvalidMessageError.
func Check(validator Validator, msg message.Message, group message.Group, now time.Time, maxSkew time.Duration, reader bdf.ReaderConfig) (Outcome, error) {
	if limit := message.Timestamp(now.Add(maxSkew)); msg.Timestamp > limit {
		return Outcome{}, Invalidf("timestamp %d is more than %v in the future", msg.Timestamp, maxSkew)
	}
	if msg.GroupID != group.ID {
		return Outcome{}, Invalidf("message belongs to group %s, not %s", msg.GroupID, group.ID)
	}
	body, err := bdf.DecodeListWith(msg.Body, reader)
	if err != nil {
		return Outcome{}, Invalid(err)
	}
	outcome, err := validator.Validate(msg, group, body)
	if err != nil {
		return Outcome{}, Invalid(err)
	}
	if outcome.Metadata == nil {
		outcome.Metadata = bdf.NewDict()
	}
	return outcome, nil
}
