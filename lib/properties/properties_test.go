// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package properties

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/client"
	"github.com/bureau-foundation/bdf/lib/clock"
	"github.com/bureau-foundation/bdf/lib/event"
	"github.com/bureau-foundation/bdf/lib/message"
	"github.com/bureau-foundation/bdf/lib/store"
	"github.com/bureau-foundation/bdf/lib/testutil"
	"github.com/bureau-foundation/bdf/lib/validation"
)

type fixture struct {
	store      *store.Store
	validation *validation.Manager
	properties *Manager
	clock      *clock.FakeClock
	events     *event.Subscription
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(store.Config{Path: testutil.DatabasePath(t), PoolSize: 2})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	manager, err := validation.NewManager(validation.Config{Store: st, Clock: fake})
	if err != nil {
		t.Fatalf("validation.NewManager: %v", err)
	}
	properties, err := New(ctx, Config{
		Store:      st,
		Validation: manager,
		Local:      newAuthor(t),
		Clock:      fake,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	events := st.Bus().Subscribe(event.DefaultBuffer)
	t.Cleanup(events.Close)
	return &fixture{store: st, validation: manager, properties: properties, clock: fake, events: events}
}

func newAuthor(t *testing.T) message.AuthorID {
	t.Helper()
	author, err := message.ParseAuthorID(testutil.UniqueBytes(message.IDLength))
	if err != nil {
		t.Fatalf("ParseAuthorID: %v", err)
	}
	return author
}

func (f *fixture) addContact(t *testing.T) store.Contact {
	t.Helper()
	var contact store.Contact
	err := f.store.Transaction(context.Background(), false, func(txn *store.Txn) error {
		var err error
		contact, err = txn.AddContact(newAuthor(t), true)
		return err
	})
	if err != nil {
		t.Fatalf("adding contact: %v", err)
	}
	return contact
}

// remoteUpdate builds an update from contact in the shared group.
func (f *fixture) remoteUpdate(t *testing.T, contact store.Contact, body *bdf.List) message.Message {
	t.Helper()
	f.clock.Advance(time.Second)
	msg, err := client.NewMessage(f.properties.ContactGroup(contact.Author).ID, message.Timestamp(f.clock.Now()), body)
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	return msg
}

func (f *fixture) drain() []event.Event {
	return testutil.Drain(f.events.C)
}

func TestRemoteUpdatesKeepHighestVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact := f.addContact(t)
	f.drain()

	for _, version := range []int64{1, 3, 2} {
		body := encodeBody("bt", version, Properties{"address": strconv.FormatInt(version, 10)})
		state, err := f.validation.Receive(ctx, f.remoteUpdate(t, contact, body))
		if err != nil {
			t.Fatalf("Receive(version %d): %v", version, err)
		}
		if state != store.StateDelivered {
			t.Fatalf("Receive(version %d) state = %s, want delivered", version, state)
		}
	}

	events := f.drain()
	if len(events) != 2 {
		t.Fatalf("got %d events %v, want 2", len(events), events)
	}
	for _, e := range events {
		want := RemotePropertiesUpdated{ContactID: contact.ID, TransportID: "bt"}
		if e != want {
			t.Errorf("event = %#v, want %#v", e, want)
		}
	}

	remote, err := f.properties.RemoteProperties(ctx, "bt")
	if err != nil {
		t.Fatalf("RemoteProperties: %v", err)
	}
	if got := remote[contact.ID]["address"]; got != "3" {
		t.Errorf("address = %q, want version 3's", got)
	}

	err = f.store.Transaction(ctx, true, func(txn *store.Txn) error {
		stored, err := txn.GroupMessageMetadata(f.properties.ContactGroup(contact.Author).ID)
		if err != nil {
			return err
		}
		if len(stored) != 1 {
			t.Errorf("contact group holds %d updates, want 1", len(stored))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reading contact group: %v", err)
	}
}

func TestRemoteUpdateWithEqualVersionIsStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact := f.addContact(t)
	f.drain()

	for _, address := range []string{"first", "second"} {
		body := encodeBody("bt", 4, Properties{"address": address})
		if _, err := f.validation.Receive(ctx, f.remoteUpdate(t, contact, body)); err != nil {
			t.Fatalf("Receive: %v", err)
		}
	}
	if events := f.drain(); len(events) != 1 {
		t.Errorf("got %d events, want 1", len(events))
	}
	remote, err := f.properties.RemoteProperties(ctx, "bt")
	if err != nil {
		t.Fatalf("RemoteProperties: %v", err)
	}
	if got := remote[contact.ID]["address"]; got != "first" {
		t.Errorf("address = %q, want the first update's", got)
	}
}

func TestMergeLocalProperties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact := f.addContact(t)
	f.drain()

	if err := f.properties.MergeLocalProperties(ctx, "tor", Properties{"onion": "abc", "port": "80"}); err != nil {
		t.Fatalf("MergeLocalProperties: %v", err)
	}
	if err := f.properties.MergeLocalProperties(ctx, "tor", Properties{"onion": "abc"}); err != nil {
		t.Fatalf("MergeLocalProperties (unchanged): %v", err)
	}
	if err := f.properties.MergeLocalProperties(ctx, "tor", Properties{"port": ""}); err != nil {
		t.Fatalf("MergeLocalProperties (removal): %v", err)
	}

	events := f.drain()
	if len(events) != 2 {
		t.Fatalf("got %d events %v, want 2", len(events), events)
	}
	if events[0] != (LocalPropertiesUpdated{TransportID: "tor"}) {
		t.Errorf("event = %#v", events[0])
	}

	props, err := f.properties.LocalPropertiesFor(ctx, "tor")
	if err != nil {
		t.Fatalf("LocalPropertiesFor: %v", err)
	}
	if len(props) != 1 || props["onion"] != "abc" {
		t.Errorf("local properties = %v, want only onion", props)
	}
	all, err := f.properties.LocalProperties(ctx)
	if err != nil {
		t.Fatalf("LocalProperties: %v", err)
	}
	if len(all) != 1 || all["tor"]["onion"] != "abc" {
		t.Errorf("LocalProperties = %v", all)
	}

	err = f.store.Transaction(ctx, true, func(txn *store.Txn) error {
		for _, groupID := range []message.GroupID{f.properties.localGroup.ID, f.properties.ContactGroup(contact.Author).ID} {
			update, found, err := client.Latest(txn, groupID, subject("tor", true))
			if err != nil {
				return err
			}
			if !found || update.Version != 1 {
				t.Errorf("group %s latest = %+v, %v; want version 1", groupID, update, found)
			}
			stored, err := txn.GroupMessageMetadata(groupID)
			if err != nil {
				return err
			}
			if len(stored) != 1 {
				t.Errorf("group %s holds %d updates, want 1", groupID, len(stored))
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reading groups: %v", err)
	}
}

func TestNewContactReceivesLocalProperties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.properties.MergeLocalProperties(ctx, "bt", Properties{"mac": "00:11"}); err != nil {
		t.Fatalf("MergeLocalProperties: %v", err)
	}
	contact := f.addContact(t)

	err := f.store.Transaction(ctx, true, func(txn *store.Txn) error {
		groupID := f.properties.ContactGroup(contact.Author).ID
		contactID, err := client.ContactID(txn, groupID)
		if err != nil {
			return err
		}
		if contactID != contact.ID {
			t.Errorf("contact group belongs to %d, want %d", contactID, contact.ID)
		}
		props, update, err := f.properties.latest(txn, groupID, "bt", true)
		if err != nil {
			return err
		}
		if update == nil || props["mac"] != "00:11" {
			t.Errorf("mirror = %v, want the local properties", props)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reading contact group: %v", err)
	}
}

func TestAddRemoteProperties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact := f.addContact(t)

	err := f.properties.AddRemoteProperties(ctx, contact.ID, map[string]Properties{"bt": {"mac": "aa"}})
	if err != nil {
		t.Fatalf("AddRemoteProperties: %v", err)
	}
	body := encodeBody("bt", 1, Properties{"mac": "bb"})
	if _, err := f.validation.Receive(ctx, f.remoteUpdate(t, contact, body)); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	remote, err := f.properties.RemoteProperties(ctx, "bt")
	if err != nil {
		t.Fatalf("RemoteProperties: %v", err)
	}
	if got := remote[contact.ID]["mac"]; got != "bb" {
		t.Errorf("mac = %q, want the received update to replace version 0", got)
	}
}

func TestRemotePropertiesSkipInactiveContacts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact := f.addContact(t)
	if err := f.properties.AddRemoteProperties(ctx, contact.ID, map[string]Properties{"bt": {"mac": "aa"}}); err != nil {
		t.Fatalf("AddRemoteProperties: %v", err)
	}
	err := f.store.Transaction(ctx, false, func(txn *store.Txn) error {
		return txn.SetContactActive(contact.ID, false)
	})
	if err != nil {
		t.Fatalf("SetContactActive: %v", err)
	}
	remote, err := f.properties.RemoteProperties(ctx, "bt")
	if err != nil {
		t.Fatalf("RemoteProperties: %v", err)
	}
	if len(remote) != 0 {
		t.Errorf("RemoteProperties = %v, want none for an inactive contact", remote)
	}
}

func TestValidatorRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact := f.addContact(t)

	tests := []struct {
		name string
		body *bdf.List
	}{
		{"too few fields", bdf.NewList(bdf.String("bt"), bdf.Int(0))},
		{"empty transport id", encodeBody("", 0, nil)},
		{"long transport id", encodeBody(strings.Repeat("x", MaxTransportIDLength+1), 0, nil)},
		{"negative version", encodeBody("bt", -1, nil)},
		{"version not an int", bdf.NewList(bdf.String("bt"), bdf.String("1"), bdf.DictValue(bdf.NewDict()))},
		{"empty property value", encodeBody("bt", 0, Properties{"mac": ""})},
		{"long property key", encodeBody("bt", 0, Properties{strings.Repeat("k", MaxPropertyLength+1): "v"})},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			state, err := f.validation.Receive(ctx, f.remoteUpdate(t, contact, test.body))
			if state != store.StateInvalid || !validation.IsInvalidMessage(err) {
				t.Errorf("Receive = %s, %v; want invalid with an InvalidMessageError", state, err)
			}
		})
	}
}

func TestRemovingContactRemovesGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact := f.addContact(t)
	err := f.store.Transaction(ctx, false, func(txn *store.Txn) error {
		return txn.RemoveContact(contact.ID)
	})
	if err != nil {
		t.Fatalf("RemoveContact: %v", err)
	}
	err = f.store.Transaction(ctx, true, func(txn *store.Txn) error {
		found, err := txn.ContainsGroup(f.properties.ContactGroup(contact.Author).ID)
		if err != nil {
			return err
		}
		if found {
			t.Error("contact group survived contact removal")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reading groups: %v", err)
	}
}
