// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/message"
	"github.com/bureau-foundation/bdf/lib/signature"
	"github.com/bureau-foundation/bdf/lib/store"
	"github.com/bureau-foundation/bdf/lib/testutil"
	"github.com/bureau-foundation/bdf/lib/validation"
)

func author(t *testing.T) message.AuthorID {
	t.Helper()
	id, err := message.ParseAuthorID(testutil.UniqueBytes(message.IDLength))
	if err != nil {
		t.Fatalf("ParseAuthorID: %v", err)
	}
	return id
}

func TestContactGroupDescriptorIsSymmetric(t *testing.T) {
	a, b := author(t), author(t)
	if !bytes.Equal(ContactGroupDescriptor(a, b), ContactGroupDescriptor(b, a)) {
		t.Error("descriptor depends on argument order")
	}
	if bytes.Equal(ContactGroupDescriptor(a, b), ContactGroupDescriptor(a, author(t))) {
		t.Error("different contacts share a descriptor")
	}
}

func TestSignAndVerify(t *testing.T) {
	key, err := signature.GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	tuple := bdf.NewList(bdf.String("payload"), bdf.Int(42))
	sig, err := Sign(key, "test.label", tuple)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	verifier := signature.Ed25519Verifier{}

	if err := VerifySignature(verifier, "test.label", sig, key.Public, tuple); err != nil {
		t.Errorf("VerifySignature: %v", err)
	}
	if err := VerifySignature(verifier, "other.label", sig, key.Public, tuple); !validation.IsInvalidMessage(err) {
		t.Errorf("wrong label = %v, want InvalidMessageError", err)
	}
	altered := bdf.NewList(bdf.String("payload"), bdf.Int(43))
	if err := VerifySignature(verifier, "test.label", sig, key.Public, altered); !validation.IsInvalidMessage(err) {
		t.Errorf("altered tuple = %v, want InvalidMessageError", err)
	}
	if err := VerifySignature(verifier, "test.label", sig[:10], key.Public, tuple); !validation.IsInvalidMessage(err) {
		t.Errorf("truncated signature = %v, want InvalidMessageError", err)
	}
}

func TestParseStringDict(t *testing.T) {
	parsed, err := ParseStringDict(StringDict(map[string]string{"a": "1", "b": "2"}), 2, 10)
	if err != nil || len(parsed) != 2 || parsed["b"] != "2" {
		t.Errorf("ParseStringDict = %v, %v", parsed, err)
	}

	tooMany := StringDict(map[string]string{"a": "1", "b": "2", "c": "3"})
	withInt := bdf.NewDict()
	withInt.Set("n", bdf.Int(1))
	tests := map[string]*bdf.Dict{
		"too many entries": tooMany,
		"long value":       StringDict(map[string]string{"a": strings.Repeat("v", 11)}),
		"empty value":      StringDict(map[string]string{"a": ""}),
		"non-string value": withInt,
	}
	for name, dict := range tests {
		if _, err := ParseStringDict(dict, 2, 10); !bdf.IsFormatError(err) {
			t.Errorf("%s: error = %v, want FormatError", name, err)
		}
	}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(store.Config{Path: testutil.DatabasePath(t), PoolSize: 1})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func versioned(subject string, version int64) *bdf.Dict {
	dict := bdf.NewDict()
	dict.Set("subject", bdf.String(subject))
	dict.Set(KeyVersion, bdf.Int(version))
	return dict
}

func subjectQuery(subject string) *bdf.Dict {
	dict := bdf.NewDict()
	dict.Set("subject", bdf.String(subject))
	return dict
}

func TestReconcile(t *testing.T) {
	st := openStore(t)
	group := message.NewGroup("client-test", nil)
	ctx := context.Background()

	var current message.Message
	err := st.Transaction(ctx, false, func(txn *store.Txn) error {
		if err := txn.AddGroup(group); err != nil {
			return err
		}
		current = message.New(group.ID, 1, []byte("v2"))
		if err := txn.AddLocalMessage(current, versioned("a", 2)); err != nil {
			return err
		}
		return txn.AddLocalMessage(message.New(group.ID, 1, []byte("other")), versioned("b", 9))
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name    string
		version int64
		want    bool
	}{
		{"older", 1, false},
		{"equal", 2, false},
		{"newer", 3, true},
	}
	for i, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			incoming := message.New(group.ID, int64(10+i), []byte(test.name))
			err := st.Transaction(ctx, false, func(txn *store.Txn) error {
				if _, err := txn.AddMessage(incoming); err != nil {
					return err
				}
				if err := txn.MergeMessageMetadata(incoming.ID, versioned("a", test.version)); err != nil {
					return err
				}
				got, err := Reconcile(txn, group.ID, subjectQuery("a"), incoming.ID, test.version)
				if err != nil {
					return err
				}
				if got != test.want {
					t.Errorf("Reconcile = %v, want %v", got, test.want)
				}
				if !got {
					if _, err := txn.Message(incoming.ID); err == nil {
						t.Error("stale incoming message kept its body")
					}
					return nil
				}
				if err := txn.SetMessageState(incoming.ID, store.StateDelivered); err != nil {
					return err
				}
				latest, found, err := Latest(txn, group.ID, subjectQuery("a"))
				if err != nil {
					return err
				}
				if !found || latest.ID != incoming.ID {
					t.Errorf("Latest = %+v, %v; want the incoming message", latest, found)
				}
				others, err := txn.QueryMessageMetadata(group.ID, subjectQuery("b"))
				if err != nil {
					return err
				}
				if len(others) != 1 {
					t.Errorf("other subject has %d messages, want 1", len(others))
				}
				return nil
			})
			if err != nil {
				t.Fatalf("Transaction: %v", err)
			}
		})
	}
}
