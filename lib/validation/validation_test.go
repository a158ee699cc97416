// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/clock"
	"github.com/bureau-foundation/bdf/lib/message"
	"github.com/bureau-foundation/bdf/lib/store"
	"github.com/bureau-foundation/bdf/lib/testutil"
)

const testClient message.ClientID = "test"

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// counterValidator accepts [count int, dependency raw or null] bodies
// with a non-negative count.
var counterValidator = ValidatorFunc(func(msg message.Message, group message.Group, body *bdf.List) (Outcome, error) {
	if body.Len() != 2 {
		return Outcome{}, Invalidf("body has %d fields", body.Len())
	}
	count, err := body.GetInt(0)
	if err != nil {
		return Outcome{}, err
	}
	if count < 0 {
		return Outcome{}, Invalidf("negative count %d", count)
	}
	metadata := bdf.NewDict()
	metadata.Set("count", bdf.Int(count))
	outcome := Outcome{Metadata: metadata}
	raw, ok, err := body.GetOptionalRaw(1)
	if err != nil {
		return Outcome{}, err
	}
	if ok {
		dependency, err := message.ParseMessageID(raw)
		if err != nil {
			return Outcome{}, err
		}
		outcome.Dependencies = append(outcome.Dependencies, dependency)
	}
	return outcome, nil
})

type fixture struct {
	store    *store.Store
	manager  *Manager
	registry *prometheus.Registry
	group    message.Group
	clock    *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(store.Config{Path: testutil.DatabasePath(t), PoolSize: 2})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	registry := prometheus.NewRegistry()
	fake := clock.Fake(epoch)
	manager, err := NewManager(Config{Store: st, Clock: fake, Registerer: registry, Workers: 3})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	group := message.NewGroup(testClient, []byte("group"))
	err = st.Transaction(context.Background(), false, func(txn *store.Txn) error {
		return txn.AddGroup(group)
	})
	if err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	return &fixture{store: st, manager: manager, registry: registry, group: group, clock: fake}
}

func (f *fixture) message(t *testing.T, count int64, dependency *message.MessageID) message.Message {
	t.Helper()
	f.clock.Advance(time.Millisecond)
	dependencyValue := bdf.Null()
	if dependency != nil {
		dependencyValue = bdf.Raw(dependency[:])
	}
	body, err := bdf.EncodeList(bdf.NewList(bdf.Int(count), dependencyValue))
	if err != nil {
		t.Fatalf("EncodeList: %v", err)
	}
	return message.New(f.group.ID, message.Timestamp(f.clock.Now()), body)
}

func (f *fixture) state(t *testing.T, id message.MessageID) store.State {
	t.Helper()
	var state store.State
	err := f.store.Transaction(context.Background(), true, func(txn *store.Txn) error {
		var err error
		state, err = txn.MessageState(id)
		return err
	})
	if err != nil {
		t.Fatalf("MessageState: %v", err)
	}
	return state
}

func (f *fixture) counted(outcome string) float64 {
	return promtest.ToFloat64(f.manager.validated.WithLabelValues(string(testClient), outcome))
}

func TestCheckRejectsFutureTimestamp(t *testing.T) {
	group := message.NewGroup(testClient, nil)
	body, _ := bdf.EncodeList(bdf.NewList(bdf.Int(1), bdf.Null()))

	within := message.New(group.ID, message.Timestamp(epoch.Add(DefaultMaxClockSkew)), body)
	if _, err := Check(counterValidator, within, group, epoch, DefaultMaxClockSkew, bdf.ReaderConfig{}); err != nil {
		t.Errorf("timestamp at the skew limit: %v", err)
	}
	beyond := message.New(group.ID, message.Timestamp(epoch.Add(DefaultMaxClockSkew+time.Millisecond)), body)
	if _, err := Check(counterValidator, beyond, group, epoch, DefaultMaxClockSkew, bdf.ReaderConfig{}); !IsInvalidMessage(err) {
		t.Errorf("timestamp beyond the skew limit = %v, want InvalidMessageError", err)
	}
}

func TestCheckConvertsFormatErrors(t *testing.T) {
	group := message.NewGroup(testClient, nil)
	tests := []struct {
		name string
		body []byte
	}{
		{"truncated", []byte{0x60, 0x21}},
		{"not a list", []byte{0x21, 0x01}},
		{"trailing data", []byte{0x60, 0x80, 0x00}},
		{"wrong field type", []byte{0x60, 0x41, 0x01, 'x', 0x00, 0x80}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			msg := message.New(group.ID, message.Timestamp(epoch), test.body)
			_, err := Check(counterValidator, msg, group, epoch, DefaultMaxClockSkew, bdf.ReaderConfig{})
			if !IsInvalidMessage(err) {
				t.Fatalf("Check = %v, want InvalidMessageError", err)
			}
			if !bdf.IsFormatError(err) {
				t.Errorf("Check = %v, want the FormatError to stay visible", err)
			}
		})
	}
}

func TestCheckRejectsForeignGroup(t *testing.T) {
	group := message.NewGroup(testClient, nil)
	other := message.NewGroup(testClient, []byte("other"))
	body, _ := bdf.EncodeList(bdf.NewList(bdf.Int(1), bdf.Null()))
	msg := message.New(other.ID, message.Timestamp(epoch), body)
	if _, err := Check(counterValidator, msg, group, epoch, DefaultMaxClockSkew, bdf.ReaderConfig{}); !IsInvalidMessage(err) {
		t.Errorf("Check = %v, want InvalidMessageError", err)
	}
}

func TestReceiveStoresMetadata(t *testing.T) {
	f := newFixture(t)
	f.manager.RegisterValidator(testClient, counterValidator)
	msg := f.message(t, 7, nil)

	state, err := f.manager.Receive(context.Background(), msg)
	if err != nil || state != store.StateDelivered {
		t.Fatalf("Receive = %s, %v; want delivered", state, err)
	}
	state, err = f.manager.Receive(context.Background(), msg)
	if err != nil || state != store.StateDelivered {
		t.Errorf("second Receive = %s, %v; want delivered", state, err)
	}

	err = f.store.Transaction(context.Background(), true, func(txn *store.Txn) error {
		metadata, err := txn.MessageMetadata(msg.ID)
		if err != nil {
			return err
		}
		if count, err := metadata.GetInt("count"); err != nil || count != 7 {
			t.Errorf("count = %d, %v; want 7", count, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if got := f.counted("delivered"); got != 1 {
		t.Errorf("delivered counter = %v, want 1", got)
	}
	if got := f.counted("duplicate"); got != 1 {
		t.Errorf("duplicate counter = %v, want 1", got)
	}
}

func TestReceiveUnknownGroup(t *testing.T) {
	f := newFixture(t)
	f.manager.RegisterValidator(testClient, counterValidator)
	msg := f.message(t, 1, nil)
	msg.GroupID = message.NewGroup(testClient, []byte("missing")).ID
	if _, err := f.manager.Receive(context.Background(), msg); !errors.Is(err, store.ErrNoSuchGroup) {
		t.Errorf("Receive = %v, want ErrNoSuchGroup", err)
	}
}

func TestUnknownClientStaysUnvalidated(t *testing.T) {
	f := newFixture(t)
	msg := f.message(t, 3, nil)

	state, err := f.manager.Receive(context.Background(), msg)
	if err != nil || state != store.StateUnknown {
		t.Fatalf("Receive without validator = %s, %v; want unknown", state, err)
	}

	f.manager.RegisterValidator(testClient, counterValidator)
	resolved, err := f.manager.ValidateStored(context.Background())
	if err != nil {
		t.Fatalf("ValidateStored: %v", err)
	}
	if resolved != 1 {
		t.Errorf("ValidateStored resolved %d messages, want 1", resolved)
	}
	if state := f.state(t, msg.ID); state != store.StateDelivered {
		t.Errorf("state after ValidateStored = %s, want delivered", state)
	}
}

func TestDependencyResolution(t *testing.T) {
	f := newFixture(t)
	f.manager.RegisterValidator(testClient, counterValidator)
	ctx := context.Background()

	root := f.message(t, 1, nil)
	middle := f.message(t, 2, &root.ID)
	leaf := f.message(t, 3, &middle.ID)

	for _, msg := range []message.Message{leaf, middle} {
		state, err := f.manager.Receive(ctx, msg)
		if err != nil || state != store.StatePending {
			t.Fatalf("Receive = %s, %v; want pending", state, err)
		}
	}
	if state, err := f.manager.Receive(ctx, root); err != nil || state != store.StateDelivered {
		t.Fatalf("Receive(root) = %s, %v; want delivered", state, err)
	}
	for name, id := range map[string]message.MessageID{"middle": middle.ID, "leaf": leaf.ID} {
		if state := f.state(t, id); state != store.StateDelivered {
			t.Errorf("%s state = %s, want delivered", name, state)
		}
	}
}

func TestInvalidationCascades(t *testing.T) {
	f := newFixture(t)
	f.manager.RegisterValidator(testClient, counterValidator)
	ctx := context.Background()

	bad := f.message(t, -1, nil)
	child := f.message(t, 1, &bad.ID)
	grandchild := f.message(t, 2, &child.ID)

	for _, msg := range []message.Message{grandchild, child} {
		if _, err := f.manager.Receive(ctx, msg); err != nil {
			t.Fatalf("Receive: %v", err)
		}
	}
	state, err := f.manager.Receive(ctx, bad)
	if state != store.StateInvalid || !IsInvalidMessage(err) {
		t.Fatalf("Receive(bad) = %s, %v; want invalid", state, err)
	}
	for name, id := range map[string]message.MessageID{"child": child.ID, "grandchild": grandchild.ID} {
		if state := f.state(t, id); state != store.StateInvalid {
			t.Errorf("%s state = %s, want invalid", name, state)
		}
	}
	err = f.store.Transaction(ctx, true, func(txn *store.Txn) error {
		if _, err := txn.Message(child.ID); !errors.Is(err, store.ErrMessageDeleted) {
			t.Errorf("invalidated body: %v, want ErrMessageDeleted", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
}

type hookFunc func(txn *store.Txn, msg message.Message, metadata *bdf.Dict) error

func (f hookFunc) IncomingMessage(txn *store.Txn, msg message.Message, metadata *bdf.Dict) error {
	return f(txn, msg, metadata)
}

func TestHookOutcomes(t *testing.T) {
	f := newFixture(t)
	f.manager.RegisterValidator(testClient, counterValidator)
	failure := errors.New("disk on fire")
	f.manager.RegisterIncomingMessageHook(testClient, hookFunc(func(txn *store.Txn, msg message.Message, metadata *bdf.Dict) error {
		switch metadata.GetIntOr("count", 0) {
		case 10:
			return Invalidf("rejected by hook")
		case 20:
			return failure
		}
		txn.Attach(msg.ID)
		return nil
	}))
	events := f.store.Bus().Subscribe(4)
	defer events.Close()
	ctx := context.Background()

	accepted := f.message(t, 1, nil)
	if state, err := f.manager.Receive(ctx, accepted); err != nil || state != store.StateDelivered {
		t.Fatalf("Receive = %s, %v; want delivered", state, err)
	}
	if got := testutil.RequireReceive(t, events.C, time.Second, "waiting for hook event"); got != accepted.ID {
		t.Errorf("event = %v, want %s", got, accepted.ID)
	}

	rejected := f.message(t, 10, nil)
	if state, err := f.manager.Receive(ctx, rejected); state != store.StateInvalid || !IsInvalidMessage(err) {
		t.Errorf("Receive(hook rejection) = %s, %v; want invalid", state, err)
	}

	failed := f.message(t, 20, nil)
	if _, err := f.manager.Receive(ctx, failed); !errors.Is(err, failure) {
		t.Errorf("Receive(hook failure) = %v, want %v", err, failure)
	}
	err := f.store.Transaction(ctx, true, func(txn *store.Txn) error {
		found, err := txn.ContainsMessage(failed.ID)
		if err != nil {
			return err
		}
		if found {
			t.Error("message stored despite rolled-back delivery")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
}

func TestReceiveBatchIsolatesRejections(t *testing.T) {
	f := newFixture(t)
	f.manager.RegisterValidator(testClient, counterValidator)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	const total, bad = 12, 5
	msgs := make([]message.Message, total)
	for i := range msgs {
		count := int64(i)
		if i == bad {
			count = -1
		}
		msgs[i] = f.message(t, count, nil)
	}

	results := f.manager.ReceiveBatch(context.Background(), msgs)
	if len(results) != total {
		t.Fatalf("got %d results, want %d", len(results), total)
	}
	for i, result := range results {
		if result.ID != msgs[i].ID {
			t.Errorf("result %d is for %s, want %s", i, result.ID, msgs[i].ID)
		}
		if i == bad {
			if result.State != store.StateInvalid || !IsInvalidMessage(result.Err) {
				t.Errorf("result %d = %s, %v; want invalid", i, result.State, result.Err)
			}
			continue
		}
		if result.State != store.StateDelivered || result.Err != nil {
			t.Errorf("result %d = %s, %v; want delivered", i, result.State, result.Err)
		}
	}
	if got := f.counted("delivered"); got != total-1 {
		t.Errorf("delivered counter = %v, want %d", got, total-1)
	}
	if got := f.counted("invalid"); got != 1 {
		t.Errorf("invalid counter = %v, want 1", got)
	}
}

func TestNewManagerRequiresStore(t *testing.T) {
	if _, err := NewManager(Config{}); err == nil {
		t.Error("NewManager without a store succeeded")
	}
}

func TestNewManagerReportsDuplicateMetrics(t *testing.T) {
	f := newFixture(t)
	if _, err := NewManager(Config{Store: f.store, Registerer: f.registry}); err == nil {
		t.Error("second manager registered the same metrics")
	}
}
