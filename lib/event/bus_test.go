// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"testing"
	"time"

	"github.com/bureau-foundation/bdf/lib/testutil"
)

type sampleEvent struct{ Name string }

func TestBroadcastReachesEverySubscriber(t *testing.T) {
	bus := NewBus(nil)
	first := bus.Subscribe(4)
	second := bus.Subscribe(4)
	defer first.Close()
	defer second.Close()

	bus.Broadcast(sampleEvent{"a"}, sampleEvent{"b"})

	for _, subscription := range []*Subscription{first, second} {
		for _, want := range []string{"a", "b"} {
			got := testutil.RequireReceive(t, subscription.C, time.Second, "waiting for event")
			if got.(sampleEvent).Name != want {
				t.Errorf("event = %+v, want %s", got, want)
			}
		}
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	bus := NewBus(nil)
	subscription := bus.Subscribe(1)
	defer subscription.Close()

	bus.Broadcast(sampleEvent{"kept"}, sampleEvent{"dropped"})

	got := testutil.RequireReceive(t, subscription.C, time.Second, "waiting for event")
	if got.(sampleEvent).Name != "kept" {
		t.Errorf("event = %+v, want kept", got)
	}
	select {
	case extra := <-subscription.C:
		t.Errorf("unexpected event %+v", extra)
	default:
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := NewBus(nil)
	subscription := bus.Subscribe(1)
	subscription.Close()
	subscription.Close()

	bus.Broadcast(sampleEvent{"late"})
	testutil.RequireClosed(t, subscription.C, time.Second, "closed subscription received an event")
}
