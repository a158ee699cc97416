// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package event delivers client change notifications to subscribers.
//
// Events are plain values (for example properties.RemotePropertiesUpdated)
// that identify what changed; subscribers re-read current state rather
// than receive payloads. The store attaches events to a transaction and
// broadcasts them only after the transaction commits, so a rolled-back
// reconciliation never announces anything.
package event

import (
	"fmt"
	"log/slog"
	"sync"
)

// Event is any notification value.
type Event any

// DefaultBuffer is the channel capacity used by Subscribe when the
// requested buffer is not positive.
const DefaultBuffer = 64

// Bus fans events out to subscribers. Delivery never blocks the
// broadcaster: a subscriber whose buffer is full misses the event and
// the drop is logged.
//
// Bus is safe for concurrent use.
type Bus struct {
	mutex       sync.Mutex
	subscribers map[*Subscription]struct{}
	logger      *slog.Logger
}

// Subscription is one subscriber's view of a Bus.
type Subscription struct {
	// C receives events in broadcast order. It is closed by Close.
	C <-chan Event

	channel chan Event
	bus     *Bus
	once    sync.Once
}

// NewBus returns an empty bus. A nil logger discards log output.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{
		subscribers: make(map[*Subscription]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a subscriber with the given channel capacity.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	channel := make(chan Event, buffer)
	subscription := &Subscription{C: channel, channel: channel, bus: b}

	b.mutex.Lock()
	b.subscribers[subscription] = struct{}{}
	b.mutex.Unlock()
	return subscription
}

// Close unregisters the subscription and closes its channel. Safe to
// call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mutex.Lock()
		delete(s.bus.subscribers, s)
		close(s.channel)
		s.bus.mutex.Unlock()
	})
}

// Broadcast delivers events, in order, to every current subscriber.
func (b *Bus) Broadcast(events ...Event) {
	if len(events) == 0 {
		return
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, event := range events {
		b.logger.Debug("broadcasting event", "event", fmt.Sprintf("%T", event))
		for subscription := range b.subscribers {
			select {
			case subscription.channel <- event:
			default:
				b.logger.Warn("subscriber buffer full, event dropped",
					"event", fmt.Sprintf("%T", event))
			}
		}
	}
}
