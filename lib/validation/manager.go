// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/clock"
	"github.com/bureau-foundation/bdf/lib/message"
	"github.com/bureau-foundation/bdf/lib/store"
)

// DefaultWorkers is the number of concurrent validator calls made by
// ReceiveBatch when Config.Workers is not positive.
const DefaultWorkers = 4

// errNoValidator marks a message whose client has no registered
// validator. Such messages stay UNKNOWN until one is registered.
var errNoValidator = errors.New("validation: no validator registered")

// Config holds the parameters for NewManager.
type Config struct {
	// Store holds messages, metadata and states. Required.
	Store *store.Store

	// Clock supplies the current time for the clock skew check. Nil
	// means the real clock.
	Clock clock.Clock

	// MaxClockSkew bounds how far ahead of Clock a message timestamp
	// may be. Zero means DefaultMaxClockSkew.
	MaxClockSkew time.Duration

	// Workers bounds concurrent validator calls in ReceiveBatch. Zero
	// means DefaultWorkers.
	Workers int

	// Reader holds the limits message bodies are decoded with.
	Reader bdf.ReaderConfig

	// Registerer receives the manager's metrics. Nil leaves them
	// unregistered.
	Registerer prometheus.Registerer

	// Logger receives rejections and processing failures. Nil
	// discards them.
	Logger *slog.Logger
}

// Result is the fate of one message passed to ReceiveBatch.
type Result struct {
	ID    message.MessageID
	State store.State

	// Err is the rejection (an *InvalidMessageError) for an INVALID
	// message, or the failure that prevented the message from being
	// processed.
	Err error
}

// Manager validates and delivers incoming messages. It is safe for
// concurrent use.
type Manager struct {
	store        *store.Store
	clock        clock.Clock
	maxClockSkew time.Duration
	workers      int
	reader       bdf.ReaderConfig
	logger       *slog.Logger
	validated    *prometheus.CounterVec

	mutex      sync.RWMutex
	validators map[message.ClientID]Validator
	hooks      map[message.ClientID]IncomingMessageHook
}

// NewManager returns a Manager with no registered clients.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("validation: Config.Store is required")
	}
	manager := &Manager{
		store:        cfg.Store,
		clock:        cfg.Clock,
		maxClockSkew: cfg.MaxClockSkew,
		workers:      cfg.Workers,
		reader:       cfg.Reader,
		logger:       cfg.Logger,
		validators:   make(map[message.ClientID]Validator),
		hooks:        make(map[message.ClientID]IncomingMessageHook),
		validated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bdf_messages_validated_total",
			Help: "Incoming messages processed, by client and resulting state.",
		}, []string{"client", "outcome"}),
	}
	if manager.clock == nil {
		manager.clock = clock.Real()
	}
	if manager.maxClockSkew <= 0 {
		manager.maxClockSkew = DefaultMaxClockSkew
	}
	if manager.workers <= 0 {
		manager.workers = DefaultWorkers
	}
	if manager.logger == nil {
		manager.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Registerer != nil {
		if err := cfg.Registerer.Register(manager.validated); err != nil {
			return nil, fmt.Errorf("validation: registering metrics: %w", err)
		}
	}
	return manager, nil
}

// RegisterValidator sets the validator for clientID's messages,
// replacing any previous one.
func (m *Manager) RegisterValidator(clientID message.ClientID, validator Validator) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.validators[clientID] = validator
}

// RegisterIncomingMessageHook sets the delivery hook for clientID's
// messages, replacing any previous one.
func (m *Manager) RegisterIncomingMessageHook(clientID message.ClientID, hook IncomingMessageHook) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.hooks[clientID] = hook
}

func (m *Manager) validator(clientID message.ClientID) (Validator, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	validator, ok := m.validators[clientID]
	return validator, ok
}

func (m *Manager) hook(clientID message.ClientID) IncomingMessageHook {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.hooks[clientID]
}

// check is the pure step: it touches nothing but the validator.
func (m *Manager) check(msg message.Message, group message.Group) (Outcome, error) {
	validator, ok := m.validator(group.ClientID)
	if !ok {
		return Outcome{}, errNoValidator
	}
	return Check(validator, msg, group, m.clock.Now(), m.maxClockSkew, m.reader)
}

// Receive stores msg, validates it and, when accepted, records its
// metadata and dependencies and delivers it if it can be. All of this
// commits in one write transaction. A rejected message yields
// store.StateInvalid with an *InvalidMessageError; a message already
// stored yields its current state and no error. The message's group
// must already be stored.
func (m *Manager) Receive(ctx context.Context, msg message.Message) (store.State, error) {
	group, err := m.group(ctx, msg.GroupID)
	if err != nil {
		return store.StateUnknown, err
	}
	outcome, checkErr := m.check(msg, group)
	return m.apply(ctx, msg, group, outcome, checkErr, false)
}

// ReceiveBatch is Receive for many messages. Validators run on up to
// Config.Workers goroutines; results are then applied one write
// transaction per message, in order, so a rejection or failure affects
// only its own message. The returned slice is parallel to msgs.
func (m *Manager) ReceiveBatch(ctx context.Context, msgs []message.Message) []Result {
	results := make([]Result, len(msgs))
	groups := make([]message.Group, len(msgs))
	outcomes := make([]Outcome, len(msgs))
	checkErrs := make([]error, len(msgs))

	for i, msg := range msgs {
		results[i].ID = msg.ID
		groups[i], results[i].Err = m.group(ctx, msg.GroupID)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for range min(m.workers, len(msgs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				outcomes[i], checkErrs[i] = m.check(msgs[i], groups[i])
			}
		}()
	}
	for i := range msgs {
		if results[i].Err == nil {
			indexes <- i
		}
	}
	close(indexes)
	wg.Wait()

	for i, msg := range msgs {
		if results[i].Err != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		results[i].State, results[i].Err = m.apply(ctx, msg, groups[i], outcomes[i], checkErrs[i], false)
	}
	return results
}

// ValidateStored validates every stored message still in state
// UNKNOWN, typically after a validator has been registered for a
// client whose messages arrived first. It returns how many messages
// left the UNKNOWN state.
func (m *Manager) ValidateStored(ctx context.Context) (int, error) {
	var ids []message.MessageID
	err := m.store.Transaction(ctx, true, func(txn *store.Txn) error {
		var err error
		ids, err = txn.MessagesToValidate()
		return err
	})
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, id := range ids {
		var msg message.Message
		var group message.Group
		err := m.store.Transaction(ctx, true, func(txn *store.Txn) error {
			var err error
			if msg, err = txn.Message(id); err != nil {
				return err
			}
			group, err = txn.Group(msg.GroupID)
			return err
		})
		if err != nil {
			return resolved, err
		}
		outcome, checkErr := m.check(msg, group)
		state, err := m.apply(ctx, msg, group, outcome, checkErr, true)
		if err != nil && !IsInvalidMessage(err) {
			return resolved, err
		}
		if state != store.StateUnknown {
			resolved++
		}
	}
	return resolved, nil
}

func (m *Manager) group(ctx context.Context, id message.GroupID) (message.Group, error) {
	var group message.Group
	err := m.store.Transaction(ctx, true, func(txn *store.Txn) error {
		var err error
		group, err = txn.Group(id)
		return err
	})
	return group, err
}

// apply commits the result of check. When stored is false the message
// is added first; a message that was already present is left alone.
func (m *Manager) apply(ctx context.Context, msg message.Message, group message.Group, outcome Outcome, checkErr error, stored bool) (store.State, error) {
	var state store.State
	var rejection error
	duplicate := false

	err := m.store.Transaction(ctx, false, func(txn *store.Txn) error {
		var err error
		if stored {
			if state, err = txn.MessageState(msg.ID); err != nil || state != store.StateUnknown {
				duplicate = true
				return err
			}
		} else {
			added, err := txn.AddMessage(msg)
			if err != nil {
				return err
			}
			if !added {
				duplicate = true
				state, err = txn.MessageState(msg.ID)
				return err
			}
		}

		switch {
		case errors.Is(checkErr, errNoValidator):
			state = store.StateUnknown
			return nil
		case checkErr != nil:
			state, rejection = store.StateInvalid, checkErr
			return m.invalidate(txn, msg.ID)
		}

		if err := txn.MergeMessageMetadata(msg.ID, outcome.Metadata); err != nil {
			return err
		}
		for _, dependency := range outcome.Dependencies {
			if err := txn.AddMessageDependency(msg, dependency); err != nil {
				return err
			}
		}
		var result verdict
		result, err = m.resolve(txn, msg, group, outcome.Metadata)
		state, rejection = result.state, result.rejection
		return err
	})
	if err != nil {
		m.logger.Error("processing message failed",
			"message_id", msg.ID, "group_id", msg.GroupID, "client_id", group.ClientID, "error", err)
		m.validated.WithLabelValues(string(group.ClientID), "error").Inc()
		return store.StateUnknown, err
	}
	if duplicate {
		m.validated.WithLabelValues(string(group.ClientID), "duplicate").Inc()
		return state, nil
	}

	m.validated.WithLabelValues(string(group.ClientID), state.String()).Inc()
	switch {
	case errors.Is(checkErr, errNoValidator):
		m.logger.Info("no validator for client, message left unvalidated",
			"message_id", msg.ID, "client_id", group.ClientID)
	case rejection != nil:
		m.logger.Info("message rejected",
			"message_id", msg.ID, "client_id", group.ClientID, "reason", rejection)
	}
	return state, rejection
}

// verdict is where resolution left a message. rejection explains an
// INVALID state.
type verdict struct {
	state     store.State
	rejection error
}

// resolve moves an accepted message to INVALID, PENDING or DELIVERED
// according to the states of its dependencies.
func (m *Manager) resolve(txn *store.Txn, msg message.Message, group message.Group, metadata *bdf.Dict) (verdict, error) {
	dependencies, err := txn.MessageDependencies(msg.ID)
	if err != nil {
		return verdict{}, err
	}
	allDelivered := true
	for dependency, state := range dependencies {
		switch state {
		case store.StateInvalid:
			rejection := Invalidf("dependency %s is invalid", dependency)
			return verdict{store.StateInvalid, rejection}, m.invalidate(txn, msg.ID)
		case store.StateDelivered:
		default:
			allDelivered = false
		}
	}
	if !allDelivered {
		return verdict{state: store.StatePending}, txn.SetMessageState(msg.ID, store.StatePending)
	}
	return m.deliver(txn, msg, group, metadata)
}

// deliver runs the client hook, marks the message delivered and
// resolves any pending dependents that were waiting for it.
func (m *Manager) deliver(txn *store.Txn, msg message.Message, group message.Group, metadata *bdf.Dict) (verdict, error) {
	if hook := m.hook(group.ClientID); hook != nil {
		if err := hook.IncomingMessage(txn, msg, metadata); err != nil {
			if IsInvalidMessage(err) {
				return verdict{store.StateInvalid, err}, m.invalidate(txn, msg.ID)
			}
			return verdict{}, err
		}
	}
	if err := txn.SetMessageState(msg.ID, store.StateDelivered); err != nil {
		return verdict{}, err
	}

	dependents, err := txn.MessageDependents(msg.ID)
	if err != nil {
		return verdict{}, err
	}
	for dependent, state := range dependents {
		if state != store.StatePending {
			continue
		}
		if err := m.resumePending(txn, dependent); err != nil {
			return verdict{}, err
		}
	}
	return verdict{state: store.StateDelivered}, nil
}

func (m *Manager) resumePending(txn *store.Txn, id message.MessageID) error {
	msg, err := txn.Message(id)
	if err != nil {
		return err
	}
	group, err := txn.Group(msg.GroupID)
	if err != nil {
		return err
	}
	metadata, err := txn.MessageMetadata(id)
	if err != nil {
		return err
	}
	result, err := m.resolve(txn, msg, group, metadata)
	if err != nil {
		return err
	}
	m.logger.Debug("pending message resolved",
		"message_id", id, "client_id", group.ClientID, "state", result.state, "reason", result.rejection)
	return nil
}

// invalidate marks a message INVALID, drops its body and metadata and
// cascades to its pending dependents.
func (m *Manager) invalidate(txn *store.Txn, id message.MessageID) error {
	if err := txn.SetMessageState(id, store.StateInvalid); err != nil {
		return err
	}
	if err := txn.DeleteMessage(id); err != nil {
		return err
	}
	if err := txn.DeleteMessageMetadata(id); err != nil {
		return err
	}
	dependents, err := txn.MessageDependents(id)
	if err != nil {
		return err
	}
	for dependent, state := range dependents {
		if state == store.StatePending {
			if err := m.invalidate(txn, dependent); err != nil {
				return err
			}
		}
	}
	return nil
}
