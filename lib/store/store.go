// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/bdf/lib/event"
	"github.com/bureau-foundation/bdf/lib/sqlitepool"
)

var (
	// ErrNoSuchGroup is returned when a group id is not stored.
	ErrNoSuchGroup = errors.New("store: no such group")

	// ErrNoSuchMessage is returned when a message id is not stored.
	ErrNoSuchMessage = errors.New("store: no such message")

	// ErrMessageDeleted is returned when reading the body of a message
	// whose body has been deleted.
	ErrMessageDeleted = errors.New("store: message body deleted")

	// ErrNoSuchContact is returned when a contact id is not stored.
	ErrNoSuchContact = errors.New("store: no such contact")

	// ErrContactExists is returned when adding a contact whose author
	// is already a contact.
	ErrContactExists = errors.New("store: contact already exists")

	// ErrReadOnly is returned by write operations on a read-only
	// transaction.
	ErrReadOnly = errors.New("store: write in read-only transaction")
)

// DefaultCompressThreshold is the body size in bytes at or above which
// bodies are compressed when compression is enabled.
const DefaultCompressThreshold = 1024

// Config holds the parameters for opening a Store.
type Config struct {
	// Path is the SQLite database file. The parent directory must
	// exist.
	Path string

	// PoolSize is the number of pooled connections. Zero uses the
	// sqlitepool default.
	PoolSize int

	// Compression selects how message bodies are stored.
	Compression Compression

	// CompressThreshold is the minimum body size that is compressed.
	// Zero means DefaultCompressThreshold.
	CompressThreshold int

	// Bus receives events attached to committed transactions. If nil
	// the store creates its own, available through Store.Bus.
	Bus *event.Bus

	// Logger receives operational messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// ContactHook is implemented by clients that keep per-contact state.
// Both methods run inside the transaction that adds or removes the
// contact; an error rolls it back.
type ContactHook interface {
	AddingContact(txn *Txn, contact Contact) error
	RemovingContact(txn *Txn, contact Contact) error
}

// Store is a transactional message database. It is safe for concurrent
// use.
type Store struct {
	pool              *sqlitepool.Pool
	bus               *event.Bus
	logger            *slog.Logger
	compression       Compression
	compressThreshold int

	hooksMutex   sync.RWMutex
	contactHooks []ContactHook
}

// Open opens (creating if needed) the database at cfg.Path and applies
// the schema.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	bus := cfg.Bus
	if bus == nil {
		bus = event.NewBus(logger)
	}
	threshold := cfg.CompressThreshold
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Schema:   schema,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	return &Store{
		pool:              pool,
		bus:               bus,
		logger:            logger,
		compression:       cfg.Compression,
		compressThreshold: threshold,
	}, nil
}

// Close closes the connection pool. Blocks until all borrowed
// connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Bus returns the bus committed events are broadcast on.
func (s *Store) Bus() *event.Bus { return s.bus }

// RegisterContactHook adds a hook called whenever a contact is added
// or removed.
func (s *Store) RegisterContactHook(hook ContactHook) {
	s.hooksMutex.Lock()
	defer s.hooksMutex.Unlock()
	s.contactHooks = append(s.contactHooks, hook)
}

func (s *Store) hooks() []ContactHook {
	s.hooksMutex.RLock()
	defer s.hooksMutex.RUnlock()
	return append([]ContactHook(nil), s.contactHooks...)
}

// Transaction runs fn inside a transaction. Write transactions
// (readOnly false) take the database write lock up front. If fn
// returns an error or panics the transaction rolls back; otherwise it
// commits and attached events are broadcast.
func (s *Store) Transaction(ctx context.Context, readOnly bool, fn func(*Txn) error) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer s.pool.Put(conn)

	txn := &Txn{store: s, conn: conn, readOnly: readOnly}
	if err := s.run(conn, txn, fn); err != nil {
		return err
	}
	s.bus.Broadcast(txn.events...)
	return nil
}

func (s *Store) run(conn *sqlite.Conn, txn *Txn, fn func(*Txn) error) (err error) {
	var endTransaction func(*error)
	if txn.readOnly {
		endTransaction = sqlitex.Transaction(conn)
	} else {
		endTransaction, err = sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return fmt.Errorf("store: begin transaction: %w", err)
		}
	}
	defer endTransaction(&err)
	return fn(txn)
}

// Txn is an open transaction. It must not be used after the callback
// passed to Store.Transaction returns, nor from more than one
// goroutine.
type Txn struct {
	store    *Store
	conn     *sqlite.Conn
	readOnly bool
	events   []event.Event
}

// Attach queues an event for broadcast after commit.
func (t *Txn) Attach(e event.Event) {
	t.events = append(t.events, e)
}

// ReadOnly reports whether writes are refused.
func (t *Txn) ReadOnly() bool { return t.readOnly }

func (t *Txn) checkWritable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *Txn) execute(query string, args ...any) error {
	return sqlitex.Execute(t.conn, query, &sqlitex.ExecOptions{Args: args})
}

func (t *Txn) query(query string, result func(stmt *sqlite.Stmt) error, args ...any) error {
	return sqlitex.Execute(t.conn, query, &sqlitex.ExecOptions{
		Args:       args,
		ResultFunc: result,
	})
}

// columnBlob copies a BLOB column.
func columnBlob(stmt *sqlite.Stmt, column int) []byte {
	data := make([]byte, stmt.ColumnLen(column))
	stmt.ColumnBytes(column, data)
	return data
}

func boolArg(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
