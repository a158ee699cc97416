// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// DefaultPragmas are applied to every connection, in order, before
// Config.Pragmas and the schema.
var DefaultPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=OFF",
	"PRAGMA cache_size=-8192",
	"PRAGMA temp_store=MEMORY",
}

// Config holds the parameters for opening a SQLite connection pool.
// Path is required.
type Config struct {
	// Path is the filesystem path to the database file. The parent
	// directory must exist. The file is created if it does not exist.
	Path string

	// PoolSize is the number of connections. If zero or negative,
	// defaults to max(runtime.NumCPU(), 4).
	PoolSize int

	// Pragmas are extra statements run after DefaultPragmas.
	Pragmas []string

	// Schema is a script of idempotent statements (CREATE TABLE IF NOT
	// EXISTS and the like) executed on every new connection.
	Schema string

	// Logger receives pool open and close messages. If nil, a no-op
	// logger is used.
	Logger *slog.Logger

	// OnConnect runs once per connection after the schema. An error
	// discards the connection and is returned from Take.
	OnConnect func(conn *sqlite.Conn) error
}

// Pool is a fixed-size pool of SQLite connections. It is safe for
// concurrent use.
type Pool struct {
	inner  *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// Open creates a connection pool. Connections are initialized lazily
// on first Take. The caller must call Close when done.
func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlitepool: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = max(runtime.NumCPU(), 4)
	}

	pragmas := append(append([]string(nil), DefaultPragmas...), cfg.Pragmas...)
	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareConnection(conn, pragmas, cfg.Schema, cfg.OnConnect)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", cfg.Path, err)
	}

	logger.Debug("sqlite pool opened",
		"path", cfg.Path,
		"pool_size", poolSize,
	)

	return &Pool{
		inner:  inner,
		logger: logger,
		path:   cfg.Path,
	}, nil
}

// Take borrows a connection from the pool, blocking until one is free
// or ctx is cancelled. The caller must Put it back.
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection to the pool. Safe to call with nil.
func (p *Pool) Put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

// Path returns the database file the pool was opened on.
func (p *Pool) Path() string { return p.path }

// Close closes all connections, blocking until borrowed connections
// are returned. After Close, Take returns an error.
func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		p.logger.Error("sqlite pool close error",
			"path", p.path,
			"error", err,
		)
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.logger.Debug("sqlite pool closed", "path", p.path)
	return nil
}

func prepareConnection(conn *sqlite.Conn, pragmas []string, schema string, onConnect func(*sqlite.Conn) error) error {
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitepool: %s: %w", pragma, err)
		}
	}

	if schema != "" {
		if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
			return fmt.Errorf("sqlitepool: schema: %w", err)
		}
	}

	if onConnect != nil {
		if err := onConnect(conn); err != nil {
			return fmt.Errorf("sqlitepool: OnConnect: %w", err)
		}
	}

	return nil
}
