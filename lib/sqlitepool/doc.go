// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool under the
// message store.
//
// It wraps zombiezen.com/go/sqlite with fixed pragmas, applies an
// optional schema to every connection, and exposes the underlying
// zombiezen types directly. Callers [Pool.Take] a connection, perform
// work, and [Pool.Put] it back. Connections are not safe for concurrent
// use; each goroutine holds its own connection for the duration of its
// work.
//
// # Pragmas
//
// Every connection in the pool is initialized with these pragmas:
//
//   - journal_mode=WAL: concurrent readers and a single writer.
//   - synchronous=NORMAL: committed transactions survive process
//     crashes but not power loss. Messages lost this way are received
//     again from peers.
//   - busy_timeout=5000: wait up to 5 seconds for the write lock.
//   - foreign_keys=OFF: the store removes dependent rows explicitly.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - temp_store=MEMORY: temporary tables and indexes in memory.
//
// [Config.Pragmas] appends to this list.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:     "/var/lib/bdf/messages.db",
//	    PoolSize: 4,
//	    Schema:   schema,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
package sqlitepool
