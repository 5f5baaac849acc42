// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitekv is a [kv.Store] backed by a single SQLite file.
//
// The database holds one table:
//
//	CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB NOT NULL) WITHOUT ROWID
//
// SQLite compares TEXT with the BINARY collation, which is memcmp over
// the UTF-8 bytes, so "ORDER BY key" is exactly the bytewise order
// [kv.Store.Scan] promises.
//
// Connections come from a zombiezen sqlitex.Pool. Every connection is
// prepared with these pragmas before first use:
//
//   - journal_mode=WAL: readers never block the writer.
//   - synchronous=NORMAL: commits survive a process crash without an
//     fsync per transaction.
//   - busy_timeout=5000: wait for the write lock instead of failing
//     with SQLITE_BUSY.
//   - foreign_keys=OFF, cache_size=-8192 (8 MB), mmap_size=268435456
//     (256 MB), temp_store=MEMORY.
package sqlitekv

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/registry/lib/kv"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID;`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=OFF",
	"PRAGMA cache_size=-8192",
	"PRAGMA mmap_size=268435456",
	"PRAGMA temp_store=MEMORY",
}

// Config holds the parameters for [Open].
type Config struct {
	// Path is the database file. The parent directory must exist; the
	// file is created on first open.
	Path string

	// PoolSize is the number of pooled connections. Zero or negative
	// means max(runtime.NumCPU(), 4).
	PoolSize int

	// Logger receives open and close messages. Nil discards them.
	Logger *slog.Logger
}

// Store is a SQLite-backed [kv.Store]. It is safe for concurrent use.
type Store struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
	path   string
}

var _ kv.Store = (*Store)(nil)

// Open opens (creating if needed) the database at cfg.Path. The
// caller must Close the returned store.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitekv: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = max(runtime.NumCPU(), 4)
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitekv: opening %s: %w", cfg.Path, err)
	}

	// Connections open lazily. Take one now so a bad path or schema
	// fails here rather than on first use.
	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlitekv: opening %s: %w", cfg.Path, err)
	}
	pool.Put(conn)

	logger.Info("sqlite store opened", "path", cfg.Path, "pool_size", poolSize)
	return &Store{pool: pool, logger: logger, path: cfg.Path}, nil
}

func prepareConnection(conn *sqlite.Conn) error {
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitekv: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("sqlitekv: creating schema: %w", err)
	}
	return nil
}

// Close closes every pooled connection, waiting for borrowed ones to
// be returned.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		s.logger.Error("sqlite store close failed", "path", s.path, "error", err)
		return fmt.Errorf("sqlitekv: closing %s: %w", s.path, err)
	}
	s.logger.Info("sqlite store closed", "path", s.path)
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitekv: take: %w", err)
	}
	defer s.pool.Put(conn)

	var value []byte
	err = sqlitex.Execute(conn, "SELECT value FROM kv WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = columnBytes(stmt, 0)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitekv: get %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlitekv: take: %w", err)
	}
	defer s.pool.Put(conn)

	if value == nil {
		value = []byte{}
	}
	err = sqlitex.Execute(conn,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		&sqlitex.ExecOptions{Args: []any{key, value}})
	if err != nil {
		return fmt.Errorf("sqlitekv: put %q: %w", key, err)
	}
	return nil
}

// Scan reads the whole range on one connection, returns the
// connection, and only then calls visit.
func (s *Store) Scan(ctx context.Context, start, end string, visit func(key string, value []byte) error) error {
	pairs, err := s.collect(ctx, start, end)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		if err := visit(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) collect(ctx context.Context, start, end string) ([]kv.Pair, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitekv: take: %w", err)
	}
	defer s.pool.Put(conn)

	var pairs []kv.Pair
	err = sqlitex.Execute(conn,
		"SELECT key, value FROM kv WHERE key >= ? AND (? = '' OR key < ?) ORDER BY key",
		&sqlitex.ExecOptions{
			Args: []any{start, end, end},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				pairs = append(pairs, kv.Pair{
					Key:   stmt.ColumnText(0),
					Value: columnBytes(stmt, 1),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("sqlitekv: scan [%q, %q): %w", start, end, err)
	}
	return pairs, nil
}

// columnBytes copies a BLOB column. An empty blob reads back as a
// non-nil empty slice so it is not mistaken for an absent key.
func columnBytes(stmt *sqlite.Stmt, column int) []byte {
	value := make([]byte, stmt.ColumnLen(column))
	stmt.ColumnBytes(column, value)
	return value
}
