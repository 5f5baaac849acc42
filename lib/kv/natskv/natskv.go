// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package natskv is a [kv.Store] backed by a NATS JetStream key-value
// bucket, so several hosts can share one ledger.
//
// NATS restricts keys to [-/_=.a-zA-Z0-9] and has no range reads.
// Keys are therefore stored hex-encoded: lowercase hex preserves
// bytewise order and prefix structure, and is always a legal NATS key.
// Scan lists the bucket's keys, filters and sorts them locally, then
// fetches each value. A key deleted between listing and fetching is
// skipped. Keys in the bucket that are not valid hex were not written
// by this package and are ignored.
package natskv

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/bureau-foundation/registry/lib/kv"
)

// Config holds the parameters for [Open].
type Config struct {
	// URL is the NATS server URL, e.g. "nats://127.0.0.1:4222".
	URL string

	// Bucket is the JetStream key-value bucket name. It is created if
	// absent.
	Bucket string

	// ConnectTimeout bounds the initial dial. Zero uses the nats.go
	// default.
	ConnectTimeout time.Duration

	// Logger receives connection messages. Nil discards them.
	Logger *slog.Logger
}

// Store is a JetStream-backed [kv.Store]. It is safe for concurrent
// use.
type Store struct {
	conn   *nats.Conn
	bucket jetstream.KeyValue
	name   string
	logger *slog.Logger
}

var _ kv.Store = (*Store)(nil)

// Open connects to cfg.URL and binds (creating if needed) cfg.Bucket.
// The caller must Close the returned store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("natskv: URL is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("natskv: Bucket is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	options := []nats.Option{nats.Name("bureau-registry")}
	if cfg.ConnectTimeout > 0 {
		options = append(options, nats.Timeout(cfg.ConnectTimeout))
	}
	conn, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("natskv: connecting to %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("natskv: creating JetStream context: %w", err)
	}

	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "bureau registry ledger",
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("natskv: binding bucket %s: %w", cfg.Bucket, err)
	}

	logger.Info("nats store opened", "url", cfg.URL, "bucket", cfg.Bucket)
	return &Store{conn: conn, bucket: bucket, name: cfg.Bucket, logger: logger}, nil
}

// Close drops the connection. Pending publishes are not flushed;
// every Put has already been acknowledged by the server.
func (s *Store) Close() error {
	s.conn.Close()
	s.logger.Info("nats store closed", "bucket", s.name)
	return nil
}

func encodeKey(key string) string {
	return hex.EncodeToString([]byte(key))
}

func decodeKey(encoded string) (string, bool) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	entry, err := s.bucket.Get(ctx, encodeKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("natskv: get %q: %w", key, err)
	}
	return append([]byte{}, entry.Value()...), nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	if _, err := s.bucket.Put(ctx, encodeKey(key), value); err != nil {
		return fmt.Errorf("natskv: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, start, end string, visit func(key string, value []byte) error) error {
	keys, err := s.keysInRange(ctx, start, end)
	if err != nil {
		return err
	}

	pairs := make([]kv.Pair, 0, len(keys))
	for _, key := range keys {
		value, err := s.Get(ctx, key)
		if err != nil {
			return err
		}
		if value == nil {
			continue
		}
		pairs = append(pairs, kv.Pair{Key: key, Value: value})
	}

	for _, pair := range pairs {
		if err := visit(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) keysInRange(ctx context.Context, start, end string) ([]string, error) {
	lister, err := s.bucket.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("natskv: listing keys: %w", err)
	}
	defer lister.Stop()

	var keys []string
	for encoded := range lister.Keys() {
		key, ok := decodeKey(encoded)
		if !ok {
			s.logger.Debug("ignoring foreign key", "bucket", s.name, "key", encoded)
			continue
		}
		if kv.InRange(key, start, end) {
			keys = append(keys, key)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}
