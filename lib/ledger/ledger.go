// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger opens the store behind a namespace according to the
// configured backend. The registry keeps one ledger per namespace:
// content-addressed hashes and identity-addressed assets never share a
// keyspace.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bureau-foundation/registry/lib/config"
	"github.com/bureau-foundation/registry/lib/kv"
	"github.com/bureau-foundation/registry/lib/kv/natskv"
	"github.com/bureau-foundation/registry/lib/kv/sqlitekv"
)

// Namespaces.
const (
	Hashes = "hashes"
	Assets = "assets"
)

// Namespaces returns every namespace in a fixed order.
func Namespaces() []string {
	return []string{Hashes, Assets}
}

// ValidateNamespace returns an error unless name is a known namespace.
func ValidateNamespace(name string) error {
	switch name {
	case Hashes, Assets:
		return nil
	default:
		return fmt.Errorf("unknown namespace %q (want %s or %s)", name, Hashes, Assets)
	}
}

// Ledger is an open store for one namespace.
type Ledger struct {
	Namespace string

	// Location describes where the data lives: a file path, a bucket,
	// or "memory".
	Location string

	Store kv.Store

	close func() error
}

// Close releases the backend connection.
func (l *Ledger) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}

// SQLitePath returns the database file for namespace.
func SQLitePath(directory, namespace string) string {
	return filepath.Join(directory, namespace+".db")
}

// BucketName returns the JetStream bucket for namespace.
func BucketName(prefix, namespace string) string {
	return prefix + "-" + namespace
}

// Open opens the ledger for namespace using cfg.Store.
func Open(ctx context.Context, cfg *config.Config, namespace string, logger *slog.Logger) (*Ledger, error) {
	if err := ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("namespace", namespace)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		return &Ledger{Namespace: namespace, Location: "memory", Store: kv.NewMemory()}, nil

	case config.BackendSQLite:
		if err := cfg.EnsurePaths(); err != nil {
			return nil, err
		}
		path := SQLitePath(cfg.Store.SQLite.Directory, namespace)
		store, err := sqlitekv.Open(sqlitekv.Config{
			Path:     path,
			PoolSize: cfg.Store.SQLite.PoolSize,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return &Ledger{Namespace: namespace, Location: path, Store: store, close: store.Close}, nil

	case config.BackendNATS:
		timeout, err := cfg.ConnectTimeout()
		if err != nil {
			return nil, err
		}
		bucket := BucketName(cfg.Store.NATS.BucketPrefix, namespace)
		store, err := natskv.Open(ctx, natskv.Config{
			URL:            cfg.Store.NATS.URL,
			Bucket:         bucket,
			ConnectTimeout: timeout,
			Logger:         logger,
		})
		if err != nil {
			return nil, err
		}
		return &Ledger{Namespace: namespace, Location: cfg.Store.NATS.URL + "/" + bucket, Store: store, close: store.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
