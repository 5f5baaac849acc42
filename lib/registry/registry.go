// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/registry/lib/kv"
	"github.com/bureau-foundation/registry/lib/record"
)

// Options configures a [Registry].
type Options struct {
	// Seeds are written, in order, by Initialize.
	Seeds []record.Record

	// Logger receives seeding and decode-failure messages. Nil
	// discards them.
	Logger *slog.Logger
}

// Registry runs the record operations against a caller-supplied store.
// It is safe for concurrent use.
type Registry struct {
	seeds  []record.Record
	logger *slog.Logger
}

// Entry is one stored pair as returned by [Registry.ListAll]. Record
// is nil exactly when Err is set; Raw always holds the stored bytes.
type Entry struct {
	Key    string
	Record record.Record
	Raw    []byte
	Err    error
}

// New returns a registry. The seed slice is copied.
func New(options Options) *Registry {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		seeds:  append([]record.Record(nil), options.Seeds...),
		logger: logger,
	}
}

// Seeds returns a copy of the genesis set.
func (r *Registry) Seeds() []record.Record {
	return append([]record.Record(nil), r.seeds...)
}

// Initialize writes every seed with Create semantics. Every seed key
// is checked before the first write, so if any seed is already present
// Initialize fails with [AlreadyExistsError] and writes nothing.
func (r *Registry) Initialize(ctx context.Context, store kv.Store) error {
	for _, seed := range r.seeds {
		exists, err := r.Exists(ctx, store, seed.Key())
		if err != nil {
			return fmt.Errorf("seeding %s: %w", seed.Key(), err)
		}
		if exists {
			return fmt.Errorf("seeding %s: %w", seed.Key(), &AlreadyExistsError{Key: seed.Key()})
		}
	}
	for _, seed := range r.seeds {
		if err := r.Create(ctx, store, seed.Key(), seed); err != nil {
			return fmt.Errorf("seeding %s: %w", seed.Key(), err)
		}
	}
	r.logger.Info("registry initialized", "seeds", len(r.seeds))
	return nil
}

// Create stores rec under key, which must be rec's own key. It fails
// with [AlreadyExistsError] when key is present and never overwrites.
func (r *Registry) Create(ctx context.Context, store kv.Store, key string, rec record.Record) error {
	if key == "" {
		return ErrEmptyKey
	}
	if rec == nil {
		return fmt.Errorf("registry: nil record for %s", key)
	}
	if recordKey := rec.Key(); recordKey != key {
		return fmt.Errorf("registry: key %q does not address %s record keyed %q", key, rec.Kind(), recordKey)
	}

	exists, err := r.Exists(ctx, store, key)
	if err != nil {
		return err
	}
	if exists {
		return &AlreadyExistsError{Key: key}
	}

	value, err := record.Encode(rec)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, key, value); err != nil {
		return &StoreError{Op: "put", Key: key, Err: err}
	}

	r.logger.Debug("record created", "key", key, "kind", rec.Kind(), "bytes", len(value))
	return nil
}

// Exists reports whether store holds a non-empty value at key.
func (r *Registry) Exists(ctx context.Context, store kv.Store, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	value, err := store.Get(ctx, key)
	if err != nil {
		return false, &StoreError{Op: "get", Key: key, Err: err}
	}
	return len(value) > 0, nil
}

// Read returns the record stored at key.
func (r *Registry) Read(ctx context.Context, store kv.Store, key string) (record.Record, error) {
	if key == "" {
		return nil, &NotFoundError{Key: key}
	}
	value, err := store.Get(ctx, key)
	if err != nil {
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}
	if len(value) == 0 {
		return nil, &NotFoundError{Key: key}
	}
	decoded, err := record.Decode(value)
	if err != nil {
		return nil, &DecodeError{Key: key, Err: err}
	}
	return decoded, nil
}

// ListAll scans the whole keyspace in ascending key order. A value
// that does not decode is returned with its raw bytes and a
// [DecodeError] instead of failing the scan. Only a store failure
// fails ListAll.
func (r *Registry) ListAll(ctx context.Context, store kv.Store) ([]Entry, error) {
	var entries []Entry
	err := store.Scan(ctx, "", "", func(key string, value []byte) error {
		entry := Entry{Key: key, Raw: value}
		decoded, err := record.Decode(value)
		if err != nil {
			entry.Err = &DecodeError{Key: key, Err: err}
			r.logger.Warn("undecodable record", "key", key, "bytes", len(value), "error", err)
		} else {
			entry.Record = decoded
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, &StoreError{Op: "scan", Err: err}
	}
	return entries, nil
}

// Records returns the decoded records of entries, skipping entries
// that failed to decode.
func Records(entries []Entry) []record.Record {
	records := make([]record.Record, 0, len(entries))
	for _, entry := range entries {
		if entry.Record != nil {
			records = append(records, entry.Record)
		}
	}
	return records
}
