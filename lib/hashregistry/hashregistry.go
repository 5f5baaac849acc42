// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hashregistry is the content-addressed registry: callers
// submit a raw value (a radio fingerprint, a MAC address) and the
// ledger keeps only its SHA-256 digest. The raw value is never stored,
// so the ledger can later confirm that a value was registered without
// revealing which values were.
package hashregistry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/registry/lib/digest"
	"github.com/bureau-foundation/registry/lib/kv"
	"github.com/bureau-foundation/registry/lib/record"
	"github.com/bureau-foundation/registry/lib/registry"
)

// genesisValues are the raw values whose digests seed a new ledger.
var genesisValues = []string{
	"empreinte1",
	"00:0a:95:9d:68:16",
	"empreinte2",
	"00:0a:95:9d:68:17",
}

// Seeds returns the genesis hash records.
func Seeds() []record.Record {
	seeds := make([]record.Record, 0, len(genesisValues))
	for _, value := range genesisValues {
		seeds = append(seeds, record.HashRecord{Hash: digest.Digest([]byte(value))})
	}
	return seeds
}

// Registry stores digests of raw values. It holds no store; every
// method takes one.
type Registry struct {
	core *registry.Registry
}

// New returns a hash registry seeded with [Seeds]. A nil logger
// discards output.
func New(logger *slog.Logger) *Registry {
	return &Registry{core: registry.New(registry.Options{Seeds: Seeds(), Logger: logger})}
}

// Initialize writes the genesis digests.
func (r *Registry) Initialize(ctx context.Context, store kv.Store) error {
	return r.core.Initialize(ctx, store)
}

// Store registers the digest of raw. Registering the same raw value
// twice fails with [registry.AlreadyExistsError] naming the digest.
func (r *Registry) Store(ctx context.Context, store kv.Store, raw []byte) (record.HashRecord, error) {
	rec := record.HashRecord{Hash: digest.Digest(raw)}
	if err := r.core.Create(ctx, store, rec.Hash, rec); err != nil {
		return record.HashRecord{}, err
	}
	return rec, nil
}

// Verification is the outcome of [Registry.Verify].
type Verification struct {
	Digest string `json:"digest"`
	Found  bool   `json:"found"`
}

func (v Verification) String() string {
	if v.Found {
		return fmt.Sprintf("match %s found", v.Digest)
	}
	return fmt.Sprintf("match %s not found", v.Digest)
}

// Verify recomputes the digest of raw and reports whether it is
// registered.
func (r *Registry) Verify(ctx context.Context, store kv.Store, raw []byte) (Verification, error) {
	sum := digest.Digest(raw)
	found, err := r.core.Exists(ctx, store, sum)
	if err != nil {
		return Verification{}, err
	}
	return Verification{Digest: sum, Found: found}, nil
}

// Exists reports whether hexDigest is registered. Only well-formed
// digests are ever stored, so anything that is not 64 lowercase hex
// characters is reported absent without touching the store.
func (r *Registry) Exists(ctx context.Context, store kv.Store, hexDigest string) (bool, error) {
	if digest.Validate(hexDigest) != nil {
		return false, nil
	}
	return r.core.Exists(ctx, store, hexDigest)
}

// Read returns the record for hexDigest.
func (r *Registry) Read(ctx context.Context, store kv.Store, hexDigest string) (record.HashRecord, error) {
	if err := digest.Validate(hexDigest); err != nil {
		return record.HashRecord{}, err
	}
	rec, err := r.core.Read(ctx, store, hexDigest)
	if err != nil {
		return record.HashRecord{}, err
	}
	hashRecord, ok := rec.(record.HashRecord)
	if !ok {
		return record.HashRecord{}, &registry.DecodeError{
			Key: hexDigest,
			Err: fmt.Errorf("stored record is %s, want %s", rec.Kind(), record.KindHash),
		}
	}
	return hashRecord, nil
}

// List returns every entry in the ledger in key order, including
// entries that do not decode.
func (r *Registry) List(ctx context.Context, store kv.Store) ([]registry.Entry, error) {
	return r.core.ListAll(ctx, store)
}
