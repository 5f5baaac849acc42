// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package assetregistry is the identity-addressed registry of devices.
// Each asset is keyed by its caller-assigned id and can also be found
// by radio fingerprint or MAC address. Those lookups scan the whole
// ledger and return the first match in id order.
package assetregistry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/registry/lib/kv"
	"github.com/bureau-foundation/registry/lib/record"
	"github.com/bureau-foundation/registry/lib/registry"
)

// Seeds returns the genesis assets.
func Seeds() []record.Record {
	return []record.Record{
		record.AssetRecord{
			ID:               "SN-1",
			CloudProviderID:  "cloud_provider_1",
			RadioFingerprint: "empreinte1",
			MACAddress:       "00:0a:95:9d:68:16",
			ManufacturerID:   "fabricant_1",
		},
		record.AssetRecord{
			ID:               "SN-2",
			CloudProviderID:  "cloud_provider_2",
			RadioFingerprint: "empreinte2",
			MACAddress:       "00:0a:95:9d:68:17",
			ManufacturerID:   "fabricant_1",
		},
	}
}

// Registry stores assets. It holds no store; every method takes one.
type Registry struct {
	core   *registry.Registry
	logger *slog.Logger
}

// New returns an asset registry seeded with [Seeds]. A nil logger
// discards output.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		core:   registry.New(registry.Options{Seeds: Seeds(), Logger: logger}),
		logger: logger,
	}
}

// Initialize writes the genesis assets.
func (r *Registry) Initialize(ctx context.Context, store kv.Store) error {
	return r.core.Initialize(ctx, store)
}

// Create registers asset under its id. Every field is required.
func (r *Registry) Create(ctx context.Context, store kv.Store, asset record.AssetRecord) error {
	return r.core.Create(ctx, store, asset.ID, asset)
}

// CreateBatch registers assets in order. The whole batch is checked
// first (every asset valid, no id repeated within the batch or already
// in the store) so a rejected batch writes nothing. A store failure
// part way through the writes leaves the earlier assets in place.
func (r *Registry) CreateBatch(ctx context.Context, store kv.Store, assets []record.AssetRecord) error {
	seen := make(map[string]int, len(assets))
	for i, asset := range assets {
		if err := asset.Validate(); err != nil {
			return fmt.Errorf("batch entry %d: %w", i, err)
		}
		if previous, ok := seen[asset.ID]; ok {
			return fmt.Errorf("batch entry %d: id %s repeats entry %d", i, asset.ID, previous)
		}
		seen[asset.ID] = i

		exists, err := r.core.Exists(ctx, store, asset.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("batch entry %d: %w", i, &registry.AlreadyExistsError{Key: asset.ID})
		}
	}

	for i, asset := range assets {
		if err := r.Create(ctx, store, asset); err != nil {
			return fmt.Errorf("batch entry %d: %w", i, err)
		}
	}
	r.logger.Info("asset batch created", "count", len(assets))
	return nil
}

// Read returns the asset with the given id.
func (r *Registry) Read(ctx context.Context, store kv.Store, id string) (record.AssetRecord, error) {
	rec, err := r.core.Read(ctx, store, id)
	if err != nil {
		return record.AssetRecord{}, err
	}
	return asAsset(id, rec)
}

// Exists reports whether an asset with the given id is registered.
func (r *Registry) Exists(ctx context.Context, store kv.Store, id string) (bool, error) {
	return r.core.Exists(ctx, store, id)
}

// FindByAttribute returns the first asset, in id order, whose persisted
// field name equals value.
func (r *Registry) FindByAttribute(ctx context.Context, store kv.Store, name, value string) (record.AssetRecord, error) {
	rec, err := r.core.FindByAttribute(ctx, store, name, value)
	if err != nil {
		return record.AssetRecord{}, err
	}
	return asAsset(rec.Key(), rec)
}

// FindByRadioFingerprint returns the first asset carrying fingerprint.
func (r *Registry) FindByRadioFingerprint(ctx context.Context, store kv.Store, fingerprint string) (record.AssetRecord, error) {
	return r.FindByAttribute(ctx, store, record.FieldRadioFingerprint, fingerprint)
}

// FindByMAC returns the first asset carrying mac.
func (r *Registry) FindByMAC(ctx context.Context, store kv.Store, mac string) (record.AssetRecord, error) {
	return r.FindByAttribute(ctx, store, record.FieldMACAddress, mac)
}

func (r *Registry) ExistsByRadioFingerprint(ctx context.Context, store kv.Store, fingerprint string) (bool, error) {
	return r.core.ExistsByAttribute(ctx, store, record.FieldRadioFingerprint, fingerprint)
}

func (r *Registry) ExistsByMAC(ctx context.Context, store kv.Store, mac string) (bool, error) {
	return r.core.ExistsByAttribute(ctx, store, record.FieldMACAddress, mac)
}

// List returns every entry in the ledger in id order, including
// entries that do not decode.
func (r *Registry) List(ctx context.Context, store kv.Store) ([]registry.Entry, error) {
	return r.core.ListAll(ctx, store)
}

func asAsset(key string, rec record.Record) (record.AssetRecord, error) {
	asset, ok := rec.(record.AssetRecord)
	if !ok {
		return record.AssetRecord{}, &registry.DecodeError{
			Key: key,
			Err: fmt.Errorf("stored record is %s, want %s", rec.Kind(), record.KindAsset),
		}
	}
	return asset, nil
}
