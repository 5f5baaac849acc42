// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/registry/lib/kv"
	"github.com/bureau-foundation/registry/lib/record"
)

func seededStore(t *testing.T) (*Registry, kv.Store) {
	t.Helper()
	store := kv.NewMemory()
	registry := New(Options{Seeds: []record.Record{assetOne, assetTwo}})
	if err := registry.Initialize(context.Background(), store); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return registry, store
}

func TestFindByMAC(t *testing.T) {
	registry, store := seededStore(t)
	ctx := context.Background()

	got, err := registry.FindByAttribute(ctx, store, record.FieldMACAddress, "00:0a:95:9d:68:16")
	if err != nil {
		t.Fatalf("FindByAttribute: %v", err)
	}
	if got != assetOne {
		t.Errorf("FindByAttribute = %v, want %v", got, assetOne)
	}

	_, err = registry.FindByAttribute(ctx, store, record.FieldMACAddress, "ff:ff:ff:ff:ff:ff")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("absent MAC error = %v, want *NotFoundError", err)
	}
	if notFound.Attribute != record.FieldMACAddress || notFound.Value != "ff:ff:ff:ff:ff:ff" {
		t.Errorf("NotFoundError = %+v", notFound)
	}
}

func TestFindFirstMatchInKeyOrder(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	registry := New(Options{})

	shared := "00:00:00:00:00:01"
	// Created out of key order; lookup must still return the lowest key.
	for _, id := range []string{"SN-c", "SN-a", "SN-b"} {
		asset := assetOne
		asset.ID = id
		asset.MACAddress = shared
		if err := registry.Create(ctx, store, id, asset); err != nil {
			t.Fatalf("Create(%s): %v", id, err)
		}
	}

	got, err := registry.FindByAttribute(ctx, store, record.FieldMACAddress, shared)
	if err != nil {
		t.Fatalf("FindByAttribute: %v", err)
	}
	if got.Key() != "SN-a" {
		t.Errorf("FindByAttribute returned %s, want SN-a", got.Key())
	}
}

func TestFindSkipsUndecodable(t *testing.T) {
	registry, store := seededStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "SN-0", []byte(`{"adresseMac":"00:0a:95:9d:68:16"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := registry.FindByAttribute(ctx, store, record.FieldMACAddress, "00:0a:95:9d:68:16")
	if err != nil {
		t.Fatalf("FindByAttribute: %v", err)
	}
	if got.Key() != "SN-1" {
		t.Errorf("FindByAttribute returned %s, want SN-1", got.Key())
	}
}

func TestExistsByAttribute(t *testing.T) {
	registry, store := seededStore(t)
	ctx := context.Background()

	tests := []struct {
		name, value string
		want        bool
	}{
		{record.FieldRadioFingerprint, "empreinte2", true},
		{record.FieldRadioFingerprint, "empreinte3", false},
		{record.FieldMACAddress, "00:0a:95:9d:68:17", true},
		{record.FieldManufacturerID, "fabricant_1", true},
		{"color", "red", false},
	}
	for _, test := range tests {
		got, err := registry.ExistsByAttribute(ctx, store, test.name, test.value)
		if err != nil {
			t.Fatalf("ExistsByAttribute(%s, %s): %v", test.name, test.value, err)
		}
		if got != test.want {
			t.Errorf("ExistsByAttribute(%s, %s) = %v, want %v", test.name, test.value, got, test.want)
		}
	}
}
