// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package kvtest is the conformance suite for [kv.Store]
// implementations. Each implementation's tests call [Run] with a
// constructor that returns a fresh, empty store.
package kvtest

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/bureau-foundation/registry/lib/kv"
)

// Run executes every conformance check as a subtest. open is called
// once per subtest and must return an empty store.
func Run(t *testing.T, open func(t *testing.T) kv.Store) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, open(t)) })
	t.Run("PutGet", func(t *testing.T) { testPutGet(t, open(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, open(t)) })
	t.Run("EmptyKey", func(t *testing.T) { testEmptyKey(t, open(t)) })
	t.Run("ValueIsolation", func(t *testing.T) { testValueIsolation(t, open(t)) })
	t.Run("ScanOrder", func(t *testing.T) { testScanOrder(t, open(t)) })
	t.Run("ScanRange", func(t *testing.T) { testScanRange(t, open(t)) })
	t.Run("ScanEmpty", func(t *testing.T) { testScanEmpty(t, open(t)) })
	t.Run("ScanStops", func(t *testing.T) { testScanStops(t, open(t)) })
	t.Run("ScanVisitorWrites", func(t *testing.T) { testScanVisitorWrites(t, open(t)) })
}

// orderingKeys exercise prefix ordering, separators, and multi-byte
// UTF-8. Sorted bytewise they are: "A", "a", "a-b", "a/b", "ab", "b",
// "z", "é", "日本".
var orderingKeys = []string{"z", "日本", "a/b", "b", "é", "ab", "a", "A", "a-b"}

func put(t *testing.T, store kv.Store, key, value string) {
	t.Helper()
	if err := store.Put(context.Background(), key, []byte(value)); err != nil {
		t.Fatalf("Put(%q): %v", key, err)
	}
}

func get(t *testing.T, store kv.Store, key string) []byte {
	t.Helper()
	value, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	return value
}

func scanKeys(t *testing.T, store kv.Store, start, end string) []string {
	t.Helper()
	pairs, err := kv.Collect(context.Background(), store, start, end)
	if err != nil {
		t.Fatalf("Scan(%q, %q): %v", start, end, err)
	}
	keys := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		keys = append(keys, pair.Key)
	}
	return keys
}

func testGetMissing(t *testing.T, store kv.Store) {
	if value := get(t, store, "absent"); value != nil {
		t.Errorf("Get(absent) = %q, want nil", value)
	}
}

func testPutGet(t *testing.T, store kv.Store) {
	put(t, store, "SN-1", "first")
	if value := get(t, store, "SN-1"); string(value) != "first" {
		t.Errorf("Get = %q, want %q", value, "first")
	}

	binary := []byte{0x00, 0xff, 0xa2, 0x61}
	if err := store.Put(context.Background(), "binary", binary); err != nil {
		t.Fatalf("Put(binary): %v", err)
	}
	if value := get(t, store, "binary"); !bytes.Equal(value, binary) {
		t.Errorf("Get(binary) = %x, want %x", value, binary)
	}
}

func testOverwrite(t *testing.T, store kv.Store) {
	put(t, store, "key", "one")
	put(t, store, "key", "two")
	if value := get(t, store, "key"); string(value) != "two" {
		t.Errorf("Get after overwrite = %q, want %q", value, "two")
	}
	if keys := scanKeys(t, store, "", ""); len(keys) != 1 {
		t.Errorf("Scan after overwrite returned %d keys, want 1", len(keys))
	}
}

func testEmptyKey(t *testing.T, store kv.Store) {
	if err := store.Put(context.Background(), "", []byte("x")); err == nil {
		t.Error("Put with an empty key should fail")
	}
}

func testValueIsolation(t *testing.T, store kv.Store) {
	input := []byte("original")
	if err := store.Put(context.Background(), "key", input); err != nil {
		t.Fatalf("Put: %v", err)
	}
	input[0] = 'X'

	first := get(t, store, "key")
	if string(first) != "original" {
		t.Fatalf("mutating the Put argument changed the stored value: %q", first)
	}
	first[0] = 'Y'
	if second := get(t, store, "key"); string(second) != "original" {
		t.Errorf("mutating a Get result changed the stored value: %q", second)
	}
}

func testScanOrder(t *testing.T, store kv.Store) {
	for _, key := range orderingKeys {
		put(t, store, key, "value of "+key)
	}

	want := slices.Clone(orderingKeys)
	slices.Sort(want)
	got := scanKeys(t, store, "", "")
	if !slices.Equal(got, want) {
		t.Errorf("Scan order = %q, want %q", got, want)
	}

	pairs, err := kv.Collect(context.Background(), store, "", "")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, pair := range pairs {
		if string(pair.Value) != "value of "+pair.Key {
			t.Errorf("Scan value for %q = %q", pair.Key, pair.Value)
		}
	}
}

func testScanRange(t *testing.T, store kv.Store) {
	for _, key := range orderingKeys {
		put(t, store, key, key)
	}

	tests := []struct {
		start, end string
		want       []string
	}{
		{"a", "b", []string{"a", "a-b", "a/b", "ab"}},
		{"a/", "b", []string{"a/b", "ab"}},
		{"b", "", []string{"b", "z", "é", "日本"}},
		{"", "a", []string{"A"}},
		{"c", "d", nil},
		{"ab", "ab", nil},
	}
	for _, test := range tests {
		got := scanKeys(t, store, test.start, test.end)
		if !slices.Equal(got, test.want) {
			t.Errorf("Scan(%q, %q) = %q, want %q", test.start, test.end, got, test.want)
		}
	}
}

func testScanEmpty(t *testing.T, store kv.Store) {
	if keys := scanKeys(t, store, "", ""); len(keys) != 0 {
		t.Errorf("Scan on an empty store returned %q", keys)
	}
}

func testScanStops(t *testing.T, store kv.Store) {
	for _, key := range []string{"a", "b", "c"} {
		put(t, store, key, key)
	}

	stop := errors.New("stop")
	var visited []string
	err := store.Scan(context.Background(), "", "", func(key string, value []byte) error {
		visited = append(visited, key)
		if key == "b" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Scan error = %v, want the visitor's error", err)
	}
	if !slices.Equal(visited, []string{"a", "b"}) {
		t.Errorf("visited %q, want [a b]", visited)
	}
}

func testScanVisitorWrites(t *testing.T, store kv.Store) {
	for _, key := range []string{"a", "b"} {
		put(t, store, key, key)
	}

	err := store.Scan(context.Background(), "", "", func(key string, value []byte) error {
		return store.Put(context.Background(), "copy-"+key, value)
	})
	if err != nil {
		t.Fatalf("Scan with a writing visitor: %v", err)
	}
	if value := get(t, store, "copy-a"); string(value) != "a" {
		t.Errorf("Get(copy-a) = %q, want %q", value, "a")
	}
}
