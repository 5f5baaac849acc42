// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kv

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process [Store]. The zero value is not usable; call
// [NewMemory].
type Memory struct {
	mu     sync.RWMutex
	keys   []string // sorted
	values map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return slices.Clone(value), nil
}

func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.values[key]; !exists {
		position, _ := slices.BinarySearch(m.keys, key)
		m.keys = slices.Insert(m.keys, position, key)
	}
	// A nil value would read back as absent.
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	return nil
}

func (m *Memory) Scan(ctx context.Context, start, end string, visit func(key string, value []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	first, _ := slices.BinarySearch(m.keys, start)
	var pairs []Pair
	for _, key := range m.keys[first:] {
		if end != "" && key >= end {
			break
		}
		pairs = append(pairs, Pair{Key: key, Value: slices.Clone(m.values[key])})
	}
	m.mu.RUnlock()

	for _, pair := range pairs {
		if err := visit(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}
