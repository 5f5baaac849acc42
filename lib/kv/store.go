// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kv

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned by implementations when asked to store a
// value under the empty key.
var ErrEmptyKey = errors.New("kv: empty key")

// Store is an ordered key-value store.
//
// Get returns (nil, nil) for an absent key. Put overwrites any
// existing value. Scan calls visit for every key k with
// start <= k < end in ascending bytewise order; an empty start or end
// leaves that side of the range open. Returning an error from visit
// stops the scan and Scan returns that error unchanged.
//
// Values handed to visit and returned by Get belong to the caller.
// Implementations must not call visit while holding a lock that Put
// needs, so a visitor may write to the same store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Scan(ctx context.Context, start, end string, visit func(key string, value []byte) error) error
}

// Pair is one key-value entry captured during a scan.
type Pair struct {
	Key   string
	Value []byte
}

// Collect returns every pair in [start, end) in key order.
func Collect(ctx context.Context, store Store, start, end string) ([]Pair, error) {
	var pairs []Pair
	err := store.Scan(ctx, start, end, func(key string, value []byte) error {
		pairs = append(pairs, Pair{Key: key, Value: value})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pairs, nil
}

// InRange reports whether key falls in the half-open range [start,
// end) using the empty-bound convention of [Store.Scan].
func InRange(key, start, end string) bool {
	if key < start {
		return false
	}
	return end == "" || key < end
}
