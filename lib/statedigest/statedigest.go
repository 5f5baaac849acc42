// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package statedigest fingerprints the full contents of a store so two
// replicas can confirm they hold byte-identical ledgers without
// shipping the ledger.
//
// The fingerprint is a BLAKE3 keyed hash over every pair in ascending
// key order. Each pair is framed as
//
//	uvarint(len(key)) key uvarint(len(value)) value
//
// so no two different pair sequences share a byte stream. The key is
// the ASCII domain name "bureau.registry.state" zero-padded to 32
// bytes; changing it invalidates every recorded fingerprint.
package statedigest

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/registry/lib/kv"
)

var stateDomainKey = [32]byte{
	'b', 'u', 'r', 'e', 'a', 'u', '.', 'r', 'e', 'g', 'i', 's', 't', 'r', 'y', '.',
	's', 't', 'a', 't', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint is a 32-byte state digest.
type Fingerprint [32]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// MarshalText encodes the fingerprint as lowercase hex.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses a 64-character hex fingerprint.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFingerprint parses a hex-encoded fingerprint.
func ParseFingerprint(hexString string) (Fingerprint, error) {
	var fingerprint Fingerprint
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return fingerprint, fmt.Errorf("parsing state fingerprint: %w", err)
	}
	if len(decoded) != len(fingerprint) {
		return fingerprint, fmt.Errorf("state fingerprint is %d bytes, want %d", len(decoded), len(fingerprint))
	}
	copy(fingerprint[:], decoded)
	return fingerprint, nil
}

// Result is the fingerprint of a store together with its pair count.
type Result struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	Count       uint64      `json:"count"`
}

// Hasher accumulates pairs incrementally. Pairs must be added in
// strictly ascending key order, which is the order [kv.Store.Scan]
// yields them.
type Hasher struct {
	inner   *blake3.Hasher
	count   uint64
	lastKey string
	scratch [binary.MaxVarintLen64]byte
}

// NewHasher returns an empty hasher.
func NewHasher() *Hasher {
	// NewKeyed only fails for a key that is not 32 bytes.
	inner, err := blake3.NewKeyed(stateDomainKey[:])
	if err != nil {
		panic("statedigest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return &Hasher{inner: inner}
}

// Add frames one pair into the digest.
func (h *Hasher) Add(key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("statedigest: empty key")
	}
	if h.count > 0 && key <= h.lastKey {
		return fmt.Errorf("statedigest: key %q does not follow %q", key, h.lastKey)
	}
	h.writeLength(len(key))
	h.inner.Write([]byte(key))
	h.writeLength(len(value))
	h.inner.Write(value)
	h.lastKey = key
	h.count++
	return nil
}

func (h *Hasher) writeLength(length int) {
	n := binary.PutUvarint(h.scratch[:], uint64(length))
	h.inner.Write(h.scratch[:n])
}

// Count returns the number of pairs added.
func (h *Hasher) Count() uint64 { return h.count }

// Sum returns the digest of the pairs added so far. It does not reset
// the hasher.
func (h *Hasher) Sum() Fingerprint {
	var fingerprint Fingerprint
	copy(fingerprint[:], h.inner.Sum(nil))
	return fingerprint
}

// Result returns the current fingerprint and count.
func (h *Hasher) Result() Result {
	return Result{Fingerprint: h.Sum(), Count: h.count}
}

// Compute fingerprints every pair in store.
func Compute(ctx context.Context, store kv.Store) (Result, error) {
	hasher := NewHasher()
	if err := store.Scan(ctx, "", "", hasher.Add); err != nil {
		return Result{}, fmt.Errorf("fingerprinting store: %w", err)
	}
	return hasher.Result(), nil
}
