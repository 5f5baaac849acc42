// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the registry's canonical CBOR encoding.
//
// Every replica that executes the same registry operations must write
// byte-identical values. [Canonicalize] sorts map keys in ascending
// lexicographic order at every nesting level, uses the smallest
// integer encodings, and never emits indefinite-length items. Two
// logically-equal values always encode to the same bytes, regardless
// of the order their map fields were inserted in or the process that
// encodes them.
//
// Key order is plain string order ("alpha" before "zeta"), not the
// length-first order of RFC 8949 Core Deterministic Encoding. Scalars
// still go through a Core Deterministic encode mode; maps are written
// by Canonicalize itself. [Marshal] and the stream encoder keep the
// Core Deterministic map order and are used only for snapshot framing.
//
// [Canonicalize] is the entry point for stored records. It walks the
// value tree before encoding and rejects anything that has no single
// canonical form: cyclic maps, empty map keys (the empty string is
// reserved as the unbounded range-scan boundary), floats, and any
// type outside the registry's record vocabulary. Rejections are
// reported as [*EncodingError] naming the offending path.
//
// For generic buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (snapshots):
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// [IsCanonical] checks existing bytes by decoding and re-canonicalizing,
// and [Diagnose] renders CBOR diagnostic notation for inspection.
//
// Struct types that are only ever CBOR use `cbor` tags. Never put
// both `cbor` and `json` tags on the same field.
package codec
