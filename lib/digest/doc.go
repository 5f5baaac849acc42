// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest derives content addresses.
//
// A content address is the lowercase hex encoding of the SHA-256
// digest of a raw input value. The hash registry uses it both as the
// identity of a stored hash record and as that record's store key, so
// the derivation is fixed: no salt, no key, no normalization of the
// input bytes. Every replica hashing the same bytes derives the same
// 64-character address.
//
// The API surface:
//
//   - [Digest] -- SHA-256 of a byte slice as a lowercase hex string
//   - [Sum] -- the same digest as a [32]byte
//   - [HashFile] -- streams a file through SHA-256 with constant memory
//   - [Format] and [Parse] -- convert between [32]byte and hex
//   - [Validate] -- checks that a string is a well-formed address
//
// This package has no dependencies on other registry packages.
package digest
