// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package kv defines the ordered key-value store the registry runs on.
//
// A [Store] maps non-empty UTF-8 string keys to opaque byte values and
// can enumerate a key range in ascending bytewise order. The registry
// core never holds a store: every operation receives one from its
// caller, so the same code runs against an in-process map, a SQLite
// file ([sqlitekv]), or a NATS JetStream key-value bucket ([natskv]).
//
// [Memory] is the in-process implementation used by tests and by
// commands that work on a snapshot without touching a backend.
// Package [kvtest] holds the conformance suite every implementation
// runs.
//
// [sqlitekv]: github.com/bureau-foundation/registry/lib/kv/sqlitekv
// [natskv]: github.com/bureau-foundation/registry/lib/kv/natskv
// [kvtest]: github.com/bureau-foundation/registry/lib/kv/kvtest
package kv
