// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry stores records in an ordered key-value store so
// that independent replicas applying the same operations end up with
// byte-identical state.
//
// A [Registry] holds only immutable configuration (its genesis seeds
// and a logger). Every operation takes the [kv.Store] to act on as an
// explicit argument; the package keeps no state of its own, starts no
// goroutines, and applies no deadlines or retries. The context is
// passed through to the store so a host can cancel a blocked call.
//
// Each key moves through exactly two states: absent, then present.
// [Registry.Create] is the only transition and never overwrites. There
// is no update and no delete. Create checks existence before writing,
// so the store's own isolation (a total order over conflicting writes)
// is what makes "at most one record per key" hold under concurrency.
//
// Values are the canonical encoding produced by [record.Encode].
// [Registry.Read] distinguishes an absent key ([NotFoundError]) from a
// value that does not decode ([DecodeError]). [Registry.ListAll] is the
// one operation that tolerates decode failures: it returns the raw
// bytes for such entries and keeps scanning.
//
// # Attribute lookup
//
// [Registry.FindByAttribute] has no index to consult. It scans every
// record in ascending key order and returns the first whose attribute
// equals the wanted value. When several records share that value the
// result therefore depends on key order, which is the same on every
// replica. The scan is linear in the number of records.
package registry
