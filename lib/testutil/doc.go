// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for registry packages.
//
// [JetStreamServer] starts an embedded NATS server with JetStream
// enabled, storing under t.TempDir(), and shuts it down when the test
// completes. Tests of the NATS-backed store use it instead of an
// external server.
//
// [UniqueID] generates monotonically increasing identifiers. Use it
// instead of time.Now() when tests need distinct bucket names or keys
// within one process.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
