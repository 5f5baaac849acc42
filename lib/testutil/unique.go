// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"strconv"
	"sync/atomic"
)

// issued counts names handed out by UniqueID across the whole test
// binary, so parallel tests sharing one JetStream server never pick
// the same bucket prefix.
var issued atomic.Uint64

// UniqueID appends a process-wide sequence number to prefix. The
// result contains only the prefix's characters, a dash and digits, so
// a prefix that is a valid KV bucket name yields one too:
//
//	prefix := testutil.UniqueID("ledger") // "ledger-1", then "ledger-2"
func UniqueID(prefix string) string {
	return prefix + "-" + strconv.FormatUint(issued.Add(1), 10)
}
