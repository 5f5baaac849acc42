// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Registry is the command-line interface to the hash and asset ledgers.
//
// Usage:
//
//	registry digest <value> | --file <path>
//	registry hash init | store <value> | verify <value> | exists <digest> | read <digest> | list
//	registry asset init | create ... | import <file.jsonc> | read <id> | exists <id> | find | list
//	registry state digest <namespace> | inspect <namespace> <key>
//	registry snapshot export <namespace> <file> | import <namespace> <file>
//	registry version
//
// Every command that touches a ledger reads its configuration from the
// file named by --config or the REGISTRY_CONFIG environment variable.
// The configuration selects the storage backend (sqlite, memory, or
// nats) and where it keeps its data.
//
// Commands exit 0 on success and 1 on error. Existence checks exit 1
// when the record is absent, after printing the answer.
package main
