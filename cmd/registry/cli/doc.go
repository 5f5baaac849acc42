// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the registry
// binary.
//
// The central type is [Command]: a named node with optional nested
// [Command.Subcommands], a [pflag.FlagSet] factory, and a Run function
// that receives a context and a logger. Commands are assembled into a
// tree by the commands package and dispatched via [Command.Execute],
// which handles flag parsing, subcommand routing, and help output.
//
// Unknown subcommands and flags are matched against the known names by
// Levenshtein distance, and the closest one (distance <= 3) is
// suggested in the error.
//
// Parameter structs declare their flags with struct tags and are bound
// through [FlagsFromParams]. Embedding [JSONOutput] adds --json.
package cli
