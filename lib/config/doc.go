// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the registry
// command.
//
// Configuration is loaded from a single file specified by either the
// REGISTRY_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search.
//
// The file may carry environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production is stricter by default: it
// logs at warn and [Config.Validate] refuses the memory backend, whose
// ledger vanishes with the process.
//
// ${HOME}, ${REGISTRY_ROOT}, and ${VAR:-default} patterns are expanded
// in path and URL fields after loading. No other environment variables
// override config values.
//
// This package depends on no other registry packages.
package config
