// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/registry/cmd/registry/cli"
	"github.com/bureau-foundation/registry/lib/config"
	"github.com/bureau-foundation/registry/lib/ledger"
	"github.com/bureau-foundation/registry/lib/record"
)

// ledgerParams is embedded by every command that touches a ledger.
type ledgerParams struct {
	ConfigPath string `json:"config" flag:"config" desc:"path to registry.yaml (default: $REGISTRY_CONFIG)"`
}

// loadConfig reads the file at path, or the one named by
// REGISTRY_CONFIG when path is empty, and validates it.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// session is an open ledger together with the configuration and
// logger it was opened with.
type session struct {
	config *config.Config
	ledger *ledger.Ledger
	logger *slog.Logger
}

// withLedger loads the configuration, opens namespace, and runs fn.
// The logger handed to fn honors the configured log level.
func withLedger(ctx context.Context, params ledgerParams, namespace, command string, fn func(*session) error) error {
	cfg, err := loadConfig(params.ConfigPath)
	if err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	logger := cli.NewCommandLogger(level).With("command", command, "backend", cfg.Store.Backend)

	opened, err := ledger.Open(ctx, cfg, namespace, logger)
	if err != nil {
		return fmt.Errorf("opening %s ledger: %w", namespace, err)
	}
	defer func() {
		if closeErr := opened.Close(); closeErr != nil {
			logger.Warn("closing ledger failed", "namespace", namespace, "error", closeErr)
		}
	}()

	return fn(&session{config: cfg, ledger: opened, logger: logger.With("namespace", namespace)})
}

// listItem is the JSON form of one ledger entry. Entries that fail to
// decode carry Error instead of Kind and Fields.
type listItem struct {
	Key    string         `json:"key"`
	Kind   record.Kind    `json:"kind,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	Error  string         `json:"error,omitempty"`
}
