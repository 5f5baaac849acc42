// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/registry/cmd/registry/cli"
	"github.com/bureau-foundation/registry/lib/ledger"
	"github.com/bureau-foundation/registry/lib/snapshot"
	"github.com/bureau-foundation/registry/lib/statedigest"
	"github.com/spf13/pflag"
)

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Summary: "Export and import whole ledger namespaces",
		Description: `Copy a ledger namespace between backends or machines. A snapshot holds
every key and stored value in key order, followed by the entry count and
state fingerprint. Import verifies both before writing anything, and
refuses to overwrite any key that already exists.`,
		Subcommands: []*cli.Command{
			snapshotExportCommand(),
			snapshotImportCommand(),
		},
	}
}

type exportParams struct {
	ledgerParams
	cli.JSONOutput
	Compression string `json:"compression" flag:"compression" desc:"none, lz4, or zstd (default: snapshot.compression from config)"`
}

func snapshotExportCommand() *cli.Command {
	var params exportParams
	return &cli.Command{
		Name:    "export",
		Summary: "Write a namespace to a snapshot file",
		Usage:   "registry snapshot export <namespace> <file> [--compression none|lz4|zstd]",
		Examples: []cli.Example{{
			Description: "Move the asset ledger from SQLite to NATS",
			Command:     "registry snapshot export assets assets.snap --config sqlite.yaml && registry snapshot import assets assets.snap --config nats.yaml",
		}},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("snapshot export", &params) },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if err := cli.RequireArgs(args, "namespace", "file"); err != nil {
				return err
			}
			if err := ledger.ValidateNamespace(args[0]); err != nil {
				return err
			}
			return withLedger(ctx, params.ledgerParams, args[0], "snapshot/export", func(s *session) error {
				return runSnapshotExport(ctx, s, &params, args[1], os.Stdout)
			})
		},
	}
}

func runSnapshotExport(ctx context.Context, s *session, params *exportParams, path string, w io.Writer) (err error) {
	name := params.Compression
	if name == "" {
		name = s.config.Snapshot.Compression
	}
	compression, err := snapshot.ParseCompression(name)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	result, err := snapshot.Export(ctx, s.ledger.Store, file, snapshot.Options{
		Compression: compression,
		Logger:      s.logger,
	})
	if err != nil {
		return err
	}
	return reportSnapshot(w, &params.JSONOutput, "exported", s.ledger.Namespace, path, result)
}

type importParams struct {
	ledgerParams
	cli.JSONOutput
}

func snapshotImportCommand() *cli.Command {
	var params importParams
	return &cli.Command{
		Name:    "import",
		Summary: "Load a snapshot file into a namespace",
		Usage:   "registry snapshot import <namespace> <file>",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("snapshot import", &params) },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if err := cli.RequireArgs(args, "namespace", "file"); err != nil {
				return err
			}
			if err := ledger.ValidateNamespace(args[0]); err != nil {
				return err
			}
			return withLedger(ctx, params.ledgerParams, args[0], "snapshot/import", func(s *session) error {
				return runSnapshotImport(ctx, s, &params, args[1], os.Stdout)
			})
		},
	}
}

func runSnapshotImport(ctx context.Context, s *session, params *importParams, path string, w io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	result, err := snapshot.Import(ctx, s.ledger.Store, file, s.logger)
	if err != nil {
		if errors.Is(err, snapshot.ErrCorrupt) {
			return fmt.Errorf("%s: %w", path, err)
		}
		return err
	}
	return reportSnapshot(w, &params.JSONOutput, "imported", s.ledger.Namespace, path, result)
}

func reportSnapshot(w io.Writer, output *cli.JSONOutput, verb, namespace, path string, result statedigest.Result) error {
	if done, err := output.EmitJSON(w, map[string]any{
		"namespace":   namespace,
		"file":        path,
		"count":       result.Count,
		"fingerprint": result.Fingerprint,
	}); done {
		return err
	}
	_, err := fmt.Fprintf(w, "%s %d %s entries (%s) via %s\n", verb, result.Count, namespace, result.Fingerprint, path)
	return err
}
