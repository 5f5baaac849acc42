// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the registry CLI command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/registry/cmd/registry/cli"
	"github.com/bureau-foundation/registry/lib/version"
)

// Root builds and returns the complete command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "registry",
		Description: `registry: append-only ledgers of content digests and devices.

Records are written once and never overwritten. Every stored value is
canonical CBOR, so replicas that apply the same operations hold
byte-identical state. Ledgers live in SQLite files, in memory, or in a
NATS JetStream key-value bucket, selected by the config file.`,
		Subcommands: []*cli.Command{
			digestCommand(),
			hashCommand(),
			assetCommand(),
			stateCommand(),
			snapshotCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					if err := cli.RequireArgs(args); err != nil {
						return err
					}
					return PrintVersion(os.Stdout, true)
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Seed both ledgers",
				Command:     "registry hash init && registry asset init",
			},
			{
				Description: "Register a value and verify it later",
				Command:     "registry hash store empreinte3 && registry hash verify empreinte3",
			},
			{
				Description: "Find a device by MAC address",
				Command:     "registry asset find --mac 00:0a:95:9d:68:16",
			},
			{
				Description: "Fingerprint the asset ledger",
				Command:     "registry state digest assets",
			},
		},
	}
}

// PrintVersion writes the version line and, when detailed, the digest
// of the running binary.
func PrintVersion(w io.Writer, detailed bool) error {
	if !detailed {
		_, err := fmt.Fprintf(w, "registry %s\n", version.Info())
		return err
	}
	if _, err := fmt.Fprintf(w, "registry %s\n", version.Full()); err != nil {
		return err
	}
	binaryDigest, path, err := version.SelfDigest()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "  Binary: %s\n  SHA-256: %s\n", path, binaryDigest)
	return err
}
