// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/registry/cmd/registry/cli"
	"github.com/bureau-foundation/registry/lib/digest"
	"github.com/spf13/pflag"
)

type digestParams struct {
	File string `json:"file" flag:"file,f" desc:"hash the contents of this file instead of an argument"`
}

func digestCommand() *cli.Command {
	var params digestParams

	return &cli.Command{
		Name:    "digest",
		Summary: "Print the SHA-256 digest of a value or file",
		Description: `Print the lowercase hex SHA-256 digest of a value, exactly as the hash
ledger would key it. Nothing is read from or written to any ledger.`,
		Usage: "registry digest <value> | --file <path>",
		Examples: []cli.Example{
			{
				Description: "Digest a radio fingerprint",
				Command:     "registry digest empreinte1",
			},
			{
				Description: "Digest a file",
				Command:     "registry digest --file firmware.bin",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("digest", &params) },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			return runDigest(args, params, os.Stdout)
		},
	}
}

func runDigest(args []string, params digestParams, w io.Writer) error {
	if params.File != "" {
		if err := cli.RequireArgs(args); err != nil {
			return fmt.Errorf("--file and a value are mutually exclusive: %w", err)
		}
		sum, err := digest.HashFile(params.File)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, digest.Format(sum))
		return err
	}

	if err := cli.RequireArgs(args, "value"); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, digest.Digest([]byte(args[0])))
	return err
}
