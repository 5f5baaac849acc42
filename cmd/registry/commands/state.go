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
	"github.com/bureau-foundation/registry/lib/codec"
	"github.com/bureau-foundation/registry/lib/ledger"
	"github.com/bureau-foundation/registry/lib/record"
	"github.com/bureau-foundation/registry/lib/registry"
	"github.com/bureau-foundation/registry/lib/statedigest"
	"github.com/spf13/pflag"
)

type stateParams struct {
	ledgerParams
	cli.JSONOutput
}

func stateCommand() *cli.Command {
	return &cli.Command{
		Name:    "state",
		Summary: "Fingerprint and inspect raw ledger state",
		Description: `Low-level views of a ledger namespace ("hashes" or "assets").

"state digest" prints a fingerprint of every key and stored value.
Two replicas that applied the same operations print the same
fingerprint. "state inspect" shows the stored bytes under one key.`,
		Subcommands: []*cli.Command{
			stateDigestCommand(),
			stateInspectCommand(),
		},
	}
}

func stateDigestCommand() *cli.Command {
	var params stateParams
	return &cli.Command{
		Name:    "digest",
		Summary: "Print the fingerprint of a namespace",
		Usage:   "registry state digest <namespace>",
		Examples: []cli.Example{{
			Description: "Compare two replicas",
			Command:     "diff <(registry state digest assets --config a.yaml) <(registry state digest assets --config b.yaml)",
		}},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("state digest", &params) },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if err := cli.RequireArgs(args, "namespace"); err != nil {
				return err
			}
			if err := ledger.ValidateNamespace(args[0]); err != nil {
				return err
			}
			return withLedger(ctx, params.ledgerParams, args[0], "state/digest", func(s *session) error {
				return runStateDigest(ctx, s, &params, os.Stdout)
			})
		},
	}
}

func runStateDigest(ctx context.Context, s *session, params *stateParams, w io.Writer) error {
	result, err := statedigest.Compute(ctx, s.ledger.Store)
	if err != nil {
		return err
	}
	if done, err := params.EmitJSON(w, result); done {
		return err
	}
	_, err = fmt.Fprintf(w, "%s  %d entries\n", result.Fingerprint, result.Count)
	return err
}

func stateInspectCommand() *cli.Command {
	var params stateParams
	return &cli.Command{
		Name:    "inspect",
		Summary: "Show the stored bytes under a key",
		Description: `Print the raw value stored under a key: its size, its encoding, CBOR
diagnostic notation, whether it is in canonical form, and the record it
decodes to. Values that fail to decode are still shown.`,
		Usage: "registry state inspect <namespace> <key>",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("state inspect", &params) },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if err := cli.RequireArgs(args, "namespace", "key"); err != nil {
				return err
			}
			if err := ledger.ValidateNamespace(args[0]); err != nil {
				return err
			}
			return withLedger(ctx, params.ledgerParams, args[0], "state/inspect", func(s *session) error {
				return runStateInspect(ctx, s, &params, args[1], os.Stdout)
			})
		},
	}
}

// inspection is the JSON form of "state inspect".
type inspection struct {
	Key         string         `json:"key"`
	Size        int            `json:"size"`
	Format      string         `json:"format"`
	Diagnostic  string         `json:"diagnostic,omitempty"`
	Canonical   bool           `json:"canonical"`
	Kind        record.Kind    `json:"kind,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	DecodeError string         `json:"decode_error,omitempty"`
}

func inspect(key string, value []byte) inspection {
	result := inspection{Key: key, Size: len(value)}

	if value[0] == '{' {
		result.Format = "legacy json"
		result.Diagnostic = string(value)
	} else {
		result.Format = "cbor"
		if diagnostic, err := codec.Diagnose(value); err == nil {
			result.Diagnostic = diagnostic
		}
		result.Canonical = codec.IsCanonical(value) == nil
	}

	decoded, err := record.Decode(value)
	if err != nil {
		result.DecodeError = err.Error()
		return result
	}
	result.Kind = decoded.Kind()
	result.Fields = decoded.Fields()
	return result
}

func runStateInspect(ctx context.Context, s *session, params *stateParams, key string, w io.Writer) error {
	if key == "" {
		return registry.ErrEmptyKey
	}
	value, err := s.ledger.Store.Get(ctx, key)
	if err != nil {
		return &registry.StoreError{Op: "get", Key: key, Err: err}
	}
	if len(value) == 0 {
		return &registry.NotFoundError{Key: key}
	}

	result := inspect(key, value)
	if done, err := params.EmitJSON(w, result); done {
		return err
	}

	canonical := "no"
	if result.Canonical {
		canonical = "yes"
	}
	fmt.Fprintf(w, "key:        %s\n", result.Key)
	fmt.Fprintf(w, "size:       %d bytes\n", result.Size)
	fmt.Fprintf(w, "format:     %s\n", result.Format)
	if result.Format == "cbor" {
		fmt.Fprintf(w, "canonical:  %s\n", canonical)
	}
	if result.Diagnostic != "" {
		fmt.Fprintf(w, "value:      %s\n", result.Diagnostic)
	}
	if result.DecodeError != "" {
		_, err = fmt.Fprintf(w, "record:     <undecodable: %s>\n", result.DecodeError)
		return err
	}
	_, err = fmt.Fprintf(w, "record:     %s %v\n", result.Kind, result.Fields)
	return err
}
