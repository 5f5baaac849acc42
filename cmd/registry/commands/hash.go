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
	"github.com/bureau-foundation/registry/lib/hashregistry"
	"github.com/bureau-foundation/registry/lib/ledger"
	"github.com/bureau-foundation/registry/lib/record"
	"github.com/bureau-foundation/registry/lib/registry"
	"github.com/spf13/pflag"
)

// hashParams is shared by every "registry hash" subcommand.
type hashParams struct {
	ledgerParams
	cli.JSONOutput
}

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:    "hash",
		Summary: "Register and verify content digests",
		Description: `The hash ledger stores SHA-256 digests of raw values. A value is
registered once; storing it again fails. Verification recomputes the
digest and reports whether it is registered.`,
		Subcommands: []*cli.Command{
			hashInitCommand(),
			hashStoreCommand(),
			hashVerifyCommand(),
			hashExistsCommand(),
			hashReadCommand(),
			hashListCommand(),
		},
	}
}

// hashLeaf builds a hash subcommand whose Run receives an open hash
// ledger.
func hashLeaf(name, summary, usage string, positionals []string, run func(ctx context.Context, s *session, args []string, params *hashParams, w io.Writer) error) *cli.Command {
	var params hashParams
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   usage,
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("hash "+name, &params) },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if err := cli.RequireArgs(args, positionals...); err != nil {
				return err
			}
			return withLedger(ctx, params.ledgerParams, ledger.Hashes, "hash/"+name, func(s *session) error {
				return run(ctx, s, args, &params, os.Stdout)
			})
		},
	}
}

func hashInitCommand() *cli.Command {
	command := hashLeaf("init", "Seed the hash ledger with its genesis digests",
		"registry hash init [--config <path>]", nil, runHashInit)
	command.Description = `Write the genesis digests into an empty hash ledger. Fails without
writing anything if any genesis digest is already present.`
	return command
}

func runHashInit(ctx context.Context, s *session, _ []string, params *hashParams, w io.Writer) error {
	if err := hashregistry.New(s.logger).Initialize(ctx, s.ledger.Store); err != nil {
		return err
	}
	seeds := hashregistry.Seeds()
	if done, err := params.EmitJSON(w, map[string]any{"seeded": len(seeds), "location": s.ledger.Location}); done {
		return err
	}
	_, err := fmt.Fprintf(w, "seeded %d genesis digests in %s\n", len(seeds), s.ledger.Location)
	return err
}

func hashStoreCommand() *cli.Command {
	command := hashLeaf("store", "Register the digest of a value",
		"registry hash store <value>", []string{"value"}, runHashStore)
	command.Examples = []cli.Example{{
		Description: "Register a radio fingerprint",
		Command:     "registry hash store empreinte3",
	}}
	return command
}

func runHashStore(ctx context.Context, s *session, args []string, params *hashParams, w io.Writer) error {
	stored, err := hashregistry.New(s.logger).Store(ctx, s.ledger.Store, []byte(args[0]))
	if err != nil {
		return err
	}
	if done, err := params.EmitJSON(w, stored); done {
		return err
	}
	_, err = fmt.Fprintln(w, stored.Hash)
	return err
}

func hashVerifyCommand() *cli.Command {
	return hashLeaf("verify", "Check whether a value's digest is registered",
		"registry hash verify <value>", []string{"value"}, runHashVerify)
}

func runHashVerify(ctx context.Context, s *session, args []string, params *hashParams, w io.Writer) error {
	verification, err := hashregistry.New(s.logger).Verify(ctx, s.ledger.Store, []byte(args[0]))
	if err != nil {
		return err
	}
	if done, err := params.EmitJSON(w, verification); done {
		return err
	}
	_, err = fmt.Fprintln(w, verification)
	return err
}

func hashExistsCommand() *cli.Command {
	command := hashLeaf("exists", "Check whether a digest is registered (exit 1 if not)",
		"registry hash exists <digest>", []string{"digest"}, runHashExists)
	command.Description = `Report whether a 64-character hex digest is registered. Exits 0 when
it is and 1 when it is not.`
	return command
}

func runHashExists(ctx context.Context, s *session, args []string, params *hashParams, w io.Writer) error {
	found, err := hashregistry.New(s.logger).Exists(ctx, s.ledger.Store, args[0])
	if err != nil {
		return err
	}
	return reportExists(w, &params.JSONOutput, args[0], found)
}

func hashReadCommand() *cli.Command {
	return hashLeaf("read", "Print the record stored under a digest",
		"registry hash read <digest>", []string{"digest"}, runHashRead)
}

func runHashRead(ctx context.Context, s *session, args []string, params *hashParams, w io.Writer) error {
	stored, err := hashregistry.New(s.logger).Read(ctx, s.ledger.Store, args[0])
	if err != nil {
		return err
	}
	if done, err := params.EmitJSON(w, stored); done {
		return err
	}
	_, err = fmt.Fprintf(w, "hash: %s\n", stored.Hash)
	return err
}

func hashListCommand() *cli.Command {
	return hashLeaf("list", "List every registered digest in key order",
		"registry hash list [--json]", nil, runHashList)
}

func runHashList(ctx context.Context, s *session, _ []string, params *hashParams, w io.Writer) error {
	entries, err := hashregistry.New(s.logger).List(ctx, s.ledger.Store)
	if err != nil {
		return err
	}
	return writeEntries(w, &params.JSONOutput, entries)
}

// reportExists prints the outcome of an existence check and turns
// "absent" into exit code 1.
func reportExists(w io.Writer, output *cli.JSONOutput, subject string, found bool) error {
	if done, err := output.EmitJSON(w, map[string]any{"key": subject, "exists": found}); done {
		if err != nil {
			return err
		}
	} else {
		state := "exists"
		if !found {
			state = "not found"
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", subject, state); err != nil {
			return err
		}
	}
	if !found {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// writeEntries prints ledger entries one per line, or as a JSON array.
func writeEntries(w io.Writer, output *cli.JSONOutput, entries []registry.Entry) error {
	items := make([]listItem, 0, len(entries))
	for _, entry := range entries {
		item := listItem{Key: entry.Key}
		if entry.Err != nil {
			item.Error = entry.Err.Error()
		} else {
			item.Kind = entry.Record.Kind()
			item.Fields = entry.Record.Fields()
		}
		items = append(items, item)
	}
	if done, err := output.EmitJSON(w, items); done {
		return err
	}

	for _, entry := range entries {
		var err error
		switch {
		case entry.Err != nil:
			_, err = fmt.Fprintf(w, "%s\t<undecodable: %v>\n", entry.Key, entry.Err)
		case entry.Key == entry.Record.Key():
			_, err = fmt.Fprintln(w, describe(entry.Record))
		default:
			// A record stored under a key other than its own.
			_, err = fmt.Fprintf(w, "%s\t%s\n", entry.Key, describe(entry.Record))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// describe renders a record for line-oriented output.
func describe(rec record.Record) string {
	switch typed := rec.(type) {
	case record.AssetRecord:
		return typed.String()
	case record.HashRecord:
		return typed.Hash
	default:
		return fmt.Sprintf("%s %v", rec.Kind(), rec.Fields())
	}
}
