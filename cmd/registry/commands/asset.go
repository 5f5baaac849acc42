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
	"github.com/bureau-foundation/registry/lib/assetregistry"
	"github.com/bureau-foundation/registry/lib/ledger"
	"github.com/bureau-foundation/registry/lib/record"
	"github.com/spf13/pflag"
)

func assetCommand() *cli.Command {
	return &cli.Command{
		Name:    "asset",
		Summary: "Register and look up devices",
		Description: `The asset ledger stores devices keyed by their id. Each device carries
a cloud provider id, a radio fingerprint, a MAC address, and a
manufacturer id. Ids are never reused; creating an existing id fails.

Lookups by MAC address or radio fingerprint scan the ledger in id order
and return the first match.`,
		Subcommands: []*cli.Command{
			assetInitCommand(),
			assetCreateCommand(),
			assetImportCommand(),
			assetReadCommand(),
			assetExistsCommand(),
			assetFindCommand(),
			assetListCommand(),
		},
	}
}

// assetParams is used by asset subcommands with no flags of their own.
type assetParams struct {
	ledgerParams
	cli.JSONOutput
}

// assetRun checks positionals, opens the asset ledger, and calls fn.
func assetRun(params *ledgerParams, name string, positionals []string, fn func(ctx context.Context, s *session, args []string) error) func(context.Context, []string, *slog.Logger) error {
	return func(ctx context.Context, args []string, _ *slog.Logger) error {
		if err := cli.RequireArgs(args, positionals...); err != nil {
			return err
		}
		return withLedger(ctx, *params, ledger.Assets, "asset/"+name, func(s *session) error {
			return fn(ctx, s, args)
		})
	}
}

func assetInitCommand() *cli.Command {
	var params assetParams
	return &cli.Command{
		Name:    "init",
		Summary: "Seed the asset ledger with its genesis devices",
		Usage:   "registry asset init [--config <path>]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("asset init", &params) },
		Run: assetRun(&params.ledgerParams, "init", nil, func(ctx context.Context, s *session, _ []string) error {
			return runAssetInit(ctx, s, &params, os.Stdout)
		}),
	}
}

func runAssetInit(ctx context.Context, s *session, params *assetParams, w io.Writer) error {
	if err := assetregistry.New(s.logger).Initialize(ctx, s.ledger.Store); err != nil {
		return err
	}
	seeds := assetregistry.Seeds()
	if done, err := params.EmitJSON(w, map[string]any{"seeded": len(seeds), "location": s.ledger.Location}); done {
		return err
	}
	_, err := fmt.Fprintf(w, "seeded %d genesis assets in %s\n", len(seeds), s.ledger.Location)
	return err
}

type createParams struct {
	ledgerParams
	cli.JSONOutput
	ID               string `json:"id"                flag:"id"                desc:"asset id (the ledger key)"`
	CloudProvider    string `json:"cloud_provider"    flag:"cloud-provider"    desc:"cloud provider id"`
	RadioFingerprint string `json:"radio_fingerprint" flag:"radio-fingerprint" desc:"radio fingerprint"`
	MAC              string `json:"mac"               flag:"mac"               desc:"MAC address"`
	Manufacturer     string `json:"manufacturer"      flag:"manufacturer"      desc:"manufacturer id"`
}

func (p *createParams) asset() record.AssetRecord {
	return record.AssetRecord{
		ID:               p.ID,
		CloudProviderID:  p.CloudProvider,
		RadioFingerprint: p.RadioFingerprint,
		MACAddress:       p.MAC,
		ManufacturerID:   p.Manufacturer,
	}
}

func assetCreateCommand() *cli.Command {
	var params createParams
	return &cli.Command{
		Name:    "create",
		Summary: "Register one device",
		Description: `Register a device under its id. Every field is required. Fails if the
id is already registered.`,
		Usage: "registry asset create --id <id> --cloud-provider <id> --radio-fingerprint <fp> --mac <mac> --manufacturer <id>",
		Examples: []cli.Example{{
			Description: "Register a third sensor",
			Command:     "registry asset create --id SN-3 --cloud-provider cloud_provider_1 --radio-fingerprint empreinte3 --mac 00:0a:95:9d:68:18 --manufacturer fabricant_2",
		}},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("asset create", &params) },
		Run: assetRun(&params.ledgerParams, "create", nil, func(ctx context.Context, s *session, _ []string) error {
			return runAssetCreate(ctx, s, &params, os.Stdout)
		}),
	}
}

func runAssetCreate(ctx context.Context, s *session, params *createParams, w io.Writer) error {
	asset := params.asset()
	if err := asset.Validate(); err != nil {
		return err
	}
	if err := assetregistry.New(s.logger).Create(ctx, s.ledger.Store, asset); err != nil {
		return err
	}
	if done, err := params.EmitJSON(w, asset); done {
		return err
	}
	_, err := fmt.Fprintf(w, "created %s\n", asset)
	return err
}

func assetImportCommand() *cli.Command {
	var params assetParams
	return &cli.Command{
		Name:    "import",
		Summary: "Register a batch of devices from a JSONC file",
		Description: `Read a JSON array of devices (comments and trailing commas allowed)
and register all of them. The whole batch is checked first: if any
device is invalid, repeats an id, or is already registered, nothing is
written.`,
		Usage: "registry asset import <file.jsonc>",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("asset import", &params) },
		Run: assetRun(&params.ledgerParams, "import", []string{"file"}, func(ctx context.Context, s *session, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return runAssetImport(ctx, s, &params, data, os.Stdout)
		}),
	}
}

func runAssetImport(ctx context.Context, s *session, params *assetParams, data []byte, w io.Writer) error {
	assets, err := assetregistry.ParseBatch(data)
	if err != nil {
		return err
	}
	if err := assetregistry.New(s.logger).CreateBatch(ctx, s.ledger.Store, assets); err != nil {
		return err
	}
	if done, err := params.EmitJSON(w, assets); done {
		return err
	}
	_, err = fmt.Fprintf(w, "imported %d assets\n", len(assets))
	return err
}

func assetReadCommand() *cli.Command {
	var params assetParams
	return &cli.Command{
		Name:    "read",
		Summary: "Print the device registered under an id",
		Usage:   "registry asset read <id>",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("asset read", &params) },
		Run: assetRun(&params.ledgerParams, "read", []string{"id"}, func(ctx context.Context, s *session, args []string) error {
			return runAssetRead(ctx, s, &params, args[0], os.Stdout)
		}),
	}
}

func runAssetRead(ctx context.Context, s *session, params *assetParams, id string, w io.Writer) error {
	asset, err := assetregistry.New(s.logger).Read(ctx, s.ledger.Store, id)
	if err != nil {
		return err
	}
	if done, err := params.EmitJSON(w, asset); done {
		return err
	}
	_, err = fmt.Fprintln(w, asset)
	return err
}

// lookupParams selects a device by one secondary attribute.
type lookupParams struct {
	ledgerParams
	cli.JSONOutput
	MAC              string `json:"mac"               flag:"mac"               desc:"match on MAC address"`
	RadioFingerprint string `json:"radio_fingerprint" flag:"radio-fingerprint" desc:"match on radio fingerprint"`
}

// attribute returns the persisted field name and value selected by
// the flags. Exactly one flag must be set.
func (p *lookupParams) attribute() (string, string, error) {
	switch {
	case p.MAC != "" && p.RadioFingerprint != "":
		return "", "", fmt.Errorf("--mac and --radio-fingerprint are mutually exclusive")
	case p.MAC != "":
		return record.FieldMACAddress, p.MAC, nil
	case p.RadioFingerprint != "":
		return record.FieldRadioFingerprint, p.RadioFingerprint, nil
	default:
		return "", "", nil
	}
}

func assetExistsCommand() *cli.Command {
	var params lookupParams
	return &cli.Command{
		Name:    "exists",
		Summary: "Check whether a device is registered (exit 1 if not)",
		Description: `Report whether a device is registered, by id or by one secondary
attribute. Exits 0 when it is and 1 when it is not.`,
		Usage: "registry asset exists <id> | --mac <mac> | --radio-fingerprint <fp>",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("asset exists", &params) },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			return withLedger(ctx, params.ledgerParams, ledger.Assets, "asset/exists", func(s *session) error {
				return runAssetExists(ctx, s, &params, args, os.Stdout)
			})
		},
	}
}

func runAssetExists(ctx context.Context, s *session, params *lookupParams, args []string, w io.Writer) error {
	name, value, err := params.attribute()
	if err != nil {
		return err
	}
	assets := assetregistry.New(s.logger)

	if name == "" {
		if err := cli.RequireArgs(args, "id"); err != nil {
			return err
		}
		found, err := assets.Exists(ctx, s.ledger.Store, args[0])
		if err != nil {
			return err
		}
		return reportExists(w, &params.JSONOutput, args[0], found)
	}

	if err := cli.RequireArgs(args); err != nil {
		return fmt.Errorf("an id and --%s are mutually exclusive: %w", flagFor(name), err)
	}
	var found bool
	if name == record.FieldMACAddress {
		found, err = assets.ExistsByMAC(ctx, s.ledger.Store, value)
	} else {
		found, err = assets.ExistsByRadioFingerprint(ctx, s.ledger.Store, value)
	}
	if err != nil {
		return err
	}
	return reportExists(w, &params.JSONOutput, name+"="+value, found)
}

func assetFindCommand() *cli.Command {
	var params lookupParams
	return &cli.Command{
		Name:    "find",
		Summary: "Find the device with a MAC address or radio fingerprint",
		Description: `Scan the asset ledger in id order and print the first device whose MAC
address or radio fingerprint matches. Exactly one of --mac and
--radio-fingerprint is required.`,
		Usage: "registry asset find --mac <mac> | --radio-fingerprint <fp>",
		Examples: []cli.Example{{
			Description: "Identify a device seen on the network",
			Command:     "registry asset find --mac 00:0a:95:9d:68:16",
		}},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("asset find", &params) },
		Run: assetRun(&params.ledgerParams, "find", nil, func(ctx context.Context, s *session, _ []string) error {
			return runAssetFind(ctx, s, &params, os.Stdout)
		}),
	}
}

func runAssetFind(ctx context.Context, s *session, params *lookupParams, w io.Writer) error {
	name, value, err := params.attribute()
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("one of --mac or --radio-fingerprint is required")
	}

	assets := assetregistry.New(s.logger)
	var asset record.AssetRecord
	if name == record.FieldMACAddress {
		asset, err = assets.FindByMAC(ctx, s.ledger.Store, value)
	} else {
		asset, err = assets.FindByRadioFingerprint(ctx, s.ledger.Store, value)
	}
	if err != nil {
		return err
	}
	if done, err := params.EmitJSON(w, asset); done {
		return err
	}
	_, err = fmt.Fprintln(w, asset)
	return err
}

func assetListCommand() *cli.Command {
	var params assetParams
	return &cli.Command{
		Name:    "list",
		Summary: "List every registered device in id order",
		Usage:   "registry asset list [--json]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("asset list", &params) },
		Run: assetRun(&params.ledgerParams, "list", nil, func(ctx context.Context, s *session, _ []string) error {
			return runAssetList(ctx, s, &params, os.Stdout)
		}),
	}
}

func runAssetList(ctx context.Context, s *session, params *assetParams, w io.Writer) error {
	entries, err := assetregistry.New(s.logger).List(ctx, s.ledger.Store)
	if err != nil {
		return err
	}
	return writeEntries(w, &params.JSONOutput, entries)
}

func flagFor(field string) string {
	if field == record.FieldMACAddress {
		return "mac"
	}
	return "radio-fingerprint"
}
