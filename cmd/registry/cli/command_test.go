// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesNested(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "registry",
		Subcommands: []*Command{
			{
				Name: "hash",
				Subcommands: []*Command{
					{
						Name: "store",
						Run: func(_ context.Context, args []string, _ *slog.Logger) error {
							called = "hash store"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"hash", "store", "abc123"}, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "hash store" {
		t.Errorf("dispatched to %q, want %q", called, "hash store")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "abc123" {
		t.Errorf("args = %v, want [abc123]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	type params struct {
		MAC string `flag:"mac" desc:"MAC address"`
	}
	var p params
	var positional []string

	command := &Command{
		Name:  "find",
		Flags: func() *pflag.FlagSet { return FlagsFromParams("find", &p) },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			positional = args
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--mac", "00:0a", "rest"}, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if p.MAC != "00:0a" {
		t.Errorf("MAC = %q, want 00:0a", p.MAC)
	}
	if len(positional) != 1 || positional[0] != "rest" {
		t.Errorf("args = %v, want [rest]", positional)
	}
}

func TestCommand_Execute_UnknownCommandSuggests(t *testing.T) {
	root := &Command{
		Name: "registry",
		Subcommands: []*Command{
			{Name: "snapshot", Run: func(context.Context, []string, *slog.Logger) error { return nil }},
			{Name: "state", Run: func(context.Context, []string, *slog.Logger) error { return nil }},
		},
	}

	err := root.Execute(context.Background(), []string{"snapshto"}, nil)
	if err == nil {
		t.Fatal("Execute should fail for an unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "snapshot"`) {
		t.Errorf("error = %v, want a suggestion for snapshot", err)
	}
}

func TestCommand_Execute_UnknownFlagSuggests(t *testing.T) {
	type params struct {
		Compression string `flag:"compression" desc:"codec"`
	}
	var p params
	command := &Command{
		Name:  "export",
		Flags: func() *pflag.FlagSet { return FlagsFromParams("export", &p) },
		Run:   func(context.Context, []string, *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--compresion", "lz4"}, nil)
	if err == nil {
		t.Fatal("Execute should fail for an unknown flag")
	}
	if !strings.Contains(err.Error(), "did you mean --compression?") {
		t.Errorf("error = %v, want a suggestion for --compression", err)
	}
}

func TestCommand_Execute_SubcommandRequired(t *testing.T) {
	root := &Command{
		Name:        "registry",
		Subcommands: []*Command{{Name: "hash"}},
	}
	if err := root.Execute(context.Background(), nil, nil); err == nil {
		t.Fatal("Execute without a subcommand should fail")
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	type params struct {
		JSONOutput
	}
	var p params

	parent := &Command{Name: "registry"}
	command := &Command{
		Name:        "list",
		Summary:     "List every hash",
		Description: "List every registered hash in key order.",
		Flags:       func() *pflag.FlagSet { return FlagsFromParams("list", &p) },
		Examples:    []Example{{Description: "As JSON", Command: "registry hash list --json"}},
		parent:      parent,
	}

	var output bytes.Buffer
	command.PrintHelp(&output)
	help := output.String()

	for _, want := range []string{
		"List every registered hash in key order.",
		"Usage:\n  registry list [flags]",
		"--json",
		"# As JSON",
		"registry hash list --json",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}

func TestRequireArgs(t *testing.T) {
	if err := RequireArgs([]string{"hashes", "key"}, "namespace", "key"); err != nil {
		t.Errorf("RequireArgs: %v", err)
	}
	err := RequireArgs([]string{"hashes"}, "namespace", "key")
	if err == nil || !strings.Contains(err.Error(), "<namespace> <key>") {
		t.Errorf("RequireArgs error = %v, want the expected positionals named", err)
	}
	if err := RequireArgs([]string{"x"}); err == nil || !strings.Contains(err.Error(), "no positional arguments") {
		t.Errorf("RequireArgs error = %v, want no positional arguments", err)
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 1}
	coder, ok := err.(interface{ ExitCode() int })
	if !ok || coder.ExitCode() != 1 {
		t.Fatalf("ExitError does not report code 1")
	}
}
