// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node in the registry command tree. Interior nodes
// carry Subcommands; leaves carry Run.
type Command struct {
	// Name is the word that selects this command ("hash", "store").
	Name string

	// Summary is the one-liner listed under the parent's Commands.
	Summary string

	// Description replaces Summary at the top of this command's help.
	Description string

	// Usage overrides the synthesized "<path> [flags]" usage line.
	Usage string

	Examples []Example

	// Flags builds a fresh flag set. It may be called more than once
	// per invocation, so it must not share state between sets beyond
	// the bound params struct. Nil means the command takes no flags.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run receives the positionals left after flag parsing. A command
	// with both Run and Subcommands falls back to Run when the first
	// argument names no subcommand.
	Run func(ctx context.Context, args []string, logger *slog.Logger) error

	// parent links back up the tree during dispatch so help and error
	// messages can print the full path.
	parent *Command
}

// Example is one line of the Examples help section, optionally
// preceded by a comment.
type Example struct {
	Description string
	Command     string
}

// Execute routes args through the tree and runs the selected command.
// A nil logger discards output.
func (c *Command) Execute(ctx context.Context, args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(os.Stderr)
		return nil
	}

	sub, err := c.dispatch(args)
	if err != nil {
		return err
	}
	if sub != nil {
		sub.parent = c
		return sub.Execute(ctx, args[1:], logger)
	}

	if c.Run == nil {
		c.PrintHelp(os.Stderr)
		switch {
		case len(c.Subcommands) == 0:
			return fmt.Errorf("no action defined for %q", c.fullName())
		case len(args) == 0:
			return fmt.Errorf("subcommand required")
		default:
			return fmt.Errorf("subcommand required (got flag %q)", args[0])
		}
	}

	positional, err := c.parseFlags(args)
	if err != nil {
		return err
	}
	return c.Run(ctx, positional, logger)
}

// dispatch returns the subcommand named by args[0], or nil when args
// should be handled by c itself. An unmatched name is an error unless
// c has its own Run.
func (c *Command) dispatch(args []string) (*Command, error) {
	if len(c.Subcommands) == 0 || len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return nil, nil
	}
	name := args[0]
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			return sub, nil
		}
	}
	if c.Run != nil {
		return nil, nil
	}
	if suggestion := suggestCommand(name, c.Subcommands); suggestion != "" {
		return nil, fmt.Errorf("unknown command %q (did you mean %q?)%s", name, suggestion, c.helpHint())
	}
	return nil, fmt.Errorf("unknown command %q%s", name, c.helpHint())
}

// parseFlags applies c's flag set to args and returns the positionals.
func (c *Command) parseFlags(args []string) ([]string, error) {
	if c.Flags == nil {
		return args, nil
	}
	flagSet := c.Flags()
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		message := err.Error()
		if strings.Contains(message, "unknown flag") || strings.Contains(message, "unknown shorthand flag") {
			// Suggest against a fresh set; the failed one is partly consumed.
			if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
				return nil, fmt.Errorf("%s (did you mean %s?)%s", message, suggestion, c.helpHint())
			}
		}
		return nil, fmt.Errorf("%s%s", message, c.helpHint())
	}
	return flagSet.Args(), nil
}

func (c *Command) helpHint() string {
	return fmt.Sprintf("\n\nRun '%s --help' for usage.", c.fullName())
}

// PrintHelp renders the description, usage line, command listing,
// flags and examples for c.
func (c *Command) PrintHelp(w io.Writer) {
	path := c.fullName()

	heading := c.Description
	if heading == "" {
		heading = c.Summary
	}
	if heading != "" {
		fmt.Fprintf(w, "%s\n\n", heading)
	}

	usage := c.Usage
	if usage == "" {
		usage = path + " [flags]"
		if len(c.Subcommands) > 0 {
			usage = path + " <command> [flags]"
		}
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", usage)

	c.printCommands(w)

	if c.Flags != nil {
		if listing := c.Flags().FlagUsages(); listing != "" {
			fmt.Fprintf(w, "\nFlags:\n%s", listing)
		}
	}

	c.printExamples(w)

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for details on a command.\n", path)
	}
}

func (c *Command) printCommands(w io.Writer) {
	if len(c.Subcommands) == 0 {
		return
	}
	io.WriteString(w, "\nCommands:\n")
	table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, sub := range c.Subcommands {
		fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
	}
	table.Flush()
}

func (c *Command) printExamples(w io.Writer) {
	if len(c.Examples) == 0 {
		return
	}
	io.WriteString(w, "\nExamples:\n")
	for _, example := range c.Examples {
		if example.Description == "" {
			fmt.Fprintf(w, "  %s\n", example.Command)
			continue
		}
		fmt.Fprintf(w, "  # %s\n  %s\n\n", example.Description, example.Command)
	}
}

// fullName joins the names from the root down to c.
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	}
	return false
}

// RequireArgs returns an error unless there is exactly one arg per
// name. The names label the expected positionals in the message.
func RequireArgs(args []string, names ...string) error {
	if len(args) == len(names) {
		return nil
	}
	want := "<" + strings.Join(names, "> <") + ">"
	if len(names) == 0 {
		want = "no positional arguments"
	}
	return fmt.Errorf("expected %s, got %d argument(s)", want, len(args))
}
