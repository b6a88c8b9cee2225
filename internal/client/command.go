package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// errUsage marks errors caused by malformed command lines.
var errUsage = errors.New("usage")

// Command is one node of the command tree. Exactly one of Run or
// Subcommands is set.
type Command struct {
	Name    string
	Summary string
	// Args documents the positional arguments in help output.
	Args string

	// Flags, when set, registers the command's flags on fs.
	Flags       func(fs *pflag.FlagSet)
	Subcommands []*Command
	Run         func(ctx context.Context, fs *pflag.FlagSet, args []string) error
}

// Execute dispatches args to the matching subcommand, parses its flags and
// runs it. path is the command path printed in help.
func (c *Command) Execute(ctx context.Context, path string, args []string, out io.Writer) error {
	path = strings.TrimSpace(path + " " + c.Name)

	if len(c.Subcommands) > 0 {
		if len(args) == 0 || isHelpFlag(args[0]) {
			c.printHelp(out, path)
			if len(args) == 0 {
				return fmt.Errorf("%w: %s needs a subcommand", errUsage, path)
			}
			return nil
		}
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				return sub.Execute(ctx, path, args[1:], out)
			}
		}
		return fmt.Errorf("%w: unknown command %q, run '%s --help'", errUsage, args[0], path)
	}

	fs := pflag.NewFlagSet(path, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if c.Flags != nil {
		c.Flags(fs)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			c.printHelp(out, path)
			fmt.Fprint(out, fs.FlagUsages())
			return nil
		}
		return fmt.Errorf("%w: %s: %w", errUsage, path, err)
	}

	return c.Run(ctx, fs, fs.Args())
}

func (c *Command) printHelp(out io.Writer, path string) {
	fmt.Fprintf(out, "%s - %s\n", path, c.Summary)
	if len(c.Subcommands) == 0 {
		fmt.Fprintf(out, "\nUsage: %s [flags] %s\n", path, c.Args)
		return
	}

	fmt.Fprintf(out, "\nCommands:\n")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, sub := range c.Subcommands {
		fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
	}
	_ = tw.Flush()
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

// exactArgs checks the positional argument count of a command.
func exactArgs(args []string, n int, names string) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %s", errUsage, names)
	}
	return nil
}
