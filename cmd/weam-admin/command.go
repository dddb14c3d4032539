// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
)

// Command is one weam-admin subcommand.
type Command struct {
	Name        string
	Description string
	Usage       string
	Examples    []string
	Run         func(cmd *Command, args []string) error
}

// NewFlagSet creates a flag set whose errors are returned, not fatal.
func (c *Command) NewFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(c.Name, flag.ContinueOnError)
	fs.Usage = func() { c.PrintUsage(fs.Output()) }
	return fs
}

// PrintUsage prints the command's usage and examples.
func (c *Command) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "%s\n\n", c.Description)
	fmt.Fprintf(w, "USAGE:\n    %s\n\n", c.Usage)
	if len(c.Examples) > 0 {
		fmt.Fprintln(w, "EXAMPLES:")
		for _, example := range c.Examples {
			fmt.Fprintf(w, "    %s\n", example)
		}
	}
}

// CommandRegistry dispatches os.Args to commands.
type CommandRegistry struct {
	commands map[string]*Command
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]*Command)}
}

func (r *CommandRegistry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
}

// Execute runs the command named by args[0].
func (r *CommandRegistry) Execute(args []string) error {
	if len(args) < 1 {
		r.PrintHelp(os.Stderr)
		return fmt.Errorf("no command specified")
	}

	switch args[0] {
	case "help", "-h", "--help":
		r.PrintHelp(os.Stdout)
		return nil
	}

	cmd, ok := r.commands[args[0]]
	if !ok {
		r.PrintHelp(os.Stderr)
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return cmd.Run(cmd, args[1:])
}

// PrintHelp lists the registered commands.
func (r *CommandRegistry) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "weam-admin - WEAM maintenance tool")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "    weam-admin <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "    %-14s %s\n", name, r.commands[name].Description)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'weam-admin <command> -h' for the flags of a command.")
}
