// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bdf/cmd/bdf/cli"
	"github.com/bureau-foundation/bdf/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		// Commands that print their own output (like validate) return
		// an ExitError with the desired exit code.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return rootCommand().Execute(args)
}

func rootCommand() *cli.Command {
	var showVersion bool

	root := &cli.Command{
		Name:    "bdf",
		Summary: "Inspect, produce and check BDF documents",
		Description: `Tools for working with BDF, the canonical binary data format used for
message bodies and metadata.`,
		Subcommands: []*cli.Command{
			decodeCommand(),
			encodeCommand(),
			diagCommand(),
			validateCommand(),
			cborCommand(),
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("bdf", pflag.ContinueOnError)
			flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Decode a BDF file to JSON",
				Command:     "bdf decode body.bdf",
			},
			{
				Description: "Round-trip: encode then decode",
				Command:     "echo '[1, \"two\", {\"$raw\": \"0a0b\"}]' | bdf encode | bdf decode",
			},
		},
	}
	root.Run = func(args []string) error {
		if showVersion {
			fmt.Println(version.Full())
			return nil
		}
		root.PrintHelp(os.Stderr)
		if len(args) > 0 {
			return fmt.Errorf("unexpected argument %q", args[0])
		}
		return fmt.Errorf("subcommand required")
	}
	return root
}
