// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bdf/cmd/bdf/cli"
	"github.com/bureau-foundation/bdf/lib/bdf"
)

func diagCommand() *cli.Command {
	var options codecOptions

	return &cli.Command{
		Name:    "diag",
		Summary: "Show the diagnostic notation of a BDF value",
		Description: `Read one BDF value and print it in diagnostic notation.

Unlike JSON output, diagnostic notation keeps every BDF type visible:

  [1, 2.0, "text", h'0a0b', null]     int, float, string, raw, null
  {"key": true}                       dictionary`,
		Usage: "bdf diag [flags] [file]",
		Flags: func() *pflag.FlagSet { return options.flagSet("diag") },
		Examples: []cli.Example{
			{
				Description: "Inspect what encode produced",
				Command:     "echo '{\"n\": 1.5}' | bdf encode | bdf diag",
			},
		},
		Run: func(args []string) error {
			session, err := options.open()
			if err != nil {
				return err
			}
			data, err := readSingleInput("diag", args, options.hexInput)
			if err != nil {
				return err
			}
			return diagBDF(data, os.Stdout, session.reader)
		},
	}
}

// diagBDF decodes data and writes its diagnostic notation to w.
func diagBDF(data []byte, w io.Writer, reader bdf.ReaderConfig) error {
	value, err := bdf.DecodeWith(data, reader)
	if err != nil {
		return fmt.Errorf("decode BDF: %w", err)
	}
	_, err = fmt.Fprintln(w, value.String())
	return err
}
