// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bdf/cmd/bdf/cli"
	"github.com/bureau-foundation/bdf/lib/bdf"
)

func decodeCommand() *cli.Command {
	var (
		options codecOptions
		compact bool
	)

	return &cli.Command{
		Name:    "decode",
		Summary: "Convert BDF to JSON",
		Description: `Read one BDF value and write the equivalent JSON to stdout.

Raw values appear as {"$raw": "<hex>"}. Floats always carry a fraction
or exponent so "bdf encode" turns them back into floats; NaN and
infinities appear as {"$float": "NaN"}. Dictionary keys are written in
byte order, which is the order BDF stores them in.

Use "bdf diag" for a notation that shows BDF types directly.`,
		Usage: "bdf decode [flags] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := options.flagSet("decode")
			flagSet.BoolVarP(&compact, "compact", "c", false, "compact output (no indentation)")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Decode a message body",
				Command:     "bdf decode body.bdf",
			},
			{
				Description: "Decode a hex dump",
				Command:     "echo '60 21 01 41 02 68 69 80' | bdf decode --hex",
			},
		},
		Run: func(args []string) error {
			session, err := options.open()
			if err != nil {
				return err
			}
			data, err := readSingleInput("decode", args, options.hexInput)
			if err != nil {
				return err
			}
			return decodeBDF(data, os.Stdout, session.reader, compact, session.logger)
		},
	}
}

// decodeBDF decodes data and writes it to w as JSON.
func decodeBDF(data []byte, w io.Writer, reader bdf.ReaderConfig, compact bool, logger *slog.Logger) error {
	value, err := bdf.DecodeWith(data, reader)
	if err != nil {
		return fmt.Errorf("decode BDF: %w", err)
	}
	logger.Debug("decoded value", "bytes", len(data), "kind", value.Kind())
	return writeJSON(w, toJSON(value), compact)
}
