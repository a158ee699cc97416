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

func encodeCommand() *cli.Command {
	var options codecOptions

	return &cli.Command{
		Name:    "encode",
		Summary: "Convert JSON to canonical BDF",
		Description: `Read one JSON document and write its canonical BDF encoding.

Comments and trailing commas are accepted. Integers that fit in 64 bits
become BDF integers; every other number becomes a float. The objects
{"$raw": "<hex>"} and {"$float": "<literal>"} produce raw values and
floats, matching "bdf decode" output.

The encoded value must decode under the configured nesting and buffer
limits, so anything encode writes can be read back by every reader with
the same limits. When stdout is a terminal the output is written as
hex.`,
		Usage: "bdf encode [flags] [file]",
		Flags: func() *pflag.FlagSet { return options.flagSet("encode") },
		Examples: []cli.Example{
			{
				Description: "Encode a transport properties update body",
				Command:     "echo '[\"tcp\", 3, {\"port\": \"4000\"}]' | bdf encode > body.bdf",
			},
		},
		Run: func(args []string) error {
			session, err := options.open()
			if err != nil {
				return err
			}
			data, err := readSingleInput("encode", args, options.hexInput)
			if err != nil {
				return err
			}
			return encodeBDF(data, os.Stdout, session.reader, cli.IsTerminal(os.Stdout), session.logger)
		},
	}
}

// encodeBDF parses JSON from data and writes the canonical BDF
// encoding to w.
func encodeBDF(data []byte, w io.Writer, reader bdf.ReaderConfig, asHex bool, logger *slog.Logger) error {
	value, err := parseJSON(data)
	if err != nil {
		return err
	}
	encoded, err := bdf.Encode(value)
	if err != nil {
		return fmt.Errorf("encode BDF: %w", err)
	}
	if _, err := bdf.DecodeWith(encoded, reader); err != nil {
		return fmt.Errorf("encoded value exceeds decoding limits: %w", err)
	}
	logger.Debug("encoded value", "kind", value.Kind(), "bytes", len(encoded))
	return writeBinary(w, encoded, asHex)
}
