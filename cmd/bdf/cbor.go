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
	"github.com/bureau-foundation/bdf/lib/codec"
)

func cborCommand() *cli.Command {
	return &cli.Command{
		Name:    "cbor",
		Summary: "Convert between BDF and deterministic CBOR",
		Description: `Convert values between BDF and CBOR with Core Deterministic Encoding
(RFC 8949 §4.2).

BDF null, booleans, integers, floats, strings, raws, lists and
dictionaries map onto the matching CBOR major types. CBOR input must use
text map keys and no tags.`,
		Subcommands: []*cli.Command{
			cborToCommand(),
			cborFromCommand(),
		},
	}
}

func cborToCommand() *cli.Command {
	var options codecOptions

	return &cli.Command{
		Name:    "to",
		Summary: "Convert BDF to deterministic CBOR",
		Usage:   "bdf cbor to [flags] [file]",
		Flags:   func() *pflag.FlagSet { return options.flagSet("to") },
		Examples: []cli.Example{
			{
				Description: "Inspect a BDF body with CBOR tooling",
				Command:     "bdf cbor to body.bdf | cbor-diag",
			},
		},
		Run: func(args []string) error {
			session, err := options.open()
			if err != nil {
				return err
			}
			data, err := readSingleInput("cbor to", args, options.hexInput)
			if err != nil {
				return err
			}
			return bdfToCBOR(data, os.Stdout, session.reader, cli.IsTerminal(os.Stdout))
		},
	}
}

func cborFromCommand() *cli.Command {
	var options codecOptions

	return &cli.Command{
		Name:    "from",
		Summary: "Convert CBOR to canonical BDF",
		Usage:   "bdf cbor from [flags] [file]",
		Flags:   func() *pflag.FlagSet { return options.flagSet("from") },
		Examples: []cli.Example{
			{
				Description: "Convert a hex CBOR dump",
				Command:     "echo 'a1 61 6e 01' | bdf cbor from --hex | bdf diag",
			},
		},
		Run: func(args []string) error {
			session, err := options.open()
			if err != nil {
				return err
			}
			data, err := readSingleInput("cbor from", args, options.hexInput)
			if err != nil {
				return err
			}
			return cborToBDF(data, os.Stdout, session.reader, cli.IsTerminal(os.Stdout))
		},
	}
}

// bdfToCBOR decodes one BDF value from data and writes it to w as CBOR.
func bdfToCBOR(data []byte, w io.Writer, reader bdf.ReaderConfig, asHex bool) error {
	value, err := bdf.DecodeWith(data, reader)
	if err != nil {
		return fmt.Errorf("decode BDF: %w", err)
	}
	encoded, err := codec.ToCBOR(value)
	if err != nil {
		return fmt.Errorf("encode CBOR: %w", err)
	}
	return writeBinary(w, encoded, asHex)
}

// cborToBDF decodes one CBOR item from data and writes it to w as
// canonical BDF that decodes under reader's limits.
func cborToBDF(data []byte, w io.Writer, reader bdf.ReaderConfig, asHex bool) error {
	value, err := codec.FromCBOR(data)
	if err != nil {
		return fmt.Errorf("decode CBOR: %w", err)
	}
	encoded, err := bdf.Encode(value)
	if err != nil {
		return fmt.Errorf("encode BDF: %w", err)
	}
	if _, err := bdf.DecodeWith(encoded, reader); err != nil {
		return fmt.Errorf("converted value exceeds decoding limits: %w", err)
	}
	return writeBinary(w, encoded, asHex)
}
