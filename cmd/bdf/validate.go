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

func validateCommand() *cli.Command {
	var options codecOptions

	return &cli.Command{
		Name:    "validate",
		Summary: "Check whether input is canonical BDF",
		Description: `Read one BDF value and verify it is the canonical encoding: minimal
integer widths, minimal length fields and dictionary keys in ascending
byte order. Prints "valid" and exits 0 if so.

Input that decodes but is not canonical prints the reason and the first
byte at which it differs from the canonical encoding, then exits 1.
Input that does not decode at all is an error.`,
		Usage: "bdf validate [flags] [file]",
		Flags: func() *pflag.FlagSet { return options.flagSet("validate") },
		Examples: []cli.Example{
			{
				Description: "Validate a stored message body",
				Command:     "bdf validate body.bdf",
			},
			{
				Description: "A 16-bit encoding of 1 is not canonical",
				Command:     "echo '22 0001' | bdf validate --hex",
			},
		},
		Run: func(args []string) error {
			session, err := options.open()
			if err != nil {
				return err
			}
			data, err := readSingleInput("validate", args, options.hexInput)
			if err != nil {
				return err
			}
			return validateBDF(data, os.Stdout, session.reader)
		},
	}
}

// validateBDF reports on w whether data is canonical. Non-canonical
// input returns an ExitError with code 1.
func validateBDF(data []byte, w io.Writer, reader bdf.ReaderConfig) error {
	reader.Canonical = false
	value, err := bdf.DecodeWith(data, reader)
	if err != nil {
		return fmt.Errorf("decode BDF: %w", err)
	}

	canonicalErr := bdf.CheckCanonical(data, reader)
	if canonicalErr == nil {
		fmt.Fprintln(w, "valid")
		return nil
	}

	canonical, err := bdf.Encode(value)
	if err != nil {
		return fmt.Errorf("re-encode BDF: %w", err)
	}
	fmt.Fprintf(w, "not canonical: %v\n", canonicalErr)
	fmt.Fprintln(w, describeMismatch(data, canonical))
	return &cli.ExitError{Code: 1}
}

func describeMismatch(original, canonical []byte) string {
	offset := 0
	for offset < min(len(original), len(canonical)) && original[offset] == canonical[offset] {
		offset++
	}
	return fmt.Sprintf("first difference at byte %d (input %d bytes, canonical %d bytes)",
		offset, len(original), len(canonical))
}
