// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"
)

// readInput resolves input data from either a file (the last element
// of args, if it names a regular file on disk) or stdin.
//
// When hexMode is true, whitespace is stripped and the hex is decoded
// to binary.
//
// Returns the input bytes and the args with any consumed file path
// removed.
func readInput(args []string, stdin io.Reader, hexMode bool) ([]byte, []string, error) {
	var data []byte
	remainingArgs := args

	if length := len(args); length > 0 {
		candidate := args[length-1]
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			data, err = os.ReadFile(candidate)
			if err != nil {
				return nil, nil, fmt.Errorf("read %s: %w", candidate, err)
			}
			remainingArgs = args[:length-1]
		}
	}

	if data == nil {
		var err error
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("read stdin: %w", err)
		}
	}

	if hexMode {
		decoded, err := decodeHexInput(data)
		if err != nil {
			return nil, nil, err
		}
		data = decoded
	}

	if len(data) == 0 {
		return nil, nil, errors.New("empty input")
	}
	return data, remainingArgs, nil
}

// readSingleInput is readInput for commands that take nothing but an
// optional file path.
func readSingleInput(command string, args []string, hexMode bool) ([]byte, error) {
	data, remainingArgs, err := readInput(args, os.Stdin, hexMode)
	if err != nil {
		return nil, err
	}
	if len(remainingArgs) > 0 {
		return nil, fmt.Errorf("%s takes no positional arguments besides an optional file path, got %q", command, remainingArgs[0])
	}
	return data, nil
}

// decodeHexInput strips whitespace from hex-encoded input and decodes
// it. Whitespace between hex digit pairs is allowed.
func decodeHexInput(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)

	if len(cleaned) == 0 {
		return nil, errors.New("empty input after stripping whitespace from hex")
	}

	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	count, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded[:count], nil
}

// writeBinary writes data to w, as a line of hex when asHex is set.
func writeBinary(w io.Writer, data []byte, asHex bool) error {
	if asHex {
		_, err := fmt.Fprintln(w, hex.EncodeToString(data))
		return err
	}
	_, err := w.Write(data)
	return err
}
