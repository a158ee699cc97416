// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadInputFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.bdf")
	if err := os.WriteFile(path, []byte{0x21, 0x01}, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, remaining, err := readInput([]string{"extra", path}, strings.NewReader("unused"), false)
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	if !bytes.Equal(data, []byte{0x21, 0x01}) {
		t.Errorf("data = %x, want file contents", data)
	}
	if len(remaining) != 1 || remaining[0] != "extra" {
		t.Errorf("remaining = %v, want [extra]", remaining)
	}
}

func TestReadInputFromStdin(t *testing.T) {
	data, remaining, err := readInput([]string{"not-a-file"}, strings.NewReader("21 01\n"), true)
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	if !bytes.Equal(data, []byte{0x21, 0x01}) {
		t.Errorf("data = %x, want 2101", data)
	}
	if len(remaining) != 1 {
		t.Errorf("remaining = %v, want the unconsumed argument", remaining)
	}
}

func TestReadInputErrors(t *testing.T) {
	if _, _, err := readInput(nil, strings.NewReader(""), false); err == nil {
		t.Error("empty stdin accepted")
	}
	if _, _, err := readInput(nil, strings.NewReader(" \n"), true); err == nil {
		t.Error("whitespace-only hex accepted")
	}
	if _, _, err := readInput(nil, strings.NewReader("2g"), true); err == nil {
		t.Error("invalid hex accepted")
	}
}
