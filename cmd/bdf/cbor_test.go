// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"testing"

	"github.com/bureau-foundation/bdf/lib/bdf"
)

func TestCBORConversion(t *testing.T) {
	original := mustEncode(t, map[string]any{"n": int64(1), "raw": []byte{1, 2}})

	var cbor bytes.Buffer
	if err := bdfToCBOR(original, &cbor, bdf.ReaderConfig{}, false); err != nil {
		t.Fatalf("bdfToCBOR: %v", err)
	}
	// {"n": 1, "raw": h'0102'} with sorted keys.
	want := []byte{0xa2, 0x61, 'n', 0x01, 0x63, 'r', 'a', 'w', 0x42, 0x01, 0x02}
	if !bytes.Equal(cbor.Bytes(), want) {
		t.Errorf("bdfToCBOR = %x, want %x", cbor.Bytes(), want)
	}

	var back bytes.Buffer
	if err := cborToBDF(cbor.Bytes(), &back, bdf.ReaderConfig{}, false); err != nil {
		t.Fatalf("cborToBDF: %v", err)
	}
	if !bytes.Equal(back.Bytes(), original) {
		t.Errorf("cborToBDF = %x, want %x", back.Bytes(), original)
	}
}

func TestCBORToBDFErrors(t *testing.T) {
	tests := map[string][]byte{
		"integer key": {0xa1, 0x01, 0x01},
		"truncated":   {0x82, 0x01},
		"too deep":    {0x81, 0x81, 0x81, 0x01},
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			var output bytes.Buffer
			if err := cborToBDF(input, &output, bdf.ReaderConfig{NestedLimit: 2}, false); err == nil {
				t.Errorf("cborToBDF(%x) succeeded with %x", input, output.Bytes())
			}
		})
	}
}
