// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestCompressBodyRoundTrip(t *testing.T) {
	body := bytes.Repeat([]byte("transport properties "), 64)
	for _, algorithm := range []Compression{CompressionLZ4, CompressionZstd} {
		stored, used, err := compressBody(body, algorithm)
		if err != nil {
			t.Fatalf("%s: compressBody: %v", algorithm, err)
		}
		if used != algorithm || len(stored) >= len(body) {
			t.Fatalf("%s: used %s, %d bytes; want compressed output", algorithm, used, len(stored))
		}
		restored, err := decompressBody(stored, used, len(body))
		if err != nil {
			t.Fatalf("%s: decompressBody: %v", algorithm, err)
		}
		if !bytes.Equal(restored, body) {
			t.Errorf("%s: round trip mismatch", algorithm)
		}
	}
}

func TestIncompressibleBodyStoredRaw(t *testing.T) {
	body := make([]byte, 2048)
	if _, err := rand.Read(body); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	for _, algorithm := range []Compression{CompressionLZ4, CompressionZstd} {
		stored, used, err := compressBody(body, algorithm)
		if err != nil {
			t.Fatalf("%s: compressBody: %v", algorithm, err)
		}
		if used != CompressionNone || !bytes.Equal(stored, body) {
			t.Errorf("%s: random body stored as %s", algorithm, used)
		}
	}
}

func TestParseCompression(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		parsed, err := ParseCompression(name)
		if err != nil || parsed.String() != name {
			t.Errorf("ParseCompression(%q) = %s, %v", name, parsed, err)
		}
	}
	if _, err := ParseCompression("brotli"); err == nil {
		t.Error("ParseCompression accepted an unknown name")
	}
}
