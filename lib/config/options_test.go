// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/bdf/lib/store"
	"github.com/bureau-foundation/bdf/lib/validation"
)

func TestReaderConfig(t *testing.T) {
	cfg := Default()
	cfg.Codec.NestedLimit = 9
	cfg.Codec.MaxBufferSize = 1024

	reader := cfg.ReaderConfig()
	if reader.NestedLimit != 9 || reader.MaxBufferSize != 1024 {
		t.Errorf("ReaderConfig = %+v, want limits 9 and 1024", reader)
	}
	if reader.Canonical {
		t.Error("ReaderConfig is canonical-only, want lenient")
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := Default()
	cfg.Store.Compression = "zstd"
	cfg.Store.CompressThreshold = 64

	options, err := cfg.StoreOptions(nil)
	if err != nil {
		t.Fatalf("StoreOptions: %v", err)
	}
	if options.Compression != store.CompressionZstd {
		t.Errorf("Compression = %s, want zstd", options.Compression)
	}
	if options.Path != cfg.Store.Path || options.PoolSize != cfg.Store.PoolSize || options.CompressThreshold != 64 {
		t.Errorf("StoreOptions = %+v, does not match %+v", options, cfg.Store)
	}

	cfg.Store.Compression = "brotli"
	if _, err := cfg.StoreOptions(nil); err == nil {
		t.Error("StoreOptions accepted an unknown compression")
	}
}

func TestValidationOptions(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "data", "messages.db")
	cfg.Store.Compression = "lz4"
	cfg.Validation.MaxClockSkew = "90m"
	cfg.Validation.Workers = 2
	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}

	storeOptions, err := cfg.StoreOptions(nil)
	if err != nil {
		t.Fatalf("StoreOptions: %v", err)
	}
	st, err := store.Open(storeOptions)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	options, err := cfg.ValidationOptions(st, nil, nil)
	if err != nil {
		t.Fatalf("ValidationOptions: %v", err)
	}
	if options.Store != st || options.MaxClockSkew != 90*time.Minute || options.Workers != 2 {
		t.Errorf("ValidationOptions = %+v", options)
	}
	if options.Reader != cfg.ReaderConfig() {
		t.Errorf("Reader = %+v, want %+v", options.Reader, cfg.ReaderConfig())
	}
	if _, err := validation.NewManager(options); err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg.Validation.MaxClockSkew = "soon"
	if _, err := cfg.ValidationOptions(st, nil, nil); err == nil {
		t.Error("ValidationOptions accepted an unparseable skew")
	}
}
