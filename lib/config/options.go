// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/clock"
	"github.com/bureau-foundation/bdf/lib/store"
	"github.com/bureau-foundation/bdf/lib/validation"
)

// ReaderConfig returns the decoding limits of the codec section.
func (c *Config) ReaderConfig() bdf.ReaderConfig {
	return bdf.ReaderConfig{
		NestedLimit:   c.Codec.NestedLimit,
		MaxBufferSize: c.Codec.MaxBufferSize,
	}
}

// StoreOptions builds the store configuration. The event bus is left
// to the store.
func (c *Config) StoreOptions(logger *slog.Logger) (store.Config, error) {
	compression, err := store.ParseCompression(c.Store.Compression)
	if err != nil {
		return store.Config{}, fmt.Errorf("store.compression: %w", err)
	}
	return store.Config{
		Path:              c.Store.Path,
		PoolSize:          c.Store.PoolSize,
		Compression:       compression,
		CompressThreshold: c.Store.CompressThreshold,
		Logger:            logger,
	}, nil
}

// ValidationOptions builds the validation manager configuration for
// an opened store. A nil clk means the real clock.
func (c *Config) ValidationOptions(st *store.Store, clk clock.Clock, logger *slog.Logger) (validation.Config, error) {
	skew, err := c.MaxClockSkew()
	if err != nil {
		return validation.Config{}, err
	}
	return validation.Config{
		Store:        st,
		Clock:        clk,
		MaxClockSkew: skew,
		Workers:      c.Validation.Workers,
		Reader:       c.ReaderConfig(),
		Logger:       logger,
	}, nil
}
