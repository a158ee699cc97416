// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bdf/cmd/bdf/cli"
	"github.com/bureau-foundation/bdf/lib/bdf"
	"github.com/bureau-foundation/bdf/lib/config"
)

// codecOptions are the flags shared by every subcommand.
type codecOptions struct {
	configPath  string
	hexInput    bool
	nestedLimit int
	maxBuffer   int
}

// flagSet returns a fresh flag set named name with the shared flags
// bound to o.
func (o *codecOptions) flagSet(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(&o.configPath, "config", "", "configuration file (default $BDF_CONFIG, else built-in defaults)")
	flagSet.BoolVarP(&o.hexInput, "hex", "x", false, "treat input as hex; whitespace is ignored")
	flagSet.IntVar(&o.nestedLimit, "nested-limit", 0, "deepest container nesting accepted (overrides codec.nested_limit)")
	flagSet.IntVar(&o.maxBuffer, "max-buffer", 0, "bytes one value may materialize (overrides codec.max_buffer_size)")
	return flagSet
}

// session is what a subcommand needs once its flags are parsed.
type session struct {
	reader bdf.ReaderConfig
	logger *slog.Logger
}

// open loads the configuration, applies flag overrides and validates
// the result.
func (o *codecOptions) open() (*session, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	if o.nestedLimit != 0 {
		cfg.Codec.NestedLimit = o.nestedLimit
	}
	if o.maxBuffer != 0 {
		cfg.Codec.MaxBufferSize = o.maxBuffer
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.LogLevel()
	return &session{
		reader: cfg.ReaderConfig(),
		logger: cli.NewCommandLogger(level),
	}, nil
}

func (o *codecOptions) load() (*config.Config, error) {
	switch {
	case o.configPath != "":
		return config.LoadFile(o.configPath)
	case os.Getenv("BDF_CONFIG") != "":
		return config.Load()
	default:
		return config.Default(), nil
	}
}
