// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for BDF tools.
//
// Configuration is loaded from a single file named by either the
// BDF_CONFIG environment variable (via [Load]) or a --config flag (via
// [LoadFile]). Values missing from the file keep their [Default].
//
// ${HOME}, ${BDF_ROOT} and ${VAR:-default} patterns are expanded in
// path fields after loading. No other environment variables override
// config values.
//
// Key exports:
//
//   - [Config] -- master struct with Codec, Validation, Store, Log
//   - [Default] -- returns a Config with the documented defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other packages of this module.
package config
