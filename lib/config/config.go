// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration.
type Config struct {
	// Root is the base directory for BDF data.
	Root string `yaml:"root"`

	// Codec configures document decoding limits.
	Codec CodecConfig `yaml:"codec"`

	// Validation configures the incoming message pipeline.
	Validation ValidationConfig `yaml:"validation"`

	// Store configures the message database.
	Store StoreConfig `yaml:"store"`

	// Log configures diagnostic output.
	Log LogConfig `yaml:"log"`
}

// CodecConfig configures document decoding limits.
type CodecConfig struct {
	// NestedLimit is the deepest container nesting accepted.
	// Default: 5
	NestedLimit int `yaml:"nested_limit"`

	// MaxBufferSize bounds the bytes one top-level value may
	// materialize.
	// Default: 65536
	MaxBufferSize int `yaml:"max_buffer_size"`
}

// ValidationConfig configures the incoming message pipeline.
type ValidationConfig struct {
	// MaxClockSkew is how far in the future a message timestamp may be.
	// Default: 24h
	MaxClockSkew string `yaml:"max_clock_skew"`

	// Workers bounds concurrent validator calls.
	// Default: 4
	Workers int `yaml:"workers"`
}

// StoreConfig configures the message database.
type StoreConfig struct {
	// Path is the SQLite database file.
	// Default: ${BDF_ROOT}/messages.db
	Path string `yaml:"path"`

	// PoolSize is the number of connections.
	// Default: 4
	PoolSize int `yaml:"pool_size"`

	// Compression is the body compression algorithm.
	// Values: "none", "lz4", "zstd"
	// Default: none
	Compression string `yaml:"compression"`

	// CompressThreshold is the smallest body that is compressed.
	// Default: 1024
	CompressThreshold int `yaml:"compress_threshold"`
}

// LogConfig configures diagnostic output.
type LogConfig struct {
	// Level is the minimum level written.
	// Values: "debug", "info", "warn", "error"
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Root: filepath.Join(homeDir, ".local", "share", "bdf"),
		Codec: CodecConfig{
			NestedLimit:   5,
			MaxBufferSize: 65536,
		},
		Validation: ValidationConfig{
			MaxClockSkew: "24h",
			Workers:      4,
		},
		Store: StoreConfig{
			Path:              "${BDF_ROOT}/messages.db",
			PoolSize:          4,
			Compression:       "none",
			CompressThreshold: 1024,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by BDF_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv("BDF_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("BDF_CONFIG environment variable not set; " +
			"set it to the path of your bdf.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, over the
// defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"BDF_ROOT": c.Root,
		"HOME":     os.Getenv("HOME"),
	}
	c.Root = expandVars(c.Root, vars)
	vars["BDF_ROOT"] = c.Root // Update for dependent paths.
	c.Store.Path = expandVars(c.Store.Path, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Codec.NestedLimit < 1 {
		errs = append(errs, fmt.Errorf("codec.nested_limit must be at least 1, got %d", c.Codec.NestedLimit))
	}
	if c.Codec.MaxBufferSize < 1 {
		errs = append(errs, fmt.Errorf("codec.max_buffer_size must be positive, got %d", c.Codec.MaxBufferSize))
	}

	if _, err := c.MaxClockSkew(); err != nil {
		errs = append(errs, err)
	}
	if c.Validation.Workers < 1 {
		errs = append(errs, fmt.Errorf("validation.workers must be at least 1, got %d", c.Validation.Workers))
	}

	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if c.Store.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("store.pool_size must be at least 1, got %d", c.Store.PoolSize))
	}
	compressionValues := []string{"none", "lz4", "zstd"}
	if !slices.Contains(compressionValues, c.Store.Compression) {
		errs = append(errs, fmt.Errorf("store.compression must be one of: %v", compressionValues))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// MaxClockSkew parses validation.max_clock_skew.
func (c *Config) MaxClockSkew() (time.Duration, error) {
	skew, err := time.ParseDuration(c.Validation.MaxClockSkew)
	if err != nil {
		return 0, fmt.Errorf("validation.max_clock_skew: %w", err)
	}
	if skew <= 0 {
		return 0, fmt.Errorf("validation.max_clock_skew must be positive, got %s", skew)
	}
	return skew, nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level must be one of: [debug info warn error]")
	}
	return level, nil
}

// EnsurePaths creates the directory holding the store database.
func (c *Config) EnsurePaths() error {
	dir := filepath.Dir(c.Store.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
