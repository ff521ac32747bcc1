// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads, saves and validates the ledger configuration.
//
// The on-disk format is one "key = value" pair per line. Blank lines and
// lines starting with '#' are ignored, as are unknown keys. Environment
// variables with the COOP_ prefix override file values (see ApplyEnv).
package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Cancel policies.
const (
	CancelOpen       = "open"
	CancelExpiryOnly = "expiry-only"
)

// Dust policies.
const (
	DustLast   = "last"
	DustRetain = "retain"
)

// DefaultPayoutBatchSize is the number of investors paid per payout call
// when the caller passes no limit.
const DefaultPayoutBatchSize = 50

// Config holds the ledger settings.
type Config struct {
	DataDir              string `env:"COOP_DATA_DIR"`
	Network              string `env:"COOP_NETWORK"`
	LogLevel             string `env:"COOP_LOG_LEVEL"`
	LogFile              string `env:"COOP_LOG_FILE"`
	PayoutBatchSize      int    `env:"COOP_PAYOUT_BATCH_SIZE"`
	CancelPolicy         string `env:"COOP_CANCEL_POLICY"`
	DustPolicy           string `env:"COOP_DUST_POLICY"`
	RecipientBoundsCheck bool   `env:"COOP_RECIPIENT_BOUNDS_CHECK"`
}

// DefaultDataDir returns ~/.coop, or .coop when the home directory
// cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".coop"
	}
	return filepath.Join(home, ".coop")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		DataDir:         DefaultDataDir(),
		Network:         "mainnet",
		LogLevel:        "info",
		PayoutBatchSize: DefaultPayoutBatchSize,
		CancelPolicy:    CancelOpen,
		DustPolicy:      DustLast,
	}
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(filepath.Clean(dataDir), "config")
}

// LoadConfig reads the file at path on top of DefaultConfig.
// A missing file yields ErrConfigNotFound.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		if err := cfg.set(key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d: %w", ErrInvalidConfigLine, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return cfg, fmt.Errorf("config: scan %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path with mode 0600, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Coop Ledger Configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "network = %s\n", cfg.Network)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)
	b.WriteString("\n# Ledger\n")
	fmt.Fprintf(&b, "payoutbatchsize = %d\n", cfg.PayoutBatchSize)
	fmt.Fprintf(&b, "cancelpolicy = %s\n", cfg.CancelPolicy)
	fmt.Fprintf(&b, "dustpolicy = %s\n", cfg.DustPolicy)
	fmt.Fprintf(&b, "recipientboundscheck = %t\n", cfg.RecipientBoundsCheck)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields of cfg from COOP_* environment variables.
// Variables that are unset leave the field untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// parseKeyValue splits "key = value" on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "datadir":
		c.DataDir = value
	case "network":
		c.Network = value
	case "loglevel":
		c.LogLevel = value
	case "logfile":
		c.LogFile = value
	case "payoutbatchsize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("payoutbatchsize: %w", err)
		}
		c.PayoutBatchSize = n
	case "cancelpolicy":
		c.CancelPolicy = value
	case "dustpolicy":
		c.DustPolicy = value
	case "recipientboundscheck":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("recipientboundscheck: %w", err)
		}
		c.RecipientBoundsCheck = v
	}
	return nil
}
