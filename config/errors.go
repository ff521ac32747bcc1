// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"testnet\", or \"regtest\")")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidBatchSize indicates a non-positive payout batch size.
	ErrInvalidBatchSize = errors.New("config: payout batch size must be positive")

	// ErrInvalidCancelPolicy indicates the cancel policy is not recognized.
	ErrInvalidCancelPolicy = errors.New("config: invalid cancel policy (must be \"open\" or \"expiry-only\")")

	// ErrInvalidDustPolicy indicates the dust policy is not recognized.
	ErrInvalidDustPolicy = errors.New("config: invalid dust policy (must be \"last\" or \"retain\")")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
