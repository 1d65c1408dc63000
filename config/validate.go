package config

import (
	"fmt"
	"net"
)

// ValidateConfig checks that all configuration values are within
// acceptable ranges and returns the first error encountered, or nil
// if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.Network != "mainnet" && cfg.Network != "testnet" && cfg.Network != "regtest" {
		return ErrInvalidNetwork
	}

	if _, _, err := net.SplitHostPort(cfg.DNSUpstream); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDNSUpstream, err)
	}

	return nil
}
