// Package config holds library configuration for the ticker protocol:
// where the ledger database lives, which network name records are
// stamped for, and which resolver verifies ticker domains.
package config

import (
	"os"
	"path/filepath"
)

// Config holds the runtime configuration.
type Config struct {
	// DataDir is the directory holding the ledger database.
	DataDir string

	// Network names the deployment network: "mainnet", "testnet", or
	// "regtest".
	Network string

	// DNSUpstream is the recursive resolver (host:port) used for
	// authenticated ticker-domain verification.
	DNSUpstream string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DataDir:     defaultDataDir(),
		Network:     "mainnet",
		DNSUpstream: "8.8.8.8:53",
	}
}

// LoadFromEnv layers environment variables over a base configuration:
// TICKER_DATA_DIR, TICKER_NETWORK, and TICKER_DNS_UPSTREAM each
// override the corresponding field when set and non-empty.
func LoadFromEnv(base Config) Config {
	if v := os.Getenv("TICKER_DATA_DIR"); v != "" {
		base.DataDir = v
	}
	if v := os.Getenv("TICKER_NETWORK"); v != "" {
		base.Network = v
	}
	if v := os.Getenv("TICKER_DNS_UPSTREAM"); v != "" {
		base.DNSUpstream = v
	}
	return base
}

// LedgerPath returns the path of the ledger database file under the
// configured data directory.
func (c Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ticker"
	}
	return filepath.Join(home, ".ticker")
}
