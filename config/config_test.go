package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, "8.8.8.8:53", cfg.DNSUpstream)
	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TICKER_DATA_DIR", "/var/lib/ticker")
	t.Setenv("TICKER_NETWORK", "regtest")
	t.Setenv("TICKER_DNS_UPSTREAM", "1.1.1.1:53")

	cfg := LoadFromEnv(DefaultConfig())
	assert.Equal(t, "/var/lib/ticker", cfg.DataDir)
	assert.Equal(t, "regtest", cfg.Network)
	assert.Equal(t, "1.1.1.1:53", cfg.DNSUpstream)
}

func TestLoadFromEnv_EmptyVarsIgnored(t *testing.T) {
	t.Setenv("TICKER_DATA_DIR", "")
	t.Setenv("TICKER_NETWORK", "")

	base := DefaultConfig()
	cfg := LoadFromEnv(base)
	assert.Equal(t, base.DataDir, cfg.DataDir)
	assert.Equal(t, base.Network, cfg.Network)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		want error
	}{
		{"valid", func(c *Config) {}, nil},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, ErrEmptyDataDir},
		{"bad network", func(c *Config) { c.Network = "devnet" }, ErrInvalidNetwork},
		{"bad upstream", func(c *Config) { c.DNSUpstream = "8.8.8.8" }, ErrInvalidDNSUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			err := ValidateConfig(cfg)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestLedgerPath(t *testing.T) {
	cfg := Config{DataDir: "/tmp/ticker"}
	assert.Equal(t, filepath.Join("/tmp/ticker", "ledger.db"), cfg.LedgerPath())
}
