package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Solana:  *DefaultSolanaConfig(),
		Engine:  *DefaultEngineConfig(),
		Db:      *DefaultDbConfig(),
		Metrics: *DefaultMetricsConfig(),
	}
}

func TestConfig_DefaultsAreValid(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing endpoint", func(c *Config) { c.Solana.Endpoint = "" }},
		{"missing ws endpoint", func(c *Config) { c.Solana.WSEndpoint = "" }},
		{"bad program id", func(c *Config) { c.Solana.ProgramID = "not-base58!" }},
		{"bad commitment", func(c *Config) { c.Solana.Commitment = "eventual" }},
		{"zero round ttl", func(c *Config) { c.Engine.RoundCacheTTL = 0 }},
		{"negative ending threshold", func(c *Config) { c.Engine.EndingThreshold = -time.Second }},
		{"missing db address", func(c *Config) { c.Db.Address = "" }},
		{"bad metrics port", func(c *Config) { c.Metrics.Port = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNew_LoadsFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := []byte(`
solana:
  endpoint: https://rpc.example.com
  ws-endpoint: wss://rpc.example.com
engine:
  round-cache-ttl: 3s
db:
  address: mongodb://db.example.com:27017
  db-name: keysgame
metrics:
  host: 127.0.0.1
  port: 9200
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := New(path)
	require.NoError(t, err)

	assert.Equal(t, "https://rpc.example.com", cfg.Solana.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Engine.RoundCacheTTL)
	// unset keys keep their defaults
	assert.Equal(t, DefaultEngineConfig().ScanCacheTTL, cfg.Engine.ScanCacheTTL)
	assert.Equal(t, "keysgame", cfg.Db.DbName)
	assert.Equal(t, 9200, cfg.Metrics.Port)
}
