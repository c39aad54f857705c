package config

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
)

const (
	defaultRPCTimeout      = 30 * time.Second
	defaultMaxRetryTimes   = 5
	defaultRetryInterval   = 500 * time.Millisecond
	defaultScanRatePerSec  = 2
	defaultCommitmentLevel = "confirmed"
)

// SolanaConfig defines the connection to the ledger RPC node.
type SolanaConfig struct {
	// Endpoint is the HTTP JSON-RPC URL of the node.
	Endpoint string `mapstructure:"endpoint"`
	// WSEndpoint is the websocket URL used for live log subscriptions.
	WSEndpoint string `mapstructure:"ws-endpoint"`
	// ProgramID overrides the default deployed program address.
	ProgramID      string        `mapstructure:"program-id"`
	Commitment     string        `mapstructure:"commitment"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetryTimes  uint          `mapstructure:"max-retry-times"`
	RetryInterval  time.Duration `mapstructure:"retry-interval"`
	ScanRatePerSec int           `mapstructure:"scan-rate-per-sec"`
}

func DefaultSolanaConfig() *SolanaConfig {
	return &SolanaConfig{
		Endpoint:       "http://127.0.0.1:8899",
		WSEndpoint:     "ws://127.0.0.1:8900",
		Commitment:     defaultCommitmentLevel,
		Timeout:        defaultRPCTimeout,
		MaxRetryTimes:  defaultMaxRetryTimes,
		RetryInterval:  defaultRetryInterval,
		ScanRatePerSec: defaultScanRatePerSec,
	}
}

func (cfg *SolanaConfig) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("RPC endpoint is required")
	}
	if cfg.WSEndpoint == "" {
		return fmt.Errorf("websocket endpoint is required")
	}
	if cfg.ProgramID != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.ProgramID); err != nil {
			return fmt.Errorf("invalid program id: %w", err)
		}
	}
	switch cfg.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("invalid commitment level %q", cfg.Commitment)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout should be positive")
	}
	if cfg.MaxRetryTimes == 0 {
		return fmt.Errorf("max retry times should be positive")
	}
	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("retry interval should be positive")
	}
	if cfg.ScanRatePerSec <= 0 {
		return fmt.Errorf("scan rate should be positive")
	}
	return nil
}
