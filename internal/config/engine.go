package config

import (
	"errors"
	"time"
)

const (
	defaultRoundTTL        = 10 * time.Second
	defaultScanTTL         = 15 * time.Second
	defaultEndingThreshold = 5 * time.Minute
	defaultBackfillLimit   = 1000
)

// EngineConfig tunes the reconciliation engine: cache lifetimes, the phase
// classifier and the event backfill window.
type EngineConfig struct {
	// RoundCacheTTL bounds how stale a served round snapshot may be before
	// a refetch is attempted.
	RoundCacheTTL time.Duration `mapstructure:"round-cache-ttl"`
	// ScanCacheTTL bounds the participant bulk scan, which is much heavier
	// than a single account read.
	ScanCacheTTL time.Duration `mapstructure:"scan-cache-ttl"`
	// EndingThreshold is how close to timer expiry a round is reported as
	// ending rather than active.
	EndingThreshold time.Duration `mapstructure:"ending-threshold"`
	// BackfillLimit caps how many historical signatures one backfill pass
	// walks.
	BackfillLimit int `mapstructure:"backfill-limit"`
}

func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		RoundCacheTTL:   defaultRoundTTL,
		ScanCacheTTL:    defaultScanTTL,
		EndingThreshold: defaultEndingThreshold,
		BackfillLimit:   defaultBackfillLimit,
	}
}

func (cfg *EngineConfig) Validate() error {
	if cfg.RoundCacheTTL <= 0 {
		return errors.New("round-cache-ttl must be positive")
	}
	if cfg.ScanCacheTTL <= 0 {
		return errors.New("scan-cache-ttl must be positive")
	}
	if cfg.EndingThreshold <= 0 {
		return errors.New("ending-threshold must be positive")
	}
	if cfg.BackfillLimit <= 0 {
		return errors.New("backfill-limit must be positive")
	}
	return nil
}
