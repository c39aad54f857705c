package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Solana  SolanaConfig  `mapstructure:"solana"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Db      DbConfig      `mapstructure:"db"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Solana.Validate(); err != nil {
		return fmt.Errorf("invalid solana config: %w", err)
	}
	if err := cfg.Engine.Validate(); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	if err := cfg.Db.Validate(); err != nil {
		return fmt.Errorf("invalid db config: %w", err)
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}
	return nil
}

// New loads the config file at cfgPath, layering environment variables on
// top (FOMOLT3D_SOLANA_ENDPOINT overrides solana.endpoint, and so on).
func New(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)
	viper.SetEnvPrefix("fomolt3d")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{
		Solana:  *DefaultSolanaConfig(),
		Engine:  *DefaultEngineConfig(),
		Db:      *DefaultDbConfig(),
		Metrics: *DefaultMetricsConfig(),
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
