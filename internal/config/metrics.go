package config

import "fmt"

const (
	defaultMetricsPort = 2112
	maxPort            = 65535
)

type MetricsConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Host: "0.0.0.0",
		Port: defaultMetricsPort,
	}
}

func (cfg *MetricsConfig) Validate() error {
	if cfg.Host == "" {
		return fmt.Errorf("metrics host is required")
	}
	if cfg.Port <= 0 || cfg.Port > maxPort {
		return fmt.Errorf("metrics port must be between 1 and %d", maxPort)
	}
	return nil
}
