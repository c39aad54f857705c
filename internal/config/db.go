package config

import "fmt"

// DbConfig defines the MongoDB connection backing the activity feed and the
// processed-event ledger.
type DbConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Address  string `mapstructure:"address"`
	DbName   string `mapstructure:"db-name"`
}

func DefaultDbConfig() *DbConfig {
	return &DbConfig{
		Address: "mongodb://localhost:27017",
		DbName:  "fomolt3d",
	}
}

func (cfg *DbConfig) Validate() error {
	if cfg.Address == "" {
		return fmt.Errorf("database address is required")
	}
	if cfg.DbName == "" {
		return fmt.Errorf("database name is required")
	}
	return nil
}
