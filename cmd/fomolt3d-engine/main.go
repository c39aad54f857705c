package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/crocodiledundalk/fomolt3d/cmd/fomolt3d-engine/cli"
	"github.com/crocodiledundalk/fomolt3d/internal/clients/ledgerclient"
	"github.com/crocodiledundalk/fomolt3d/internal/config"
	"github.com/crocodiledundalk/fomolt3d/internal/db"
	"github.com/crocodiledundalk/fomolt3d/internal/observability/metrics"
	"github.com/crocodiledundalk/fomolt3d/internal/services"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("failed to load .env file")
	}
}

func main() {
	ctx := context.Background()

	// setup cli commands and flags
	if err := cli.Setup(); err != nil {
		panic(err)
	}

	// load config
	cfgPath := cli.GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	// create new db client
	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		panic(fmt.Errorf("error while creating db client: %w", err))
	}

	ledgerClient, err := ledgerclient.NewLedgerClient(&cfg.Solana)
	if err != nil {
		panic(fmt.Errorf("error while creating ledger client: %w", err))
	}

	service := services.NewService(cfg, db.NewDbWithMetrics(dbClient), ledgerClient)

	// initialize metrics with the metrics port from config
	metrics.Init(cfg.Metrics.Port)

	service.StartEngineSync(ctx)
}
