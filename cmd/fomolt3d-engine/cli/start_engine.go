package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/crocodiledundalk/fomolt3d/internal/clients/ledgerclient"
	"github.com/crocodiledundalk/fomolt3d/internal/config"
	"github.com/crocodiledundalk/fomolt3d/internal/db"
	"github.com/crocodiledundalk/fomolt3d/internal/observability/metrics"
	"github.com/crocodiledundalk/fomolt3d/internal/observability/tracing"
	"github.com/crocodiledundalk/fomolt3d/internal/services"
)

func StartEngineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-engine",
		Short: "Starts the reconciliation engine",
		Args:  cobra.ExactArgs(0),
		RunE:  startEngine,
	}

	return cmd
}

func startEngine(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	ledgerClient, err := ledgerclient.NewLedgerClient(&cfg.Solana)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating ledger client")
	}

	service := services.NewService(cfg, dbClient, ledgerClient)

	// initialize metrics with the metrics port from config
	metrics.Init(cfg.Metrics.Port)

	service.StartEngineSync(ctx)
	return nil
}
