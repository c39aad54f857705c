package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/crocodiledundalk/fomolt3d/internal/clients/ledgerclient"
	"github.com/crocodiledundalk/fomolt3d/internal/config"
	"github.com/crocodiledundalk/fomolt3d/internal/db"
	"github.com/crocodiledundalk/fomolt3d/internal/game"
	"github.com/crocodiledundalk/fomolt3d/internal/services"
	"github.com/crocodiledundalk/fomolt3d/pkg"
)

func ParticipantStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participant-status <wallet>",
		Short: "Prints a wallet's standing in the current round",
		Args:  cobra.ExactArgs(1),
		Run:   participantStatus,
	}

	return cmd
}

func participantStatus(cmd *cobra.Command, args []string) {
	if err := participantStatusE(cmd, args); err != nil {
		log.Err(err).Msg("Failed to resolve participant status")
		os.Exit(1)
	}
	os.Exit(0)
}

func participantStatusE(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	wallet, err := pkg.ValidateWalletAddress(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}
	ledgerClient, err := ledgerclient.NewLedgerClient(&cfg.Solana)
	if err != nil {
		return err
	}
	service := services.NewService(cfg, dbClient, ledgerClient)

	view, err := service.GetCurrentRound(ctx)
	if err != nil {
		return err
	}
	status, rec, err := service.GetParticipantStatus(ctx, wallet)
	if err != nil {
		return err
	}

	fmt.Printf("Round %d (%s), pot %s SOL, next key %s SOL\n",
		view.Round.Round, view.Phase, pkg.FormatSol(view.Round.Pot), pkg.FormatSol(view.NextKeyPrice))
	fmt.Printf("Status: %s\n", status.Kind)
	if rec != nil {
		fmt.Printf("Keys: %d (round %d)\n", rec.Keys, rec.CurrentRound)
	}
	if status.Kind == game.StatusStale {
		fmt.Printf("Unsettled position in round %d\n", status.StaleRound)
	}
	fmt.Printf("Estimated dividend: %s SOL\n", pkg.FormatSol(status.EstimatedDividend))
	if status.EstimatedWinnerPrize > 0 {
		fmt.Printf("Winner prize: %s SOL\n", pkg.FormatSol(status.EstimatedWinnerPrize))
	}
	if status.UnclaimedReferral > 0 {
		fmt.Printf("Unclaimed referral earnings: %s SOL\n", pkg.FormatSol(status.UnclaimedReferral))
	}
	fmt.Printf("Can buy keys: %t, can claim: %t, can claim referral: %t\n",
		status.CanBuyKeys, status.CanClaim, status.CanClaimReferral)
	return nil
}
