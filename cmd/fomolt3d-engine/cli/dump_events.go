package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/crocodiledundalk/fomolt3d/internal/clients/ledgerclient"
	"github.com/crocodiledundalk/fomolt3d/internal/config"
	"github.com/crocodiledundalk/fomolt3d/internal/game"
)

func DumpEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-events",
		Short: "Prints the program's recent events as JSON, newest first",
		Run:   dumpEvents,
	}

	cmd.Flags().Int("limit", 100, "Number of transactions to walk back")

	return cmd
}

func dumpEvents(cmd *cobra.Command, args []string) {
	if err := dumpEventsE(cmd, args); err != nil {
		log.Err(err).Msg("Failed to dump events")
		os.Exit(1)
	}
	os.Exit(0)
}

func dumpEventsE(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	cl, err := ledgerclient.NewLedgerClient(&cfg.Solana)
	if err != nil {
		return err
	}

	var before solana.Signature
	seen := 0
	for seen < limit {
		page := limit - seen
		sigs, err := cl.GetSignaturesForProgram(ctx, before, page)
		if err != nil {
			return err
		}
		if len(sigs) == 0 {
			break
		}

		for _, info := range sigs {
			seen++
			if info.Err != nil {
				continue
			}
			logs, err := cl.GetTransactionLogs(ctx, info.Signature)
			if err != nil {
				return err
			}
			for _, event := range game.ParseEventsFromLogs(info.Signature, logs) {
				buff, err := json.Marshal(event.Event)
				if err != nil {
					return err
				}
				fmt.Printf("Event [%s:%d]: %s %s\n", event.Signature, event.Index, event.Event.EventType(), string(buff))
			}
		}
		before = sigs[len(sigs)-1].Signature
	}
	return nil
}
