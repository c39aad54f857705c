package services

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/rs/zerolog/log"

	"github.com/crocodiledundalk/fomolt3d/internal/game"
	"github.com/crocodiledundalk/fomolt3d/internal/observability/metrics"
)

const resubscribeDelay = 5 * time.Second

// SubscribeToLedgerEvents follows the program's log stream over websocket
// and feeds decoded events into the processor channel. The subscription is
// re-established after any failure; the backfill pass covers whatever was
// missed in between.
func (s *Service) SubscribeToLedgerEvents(ctx context.Context) {
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			if err := s.consumeLogStream(ctx); err != nil && ctx.Err() == nil {
				metrics.RecordSubscriptionReconnect()
				log.Error().Err(err).
					Dur("retry_in", resubscribeDelay).
					Msg("log subscription dropped, reconnecting")
				select {
				case <-time.After(resubscribeDelay):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

func (s *Service) consumeLogStream(ctx context.Context) error {
	client, err := ws.Connect(ctx, s.cfg.Solana.WSEndpoint)
	if err != nil {
		return err
	}
	defer client.Close()

	sub, err := client.LogsSubscribeMentions(
		s.ledger.ProgramID(),
		rpc.CommitmentType(s.cfg.Solana.Commitment),
	)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	log.Info().
		Stringer("program", s.ledger.ProgramID()).
		Msg("subscribed to program logs")

	for {
		got, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		if got.Value.Err != nil {
			// failed transactions emit no effective events
			continue
		}
		for _, event := range game.ParseEventsFromLogs(got.Value.Signature, got.Value.Logs) {
			select {
			case s.eventProcessor <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
