package services

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/crocodiledundalk/fomolt3d/internal/game"
)

const (
	bootstrapRetryInterval = 10 * time.Second
	bootstrapMaxRetries    = 10
	signaturePageSize      = 1000
)

// BootstrapLedger replays the program's transaction history between the
// stored checkpoint and the current tip, feeding every carried event through
// the processor. It handles its own retry logic and runs in a goroutine:
// events are deduplicated downstream, so overlapping with the live
// subscription is harmless.
func (s *Service) BootstrapLedger(ctx context.Context) {
	go func() {
		bootstrapCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		for retries := 0; retries < bootstrapMaxRetries; retries++ {
			err := s.attemptBootstrap(bootstrapCtx)
			if err == nil {
				log.Info().Msg("Successfully backfilled ledger events")
				return
			}

			log.Err(err).
				Msgf("Failed to backfill ledger events, attempt %d/%d", retries+1, bootstrapMaxRetries)

			if retries == bootstrapMaxRetries-1 {
				log.Fatal().Msg("Failed to backfill ledger events after max retries, exiting")
			}
			time.Sleep(bootstrapRetryInterval * time.Duration(retries+1))
		}
	}()
}

// attemptBootstrap walks signatures newest-first until it meets the
// checkpoint, then replays the gap oldest-first so events arrive in ledger
// order.
func (s *Service) attemptBootstrap(ctx context.Context) error {
	checkpoint, err := s.db.GetLastProcessedSignature(ctx)
	if err != nil {
		return err
	}

	var (
		pending []solana.Signature // newest first
		tip     string
		before  solana.Signature
	)

walk:
	for len(pending) < s.cfg.Engine.BackfillLimit {
		pageSize := signaturePageSize
		if remaining := s.cfg.Engine.BackfillLimit - len(pending); remaining < pageSize {
			pageSize = remaining
		}

		sigs, err := s.ledger.GetSignaturesForProgram(ctx, before, pageSize)
		if err != nil {
			return err
		}
		if len(sigs) == 0 {
			break
		}
		if tip == "" {
			tip = sigs[0].Signature.String()
		}

		for _, info := range sigs {
			if info.Signature.String() == checkpoint {
				break walk
			}
			if info.Err != nil {
				continue
			}
			pending = append(pending, info.Signature)
		}

		if len(sigs) < pageSize {
			break
		}
		before = sigs[len(sigs)-1].Signature
	}

	log.Debug().
		Int("transactions", len(pending)).
		Str("checkpoint", checkpoint).
		Msg("replaying ledger history")

	for i := len(pending) - 1; i >= 0; i-- {
		logs, err := s.ledger.GetTransactionLogs(ctx, pending[i])
		if err != nil {
			return err
		}
		for _, event := range game.ParseEventsFromLogs(pending[i], logs) {
			select {
			case s.eventProcessor <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if tip != "" && tip != checkpoint {
		return s.db.UpdateLastProcessedSignature(ctx, tip)
	}
	return nil
}
