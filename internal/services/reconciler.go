package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crocodiledundalk/fomolt3d/internal/db"
	"github.com/crocodiledundalk/fomolt3d/internal/db/model"
	"github.com/crocodiledundalk/fomolt3d/internal/game"
	"github.com/crocodiledundalk/fomolt3d/internal/observability/metrics"
)

// StartEventProcessor consumes decoded events on the calling goroutine until
// ctx is cancelled. Both the live subscription and the backfill feed the
// same channel, so processing stays single-threaded and ordered.
func (s *Service) StartEventProcessor(ctx context.Context) {
	log.Info().Msg("Starting ledger event processor")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping ledger event processor")
			return
		case event := <-s.eventProcessor:
			metrics.SetReconcilerBacklog(len(s.eventProcessor))
			s.processEvent(ctx, event)
		}
	}
}

// processEvent records one event into the activity feed and refreshes the
// snapshots it invalidates. The feed insert doubles as deduplication: a
// duplicate key means this emission was already processed, and its side
// effects are skipped.
func (s *Service) processEvent(ctx context.Context, le game.LogEvent) {
	start := time.Now()
	eventType := le.Event.EventType().String()

	err := s.db.SaveActivityEvent(ctx, model.FromLogEvent(le))
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			metrics.RecordDuplicateEvent()
			log.Debug().
				Stringer("signature", le.Signature).
				Int("event_index", le.Index).
				Msg("skipping already processed event")
			return
		}
		metrics.RecordFeedInsertError()
		metrics.RecordEventProcessing(eventType, time.Since(start), metrics.Error)
		log.Error().Err(err).
			Stringer("signature", le.Signature).
			Str("event_type", eventType).
			Msg("failed to record activity event")
		return
	}

	s.applyEvent(le.Event)
	metrics.RecordEventProcessing(eventType, time.Since(start), metrics.Success)
}

// applyEvent drops whichever cached snapshots the event made stale. The next
// read refetches; nothing is patched in place, the ledger stays the sole
// source of truth.
func (s *Service) applyEvent(ev game.Event) {
	switch ev.(type) {
	case game.KeysPurchasedEvent, game.GameUpdatedEvent:
		s.roundCache.Invalidate()
		s.scanCache.Invalidate()
	case game.ClaimedEvent:
		// A claim flips winner_claimed on the round, and its auto-end path
		// can flip active too, so the round snapshot is stale as well.
		s.roundCache.Invalidate()
		s.scanCache.Invalidate()
	case game.ReferralClaimedEvent, game.ReferralEarnedEvent:
		s.scanCache.Invalidate()
	case game.RoundStartedEvent, game.RoundConcludedEvent:
		s.roundCache.Invalidate()
		s.scanCache.Invalidate()
	case game.ProtocolFeeCollectedEvent:
		// fee sweeps do not change any state this engine serves
	}
}
