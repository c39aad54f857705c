package services

import (
	"context"
	"fmt"

	"github.com/crocodiledundalk/fomolt3d/internal/cache"
	"github.com/crocodiledundalk/fomolt3d/internal/clients/ledgerclient"
	"github.com/crocodiledundalk/fomolt3d/internal/composer"
	"github.com/crocodiledundalk/fomolt3d/internal/config"
	"github.com/crocodiledundalk/fomolt3d/internal/db"
	"github.com/crocodiledundalk/fomolt3d/internal/game"
)

const eventProcessorSize = 5000

type Service struct {
	cfg      *config.Config
	db       db.DbInterface
	ledger   ledgerclient.LedgerClient
	composer *composer.Composer

	roundCache  *cache.Resilient[*game.RoundState]
	configCache *cache.Resilient[*game.GlobalConfig]
	scanCache   *cache.Resilient[[]*game.ParticipantRecord]

	eventProcessor chan game.LogEvent
}

func NewService(
	cfg *config.Config,
	database db.DbInterface,
	ledger ledgerclient.LedgerClient,
) *Service {
	s := &Service{
		cfg:            cfg,
		db:             database,
		ledger:         ledger,
		composer:       composer.New(ledger.ProgramID()),
		eventProcessor: make(chan game.LogEvent, eventProcessorSize),
	}

	s.roundCache = cache.New("current_round", cfg.Engine.RoundCacheTTL, s.fetchCurrentRound)
	s.configCache = cache.New("global_config", cfg.Engine.RoundCacheTTL, func(ctx context.Context) (*game.GlobalConfig, error) {
		return s.ledger.GetGlobalConfig(ctx)
	})
	s.scanCache = cache.New("round_participants", cfg.Engine.ScanCacheTTL, s.fetchCurrentParticipants)

	return s
}

// fetchCurrentRound resolves the round tip: the highest round account the
// program has created.
func (s *Service) fetchCurrentRound(ctx context.Context) (*game.RoundState, error) {
	rounds, err := s.ledger.ScanRounds(ctx)
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, fmt.Errorf("no round accounts exist yet")
	}

	tip := rounds[0]
	for _, rs := range rounds[1:] {
		if rs.Round > tip.Round {
			tip = rs
		}
	}
	return tip, nil
}

func (s *Service) fetchCurrentParticipants(ctx context.Context) ([]*game.ParticipantRecord, error) {
	round, _, err := s.roundCache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.ledger.ScanParticipantsByRound(ctx, round.Round)
}

// StartEngineSync runs the full reconciliation pipeline: backfill missed
// events, subscribe to live ones, then keep processing on the calling
// goroutine until ctx is cancelled.
func (s *Service) StartEngineSync(ctx context.Context) {
	s.BootstrapLedger(ctx)
	s.SubscribeToLedgerEvents(ctx)
	s.StartEventProcessor(ctx)
}
