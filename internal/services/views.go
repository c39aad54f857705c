package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/crocodiledundalk/fomolt3d/internal/composer"
	"github.com/crocodiledundalk/fomolt3d/internal/curve"
	"github.com/crocodiledundalk/fomolt3d/internal/db/model"
	"github.com/crocodiledundalk/fomolt3d/internal/game"
	"github.com/crocodiledundalk/fomolt3d/internal/types"
)

// RoundView is the cached round snapshot served to callers, annotated with
// the derived phase and whether the snapshot could not be refreshed in time.
type RoundView struct {
	Round        *game.RoundState
	Phase        game.Phase
	NextKeyPrice uint64
	Stale        bool
}

// GetCurrentRound serves the round tip from cache, falling back to the last
// good snapshot when the ledger is unreachable.
func (s *Service) GetCurrentRound(ctx context.Context) (*RoundView, error) {
	round, stale, err := s.roundCache.Get(ctx)
	if err != nil {
		return nil, err
	}

	nextPrice, err := curve.NextKeyPrice(round.TotalKeys, round.Fees.BasePrice, round.Fees.PriceIncrement)
	if err != nil {
		return nil, err
	}

	return &RoundView{
		Round:        round,
		Phase:        game.ClassifyPhase(round, time.Now(), s.cfg.Engine.EndingThreshold),
		NextKeyPrice: nextPrice,
		Stale:        stale,
	}, nil
}

// GetGlobalConfig serves the admin defaults used for previews of rounds that
// have not started yet.
func (s *Service) GetGlobalConfig(ctx context.Context) (*game.GlobalConfig, bool, error) {
	return s.configCache.Get(ctx)
}

// GetParticipantStatus resolves a wallet's full standing: registration,
// settlement debt, payout estimates and which actions are available. The
// participant account is read directly, never cached, so a wallet always
// sees its own latest state.
func (s *Service) GetParticipantStatus(ctx context.Context, wallet solana.PublicKey) (game.ParticipantStatus, *game.ParticipantRecord, error) {
	round, _, err := s.roundCache.Get(ctx)
	if err != nil {
		return game.ParticipantStatus{}, nil, err
	}

	rec, err := s.ledger.GetParticipant(ctx, wallet)
	if err != nil && !errors.Is(err, types.ErrAccountNotFound) {
		return game.ParticipantStatus{}, nil, err
	}

	var staleRound *game.RoundState
	if rec != nil && rec.CurrentRound != 0 && rec.CurrentRound != round.Round {
		// best effort: estimates degrade gracefully without it
		staleRound, _ = s.ledger.GetRoundState(ctx, rec.CurrentRound)
	}

	status := game.ClassifyParticipant(round, staleRound, rec, time.Now(), s.cfg.Engine.EndingThreshold)
	return status, rec, nil
}

// QuotePurchase prices a prospective purchase against the current snapshot,
// with the full fee decomposition the program would apply.
func (s *Service) QuotePurchase(ctx context.Context, wallet solana.PublicKey, keysToBuy uint64) (curve.Quote, error) {
	round, _, err := s.roundCache.Get(ctx)
	if err != nil {
		return curve.Quote{}, err
	}

	hasReferrer := false
	rec, err := s.ledger.GetParticipant(ctx, wallet)
	if err != nil && !errors.Is(err, types.ErrAccountNotFound) {
		return curve.Quote{}, err
	}
	if rec != nil && rec.Referrer != nil {
		hasReferrer = true
	}

	return curve.Breakdown(
		round.TotalKeys,
		keysToBuy,
		round.Fees.BasePrice,
		round.Fees.PriceIncrement,
		splitConfig(&round.Fees),
		hasReferrer,
	)
}

// MaxAffordableKeys answers "how many keys does this budget buy right now".
func (s *Service) MaxAffordableKeys(ctx context.Context, budget uint64) (uint64, error) {
	round, _, err := s.roundCache.Get(ctx)
	if err != nil {
		return 0, err
	}
	return curve.MaxKeysForBudget(round.TotalKeys, budget, round.Fees.BasePrice, round.Fees.PriceIncrement), nil
}

func splitConfig(fees *game.FeeSnapshot) curve.SplitConfig {
	return curve.SplitConfig{
		ProtocolFeeBps:   fees.ProtocolFeeBps,
		ReferralBonusBps: fees.ReferralBonusBps,
		WinnerBps:        fees.WinnerBps,
		DividendBps:      fees.DividendBps,
		CarryBps:         fees.CarryBps,
	}
}

// LeaderboardEntry is one holder of the current round, ranked by keys.
type LeaderboardEntry struct {
	Wallet            solana.PublicKey
	Keys              uint64
	EstimatedDividend uint64
	IsAutomated       bool
}

// Leaderboard ranks the current round's participants by key holdings. Served
// from the scan cache: the underlying bulk fetch is far too heavy to run per
// request.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, bool, error) {
	round, _, err := s.roundCache.Get(ctx)
	if err != nil {
		return nil, false, err
	}
	records, stale, err := s.scanCache.Get(ctx)
	if err != nil {
		return nil, false, err
	}

	entries := make([]LeaderboardEntry, 0, len(records))
	for _, rec := range records {
		if rec.CurrentRound != round.Round {
			// scan snapshot can straddle a round change
			continue
		}
		dividend, err := curve.DividendShare(rec.Keys, round.DividendPool, round.TotalKeys)
		if err != nil {
			return nil, false, err
		}
		entries = append(entries, LeaderboardEntry{
			Wallet:            rec.Wallet,
			Keys:              rec.Keys,
			EstimatedDividend: dividend,
			IsAutomated:       rec.IsAutomated,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Keys != entries[j].Keys {
			return entries[i].Keys > entries[j].Keys
		}
		return entries[i].Wallet.String() < entries[j].Wallet.String()
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, stale, nil
}

// ComposeBuy plans a key purchase for the wallet, settling any stale
// position first.
func (s *Service) ComposeBuy(ctx context.Context, req composer.BuyRequest) (composer.Plan, error) {
	round, _, err := s.roundCache.Get(ctx)
	if err != nil {
		return composer.Plan{}, err
	}
	status, rec, err := s.GetParticipantStatus(ctx, req.Buyer)
	if err != nil {
		return composer.Plan{}, err
	}
	return s.composer.ComposeBuy(round, rec, status, req, time.Now())
}

// ComposeClaim plans the wallet's settlement bundle.
func (s *Service) ComposeClaim(ctx context.Context, wallet solana.PublicKey) (composer.Plan, error) {
	round, _, err := s.roundCache.Get(ctx)
	if err != nil {
		return composer.Plan{}, err
	}
	status, _, err := s.GetParticipantStatus(ctx, wallet)
	if err != nil {
		return composer.Plan{}, err
	}
	return s.composer.ComposeClaim(round, status, wallet)
}

// ComposeStartRound plans the permissionless rollover to the next round.
func (s *Service) ComposeStartRound(ctx context.Context, payer solana.PublicKey) (composer.Plan, error) {
	round, _, err := s.roundCache.Get(ctx)
	if err != nil {
		return composer.Plan{}, err
	}
	return s.composer.ComposeStartRound(round, payer, time.Now())
}

// RecentActivity serves the reconciled event feed, newest first.
func (s *Service) RecentActivity(ctx context.Context, limit int64) ([]*model.ActivityEvent, error) {
	return s.db.GetRecentActivity(ctx, limit)
}

// RoundActivity serves one round's reconciled event feed, newest first.
func (s *Service) RoundActivity(ctx context.Context, round uint64, limit int64) ([]*model.ActivityEvent, error) {
	return s.db.GetRoundActivity(ctx, round, limit)
}
