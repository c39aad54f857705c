package services

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crocodiledundalk/fomolt3d/internal/composer"
	"github.com/crocodiledundalk/fomolt3d/internal/game"
)

var (
	walletA = solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	walletB = solana.MustPublicKeyFromBase58("7S3P4HxJpyyigGzodYwHtCxZyUQe9JiBMHyRWXArAaKv")
	walletC = solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
)

func seedRound5(ledger *fakeLedger) *game.RoundState {
	rs := &game.RoundState{
		Round:        5,
		Active:       true,
		TimerEnd:     9_999_999_999,
		TotalKeys:    10,
		DividendPool: 100_000_000,
		Fees: game.FeeSnapshot{
			BasePrice:        10_000_000,
			PriceIncrement:   1_000_000,
			WinnerBps:        4800,
			DividendBps:      4500,
			CarryBps:         700,
			ProtocolFeeBps:   200,
			ReferralBonusBps: 1000,
			ProtocolWallet:   walletC,
		},
	}
	ledger.rounds[5] = rs
	return rs
}

func TestGetCurrentRound(t *testing.T) {
	ledger := newFakeLedger()
	seedRound5(ledger)
	s := testService(ledger, newFakeDb())

	view, err := s.GetCurrentRound(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(5), view.Round.Round)
	assert.Equal(t, game.PhaseActive, view.Phase)
	// 11th key: base + 10 increments
	assert.Equal(t, uint64(20_000_000), view.NextKeyPrice)
	assert.False(t, view.Stale)
}

func TestGetCurrentRound_PicksHighestRound(t *testing.T) {
	ledger := newFakeLedger()
	seedRound5(ledger)
	ledger.rounds[3] = &game.RoundState{Round: 3}
	s := testService(ledger, newFakeDb())

	view, err := s.GetCurrentRound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), view.Round.Round)
}

func TestLeaderboard(t *testing.T) {
	ledger := newFakeLedger()
	seedRound5(ledger)
	ledger.participants[walletA] = &game.ParticipantRecord{Wallet: walletA, CurrentRound: 5, Keys: 7}
	ledger.participants[walletB] = &game.ParticipantRecord{Wallet: walletB, CurrentRound: 5, Keys: 3, IsAutomated: true}
	ledger.participants[walletC] = &game.ParticipantRecord{Wallet: walletC, CurrentRound: 3, Keys: 100}
	s := testService(ledger, newFakeDb())

	entries, stale, err := s.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, stale)
	require.Len(t, entries, 2, "holders of earlier rounds do not rank")

	assert.Equal(t, walletA, entries[0].Wallet)
	assert.Equal(t, uint64(7), entries[0].Keys)
	assert.Equal(t, uint64(70_000_000), entries[0].EstimatedDividend)
	assert.Equal(t, walletB, entries[1].Wallet)
	assert.True(t, entries[1].IsAutomated)

	top, _, err := s.Leaderboard(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, walletA, top[0].Wallet)
}

func TestQuotePurchase(t *testing.T) {
	ledger := newFakeLedger()
	seedRound5(ledger)
	ledger.participants[walletA] = &game.ParticipantRecord{
		Wallet:       walletA,
		CurrentRound: 5,
		Keys:         2,
		Referrer:     &walletB,
	}
	s := testService(ledger, newFakeDb())

	// keys 11..13: (10M+10*1M) + (10M+11*1M) + (10M+12*1M) = 63M
	quote, err := s.QuotePurchase(context.Background(), walletA, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(63_000_000), quote.TotalCost)
	assert.Equal(t, uint64(1_260_000), quote.ProtocolFee)
	assert.Positive(t, quote.ReferralBonus, "bound referrer earns on every purchase")

	// an unregistered wallet quotes without the referral leg
	unbound, err := s.QuotePurchase(context.Background(), walletB, 3)
	require.NoError(t, err)
	assert.Zero(t, unbound.ReferralBonus)
	assert.Equal(t, quote.TotalCost, unbound.TotalCost)
}

func TestMaxAffordableKeys(t *testing.T) {
	ledger := newFakeLedger()
	seedRound5(ledger)
	s := testService(ledger, newFakeDb())

	keys, err := s.MaxAffordableKeys(context.Background(), 63_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), keys)

	keys, err = s.MaxAffordableKeys(context.Background(), 62_999_999)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), keys)
}

func TestGetParticipantStatus_StaleFetchesOldRound(t *testing.T) {
	ledger := newFakeLedger()
	seedRound5(ledger)
	ledger.rounds[3] = &game.RoundState{
		Round:        3,
		Active:       false,
		TimerEnd:     1_600_000_000,
		TotalKeys:    20,
		DividendPool: 40_000_000,
	}
	ledger.participants[walletA] = &game.ParticipantRecord{Wallet: walletA, CurrentRound: 3, Keys: 5}
	s := testService(ledger, newFakeDb())

	status, rec, err := s.GetParticipantStatus(context.Background(), walletA)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, game.StatusStale, status.Kind)
	assert.Equal(t, uint64(3), status.StaleRound)
	assert.Equal(t, uint64(10_000_000), status.EstimatedDividend)
	assert.True(t, status.CanClaim)
}

func TestGetParticipantStatus_Unregistered(t *testing.T) {
	ledger := newFakeLedger()
	seedRound5(ledger)
	s := testService(ledger, newFakeDb())

	status, rec, err := s.GetParticipantStatus(context.Background(), walletA)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, game.StatusUnregistered, status.Kind)
	assert.True(t, status.CanBuyKeys)
}

func TestComposeBuy_EndToEnd(t *testing.T) {
	ledger := newFakeLedger()
	seedRound5(ledger)
	ledger.participants[walletA] = &game.ParticipantRecord{Wallet: walletA, CurrentRound: 3, Keys: 5}
	ledger.rounds[3] = &game.RoundState{Round: 3, Active: false, TimerEnd: 1_600_000_000, TotalKeys: 20}
	s := testService(ledger, newFakeDb())

	plan, err := s.ComposeBuy(context.Background(), composer.BuyRequest{Buyer: walletA, KeysToBuy: 2})
	require.NoError(t, err)
	require.True(t, plan.Possible)
	require.Len(t, plan.Ops, 2)
	assert.Equal(t, composer.OpClaim, plan.Ops[0].Kind)
	assert.Equal(t, uint64(3), plan.Ops[0].Round)
	assert.Equal(t, composer.OpPurchase, plan.Ops[1].Kind)
}
