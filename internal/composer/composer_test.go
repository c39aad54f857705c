package composer

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crocodiledundalk/fomolt3d/internal/game"
)

var (
	testBuyer    = solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	testReferrer = solana.MustPublicKeyFromBase58("7S3P4HxJpyyigGzodYwHtCxZyUQe9JiBMHyRWXArAaKv")
	testProtocol = solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
)

func activeRound(t *testing.T, round uint64, now time.Time) *game.RoundState {
	t.Helper()
	return &game.RoundState{
		Round:    round,
		Active:   true,
		TimerEnd: now.Add(10 * time.Minute).Unix(),
		Fees:     game.FeeSnapshot{ProtocolWallet: testProtocol},
	}
}

func TestComposeBuy_FirstPurchaseWithReferrer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := New(game.DefaultProgramID)
	round := activeRound(t, 5, now)

	plan, err := c.ComposeBuy(round, nil, game.ParticipantStatus{Kind: game.StatusUnregistered}, BuyRequest{
		Buyer:     testBuyer,
		KeysToBuy: 3,
		Referrer:  &testReferrer,
	}, now)
	require.NoError(t, err)
	require.True(t, plan.Possible)
	require.Len(t, plan.Ops, 1)

	op := plan.Ops[0]
	assert.Equal(t, OpPurchase, op.Kind)
	assert.Equal(t, uint64(5), op.Round)

	accounts := op.Instruction.Accounts()
	require.Len(t, accounts, 7)

	state, err := game.RoundStateAddress(game.DefaultProgramID, 5)
	require.NoError(t, err)
	vault, err := game.VaultAddress(game.DefaultProgramID, state)
	require.NoError(t, err)
	participant, err := game.ParticipantAddress(game.DefaultProgramID, testBuyer)
	require.NoError(t, err)
	referrerState, err := game.ParticipantAddress(game.DefaultProgramID, testReferrer)
	require.NoError(t, err)

	assert.Equal(t, testBuyer, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsSigner)
	assert.Equal(t, state, accounts[1].PublicKey)
	assert.Equal(t, participant, accounts[2].PublicKey)
	assert.Equal(t, vault, accounts[3].PublicKey)
	assert.Equal(t, testProtocol, accounts[4].PublicKey)
	assert.Equal(t, referrerState, accounts[5].PublicKey)
	assert.True(t, accounts[5].IsWritable)
	assert.Equal(t, solana.SystemProgramID, accounts[6].PublicKey)

	data, err := op.Instruction.Data()
	require.NoError(t, err)
	disc := sha256.Sum256([]byte("global:buy_keys"))
	require.Len(t, data, 8+8+1)
	assert.Equal(t, disc[:8], data[:8])
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, byte(0), data[16])
}

func TestComposeBuy_NoReferrerUsesProgramPlaceholder(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := New(game.DefaultProgramID)

	plan, err := c.ComposeBuy(activeRound(t, 5, now), nil, game.ParticipantStatus{Kind: game.StatusUnregistered}, BuyRequest{
		Buyer:     testBuyer,
		KeysToBuy: 1,
	}, now)
	require.NoError(t, err)
	require.True(t, plan.Possible)

	accounts := plan.Ops[0].Instruction.Accounts()
	require.Len(t, accounts, 7)
	assert.Equal(t, game.DefaultProgramID, accounts[5].PublicKey)
	assert.False(t, accounts[5].IsWritable)
}

func TestComposeBuy_ExistingBindingOverridesRequestReferrer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := New(game.DefaultProgramID)
	other := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	rec := &game.ParticipantRecord{Wallet: testBuyer, CurrentRound: 5, Keys: 2, Referrer: &testReferrer}
	plan, err := c.ComposeBuy(activeRound(t, 5, now), rec, game.ParticipantStatus{Kind: game.StatusCurrent}, BuyRequest{
		Buyer:     testBuyer,
		KeysToBuy: 1,
		Referrer:  &other,
	}, now)
	require.NoError(t, err)
	require.True(t, plan.Possible)

	bound, err := game.ParticipantAddress(game.DefaultProgramID, testReferrer)
	require.NoError(t, err)
	assert.Equal(t, bound, plan.Ops[0].Instruction.Accounts()[5].PublicKey)
}

func TestComposeBuy_StalePositionSettlesFirst(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := New(game.DefaultProgramID)

	rec := &game.ParticipantRecord{Wallet: testBuyer, CurrentRound: 3, Keys: 4}
	status := game.ParticipantStatus{Kind: game.StatusStale, StaleRound: 3}

	plan, err := c.ComposeBuy(activeRound(t, 5, now), rec, status, BuyRequest{Buyer: testBuyer, KeysToBuy: 2}, now)
	require.NoError(t, err)
	require.True(t, plan.Possible)
	require.Len(t, plan.Ops, 2)

	assert.Equal(t, OpClaim, plan.Ops[0].Kind)
	assert.Equal(t, uint64(3), plan.Ops[0].Round)
	assert.Equal(t, OpPurchase, plan.Ops[1].Kind)
	assert.Equal(t, uint64(5), plan.Ops[1].Round)

	staleState, err := game.RoundStateAddress(game.DefaultProgramID, 3)
	require.NoError(t, err)
	assert.Equal(t, staleState, plan.Ops[0].Instruction.Accounts()[1].PublicKey)
}

func TestComposeBuy_ZeroKeysRegistersOnly(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := New(game.DefaultProgramID)

	plan, err := c.ComposeBuy(activeRound(t, 5, now), nil, game.ParticipantStatus{Kind: game.StatusUnregistered}, BuyRequest{
		Buyer:    testBuyer,
		Referrer: &testReferrer,
	}, now)
	require.NoError(t, err)
	require.True(t, plan.Possible)

	data, err := plan.Ops[0].Instruction.Data()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(data[8:16]))
}

func TestComposeBuy_NotPossible(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := New(game.DefaultProgramID)

	expired := activeRound(t, 5, now)
	expired.TimerEnd = now.Unix()

	inactive := activeRound(t, 5, now)
	inactive.Active = false

	tests := []struct {
		name   string
		round  *game.RoundState
		reason Reason
	}{
		{"no round", nil, ReasonNoRound},
		{"inactive round", inactive, ReasonRoundNotActive},
		{"timer expired", expired, ReasonTimerExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := c.ComposeBuy(tt.round, nil, game.ParticipantStatus{Kind: game.StatusUnregistered}, BuyRequest{Buyer: testBuyer, KeysToBuy: 1}, now)
			require.NoError(t, err)
			assert.False(t, plan.Possible)
			assert.Equal(t, tt.reason, plan.Reason)
			assert.Empty(t, plan.Ops)
		})
	}
}

func TestComposeClaim_CurrentRoundStillActive(t *testing.T) {
	c := New(game.DefaultProgramID)
	now := time.Unix(1_700_000_000, 0)
	round := activeRound(t, 5, now)

	plan, err := c.ComposeClaim(round, game.ParticipantStatus{
		Kind:     game.StatusCurrent,
		Phase:    game.PhaseActive,
		CanClaim: true,
	}, testBuyer)
	require.NoError(t, err)
	assert.False(t, plan.Possible)
	assert.Equal(t, ReasonRoundStillActive, plan.Reason)
}

func TestComposeClaim_CurrentRoundEndedBundle(t *testing.T) {
	c := New(game.DefaultProgramID)
	now := time.Unix(1_700_000_000, 0)
	round := activeRound(t, 5, now)
	round.TimerEnd = now.Add(-time.Minute).Unix()

	plan, err := c.ComposeClaim(round, game.ParticipantStatus{
		Kind:             game.StatusCurrent,
		Phase:            game.PhaseEnded,
		CanClaim:         true,
		CanClaimReferral: true,
	}, testBuyer)
	require.NoError(t, err)
	require.True(t, plan.Possible)
	require.Len(t, plan.Ops, 2)
	assert.Equal(t, OpClaim, plan.Ops[0].Kind)
	assert.Equal(t, OpClaimReferral, plan.Ops[1].Kind)
	assert.Equal(t, uint64(5), plan.Ops[0].Round)
	assert.Equal(t, uint64(5), plan.Ops[1].Round)
}

func TestComposeClaim_StaleTargetsStaleRound(t *testing.T) {
	c := New(game.DefaultProgramID)
	now := time.Unix(1_700_000_000, 0)
	round := activeRound(t, 6, now)

	plan, err := c.ComposeClaim(round, game.ParticipantStatus{
		Kind:             game.StatusStale,
		Phase:            game.PhaseActive,
		StaleRound:       4,
		CanClaim:         true,
		CanClaimReferral: true,
	}, testBuyer)
	require.NoError(t, err)
	require.True(t, plan.Possible)
	require.Len(t, plan.Ops, 2)
	for _, op := range plan.Ops {
		assert.Equal(t, uint64(4), op.Round)
	}
}

func TestComposeClaim_SettledReferralOnly(t *testing.T) {
	c := New(game.DefaultProgramID)
	now := time.Unix(1_700_000_000, 0)
	round := activeRound(t, 6, now)

	plan, err := c.ComposeClaim(round, game.ParticipantStatus{
		Kind:              game.StatusSettled,
		CanClaimReferral:  true,
		UnclaimedReferral: 500,
	}, testBuyer)
	require.NoError(t, err)
	require.True(t, plan.Possible)
	require.Len(t, plan.Ops, 1)
	assert.Equal(t, OpClaimReferral, plan.Ops[0].Kind)
	assert.Equal(t, uint64(6), plan.Ops[0].Round)
}

func TestComposeClaim_NothingToClaim(t *testing.T) {
	c := New(game.DefaultProgramID)
	now := time.Unix(1_700_000_000, 0)
	round := activeRound(t, 6, now)

	for _, status := range []game.ParticipantStatus{
		{Kind: game.StatusUnregistered},
		{Kind: game.StatusSettled},
		{Kind: game.StatusStale, StaleRound: 4},
		{Kind: game.StatusCurrent, Phase: game.PhaseEnded},
	} {
		plan, err := c.ComposeClaim(round, status, testBuyer)
		require.NoError(t, err)
		assert.False(t, plan.Possible, "kind %s", status.Kind)
		assert.Equal(t, ReasonNothingToClaim, plan.Reason)
	}
}

func TestComposeStartRound(t *testing.T) {
	c := New(game.DefaultProgramID)
	now := time.Unix(1_700_000_000, 0)

	running := activeRound(t, 5, now)

	unclaimed := activeRound(t, 5, now)
	unclaimed.TimerEnd = now.Add(-time.Minute).Unix()
	unclaimed.TotalKeys = 10

	claimed := activeRound(t, 5, now)
	claimed.Active = false
	claimed.WinnerClaimed = true

	empty := activeRound(t, 5, now)
	empty.TimerEnd = now.Add(-time.Minute).Unix()

	t.Run("running round", func(t *testing.T) {
		plan, err := c.ComposeStartRound(running, testBuyer, now)
		require.NoError(t, err)
		assert.False(t, plan.Possible)
		assert.Equal(t, ReasonRoundStillActive, plan.Reason)
	})

	t.Run("winner not claimed", func(t *testing.T) {
		plan, err := c.ComposeStartRound(unclaimed, testBuyer, now)
		require.NoError(t, err)
		assert.False(t, plan.Possible)
		assert.Equal(t, ReasonWinnerNotClaimed, plan.Reason)
	})

	t.Run("winner claimed", func(t *testing.T) {
		plan, err := c.ComposeStartRound(claimed, testBuyer, now)
		require.NoError(t, err)
		require.True(t, plan.Possible)
		require.Len(t, plan.Ops, 1)
		assert.Equal(t, OpStartNextRound, plan.Ops[0].Kind)
		assert.Equal(t, uint64(6), plan.Ops[0].Round)
	})

	t.Run("empty expired round", func(t *testing.T) {
		plan, err := c.ComposeStartRound(empty, testBuyer, now)
		require.NoError(t, err)
		assert.True(t, plan.Possible)
	})
}
