package game

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crocodiledundalk/fomolt3d/internal/curve"
)

// StatusKind is the participant classification relative to the current
// round. It is a closed set so the composer can switch exhaustively instead
// of juggling loose booleans.
type StatusKind string

const (
	// StatusUnregistered means no record exists for the identity.
	StatusUnregistered StatusKind = "unregistered"
	// StatusSettled is the currentRound == 0 sentinel: fully settled,
	// unattached, free to enter any round.
	StatusSettled StatusKind = "settled"
	// StatusCurrent means the record is attached to the current round.
	StatusCurrent StatusKind = "current"
	// StatusStale means the record still points at an earlier round and
	// must be settled before the identity can re-enter.
	StatusStale StatusKind = "stale"
)

func (k StatusKind) String() string {
	return string(k)
}

// ParticipantStatus is the derived view of one identity against the current
// round: classification, value estimates and the actions available right
// now. Computed once per read; never stored.
type ParticipantStatus struct {
	Kind       StatusKind
	Phase      Phase
	StaleRound uint64 // round the record is stuck in, when Kind == StatusStale

	EstimatedDividend    uint64
	EstimatedWinnerPrize uint64
	UnclaimedReferral    uint64

	CanBuyKeys       bool
	CanClaim         bool
	CanClaimReferral bool
}

func purchasable(p Phase) bool {
	return p == PhaseActive || p == PhaseEnding
}

func claimable(p Phase) bool {
	return p == PhaseEnded || p == PhaseClaiming
}

// ClassifyParticipant computes the 5-way status of rec against the current
// round. rec may be nil (unregistered). staleRound supplies the ended round
// the record points at, for estimating the value locked there; callers that
// could not fetch it pass nil and get conservative estimates of zero with
// CanClaim derived from the record alone.
func ClassifyParticipant(round, staleRound *RoundState, rec *ParticipantRecord, now time.Time, endingThreshold time.Duration) ParticipantStatus {
	phase := ClassifyPhase(round, now, endingThreshold)
	status := ParticipantStatus{Phase: phase}

	if rec == nil {
		status.Kind = StatusUnregistered
		status.CanBuyKeys = purchasable(phase)
		return status
	}

	// Referral earnings are tracked independently of round attachment and
	// claimable in every registered case.
	status.UnclaimedReferral = rec.UnclaimedReferral()
	status.CanClaimReferral = status.UnclaimedReferral > 0

	switch {
	case rec.CurrentRound == 0:
		status.Kind = StatusSettled
		status.CanBuyKeys = purchasable(phase)

	case round != nil && rec.CurrentRound == round.Round:
		status.Kind = StatusCurrent
		status.CanBuyKeys = purchasable(phase)
		if claimable(phase) {
			status.EstimatedDividend, status.EstimatedWinnerPrize = estimatePayout(round, rec)
			status.CanClaim = status.EstimatedDividend+status.EstimatedWinnerPrize > 0
		}

	default:
		status.Kind = StatusStale
		status.StaleRound = rec.CurrentRound
		// A purchase is still offered; the composer pairs it with the
		// required settlement claim.
		status.CanBuyKeys = purchasable(phase)
		if staleRound != nil {
			status.EstimatedDividend, status.EstimatedWinnerPrize = estimatePayout(staleRound, rec)
			status.CanClaim = status.EstimatedDividend+status.EstimatedWinnerPrize > 0
		} else {
			status.CanClaim = rec.Keys > 0
		}
	}

	return status
}

func estimatePayout(round *RoundState, rec *ParticipantRecord) (dividend, winner uint64) {
	dividend, err := curve.DividendShare(rec.Keys, round.DividendPool, round.TotalKeys)
	if err != nil {
		// Only reachable on a corrupt round account; treat as no dividend.
		log.Warn().Err(err).Uint64("round", round.Round).Msg("dividend estimate overflow")
		dividend = 0
	}
	if rec.Wallet == round.LastPurchaser && !round.WinnerClaimed {
		winner = round.WinnerPot
	}
	return dividend, winner
}
