package game

import "time"

// Phase is a round's lifecycle phase as derived from raw ledger fields plus
// the local clock.
type Phase string

const (
	// PhaseWaiting means no round account exists yet.
	PhaseWaiting Phase = "waiting"
	// PhaseActive is a running round with comfortable time left.
	PhaseActive Phase = "active"
	// PhaseEnding is a running round inside the ending threshold.
	PhaseEnding Phase = "ending"
	// PhaseEnded covers both a round the ledger has flagged inactive with
	// the winner prize unclaimed, and a round still flagged active whose
	// timer has already passed: the ledger will conclude it on the next
	// mutation, so purchases against it are certain to fail.
	PhaseEnded Phase = "ended"
	// PhaseClaiming is a concluded round whose winner has claimed; remaining
	// participants may still claim dividends.
	PhaseClaiming Phase = "claiming"
)

func (p Phase) String() string {
	return string(p)
}

// DefaultEndingThreshold is the remaining time under which an active round
// is reported as ending.
const DefaultEndingThreshold = 300 * time.Second

// ClassifyPhase derives the phase of a round at a point in time. Anticipating
// expiry locally, before the ledger flips the active flag, keeps the composer
// from building purchases the ledger would certainly reject.
func ClassifyPhase(round *RoundState, now time.Time, endingThreshold time.Duration) Phase {
	if round == nil {
		return PhaseWaiting
	}

	if !round.Active {
		if round.WinnerClaimed {
			return PhaseClaiming
		}
		return PhaseEnded
	}

	remaining := round.TimerEnd - now.Unix()
	switch {
	case remaining <= 0:
		return PhaseEnded
	case time.Duration(remaining)*time.Second <= endingThreshold:
		return PhaseEnding
	default:
		return PhaseActive
	}
}
