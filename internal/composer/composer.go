package composer

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/crocodiledundalk/fomolt3d/internal/game"
	"github.com/crocodiledundalk/fomolt3d/internal/observability/metrics"
)

// Reason explains why a request could not be turned into operations.
// Not-possible is an expected outcome, not an error.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNoRound          Reason = "no_round"
	ReasonRoundNotActive   Reason = "round_not_active"
	ReasonTimerExpired     Reason = "timer_expired"
	ReasonRoundStillActive Reason = "round_still_active"
	ReasonNothingToClaim   Reason = "nothing_to_claim"
	ReasonWinnerNotClaimed Reason = "winner_not_claimed"
)

// Plan is the composition result: either an ordered operation list meant to
// be signed and submitted as one atomic unit, or a reason why no valid
// operation list exists for the request.
type Plan struct {
	Possible bool
	Reason   Reason
	Ops      []Operation
}

func possible(ops ...Operation) Plan {
	return Plan{Possible: true, Ops: ops}
}

func notPossible(request string, reason Reason) Plan {
	metrics.RecordComposerNotPossible(request, string(reason))
	return Plan{Reason: reason}
}

// Composer turns purchase and settlement intents into operation plans,
// resolving any settlement debt the participant carries first.
type Composer struct {
	builder *Builder
}

func New(programID solana.PublicKey) *Composer {
	return &Composer{builder: NewBuilder(programID)}
}

// Builder exposes the underlying instruction builder for administrative and
// lifecycle operations that need no state-dependent composition.
func (c *Composer) Builder() *Builder {
	return c.builder
}

// BuyRequest is an intent to purchase keys in the current round. KeysToBuy
// may be zero: the program treats a zero-key purchase as registration only,
// which is how a wallet binds a referrer without spending on keys.
type BuyRequest struct {
	Buyer       solana.PublicKey
	KeysToBuy   uint64
	IsAutomated bool
	// Referrer is the referring wallet for a first-time registration.
	// Ignored for wallets that already carry a referrer binding, since the
	// binding is permanent.
	Referrer *solana.PublicKey
}

// ComposeBuy plans a key purchase against the observed current round. A
// participant still holding a position from an earlier round gets that
// round's settlement prepended, so the purchase lands on a clean record.
func (c *Composer) ComposeBuy(round *game.RoundState, rec *game.ParticipantRecord, status game.ParticipantStatus, req BuyRequest, now time.Time) (Plan, error) {
	if round == nil {
		return notPossible("buy", ReasonNoRound), nil
	}
	if !round.Active {
		return notPossible("buy", ReasonRoundNotActive), nil
	}
	if now.Unix() >= round.TimerEnd {
		return notPossible("buy", ReasonTimerExpired), nil
	}

	// An existing referrer binding must be presented on every purchase; a
	// request-supplied referrer only applies to unregistered wallets.
	var referrer *solana.PublicKey
	switch {
	case rec != nil && rec.Referrer != nil:
		referrer = rec.Referrer
	case status.Kind == game.StatusUnregistered:
		referrer = req.Referrer
	}

	purchase, err := c.builder.Purchase(round.Round, req.Buyer, round.Fees.ProtocolWallet, referrer, req.KeysToBuy, req.IsAutomated)
	if err != nil {
		return Plan{}, err
	}

	if status.Kind == game.StatusStale {
		settle, err := c.builder.Claim(status.StaleRound, req.Buyer)
		if err != nil {
			return Plan{}, err
		}
		return possible(settle, purchase), nil
	}
	return possible(purchase), nil
}

// ComposeClaim plans the settlement bundle for a wallet: dividend and winner
// payout where a position exists, plus referral earnings where they have
// accrued. Claims against the current round are only possible once its timer
// has expired.
func (c *Composer) ComposeClaim(round *game.RoundState, status game.ParticipantStatus, wallet solana.PublicKey) (Plan, error) {
	switch status.Kind {
	case game.StatusUnregistered:
		return notPossible("claim", ReasonNothingToClaim), nil

	case game.StatusSettled:
		if status.CanClaimReferral {
			if round == nil {
				return notPossible("claim", ReasonNoRound), nil
			}
			// Referral accrual is round-agnostic on the ledger and the claim
			// debits whichever vault is passed. A settled wallet holds no
			// round attachment to point at, so the current round's vault is
			// the one live vault left to debit.
			op, err := c.builder.ClaimReferral(round.Round, wallet)
			if err != nil {
				return Plan{}, err
			}
			return possible(op), nil
		}
		return notPossible("claim", ReasonNothingToClaim), nil

	case game.StatusStale:
		var ops []Operation
		if status.CanClaim {
			op, err := c.builder.Claim(status.StaleRound, wallet)
			if err != nil {
				return Plan{}, err
			}
			ops = append(ops, op)
		}
		if status.CanClaimReferral {
			op, err := c.builder.ClaimReferral(status.StaleRound, wallet)
			if err != nil {
				return Plan{}, err
			}
			ops = append(ops, op)
		}
		if len(ops) == 0 {
			return notPossible("claim", ReasonNothingToClaim), nil
		}
		return possible(ops...), nil

	case game.StatusCurrent:
		if status.Phase != game.PhaseEnded && status.Phase != game.PhaseClaiming {
			return notPossible("claim", ReasonRoundStillActive), nil
		}
		var ops []Operation
		if status.CanClaim {
			op, err := c.builder.Claim(round.Round, wallet)
			if err != nil {
				return Plan{}, err
			}
			ops = append(ops, op)
		}
		if status.CanClaimReferral {
			op, err := c.builder.ClaimReferral(round.Round, wallet)
			if err != nil {
				return Plan{}, err
			}
			ops = append(ops, op)
		}
		if len(ops) == 0 {
			return notPossible("claim", ReasonNothingToClaim), nil
		}
		return possible(ops...), nil
	}
	return notPossible("claim", ReasonNothingToClaim), nil
}

// ComposeStartRound plans the permissionless rollover from the observed
// round to its successor. It is possible once the round's timer has expired
// and either the winner has settled or the round saw no purchases at all.
func (c *Composer) ComposeStartRound(round *game.RoundState, payer solana.PublicKey, now time.Time) (Plan, error) {
	if round == nil {
		return notPossible("start_round", ReasonNoRound), nil
	}
	if round.Active && now.Unix() < round.TimerEnd {
		return notPossible("start_round", ReasonRoundStillActive), nil
	}
	if !round.WinnerClaimed && round.TotalKeys > 0 {
		return notPossible("start_round", ReasonWinnerNotClaimed), nil
	}
	op, err := c.builder.StartNextRound(round.Round, payer)
	if err != nil {
		return Plan{}, err
	}
	return possible(op), nil
}
