package types

import (
	"errors"
	"fmt"
)

// LedgerCode identifies one of the program's coded rejections. The numeric
// values are the Anchor custom error codes (6000 + declaration index); they
// must stay in the declaration order of the on-chain program.
type LedgerCode uint32

const (
	CodeRoundNotActive LedgerCode = 6000 + iota
	CodeRoundStillActive
	CodeTimerExpired
	CodeTimerNotExpired
	CodeInsufficientFunds
	CodeNoKeysToBuy
	CodeNothingToClaim
	CodeNotWinner
	CodeWinnerAlreadyClaimed
	CodeWinnerNotClaimed
	CodeCannotReferSelf
	CodeReferrerMismatch
	CodeReferrerNotRegistered
	CodeNoReferralEarnings
	CodeUnauthorized
	CodeInvalidConfig
	CodeOverflow
	CodeAlreadyRegistered
	CodeMustSettlePriorRound
	CodeNotInRound
)

var ledgerCodeMessages = map[LedgerCode]string{
	CodeRoundNotActive:        "game round is not active",
	CodeRoundStillActive:      "game round is still active",
	CodeTimerExpired:          "timer has expired",
	CodeTimerNotExpired:       "timer has not expired yet",
	CodeInsufficientFunds:     "insufficient funds for purchase",
	CodeNoKeysToBuy:           "must buy at least one key",
	CodeNothingToClaim:        "nothing to claim",
	CodeNotWinner:             "only the last buyer can claim the winner prize",
	CodeWinnerAlreadyClaimed:  "winner prize has already been claimed",
	CodeWinnerNotClaimed:      "winner has not claimed prize yet",
	CodeCannotReferSelf:       "cannot refer yourself",
	CodeReferrerMismatch:      "referrer does not match stored referrer",
	CodeReferrerNotRegistered: "referrer is not registered this round",
	CodeNoReferralEarnings:    "no referral earnings to claim",
	CodeUnauthorized:          "unauthorized: admin only",
	CodeInvalidConfig:         "invalid configuration parameters",
	CodeOverflow:              "arithmetic overflow",
	CodeAlreadyRegistered:     "player is already registered in this round",
	CodeMustSettlePriorRound:  "must claim previous round before joining a new one",
	CodeNotInRound:            "player is not in this round",
}

// LedgerError is a domain-rule violation reported by the ledger. This engine
// only maps the coded rejection to a readable descriptor; it never recovers
// from one (retry policy belongs to the submission layer).
type LedgerError struct {
	Code    LedgerCode
	Message string
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger rejection %d: %s", uint32(e.Code), e.Message)
}

// MapLedgerError converts a raw custom-error code, as surfaced in a failed
// transaction's error payload, into a typed LedgerError. Unknown codes are
// preserved so callers still see the number.
func MapLedgerError(code uint32) *LedgerError {
	msg, ok := ledgerCodeMessages[LedgerCode(code)]
	if !ok {
		msg = "unknown ledger error"
	}
	return &LedgerError{Code: LedgerCode(code), Message: msg}
}

// IsLedgerCode reports whether err is a LedgerError carrying the given code.
func IsLedgerCode(err error, code LedgerCode) bool {
	var le *LedgerError
	return errors.As(err, &le) && le.Code == code
}

// ErrAccountNotFound marks a read of a derived address that has no account
// allocated yet. Callers use it to distinguish "unregistered" from a
// transient read failure, so it must never be wrapped into one.
var ErrAccountNotFound = errors.New("account not found on ledger")

// ErrOverflow is returned by local mirror arithmetic when a result would not
// fit u64, matching the program's checked math.
var ErrOverflow = errors.New("arithmetic overflow")

// ErrNoKeysToBuy mirrors the program's rejection of a zero-key purchase.
var ErrNoKeysToBuy = errors.New("must buy at least one key")

// ErrUnknownEvent marks an event payload whose discriminator this engine
// does not recognize. Transactions can carry events from other programs, so
// callers skip these rather than fail.
var ErrUnknownEvent = errors.New("unknown event discriminator")
