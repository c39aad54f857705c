package types

type EventTypes string

func (e EventTypes) String() string {
	return string(e)
}

// Event names as declared by the on-chain program. The reconciler derives
// each event's 8-byte discriminator from these names, so they must match the
// program's declarations exactly.
const (
	EventKeysPurchasedType        EventTypes = "KeysPurchased"
	EventReferralEarnedType       EventTypes = "ReferralEarned"
	EventGameUpdatedType          EventTypes = "GameUpdated"
	EventClaimedType              EventTypes = "Claimed"
	EventReferralClaimedType      EventTypes = "ReferralClaimed"
	EventRoundStartedType         EventTypes = "RoundStarted"
	EventProtocolFeeCollectedType EventTypes = "ProtocolFeeCollected"
	EventRoundConcludedType       EventTypes = "RoundConcluded"
)
