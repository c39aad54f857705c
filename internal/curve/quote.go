package curve

// SplitConfig carries the basis-point parameters of a round's immutable fee
// snapshot, in the order the ledger applies them.
type SplitConfig struct {
	ProtocolFeeBps   uint64
	ReferralBonusBps uint64
	WinnerBps        uint64
	DividendBps      uint64
	CarryBps         uint64
}

// Quote is the full cost/fee breakdown for a prospective purchase. It is
// ephemeral: always recomputed from current round state, never persisted.
type Quote struct {
	KeysToBuy       uint64
	TotalCost       uint64
	ProtocolFee     uint64
	AfterFee        uint64
	ReferralBonus   uint64
	PotContribution uint64
	WinnerShare     uint64
	DividendShare   uint64
	CarryShare      uint64
}

// Breakdown decomposes a purchase cost exactly as the ledger does, each step
// feeding the next: protocol fee off the top, referral bonus from the
// remainder (only when a referrer exists), then three independently floored
// pot splits. The three shares are not guaranteed to sum to the pot
// contribution; the dust is left where the ledger leaves it, so no fix-up
// happens here.
func Breakdown(totalKeysSold, keysToBuy uint64, basePrice, increment uint64, cfg SplitConfig, hasReferrer bool) (Quote, error) {
	cost, err := Cost(totalKeysSold, keysToBuy, basePrice, increment)
	if err != nil {
		return Quote{}, err
	}

	protocolFee, err := SplitBps(cost, cfg.ProtocolFeeBps)
	if err != nil {
		return Quote{}, err
	}
	afterFee := cost - protocolFee

	var referralBonus uint64
	if hasReferrer {
		referralBonus, err = SplitBps(afterFee, cfg.ReferralBonusBps)
		if err != nil {
			return Quote{}, err
		}
	}
	potContribution := afterFee - referralBonus

	winnerShare, err := SplitBps(potContribution, cfg.WinnerBps)
	if err != nil {
		return Quote{}, err
	}
	dividendShare, err := SplitBps(potContribution, cfg.DividendBps)
	if err != nil {
		return Quote{}, err
	}
	carryShare, err := SplitBps(potContribution, cfg.CarryBps)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		KeysToBuy:       keysToBuy,
		TotalCost:       cost,
		ProtocolFee:     protocolFee,
		AfterFee:        afterFee,
		ReferralBonus:   referralBonus,
		PotContribution: potContribution,
		WinnerShare:     winnerShare,
		DividendShare:   dividendShare,
		CarryShare:      carryShare,
	}, nil
}
