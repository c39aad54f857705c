// Package curve mirrors the ledger program's integer arithmetic for key
// pricing and revenue splits. Every function must produce bit-for-bit the
// same result as the on-chain math: intermediates are computed exactly
// (big.Int stands in for the program's u128) and truncation happens only
// where the program truncates.
package curve

import (
	"math/big"

	"github.com/crocodiledundalk/fomolt3d/internal/types"
)

const bpsDenominator = 10_000

// MaxKeysCeiling bounds the binary search in MaxKeysForBudget. Generous by
// orders of magnitude over any plausible round.
const MaxKeysCeiling = 10_000_000

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

func fitsU64(v *big.Int) (uint64, error) {
	if v.Sign() < 0 || v.Cmp(maxUint64) > 0 {
		return 0, types.ErrOverflow
	}
	return v.Uint64(), nil
}

// Cost returns the total price of buying keysToBuy keys when totalKeysSold
// keys have already been sold, using the arithmetic-series closed form
//
//	cost = n*base + inc * n*(2k+n-1)/2
//
// with exact intermediates and a single truncating division. A zero-key
// purchase is rejected to match the program, which refuses it before the
// math runs.
func Cost(totalKeysSold, keysToBuy, basePrice, increment uint64) (uint64, error) {
	if keysToBuy == 0 {
		return 0, types.ErrNoKeysToBuy
	}

	n := new(big.Int).SetUint64(keysToBuy)
	k := new(big.Int).SetUint64(totalKeysSold)

	baseCost := new(big.Int).Mul(n, new(big.Int).SetUint64(basePrice))

	// n * (2k + n - 1)
	seriesNum := new(big.Int).Lsh(k, 1)
	seriesNum.Add(seriesNum, n)
	seriesNum.Sub(seriesNum, big.NewInt(1))
	seriesNum.Mul(seriesNum, n)

	seriesCost := new(big.Int).Mul(seriesNum, new(big.Int).SetUint64(increment))
	seriesCost.Rsh(seriesCost, 1)

	return fitsU64(baseCost.Add(baseCost, seriesCost))
}

// NextKeyPrice is the price of the single next key at the given supply.
func NextKeyPrice(totalKeysSold, basePrice, increment uint64) (uint64, error) {
	return Cost(totalKeysSold, 1, basePrice, increment)
}

// SplitBps computes floor(amount * bps / 10000) with an exact intermediate
// product, matching the program's u128 widening.
func SplitBps(amount, bps uint64) (uint64, error) {
	v := new(big.Int).SetUint64(amount)
	v.Mul(v, new(big.Int).SetUint64(bps))
	v.Quo(v, big.NewInt(bpsDenominator))
	return fitsU64(v)
}

// DividendShare is a holder's proportional cut of the dividend pool:
// floor(playerKeys * pool / totalKeys). Zero keys on either side yield zero,
// as on the ledger.
func DividendShare(playerKeys, totalDividendPool, totalKeys uint64) (uint64, error) {
	if totalKeys == 0 || playerKeys == 0 {
		return 0, nil
	}
	v := new(big.Int).SetUint64(playerKeys)
	v.Mul(v, new(big.Int).SetUint64(totalDividendPool))
	v.Quo(v, new(big.Int).SetUint64(totalKeys))
	return fitsU64(v)
}

// TimerExtension returns the post-purchase timer end: now+extension, never
// below the current end and capped at roundStart+maxTimer.
func TimerExtension(now, extensionSecs, currentTimerEnd, roundStart, maxTimerSecs int64) int64 {
	newTimer := now + extensionSecs
	maxTimer := roundStart + maxTimerSecs
	if newTimer < currentTimerEnd {
		newTimer = currentTimerEnd
	}
	if newTimer > maxTimer {
		newTimer = maxTimer
	}
	return newTimer
}

// ValidateBpsSum checks that the three pot-split shares cover the pot
// exactly. Protocol fee and referral bonus are separate and not included.
func ValidateBpsSum(winnerBps, dividendBps, carryBps uint64) error {
	sum := new(big.Int).SetUint64(winnerBps)
	sum.Add(sum, new(big.Int).SetUint64(dividendBps))
	sum.Add(sum, new(big.Int).SetUint64(carryBps))
	if sum.Cmp(big.NewInt(bpsDenominator)) != 0 {
		return types.MapLedgerError(uint32(types.CodeInvalidConfig))
	}
	return nil
}

// MaxKeysForBudget finds the largest n with Cost(k, n) <= budget by integer
// binary search over the monotone cost function. Inverting the closed form
// algebraically would lose the program's truncation behavior, so it is
// never done here.
func MaxKeysForBudget(totalKeysSold, budget, basePrice, increment uint64) uint64 {
	lo, hi := uint64(0), uint64(MaxKeysCeiling)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		cost, err := Cost(totalKeysSold, mid, basePrice, increment)
		if err == nil && cost <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
