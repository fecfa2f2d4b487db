// Package engine implements the parimutuel settlement core: the odds and
// payout math, the team registry, the market lifecycle state machine, the
// per-bettor stake ledger, and the fee accumulator, behind a single facade
// that serializes every public operation.
package engine

import (
	"math"
	"math/big"

	"betpool/internal/domain"
)

const (
	// OddsPrecision is the fixed-point scale for fractional odds:
	// 10000 = 1.0x.
	OddsPrecision = 10_000

	// FeePercent is the performance fee taken from the total pool at
	// resolution, in whole percent.
	FeePercent = 2

	// InfiniteOdds is reported for an outcome nobody has staked on: no one
	// can win on a stake of zero.
	InfiniteOdds = math.MaxUint64
)

// Fee returns the performance fee for a pool of totalStake base units,
// truncating toward zero. The product is taken in big.Int so large pools
// cannot overflow the intermediate.
func Fee(totalStake int64) int64 {
	if totalStake <= 0 {
		return 0
	}
	f := new(big.Int).SetInt64(totalStake)
	f.Mul(f, big.NewInt(FeePercent))
	f.Quo(f, big.NewInt(100))
	return f.Int64()
}

// CalculateOdds computes fractional odds per outcome from the aggregate
// stakes. With an empty pool every outcome pays neutral 1.0x; an outcome
// with zero stake reports InfiniteOdds.
func CalculateOdds(totalStake, homeStake, awayStake, drawStake int64) domain.Odds {
	if totalStake == 0 {
		return domain.Odds{Home: OddsPrecision, Away: OddsPrecision, Draw: OddsPrecision}
	}
	prizePool := totalStake - Fee(totalStake)
	return domain.Odds{
		Home: outcomeOdds(prizePool, homeStake),
		Away: outcomeOdds(prizePool, awayStake),
		Draw: outcomeOdds(prizePool, drawStake),
	}
}

// outcomeOdds computes prizePool * OddsPrecision / outcomeStake in big.Int.
// The quotient can exceed 64 bits only when outcomeStake is a dust amount
// against an enormous pool; it is clamped to InfiniteOdds in that case.
func outcomeOdds(prizePool, outcomeStake int64) uint64 {
	if outcomeStake <= 0 {
		return InfiniteOdds
	}
	o := new(big.Int).SetInt64(prizePool)
	o.Mul(o, big.NewInt(OddsPrecision))
	o.Quo(o, big.NewInt(outcomeStake))
	if !o.IsUint64() {
		return InfiniteOdds
	}
	return o.Uint64()
}

// CalculateWinnings returns the parimutuel payout for a winning stake of
// bettorStake out of winningOutcomeStake, from a pool of totalStake:
//
//	payout = bettorStake * (totalStake - fee) / winningOutcomeStake
//
// Division truncates; the lost remainder is dust that stays in the pool
// unclaimed rather than being swept into the fee total. A zero
// winningOutcomeStake yields zero (a bettor holding a winning bet makes it
// nonzero by construction).
func CalculateWinnings(totalStake, winningOutcomeStake, bettorStake int64) int64 {
	if winningOutcomeStake <= 0 || bettorStake <= 0 {
		return 0
	}
	p := new(big.Int).SetInt64(bettorStake)
	p.Mul(p, big.NewInt(totalStake-Fee(totalStake)))
	p.Quo(p, big.NewInt(winningOutcomeStake))
	return p.Int64()
}
