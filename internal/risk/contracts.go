package risk

import (
	"errors"
	"math"

	"trade-journal/internal/domain"
)

// ErrNoContracts is returned when summarizing a trade with no filled lots.
var ErrNoContracts = errors.New("trade has no contracts")

// PositionSummary aggregates sizing across a trade's contracts.
type PositionSummary struct {
	TotalShares   int64
	WeightedEntry float64  // share-weighted average entry
	WeightedStop  float64  // share-weighted effective stop
	TotalRisk     float64  // sum of per-contract dollar risk
	RewardRisk    *float64 // vs. weighted entry/stop, nil without target
}

// ContractRisk returns the dollars lost if the contract's effective stop
// is hit. A stop already beyond the entry in the trade's favor (moved to
// break-even or better) contributes zero risk.
func ContractRisk(direction domain.Direction, c *domain.Contract, tradeStop float64) float64 {
	stop := c.EffectiveStop(tradeStop)
	var perShare float64
	switch direction {
	case domain.DirectionLong:
		perShare = c.EntryPrice - stop
	case domain.DirectionShort:
		perShare = stop - c.EntryPrice
	}
	if perShare <= 0 {
		return 0
	}
	return perShare * float64(c.Shares)
}

// Summarize computes aggregate sizing for a multi-contract trade:
// total shares, weighted entry, weighted effective stop, total dollar
// risk, and reward/risk against the weighted levels.
func Summarize(t *domain.Trade) (*PositionSummary, error) {
	if len(t.Contracts) == 0 {
		return nil, ErrNoContracts
	}

	var shares int64
	var entryNotional, stopNotional, totalRisk float64
	for i := range t.Contracts {
		c := &t.Contracts[i]
		shares += c.Shares
		entryNotional += c.EntryPrice * float64(c.Shares)
		stopNotional += c.EffectiveStop(t.Stop) * float64(c.Shares)
		totalRisk += ContractRisk(t.Direction, c, t.Stop)
	}
	if shares == 0 {
		return nil, ErrNoContracts
	}

	sum := &PositionSummary{
		TotalShares:   shares,
		WeightedEntry: entryNotional / float64(shares),
		WeightedStop:  stopNotional / float64(shares),
		TotalRisk:     totalRisk,
	}
	if t.Target != nil {
		riskDist := math.Abs(sum.WeightedEntry - sum.WeightedStop)
		if riskDist > 0 {
			rr := math.Abs(*t.Target-sum.WeightedEntry) / riskDist
			sum.RewardRisk = &rr
		}
	}
	return sum, nil
}

// RealizedPnL returns the signed dollar outcome of closing shares entered
// at avgEntry at the given exit price.
func RealizedPnL(direction domain.Direction, avgEntry, exit float64, shares int64) float64 {
	diff := exit - avgEntry
	if direction == domain.DirectionShort {
		diff = -diff
	}
	return diff * float64(shares)
}

// RealizedR expresses a realized PnL as a multiple of the planned risk.
// Zero risk yields zero rather than infinity.
func RealizedR(pnl, riskAmount float64) float64 {
	if riskAmount <= 0 {
		return 0
	}
	return pnl / riskAmount
}
