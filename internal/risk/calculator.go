// Package risk implements the position-sizing arithmetic: it converts
// portfolio capital, a risk percentage and price levels into share counts,
// dollar risk and reward/risk ratios, with market-specific lot rounding.
package risk

import (
	"math"

	"trade-journal/internal/domain"
)

// Input describes a single position-size calculation.
type Input struct {
	Capital   float64
	RiskPct   float64 // percent of capital risked, e.g. 1.0 for 1%
	Entry     float64
	Stop      float64
	Target    *float64 // optional, enables reward/risk
	Direction domain.Direction
	Market    domain.Market
}

// Result is the computed sizing for an Input.
type Result struct {
	Shares       int64    // rounded down to the market lot size
	RiskBudget   float64  // capital * riskPct / 100
	ActualRisk   float64  // shares * risk per share, after rounding
	RiskPerShare float64  // |entry - stop|
	PositionCost float64  // shares * entry
	RewardRisk   *float64 // nil when no target given
}

// RiskAmount returns the dollar risk budget for the given capital and
// risk percentage.
func RiskAmount(capital, riskPct float64) float64 {
	return capital * riskPct / 100
}

// RoundToLot floors a raw share count to the market's lot size.
// CN results below one lot floor to zero: a partial lot cannot be executed.
func RoundToLot(shares float64, market domain.Market) int64 {
	if shares <= 0 || math.IsNaN(shares) || math.IsInf(shares, 0) {
		return 0
	}
	lot := market.LotSize()
	whole := int64(math.Floor(shares))
	return whole - whole%lot
}

// RewardRisk returns reward distance divided by risk distance.
// Sides must already be validated: stop on the loss side, target on the
// profit side.
func RewardRisk(entry, stop, target float64) float64 {
	riskDist := math.Abs(entry - stop)
	if riskDist == 0 {
		return 0
	}
	return math.Abs(target-entry) / riskDist
}

// Calculate computes position size and dollar risk for a planned trade.
func Calculate(in Input) (*Result, error) {
	if in.Capital <= 0 || math.IsNaN(in.Capital) || math.IsInf(in.Capital, 0) {
		return nil, domain.ErrInvalidCapital
	}
	if in.RiskPct <= 0 || in.RiskPct > 100 {
		return nil, domain.ErrInvalidRiskPct
	}
	if !ValidPrice(in.Entry) || !ValidPrice(in.Stop) {
		return nil, domain.ErrInvalidPrice
	}
	if in.Market != domain.MarketUS && in.Market != domain.MarketCN {
		return nil, domain.ErrInvalidMarket
	}
	if err := domain.ValidateStopSide(in.Direction, in.Entry, in.Stop); err != nil {
		return nil, err
	}
	if in.Target != nil {
		if !ValidPrice(*in.Target) {
			return nil, domain.ErrInvalidPrice
		}
		if err := domain.ValidateTargetSide(in.Direction, in.Entry, *in.Target); err != nil {
			return nil, err
		}
	}

	budget := RiskAmount(in.Capital, in.RiskPct)
	perShare := math.Abs(in.Entry - in.Stop)
	shares := RoundToLot(budget/perShare, in.Market)

	res := &Result{
		Shares:       shares,
		RiskBudget:   budget,
		ActualRisk:   float64(shares) * perShare,
		RiskPerShare: perShare,
		PositionCost: float64(shares) * in.Entry,
	}
	if in.Target != nil {
		rr := RewardRisk(in.Entry, in.Stop, *in.Target)
		res.RewardRisk = &rr
	}
	return res, nil
}

// ValidPrice reports whether p is a positive finite price.
func ValidPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
