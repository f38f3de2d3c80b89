package risk

import (
	"errors"
	"math"
	"testing"

	"trade-journal/internal/domain"
)

func TestContractRisk_UsesTradeStopByDefault(t *testing.T) {
	c := &domain.Contract{EntryPrice: 50, Shares: 100}
	// Long, trade stop 48 → $2/share * 100 = $200.
	risk := ContractRisk(domain.DirectionLong, c, 48)
	if risk != 200 {
		t.Errorf("expected risk 200, got %f", risk)
	}
}

func TestContractRisk_OverrideWins(t *testing.T) {
	c := &domain.Contract{EntryPrice: 50, Shares: 100, ContractStop: ptr(49.0)}
	// Override 49 beats trade stop 48 → $1/share * 100 = $100.
	risk := ContractRisk(domain.DirectionLong, c, 48)
	if risk != 100 {
		t.Errorf("expected risk 100, got %f", risk)
	}
}

func TestContractRisk_BreakEvenStopIsZeroRisk(t *testing.T) {
	// Stop moved above entry on a long: no dollars at risk anymore.
	c := &domain.Contract{EntryPrice: 50, Shares: 100, ContractStop: ptr(52.0)}
	risk := ContractRisk(domain.DirectionLong, c, 48)
	if risk != 0 {
		t.Errorf("expected 0 risk for stop beyond entry, got %f", risk)
	}
}

func TestContractRisk_Short(t *testing.T) {
	// Short entered at 40, stop 42 → $2/share * 50 = $100.
	c := &domain.Contract{EntryPrice: 40, Shares: 50}
	risk := ContractRisk(domain.DirectionShort, c, 42)
	if risk != 100 {
		t.Errorf("expected risk 100, got %f", risk)
	}
}

func TestSummarize_WeightedLevels(t *testing.T) {
	// Two lots: 100 @ 50 and 100 @ 52, trade stop 48, second lot stop 50.
	trade := &domain.Trade{
		Direction: domain.DirectionLong,
		Market:    domain.MarketUS,
		Entry:     50,
		Stop:      48,
		Target:    ptr(56.0),
		Contracts: []domain.Contract{
			{ContractID: "c1", EntryPrice: 50, Shares: 100},
			{ContractID: "c2", EntryPrice: 52, Shares: 100, ContractStop: ptr(50.0)},
		},
	}

	sum, err := Summarize(trade)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if sum.TotalShares != 200 {
		t.Errorf("expected 200 shares, got %d", sum.TotalShares)
	}
	// Weighted entry = (50*100 + 52*100) / 200 = 51.
	if sum.WeightedEntry != 51 {
		t.Errorf("expected weighted entry 51, got %f", sum.WeightedEntry)
	}
	// Weighted stop = (48*100 + 50*100) / 200 = 49.
	if sum.WeightedStop != 49 {
		t.Errorf("expected weighted stop 49, got %f", sum.WeightedStop)
	}
	// Risk = 100*(50-48) + 100*(52-50) = 400.
	if sum.TotalRisk != 400 {
		t.Errorf("expected total risk 400, got %f", sum.TotalRisk)
	}
	// R:R = (56-51)/(51-49) = 2.5.
	if sum.RewardRisk == nil || math.Abs(*sum.RewardRisk-2.5) > 1e-9 {
		t.Errorf("expected R:R 2.5, got %v", sum.RewardRisk)
	}
}

func TestSummarize_NoContracts(t *testing.T) {
	trade := &domain.Trade{
		Direction: domain.DirectionLong,
		Entry:     50,
		Stop:      48,
	}
	_, err := Summarize(trade)
	if !errors.Is(err, ErrNoContracts) {
		t.Errorf("expected ErrNoContracts, got %v", err)
	}
}

func TestRealizedPnL(t *testing.T) {
	// Long 100 shares from 50 closed at 55 → +500.
	if pnl := RealizedPnL(domain.DirectionLong, 50, 55, 100); pnl != 500 {
		t.Errorf("expected +500, got %f", pnl)
	}
	// Long closed below entry → negative.
	if pnl := RealizedPnL(domain.DirectionLong, 50, 47, 100); pnl != -300 {
		t.Errorf("expected -300, got %f", pnl)
	}
	// Short 50 shares from 40 closed at 36 → +200.
	if pnl := RealizedPnL(domain.DirectionShort, 40, 36, 50); pnl != 200 {
		t.Errorf("expected +200, got %f", pnl)
	}
}

func TestRealizedR(t *testing.T) {
	if r := RealizedR(300, 100); r != 3 {
		t.Errorf("expected 3R, got %f", r)
	}
	if r := RealizedR(-100, 100); r != -1 {
		t.Errorf("expected -1R, got %f", r)
	}
	// Zero planned risk never divides.
	if r := RealizedR(300, 0); r != 0 {
		t.Errorf("expected 0 for zero risk, got %f", r)
	}
}
