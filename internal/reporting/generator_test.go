package reporting

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage/memory"
)

func outcome(tradeID, symbol string, pnl, r float64, closedAt int64) *domain.TradeOutcome {
	class := domain.OutcomeClassWin
	if pnl < 0 {
		class = domain.OutcomeClassLoss
	}
	return &domain.TradeOutcome{
		TradeID:      tradeID,
		UserID:       "user-1",
		Symbol:       symbol,
		Market:       domain.MarketUS,
		Direction:    domain.DirectionLong,
		PositionSize: 100,
		EntryAvg:     100,
		ExitPrice:    100 + pnl/100,
		RiskAmount:   250,
		RealizedPnL:  pnl,
		RealizedR:    r,
		OutcomeClass: class,
		OpenedAt:     closedAt - 3_600_000,
		ClosedAt:     closedAt,
	}
}

func setupTestData(t *testing.T) *memory.OutcomeStore {
	t.Helper()
	ctx := context.Background()
	store := memory.NewOutcomeStore()

	// Close sequence: win, loss, loss, win, win.
	rows := []*domain.TradeOutcome{
		outcome("t1", "AAPL", 500, 2.0, 1000),
		outcome("t2", "AAPL", -250, -1.0, 2000),
		outcome("t3", "MSFT", -125, -0.5, 3000),
		outcome("t4", "MSFT", 250, 1.0, 4000),
		outcome("t5", "AAPL", 125, 0.5, 5000),
	}
	for _, o := range rows {
		if err := store.Insert(ctx, o); err != nil {
			t.Fatalf("Insert outcome failed: %v", err)
		}
	}
	return store
}

func TestGenerateSummary(t *testing.T) {
	gen := NewGenerator(setupTestData(t))
	gen.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	report, err := gen.Generate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	s := report.Summary
	if s.TotalTrades != 5 || s.Wins != 3 || s.Losses != 2 {
		t.Errorf("counts mismatch: %d trades, %d wins, %d losses", s.TotalTrades, s.Wins, s.Losses)
	}
	if s.WinRate != 0.6 {
		t.Errorf("expected win rate 0.6, got %g", s.WinRate)
	}
	if s.NetPnL != 500 {
		t.Errorf("expected net pnl 500, got %g", s.NetPnL)
	}
	if s.TotalR != 2.0 {
		t.Errorf("expected total R 2.0, got %g", s.TotalR)
	}
	if math.Abs(s.ExpectancyR-0.4) > 1e-9 {
		t.Errorf("expected expectancy 0.4R, got %g", s.ExpectancyR)
	}
	// Wins: 2.0, 1.0, 0.5 → mean 3.5/3.
	if math.Abs(s.AvgWinR-3.5/3) > 1e-9 {
		t.Errorf("expected avg win %g, got %g", 3.5/3, s.AvgWinR)
	}
	// Losses: -1.0, -0.5 → mean -0.75.
	if s.AvgLossR != -0.75 {
		t.Errorf("expected avg loss -0.75, got %g", s.AvgLossR)
	}
	// Gross win 875 / gross loss 375.
	if math.Abs(s.ProfitFactor-875.0/375.0) > 1e-9 {
		t.Errorf("expected profit factor %g, got %g", 875.0/375.0, s.ProfitFactor)
	}
	// Peak after t1 is 2.0R; trough after t3 is 0.5R.
	if s.MaxDrawdownR != 1.5 {
		t.Errorf("expected max drawdown 1.5R, got %g", s.MaxDrawdownR)
	}
	if s.MaxConsecutiveLosses != 2 {
		t.Errorf("expected 2 consecutive losses, got %d", s.MaxConsecutiveLosses)
	}
	if s.FirstClosedAt != 1000 || s.LastClosedAt != 5000 {
		t.Errorf("date range mismatch: %d..%d", s.FirstClosedAt, s.LastClosedAt)
	}
}

func TestGeneratePerSymbol(t *testing.T) {
	gen := NewGenerator(setupTestData(t))

	report, err := gen.Generate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(report.PerSymbol) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(report.PerSymbol))
	}
	// Sorted by symbol.
	aapl, msft := report.PerSymbol[0], report.PerSymbol[1]
	if aapl.Symbol != "AAPL" || msft.Symbol != "MSFT" {
		t.Fatalf("symbols out of order: %s, %s", aapl.Symbol, msft.Symbol)
	}
	if aapl.Trades != 3 || aapl.Wins != 2 || aapl.NetPnL != 375 {
		t.Errorf("AAPL row mismatch: %+v", aapl)
	}
	if math.Abs(aapl.TotalR-1.5) > 1e-9 || math.Abs(aapl.AvgR-0.5) > 1e-9 {
		t.Errorf("AAPL R mismatch: total %g avg %g", aapl.TotalR, aapl.AvgR)
	}
	if msft.Trades != 2 || msft.Wins != 1 || msft.NetPnL != 125 {
		t.Errorf("MSFT row mismatch: %+v", msft)
	}
}

func TestGenerateEmpty(t *testing.T) {
	gen := NewGenerator(memory.NewOutcomeStore())

	report, err := gen.Generate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Summary.TotalTrades != 0 {
		t.Errorf("expected empty summary, got %d trades", report.Summary.TotalTrades)
	}
	if len(report.PerSymbol) != 0 {
		t.Errorf("expected no per-symbol rows, got %d", len(report.PerSymbol))
	}

	md := RenderMarkdown(report)
	if !strings.Contains(md, "No closed trades.") {
		t.Error("empty report markdown missing placeholder")
	}
}

func TestRenderMarkdown(t *testing.T) {
	gen := NewGenerator(setupTestData(t))
	report, err := gen.Generate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	md := RenderMarkdown(report)
	for _, want := range []string{
		"# Performance Report",
		"## Summary",
		"| Closed Trades | 5 |",
		"| Win Rate | 60.00% |",
		"## Per Symbol",
		"| AAPL |",
		"| MSFT |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	gen := NewGenerator(setupTestData(t))
	report, err := gen.Generate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	csv := RenderCSV(report.PerSymbol)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "symbol,market,trades,wins,win_rate,net_pnl,total_r,avg_r" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "AAPL,US,3,2,") {
		t.Errorf("unexpected AAPL row: %q", lines[1])
	}
}

func TestComputePercentile(t *testing.T) {
	sorted := []float64{-1, 0, 1, 2, 3}
	if got := computePercentile(sorted, 0.50); got != 1 {
		t.Errorf("median: expected 1, got %g", got)
	}
	if got := computePercentile(sorted, 0.10); math.Abs(got-(-0.6)) > 1e-9 {
		t.Errorf("p10: expected -0.6, got %g", got)
	}
	if got := computePercentile(nil, 0.5); got != 0 {
		t.Errorf("empty: expected 0, got %g", got)
	}
	if got := computePercentile([]float64{7}, 0.9); got != 7 {
		t.Errorf("single: expected 7, got %g", got)
	}
}
