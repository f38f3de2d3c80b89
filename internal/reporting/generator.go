package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// Generator produces performance reports from stored outcomes.
type Generator struct {
	outcomes storage.OutcomeStore
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a report generator.
func NewGenerator(outcomes storage.OutcomeStore) *Generator {
	return &Generator{
		outcomes: outcomes,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Generate builds the user's performance report from all closed trades.
// A user with no closed trades gets an empty, valid report.
func (g *Generator) Generate(ctx context.Context, userID string) (*Report, error) {
	rows, err := g.outcomes.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load outcomes: %w", err)
	}

	report := &Report{
		GeneratedAt: g.now(),
		UserID:      userID,
	}
	if len(rows) == 0 {
		return report, nil
	}

	// Store order is closed_at ASC; the order-dependent metrics rely on it.
	report.Summary = computeSummary(rows)
	report.PerSymbol = computePerSymbol(rows)
	return report, nil
}

func computeSummary(rows []*domain.TradeOutcome) Summary {
	s := Summary{
		TotalTrades:   len(rows),
		FirstClosedAt: rows[0].ClosedAt,
		LastClosedAt:  rows[len(rows)-1].ClosedAt,
	}

	rValues := make([]float64, 0, len(rows))
	var winRSum, lossRSum float64
	var grossWin, grossLoss float64
	for _, o := range rows {
		s.NetPnL += o.RealizedPnL
		s.TotalR += o.RealizedR
		rValues = append(rValues, o.RealizedR)

		if o.RealizedPnL >= 0 {
			s.Wins++
			winRSum += o.RealizedR
			grossWin += o.RealizedPnL
		} else {
			s.Losses++
			lossRSum += o.RealizedR
			grossLoss += -o.RealizedPnL
		}
	}

	s.WinRate = float64(s.Wins) / float64(s.TotalTrades)
	s.ExpectancyR = computeMean(rValues)
	if s.Wins > 0 {
		s.AvgWinR = winRSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLossR = lossRSum / float64(s.Losses)
	}
	if grossLoss > 0 {
		s.ProfitFactor = grossWin / grossLoss
	}

	sortedR := make([]float64, len(rValues))
	copy(sortedR, rValues)
	sort.Float64s(sortedR)
	s.MedianR = computePercentile(sortedR, 0.50)
	s.P10R = computePercentile(sortedR, 0.10)
	s.P90R = computePercentile(sortedR, 0.90)

	s.MaxDrawdownR = computeMaxDrawdown(rValues)
	s.MaxConsecutiveLosses = computeMaxConsecutiveLosses(rows)
	return s
}

func computePerSymbol(rows []*domain.TradeOutcome) []SymbolMetricRow {
	bySymbol := make(map[string]*SymbolMetricRow)
	for _, o := range rows {
		row, ok := bySymbol[o.Symbol]
		if !ok {
			row = &SymbolMetricRow{Symbol: o.Symbol, Market: o.Market}
			bySymbol[o.Symbol] = row
		}
		row.Trades++
		row.NetPnL += o.RealizedPnL
		row.TotalR += o.RealizedR
		if o.RealizedPnL >= 0 {
			row.Wins++
		}
	}

	result := make([]SymbolMetricRow, 0, len(bySymbol))
	for _, row := range bySymbol {
		row.WinRate = float64(row.Wins) / float64(row.Trades)
		row.AvgR = row.TotalR / float64(row.Trades)
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result
}
