package reporting

import (
	"time"

	"trade-journal/internal/domain"
)

// Report is a per-user performance summary over closed trades.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	UserID      string

	Summary Summary

	// Per-symbol breakdown, sorted by symbol.
	PerSymbol []SymbolMetricRow
}

// Summary aggregates every closed trade of the user.
// R-denominated figures express outcomes as multiples of planned risk.
type Summary struct {
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64

	NetPnL      float64 // signed dollars
	TotalR      float64
	ExpectancyR float64 // mean realized R per trade
	AvgWinR     float64
	AvgLossR    float64 // negative
	MedianR     float64
	P10R        float64
	P90R        float64

	// ProfitFactor is gross dollar wins over gross dollar losses;
	// zero when there are no losses.
	ProfitFactor float64

	// Order-dependent, computed over the close sequence.
	MaxDrawdownR         float64
	MaxConsecutiveLosses int

	FirstClosedAt int64 // Unix ms
	LastClosedAt  int64 // Unix ms
}

// SymbolMetricRow is one symbol's aggregate.
type SymbolMetricRow struct {
	Symbol  string
	Market  domain.Market
	Trades  int
	Wins    int
	WinRate float64
	NetPnL  float64
	TotalR  float64
	AvgR    float64
}
