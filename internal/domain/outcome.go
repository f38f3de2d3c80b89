package domain

// Outcome class constants.
const (
	OutcomeClassWin  = "WIN"
	OutcomeClassLoss = "LOSS"
)

// TradeOutcome is an immutable analytics row written when a trade closes.
// Corresponds to the trade_outcomes table in ClickHouse.
type TradeOutcome struct {
	TradeID   string
	UserID    string
	Symbol    string
	Market    Market
	Direction Direction

	PositionSize int64
	EntryAvg     float64 // share-weighted entry across contracts
	ExitPrice    float64
	RiskAmount   float64 // planned dollar risk at close time

	RealizedPnL  float64 // signed dollars
	RealizedR    float64 // RealizedPnL / RiskAmount
	OutcomeClass string  // "WIN" | "LOSS"

	OpenedAt       int64 // Unix timestamp in milliseconds
	ClosedAt       int64
	HoldDurationMs int64
}
