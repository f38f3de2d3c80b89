package domain

// Direction indicates which side of the market a trade is on.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Market identifies the exchange market a symbol trades on.
// Lot rounding rules depend on it: US allows whole shares,
// CN requires multiples of 100.
type Market string

const (
	MarketUS Market = "US"
	MarketCN Market = "CN"
)

// LotSize returns the minimum share increment for the market.
func (m Market) LotSize() int64 {
	if m == MarketCN {
		return 100
	}
	return 1
}

// TradeStatus tracks the trade lifecycle.
type TradeStatus string

const (
	StatusPlanned TradeStatus = "PLANNED"
	StatusActive  TradeStatus = "ACTIVE"
	StatusClosed  TradeStatus = "CLOSED"
)

// Contract is an individual execution lot within a trade. Staged entries
// produce multiple contracts, each with its own entry price and an
// optional stop override.
type Contract struct {
	ContractID   string   // deterministic hash
	EntryPrice   float64  // fill price for this lot
	Shares       int64    // share count, CN market requires multiples of 100
	ContractStop *float64 // per-lot stop override (nullable, falls back to trade stop)
	AddedAt      int64    // Unix timestamp in milliseconds
}

// EffectiveStop returns the stop that applies to this contract.
func (c *Contract) EffectiveStop(tradeStop float64) float64 {
	if c.ContractStop != nil {
		return *c.ContractStop
	}
	return tradeStop
}

// Trade is a journaled position: planned or executed entries with a stop,
// an optional target, and derived sizing fields.
// Corresponds to the trades table in PostgreSQL.
type Trade struct {
	TradeID   string // PRIMARY KEY, deterministic hash
	UserID    string // owning user (or guest scope)
	Symbol    string
	Direction Direction
	Market    Market

	Entry  float64  // planned entry price
	Stop   float64  // trade-level stop, loss side of entry
	Target *float64 // profit target (nullable)

	// Derived from contracts; recomputed on every mutation.
	PositionSize int64   // total shares across contracts
	RiskAmount   float64 // dollars lost if every contract stops out

	Contracts []Contract
	Status    TradeStatus
	Notes     string

	CreatedAt int64 // Unix timestamp in milliseconds
	UpdatedAt int64

	// Close details, set when Status transitions to CLOSED.
	ClosedAt    *int64
	ExitPrice   *float64
	RealizedPnL *float64 // signed dollars
	RealizedR   *float64 // realized R-multiple vs. planned risk
}

// WeightedEntry returns the share-weighted average entry price across
// contracts, or the planned entry if nothing has been filled.
func (t *Trade) WeightedEntry() float64 {
	var shares int64
	var notional float64
	for i := range t.Contracts {
		c := &t.Contracts[i]
		shares += c.Shares
		notional += c.EntryPrice * float64(c.Shares)
	}
	if shares == 0 {
		return t.Entry
	}
	return notional / float64(shares)
}

// TotalShares returns the share count summed over contracts.
func (t *Trade) TotalShares() int64 {
	var shares int64
	for i := range t.Contracts {
		shares += t.Contracts[i].Shares
	}
	return shares
}
