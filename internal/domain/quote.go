package domain

// Quote is a delayed snapshot price for a symbol.
type Quote struct {
	Symbol    string
	Market    Market
	Name      string // display name, resolved where the feed provides one
	Price     float64
	PrevClose float64
	ChangePct float64 // percent change vs previous close
	Currency  string
	AsOf      int64 // Unix timestamp in milliseconds
	Source    string
}

// Candle is a daily OHLCV bar for chart rendering.
type Candle struct {
	Date   string // YYYY-MM-DD
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
