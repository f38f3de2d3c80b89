// Package quotes fetches market data from public feeds: Stooq and Alpha
// Vantage for US symbols, Tencent for CN symbols. A market-aware failover
// chain picks the provider, and results are memoized with a TTL.
package quotes

import (
	"context"
	"errors"

	"trade-journal/internal/domain"
)

var (
	// ErrSymbolNotFound is returned when the feed has no data for the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrUnsupportedMarket is returned when no provider serves the market.
	ErrUnsupportedMarket = errors.New("market not supported")
)

// Provider is a single quote feed.
type Provider interface {
	// Name identifies the feed in logs and in Quote.Source.
	Name() string

	// Quote fetches the current quote for a symbol.
	// Returns ErrSymbolNotFound when the feed has no data for it.
	Quote(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error)
}

// CandleProvider is a feed that serves daily OHLCV history.
type CandleProvider interface {
	Name() string

	// Candles fetches daily history, oldest first.
	Candles(ctx context.Context, symbol string, market domain.Market) ([]domain.Candle, error)
}
