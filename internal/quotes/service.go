package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"trade-journal/internal/domain"
	"trade-journal/internal/observability"
)

// Cache TTLs. Quotes go stale fast; daily candles are good for a day.
const (
	QuoteTTL  = 60 * time.Second
	CandleTTL = 24 * time.Hour
)

// Service resolves quotes and candles through per-market provider chains.
// The first provider that answers wins; the rest are failover. Results
// are memoized by symbol.
type Service struct {
	logger  *zap.Logger
	metrics *observability.Metrics

	providers map[domain.Market][]Provider
	candles   map[domain.Market][]CandleProvider

	quoteCache  *memoCache[*domain.Quote]
	candleCache *memoCache[[]domain.Candle]
}

// NewService creates an empty quote service; feeds are attached with
// Register and RegisterCandles. A nil metrics disables instrumentation.
func NewService(logger *zap.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		logger:      logger,
		metrics:     metrics,
		providers:   make(map[domain.Market][]Provider),
		candles:     make(map[domain.Market][]CandleProvider),
		quoteCache:  newMemoCache[*domain.Quote](QuoteTTL),
		candleCache: newMemoCache[[]domain.Candle](CandleTTL),
	}
}

// Register appends a quote provider to the market's failover chain.
func (s *Service) Register(market domain.Market, p Provider) {
	s.providers[market] = append(s.providers[market], p)
}

// RegisterCandles appends a candle provider to the market's failover chain.
func (s *Service) RegisterCandles(market domain.Market, p CandleProvider) {
	s.candles[market] = append(s.candles[market], p)
}

// Quote returns the current quote for a symbol, served from cache within
// the TTL.
func (s *Service) Quote(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	key := string(market) + ":" + symbol

	if q, ok := s.quoteCache.get(key); ok {
		if s.metrics != nil {
			s.metrics.QuoteCacheHits.Inc()
		}
		return q, nil
	}
	if s.metrics != nil {
		s.metrics.QuoteCacheMisses.Inc()
	}

	chain := s.providers[market]
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMarket, market)
	}

	var lastErr error
	for _, p := range chain {
		if s.metrics != nil {
			s.metrics.QuoteFetchesTotal.WithLabelValues(p.Name()).Inc()
		}
		q, err := p.Quote(ctx, symbol, market)
		if err != nil {
			if s.metrics != nil {
				s.metrics.QuoteFetchErrors.WithLabelValues(p.Name()).Inc()
			}
			s.logger.Warn("quote fetch failed",
				zap.String("provider", p.Name()),
				zap.String("symbol", symbol),
				zap.Error(err))
			lastErr = err
			continue
		}
		s.quoteCache.set(key, q)
		return q, nil
	}
	return nil, fmt.Errorf("all providers failed for %s: %w", symbol, lastErr)
}

// Candles returns daily history for a symbol, oldest first, served from
// cache within the TTL.
func (s *Service) Candles(ctx context.Context, symbol string, market domain.Market) ([]domain.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	key := string(market) + ":" + symbol

	if c, ok := s.candleCache.get(key); ok {
		return c, nil
	}

	chain := s.candles[market]
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMarket, market)
	}

	var lastErr error
	for _, p := range chain {
		c, err := p.Candles(ctx, symbol, market)
		if err != nil {
			s.logger.Warn("candle fetch failed",
				zap.String("provider", p.Name()),
				zap.String("symbol", symbol),
				zap.Error(err))
			lastErr = err
			continue
		}
		s.candleCache.set(key, c)
		return c, nil
	}
	return nil, fmt.Errorf("all providers failed for %s: %w", symbol, lastErr)
}
