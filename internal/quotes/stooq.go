package quotes

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trade-journal/internal/domain"
)

const stooqBaseURL = "https://stooq.com"

// StooqClient fetches US quotes and daily candles from stooq.com.
// Both endpoints return CSV; symbols carry a ".us" suffix.
type StooqClient struct {
	fetcher
	baseURL string
}

// StooqOption configures StooqClient.
type StooqOption func(*StooqClient)

// WithStooqBaseURL overrides the endpoint, used in tests.
func WithStooqBaseURL(url string) StooqOption {
	return func(c *StooqClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithStooqHTTPClient sets a custom http.Client.
func WithStooqHTTPClient(client *http.Client) StooqOption {
	return func(c *StooqClient) {
		c.client = client
	}
}

// NewStooqClient creates a Stooq feed client.
func NewStooqClient(opts ...StooqOption) *StooqClient {
	c := &StooqClient{
		fetcher: newFetcher(),
		baseURL: stooqBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Provider.
func (c *StooqClient) Name() string { return "stooq" }

// Quote fetches the current snapshot row.
// Stooq's snapshot carries no previous close, so the day change is
// measured from the open.
func (c *StooqClient) Quote(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error) {
	if market != domain.MarketUS {
		return nil, ErrUnsupportedMarket
	}

	url := fmt.Sprintf("%s/q/l/?s=%s.us&f=sd2t2ohlcvn&e=csv", c.baseURL, strings.ToLower(symbol))
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("stooq quote: %w", err)
	}

	rows, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("stooq quote: parse csv: %w", err)
	}
	// Header row plus one data row: Symbol,Date,Time,Open,High,Low,Close,Volume,Name
	if len(rows) < 2 || len(rows[1]) < 9 {
		return nil, fmt.Errorf("stooq quote: malformed response")
	}
	rec := rows[1]

	// Unknown symbols come back with N/D placeholders.
	open, errOpen := strconv.ParseFloat(rec[3], 64)
	closePrice, errClose := strconv.ParseFloat(rec[6], 64)
	if errOpen != nil || errClose != nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	quote := &domain.Quote{
		Symbol:    strings.ToUpper(symbol),
		Market:    market,
		Name:      rec[8],
		Price:     closePrice,
		PrevClose: open,
		Currency:  "USD",
		AsOf:      parseStooqTimestamp(rec[1], rec[2]),
		Source:    c.Name(),
	}
	if open > 0 {
		quote.ChangePct = (closePrice - open) / open * 100
	}
	return quote, nil
}

// Candles fetches full daily history, oldest first.
func (c *StooqClient) Candles(ctx context.Context, symbol string, market domain.Market) ([]domain.Candle, error) {
	if market != domain.MarketUS {
		return nil, ErrUnsupportedMarket
	}

	url := fmt.Sprintf("%s/q/d/l/?s=%s.us&i=d", c.baseURL, strings.ToLower(symbol))
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("stooq candles: %w", err)
	}

	rows, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("stooq candles: parse csv: %w", err)
	}
	// Header row: Date,Open,High,Low,Close,Volume
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	candles := make([]domain.Candle, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		if len(rec) < 6 {
			continue
		}
		open, err1 := strconv.ParseFloat(rec[1], 64)
		high, err2 := strconv.ParseFloat(rec[2], 64)
		low, err3 := strconv.ParseFloat(rec[3], 64)
		closePrice, err4 := strconv.ParseFloat(rec[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		volume, _ := strconv.ParseInt(rec[5], 10, 64)
		candles = append(candles, domain.Candle{
			Date:   rec[0],
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return candles, nil
}

// parseStooqTimestamp converts the snapshot date and time columns to Unix
// milliseconds, falling back to the current time when unparsable.
func parseStooqTimestamp(date, clock string) int64 {
	ts, err := time.Parse("2006-01-02 15:04:05", date+" "+clock)
	if err != nil {
		return time.Now().UnixMilli()
	}
	return ts.UnixMilli()
}
