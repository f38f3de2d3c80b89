package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"trade-journal/internal/domain"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageClient fetches US quotes and daily candles from the keyed
// Alpha Vantage JSON API. Used as the failover behind Stooq.
type AlphaVantageClient struct {
	fetcher
	baseURL string
	apiKey  string
}

// AlphaVantageOption configures AlphaVantageClient.
type AlphaVantageOption func(*AlphaVantageClient)

// WithAlphaVantageBaseURL overrides the endpoint, used in tests.
func WithAlphaVantageBaseURL(url string) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithAlphaVantageHTTPClient sets a custom http.Client.
func WithAlphaVantageHTTPClient(client *http.Client) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.client = client
	}
}

// NewAlphaVantageClient creates an Alpha Vantage feed client.
func NewAlphaVantageClient(apiKey string, opts ...AlphaVantageOption) *AlphaVantageClient {
	c := &AlphaVantageClient{
		fetcher: newFetcher(),
		baseURL: alphaVantageBaseURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Provider.
func (c *AlphaVantageClient) Name() string { return "alphavantage" }

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		LatestDay     string `json:"07. latest trading day"`
		PrevClose     string `json:"08. previous close"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

// Quote fetches the GLOBAL_QUOTE snapshot.
func (c *AlphaVantageClient) Quote(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error) {
	if market != domain.MarketUS {
		return nil, ErrUnsupportedMarket
	}

	endpoint := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(strings.ToUpper(symbol)), url.QueryEscape(c.apiKey))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("alphavantage quote: %w", err)
	}

	var resp globalQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("alphavantage quote: parse json: %w", err)
	}
	// Throttling returns 200 with a Note instead of data.
	if resp.Note != "" || resp.Information != "" {
		return nil, fmt.Errorf("alphavantage quote: throttled")
	}
	if resp.GlobalQuote.Symbol == "" {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	price, err := strconv.ParseFloat(resp.GlobalQuote.Price, 64)
	if err != nil {
		return nil, fmt.Errorf("alphavantage quote: parse price: %w", err)
	}
	prevClose, _ := strconv.ParseFloat(resp.GlobalQuote.PrevClose, 64)
	changePct, _ := strconv.ParseFloat(strings.TrimSuffix(resp.GlobalQuote.ChangePercent, "%"), 64)

	return &domain.Quote{
		Symbol:    strings.ToUpper(symbol),
		Market:    market,
		Price:     price,
		PrevClose: prevClose,
		ChangePct: changePct,
		Currency:  "USD",
		AsOf:      parseAlphaVantageDay(resp.GlobalQuote.LatestDay),
		Source:    c.Name(),
	}, nil
}

type dailySeriesResponse struct {
	Series map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

// Candles fetches the compact daily series, oldest first.
func (c *AlphaVantageClient) Candles(ctx context.Context, symbol string, market domain.Market) ([]domain.Candle, error) {
	if market != domain.MarketUS {
		return nil, ErrUnsupportedMarket
	}

	endpoint := fmt.Sprintf("%s/query?function=TIME_SERIES_DAILY&symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(strings.ToUpper(symbol)), url.QueryEscape(c.apiKey))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("alphavantage candles: %w", err)
	}

	var resp dailySeriesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("alphavantage candles: parse json: %w", err)
	}
	if resp.Note != "" || resp.Information != "" {
		return nil, fmt.Errorf("alphavantage candles: throttled")
	}
	if len(resp.Series) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	candles := make([]domain.Candle, 0, len(resp.Series))
	for date, bar := range resp.Series {
		open, err1 := strconv.ParseFloat(bar.Open, 64)
		high, err2 := strconv.ParseFloat(bar.High, 64)
		low, err3 := strconv.ParseFloat(bar.Low, 64)
		closePrice, err4 := strconv.ParseFloat(bar.Close, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		volume, _ := strconv.ParseInt(bar.Volume, 10, 64)
		candles = append(candles, domain.Candle{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Date < candles[j].Date })
	return candles, nil
}

func parseAlphaVantageDay(day string) int64 {
	ts, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Now().UnixMilli()
	}
	return ts.UnixMilli()
}
