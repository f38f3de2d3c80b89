package quotes

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trade-journal/internal/domain"
)

const tencentBaseURL = "https://qt.gtimg.cn"

// TencentClient fetches CN quotes from Tencent's delimited text feed.
// It is the only feed that resolves CN display names, so names ride
// along on every quote.
type TencentClient struct {
	fetcher
	baseURL string
}

// TencentOption configures TencentClient.
type TencentOption func(*TencentClient)

// WithTencentBaseURL overrides the endpoint, used in tests.
func WithTencentBaseURL(url string) TencentOption {
	return func(c *TencentClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithTencentHTTPClient sets a custom http.Client.
func WithTencentHTTPClient(client *http.Client) TencentOption {
	return func(c *TencentClient) {
		c.client = client
	}
}

// NewTencentClient creates a Tencent feed client.
func NewTencentClient(opts ...TencentOption) *TencentClient {
	c := &TencentClient{
		fetcher: newFetcher(),
		baseURL: tencentBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Provider.
func (c *TencentClient) Name() string { return "tencent" }

// Quote fetches the delimited snapshot line.
// Response shape: v_sh600519="1~NAME~600519~price~prevClose~open~...";
func (c *TencentClient) Quote(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error) {
	if market != domain.MarketCN {
		return nil, ErrUnsupportedMarket
	}

	code := exchangeCode(symbol)
	body, err := c.get(ctx, fmt.Sprintf("%s/q=%s", c.baseURL, code))
	if err != nil {
		return nil, fmt.Errorf("tencent quote: %w", err)
	}

	fields, err := parseTencentLine(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	price, err := strconv.ParseFloat(fields[3], 64)
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	prevClose, _ := strconv.ParseFloat(fields[4], 64)

	quote := &domain.Quote{
		Symbol:    strings.ToUpper(symbol),
		Market:    market,
		Name:      fields[1],
		Price:     price,
		PrevClose: prevClose,
		Currency:  "CNY",
		AsOf:      time.Now().UnixMilli(),
		Source:    c.Name(),
	}
	if prevClose > 0 {
		quote.ChangePct = (price - prevClose) / prevClose * 100
	}
	return quote, nil
}

// exchangeCode prefixes a bare CN code with its exchange: 6xxxxx trades
// on Shanghai, everything else on Shenzhen.
func exchangeCode(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if strings.HasPrefix(s, "sh") || strings.HasPrefix(s, "sz") {
		return s
	}
	if strings.HasPrefix(s, "6") {
		return "sh" + s
	}
	return "sz" + s
}

// parseTencentLine extracts the tilde-delimited fields from a snapshot
// line. At least price and previous close must be present.
func parseTencentLine(line string) ([]string, error) {
	start := strings.Index(line, `"`)
	end := strings.LastIndex(line, `"`)
	if start < 0 || end <= start {
		return nil, fmt.Errorf("malformed line")
	}
	fields := strings.Split(line[start+1:end], "~")
	if len(fields) < 5 {
		return nil, fmt.Errorf("too few fields")
	}
	return fields, nil
}
