package quotes

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"trade-journal/internal/domain"
)

const stooqQuoteCSV = "Symbol,Date,Time,Open,High,Low,Close,Volume,Name\n" +
	"AAPL.US,2024-06-03,21:59:58,192.90,194.99,192.52,194.03,50080500,APPLE\n"

const stooqMissingCSV = "Symbol,Date,Time,Open,High,Low,Close,Volume,Name\n" +
	"BOGUS.US,N/D,N/D,N/D,N/D,N/D,N/D,N/D,BOGUS\n"

const stooqCandlesCSV = "Date,Open,High,Low,Close,Volume\n" +
	"2024-05-31,191.44,192.57,189.91,192.25,75158300\n" +
	"2024-06-03,192.90,194.99,192.52,194.03,50080500\n"

func TestStooqQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("s") != "aapl.us" {
			t.Errorf("unexpected symbol query: %q", r.URL.Query().Get("s"))
		}
		w.Write([]byte(stooqQuoteCSV))
	}))
	defer srv.Close()

	client := NewStooqClient(WithStooqBaseURL(srv.URL))
	quote, err := client.Quote(context.Background(), "aapl", domain.MarketUS)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if quote.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %q", quote.Symbol)
	}
	if quote.Name != "APPLE" {
		t.Errorf("expected name APPLE, got %q", quote.Name)
	}
	if quote.Price != 194.03 {
		t.Errorf("expected price 194.03, got %g", quote.Price)
	}
	if quote.Currency != "USD" || quote.Source != "stooq" {
		t.Errorf("currency/source mismatch: %s/%s", quote.Currency, quote.Source)
	}
	wantPct := (194.03 - 192.90) / 192.90 * 100
	if math.Abs(quote.ChangePct-wantPct) > 1e-9 {
		t.Errorf("expected change %%%.4f, got %.4f", wantPct, quote.ChangePct)
	}
}

func TestStooqQuoteUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(stooqMissingCSV))
	}))
	defer srv.Close()

	client := NewStooqClient(WithStooqBaseURL(srv.URL))
	if _, err := client.Quote(context.Background(), "bogus", domain.MarketUS); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestStooqQuoteRejectsCN(t *testing.T) {
	client := NewStooqClient()
	if _, err := client.Quote(context.Background(), "600519", domain.MarketCN); !errors.Is(err, ErrUnsupportedMarket) {
		t.Errorf("expected ErrUnsupportedMarket, got %v", err)
	}
}

func TestStooqCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(stooqCandlesCSV))
	}))
	defer srv.Close()

	client := NewStooqClient(WithStooqBaseURL(srv.URL))
	candles, err := client.Candles(context.Background(), "AAPL", domain.MarketUS)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Date != "2024-05-31" || candles[1].Date != "2024-06-03" {
		t.Errorf("candles out of order: %s, %s", candles[0].Date, candles[1].Date)
	}
	if candles[1].Volume != 50080500 {
		t.Errorf("expected volume 50080500, got %d", candles[1].Volume)
	}
}

func TestStooqRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(stooqQuoteCSV))
	}))
	defer srv.Close()

	client := NewStooqClient(WithStooqBaseURL(srv.URL))
	client.retryDelay = 0

	if _, err := client.Quote(context.Background(), "AAPL", domain.MarketUS); err != nil {
		t.Fatalf("Quote after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

const alphaVantageQuoteJSON = `{
  "Global Quote": {
    "01. symbol": "AAPL",
    "05. price": "194.0300",
    "07. latest trading day": "2024-06-03",
    "08. previous close": "192.2500",
    "10. change percent": "0.9258%"
  }
}`

func TestAlphaVantageQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("function") != "GLOBAL_QUOTE" {
			t.Errorf("unexpected function: %q", r.URL.Query().Get("function"))
		}
		if r.URL.Query().Get("apikey") != "test-key" {
			t.Errorf("api key not forwarded")
		}
		w.Write([]byte(alphaVantageQuoteJSON))
	}))
	defer srv.Close()

	client := NewAlphaVantageClient("test-key", WithAlphaVantageBaseURL(srv.URL))
	quote, err := client.Quote(context.Background(), "aapl", domain.MarketUS)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if quote.Price != 194.03 {
		t.Errorf("expected price 194.03, got %g", quote.Price)
	}
	if quote.PrevClose != 192.25 {
		t.Errorf("expected prev close 192.25, got %g", quote.PrevClose)
	}
	if quote.ChangePct != 0.9258 {
		t.Errorf("expected change 0.9258, got %g", quote.ChangePct)
	}
	if quote.Source != "alphavantage" {
		t.Errorf("expected source alphavantage, got %q", quote.Source)
	}
}

func TestAlphaVantageThrottled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "API call frequency exceeded"}`))
	}))
	defer srv.Close()

	client := NewAlphaVantageClient("test-key", WithAlphaVantageBaseURL(srv.URL))
	if _, err := client.Quote(context.Background(), "AAPL", domain.MarketUS); err == nil {
		t.Error("expected error on throttled response")
	}
}

func TestAlphaVantageUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {}}`))
	}))
	defer srv.Close()

	client := NewAlphaVantageClient("test-key", WithAlphaVantageBaseURL(srv.URL))
	if _, err := client.Quote(context.Background(), "BOGUS", domain.MarketUS); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestAlphaVantageCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
  "Time Series (Daily)": {
    "2024-06-03": {"1. open": "192.90", "2. high": "194.99", "3. low": "192.52", "4. close": "194.03", "5. volume": "50080500"},
    "2024-05-31": {"1. open": "191.44", "2. high": "192.57", "3. low": "189.91", "4. close": "192.25", "5. volume": "75158300"}
  }
}`))
	}))
	defer srv.Close()

	client := NewAlphaVantageClient("test-key", WithAlphaVantageBaseURL(srv.URL))
	candles, err := client.Candles(context.Background(), "AAPL", domain.MarketUS)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	// Oldest first regardless of map order.
	if candles[0].Date != "2024-05-31" {
		t.Errorf("expected 2024-05-31 first, got %s", candles[0].Date)
	}
}

const tencentQuoteLine = `v_sh600519="1~GUIZHOU MOUTAI~600519~1700.00~1690.00~1695.00~32000~16000~16000~1700.01";`

func TestTencentQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "sh600519" {
			t.Errorf("unexpected code: %q", r.URL.Query().Get("q"))
		}
		w.Write([]byte(tencentQuoteLine))
	}))
	defer srv.Close()

	client := NewTencentClient(WithTencentBaseURL(srv.URL))
	quote, err := client.Quote(context.Background(), "600519", domain.MarketCN)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if quote.Name != "GUIZHOU MOUTAI" {
		t.Errorf("expected CN name resolved, got %q", quote.Name)
	}
	if quote.Price != 1700 || quote.PrevClose != 1690 {
		t.Errorf("price/prev mismatch: %g/%g", quote.Price, quote.PrevClose)
	}
	if quote.Currency != "CNY" {
		t.Errorf("expected CNY, got %q", quote.Currency)
	}
	wantPct := (1700.0 - 1690.0) / 1690.0 * 100
	if math.Abs(quote.ChangePct-wantPct) > 1e-9 {
		t.Errorf("expected change %%%.4f, got %.4f", wantPct, quote.ChangePct)
	}
}

func TestTencentQuoteRejectsUS(t *testing.T) {
	client := NewTencentClient()
	if _, err := client.Quote(context.Background(), "AAPL", domain.MarketUS); !errors.Is(err, ErrUnsupportedMarket) {
		t.Errorf("expected ErrUnsupportedMarket, got %v", err)
	}
}

func TestTencentQuoteEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`v_pv_none_match="";`))
	}))
	defer srv.Close()

	client := NewTencentClient(WithTencentBaseURL(srv.URL))
	if _, err := client.Quote(context.Background(), "999999", domain.MarketCN); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestExchangeCode(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"600519", "sh600519"},
		{"000001", "sz000001"},
		{"300750", "sz300750"},
		{"sh600519", "sh600519"},
		{"SZ000001", "sz000001"},
	}
	for _, tt := range tests {
		if got := exchangeCode(tt.symbol); got != tt.want {
			t.Errorf("exchangeCode(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}
