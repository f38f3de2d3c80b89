package quotes

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"trade-journal/internal/domain"
	"trade-journal/internal/observability"
)

// DefaultRefreshInterval is how often the hub pushes quote updates.
const DefaultRefreshInterval = 15 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscription is one connected client and the symbols it watches.
type subscription struct {
	conn    *websocket.Conn
	market  domain.Market
	symbols map[string]bool
}

// Hub streams periodic quote refreshes to websocket subscribers.
// Clients pick symbols with ?symbols=AAPL,MSFT&market=US at connect time.
type Hub struct {
	service  *Service
	logger   *zap.Logger
	metrics  *observability.Metrics
	interval time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]*subscription
}

// NewHub creates a quote streaming hub over the given service.
func NewHub(service *Service, logger *zap.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		service:  service,
		logger:   logger,
		metrics:  metrics,
		interval: DefaultRefreshInterval,
		clients:  make(map[*websocket.Conn]*subscription),
	}
}

// SetInterval overrides the push cadence. Call before Run.
func (h *Hub) SetInterval(d time.Duration) {
	if d > 0 {
		h.interval = d
	}
}

// ServeHTTP upgrades the connection and registers the subscription.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	symbols := parseSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		http.Error(w, "symbols query parameter required", http.StatusBadRequest)
		return
	}
	market := domain.Market(strings.ToUpper(r.URL.Query().Get("market")))
	if market == "" {
		market = domain.MarketUS
	}
	if market != domain.MarketUS && market != domain.MarketCN {
		http.Error(w, "unknown market", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = &subscription{conn: conn, market: market, symbols: symbols}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.ActiveWSClients.Inc()
	}
	h.logger.Info("ws client subscribed",
		zap.Int("symbols", len(symbols)),
		zap.String("market", string(market)))

	// Drain the connection; client messages are ignored, a read error
	// means the client is gone.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// Run pushes refreshed quotes to subscribers until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.pushQuotes(ctx)
		}
	}
}

func (h *Hub) pushQuotes(ctx context.Context) {
	h.mu.Lock()
	subs := make([]*subscription, 0, len(h.clients))
	for _, sub := range h.clients {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		for symbol := range sub.symbols {
			quote, err := h.service.Quote(ctx, symbol, sub.market)
			if err != nil {
				continue
			}
			payload, err := json.Marshal(quote)
			if err != nil {
				continue
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.drop(sub.conn)
				break
			}
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	if ok {
		conn.Close()
		if h.metrics != nil {
			h.metrics.ActiveWSClients.Dec()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()
	for _, conn := range conns {
		h.drop(conn)
	}
}

func parseSymbols(raw string) map[string]bool {
	symbols := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols[s] = true
		}
	}
	return symbols
}
