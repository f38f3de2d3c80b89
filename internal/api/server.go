// Package api exposes the journal over HTTP: JSON endpoints for auth,
// trades, sizing, settings, quotes, broker linking and reports, plus a
// websocket stream for quote updates.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"trade-journal/internal/auth"
	"trade-journal/internal/broker"
	"trade-journal/internal/domain"
	"trade-journal/internal/journal"
	"trade-journal/internal/observability"
	"trade-journal/internal/quotes"
	"trade-journal/internal/reporting"
	"trade-journal/internal/storage"
)

// Deps carries everything the server routes to. Guest traffic is served
// by the memory-backed twins; registered users by the persistent ones.
type Deps struct {
	Logger  *zap.Logger
	Metrics *observability.Metrics

	Auth *auth.Service

	Journal      *journal.Service
	GuestJournal *journal.Service

	Settings      storage.SettingsStore
	GuestSettings storage.SettingsStore

	Reports      *reporting.Generator
	GuestReports *reporting.Generator

	Quotes   *quotes.Service
	QuoteHub *quotes.Hub

	// Broker is nil when no OAuth client is configured; broker routes
	// then answer 503.
	Broker *broker.Service
}

// Server is the HTTP API.
type Server struct {
	deps    Deps
	mux     *http.ServeMux
	started time.Time
}

// NewServer builds the route table.
func NewServer(deps Deps) *Server {
	s := &Server{
		deps:    deps,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Auth
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/guest", s.handleGuest)
	s.mux.HandleFunc("POST /api/auth/logout", s.withSession(s.handleLogout))
	s.mux.HandleFunc("GET /api/auth/me", s.withSession(s.handleMe))

	// Trades
	s.mux.HandleFunc("POST /api/trades", s.withSession(s.handleCreateTrade))
	s.mux.HandleFunc("GET /api/trades", s.withSession(s.handleListTrades))
	s.mux.HandleFunc("GET /api/trades/{id}", s.withSession(s.handleGetTrade))
	s.mux.HandleFunc("DELETE /api/trades/{id}", s.withSession(s.handleDeleteTrade))
	s.mux.HandleFunc("PUT /api/trades/{id}/plan", s.withSession(s.handleUpdatePlan))
	s.mux.HandleFunc("POST /api/trades/{id}/contracts", s.withSession(s.handleAddContract))
	s.mux.HandleFunc("POST /api/trades/{id}/stop", s.withSession(s.handleAdjustStop))
	s.mux.HandleFunc("PUT /api/trades/{id}/contracts/{cid}/stop", s.withSession(s.handleContractStop))
	s.mux.HandleFunc("PUT /api/trades/{id}/contracts/{cid}/shares", s.withSession(s.handleEditShares))
	s.mux.HandleFunc("POST /api/trades/{id}/close", s.withSession(s.handleCloseTrade))

	// Sizing
	s.mux.HandleFunc("POST /api/calculate", s.withSession(s.handleCalculate))

	// Settings
	s.mux.HandleFunc("GET /api/settings", s.withSession(s.handleGetSettings))
	s.mux.HandleFunc("PUT /api/settings", s.withSession(s.handlePutSettings))

	// Market data
	s.mux.HandleFunc("GET /api/quotes/{symbol}", s.withSession(s.handleQuote))
	s.mux.HandleFunc("GET /api/charts/{symbol}", s.withSession(s.handleChart))
	s.mux.HandleFunc("GET /ws/quotes", s.handleQuoteStream)

	// Broker
	s.mux.HandleFunc("GET /api/broker/authorize", s.withSession(s.handleBrokerAuthorize))
	s.mux.HandleFunc("GET /api/broker/callback", s.handleBrokerCallback)
	s.mux.HandleFunc("GET /api/broker/status", s.withSession(s.handleBrokerStatus))
	s.mux.HandleFunc("DELETE /api/broker/link", s.withSession(s.handleBrokerUnlink))
	s.mux.HandleFunc("GET /api/broker/accounts", s.withSession(s.handleBrokerAccounts))

	// Reports
	s.mux.HandleFunc("GET /api/report", s.withSession(s.handleReport))

	// Ops
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /status", s.handleStatus)
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.instrument(s.mux)
}

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack delegates to the wrapped writer so the websocket upgrade on
// /ws/quotes can take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

// instrument wraps the mux with request logging and Prometheus metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		if s.deps.Metrics != nil {
			s.deps.Metrics.HTTPRequestsTotal.
				WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
			s.deps.Metrics.HTTPRequestDuration.
				WithLabelValues(route).Observe(elapsed.Seconds())
		}
		s.deps.Logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", elapsed))
	})
}

// sessionHandler receives the verified session alongside the request.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *domain.Session)

// withSession verifies the bearer token and passes the session through.
// Websocket-incapable clients may send the token as a query parameter.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.deps.Auth.Verify(r.Context(), bearerToken(r))
		if err != nil {
			s.writeError(w, err)
			return
		}
		next(w, r, sess)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return r.URL.Query().Get("token")
}

// journalFor routes guests to the memory-backed journal.
func (s *Server) journalFor(sess *domain.Session) *journal.Service {
	if sess.Guest {
		return s.deps.GuestJournal
	}
	return s.deps.Journal
}

// settingsFor routes guests to the memory-backed settings store.
func (s *Server) settingsFor(sess *domain.Session) storage.SettingsStore {
	if sess.Guest {
		return s.deps.GuestSettings
	}
	return s.deps.Settings
}

// reportsFor routes guests to the memory-backed report generator.
func (s *Server) reportsFor(sess *domain.Session) *reporting.Generator {
	if sess.Guest {
		return s.deps.GuestReports
	}
	return s.deps.Reports
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			s.deps.Logger.Error("encode response", zap.Error(err))
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// badRequestErrors are client mistakes reported as 400.
var badRequestErrors = []error{
	domain.ErrInvalidPrice,
	domain.ErrStopSide,
	domain.ErrTargetSide,
	domain.ErrLotSize,
	domain.ErrInvalidShares,
	domain.ErrInvalidDirection,
	domain.ErrInvalidMarket,
	domain.ErrInvalidSymbol,
	domain.ErrInvalidCapital,
	domain.ErrInvalidRiskPct,
	auth.ErrWeakPassword,
	journal.ErrNoPosition,
	quotes.ErrUnsupportedMarket,
	broker.ErrInvalidState,
	storage.ErrInvalidInput,
}

// writeError maps sentinel errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, journal.ErrContractNotFound),
		errors.Is(err, quotes.ErrSymbolNotFound),
		errors.Is(err, broker.ErrNotLinked):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey),
		errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, journal.ErrTradeClosed):
		status = http.StatusConflict
	case isBadRequest(err):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	default:
		status = http.StatusInternalServerError
		s.deps.Logger.Error("internal error", zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func isBadRequest(err error) bool {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// decodeJSON parses the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(storage.ErrInvalidInput, err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

// handleQuoteStream hands the connection to the websocket hub after
// verifying the session (token comes in the query string; browsers
// cannot set headers on websocket dials).
func (s *Server) handleQuoteStream(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deps.Auth.Verify(r.Context(), bearerToken(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.deps.QuoteHub.ServeHTTP(w, r)
}
