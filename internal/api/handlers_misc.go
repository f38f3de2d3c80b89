package api

import (
	"errors"
	"net/http"
	"time"

	"trade-journal/internal/domain"
	"trade-journal/internal/reporting"
	"trade-journal/internal/risk"
	"trade-journal/internal/storage"
)

type calculateRequest struct {
	// Capital and riskPct are optional; the user's settings fill the gaps.
	Capital   *float64 `json:"capital"`
	RiskPct   *float64 `json:"riskPct"`
	Entry     float64  `json:"entry"`
	Stop      float64  `json:"stop"`
	Target    *float64 `json:"target"`
	Direction string   `json:"direction"`
	Market    string   `json:"market"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req calculateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	settings, err := s.loadSettings(r, sess)
	if err != nil {
		s.writeError(w, err)
		return
	}

	in := risk.Input{
		Capital:   settings.Capital,
		RiskPct:   settings.DefaultRiskPct,
		Entry:     req.Entry,
		Stop:      req.Stop,
		Target:    req.Target,
		Direction: domain.Direction(req.Direction),
		Market:    domain.Market(req.Market),
	}
	if req.Capital != nil {
		in.Capital = *req.Capital
	}
	if req.RiskPct != nil {
		in.RiskPct = *req.RiskPct
	}
	if req.Market == "" {
		in.Market = settings.DefaultMarket
	}

	result, err := risk.Calculate(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toCalcResultDTO(result))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	settings, err := s.loadSettings(r, sess)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

type putSettingsRequest struct {
	Capital        float64 `json:"capital"`
	DefaultRiskPct float64 `json:"defaultRiskPct"`
	DefaultMarket  string  `json:"defaultMarket"`
	Currency       string  `json:"currency"`
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req putSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	settings := &domain.Settings{
		UserID:         sess.UserID,
		Capital:        req.Capital,
		DefaultRiskPct: req.DefaultRiskPct,
		DefaultMarket:  domain.Market(req.DefaultMarket),
		Currency:       req.Currency,
		UpdatedAt:      time.Now().UnixMilli(),
	}
	if settings.Currency == "" {
		settings.Currency = "USD"
	}
	if err := settings.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.settingsFor(sess).Upsert(r.Context(), settings); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// loadSettings returns the user's settings, falling back to defaults for
// users (and guests) who never saved any.
func (s *Server) loadSettings(r *http.Request, sess *domain.Session) (*domain.Settings, error) {
	settings, err := s.settingsFor(sess).GetByUser(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.DefaultSettings(sess.UserID), nil
		}
		return nil, err
	}
	return settings, nil
}

func marketParam(r *http.Request) domain.Market {
	market := domain.Market(r.URL.Query().Get("market"))
	if market == "" {
		return domain.MarketUS
	}
	return market
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	quote, err := s.deps.Quotes.Quote(r.Context(), r.PathValue("symbol"), marketParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toQuoteDTO(quote))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	candles, err := s.deps.Quotes.Candles(r.Context(), r.PathValue("symbol"), marketParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toCandleDTOs(candles))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	report, err := s.reportsFor(sess).Generate(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		s.writeJSON(w, http.StatusOK, report)
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(reporting.RenderMarkdown(report)))
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Write([]byte(reporting.RenderCSV(report.PerSymbol)))
	default:
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown format"})
	}
}
