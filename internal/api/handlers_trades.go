package api

import (
	"net/http"

	"trade-journal/internal/domain"
	"trade-journal/internal/journal"
)

type createTradeRequest struct {
	Symbol    string   `json:"symbol"`
	Direction string   `json:"direction"`
	Market    string   `json:"market"`
	Entry     float64  `json:"entry"`
	Stop      float64  `json:"stop"`
	Target    *float64 `json:"target"`
	Shares    int64    `json:"shares"`
	Notes     string   `json:"notes"`
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req createTradeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	trade, err := s.journalFor(sess).Create(r.Context(), sess.UserID, journal.CreateInput{
		Symbol:    req.Symbol,
		Direction: domain.Direction(req.Direction),
		Market:    domain.Market(req.Market),
		Entry:     req.Entry,
		Stop:      req.Stop,
		Target:    req.Target,
		Shares:    req.Shares,
		Notes:     req.Notes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.TradesCreated.Inc()
	}
	s.writeJSON(w, http.StatusCreated, toTradeDTO(trade))
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	status := domain.TradeStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.StatusPlanned, domain.StatusActive, domain.StatusClosed:
	default:
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status filter"})
		return
	}

	trades, err := s.journalFor(sess).List(r.Context(), sess.UserID, status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTradeDTOs(trades))
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	trade, err := s.journalFor(sess).Get(r.Context(), sess.UserID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTradeDTO(trade))
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	if err := s.journalFor(sess).Delete(r.Context(), sess.UserID, r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.TradesDeleted.Inc()
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type updatePlanRequest struct {
	Target *float64 `json:"target"`
	Notes  string   `json:"notes"`
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req updatePlanRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	trade, err := s.journalFor(sess).UpdatePlan(r.Context(), sess.UserID, r.PathValue("id"), req.Target, req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTradeDTO(trade))
}

type addContractRequest struct {
	EntryPrice   float64  `json:"entryPrice"`
	Shares       int64    `json:"shares"`
	ContractStop *float64 `json:"contractStop"`
}

func (s *Server) handleAddContract(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req addContractRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	trade, err := s.journalFor(sess).AddContract(r.Context(), sess.UserID, r.PathValue("id"), journal.ContractInput{
		EntryPrice:   req.EntryPrice,
		Shares:       req.Shares,
		ContractStop: req.ContractStop,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTradeDTO(trade))
}

type adjustStopRequest struct {
	Stop float64 `json:"stop"`
}

func (s *Server) handleAdjustStop(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req adjustStopRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	trade, err := s.journalFor(sess).AdjustStop(r.Context(), sess.UserID, r.PathValue("id"), req.Stop)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTradeDTO(trade))
}

type contractStopRequest struct {
	// A null stop clears the override.
	Stop *float64 `json:"stop"`
}

func (s *Server) handleContractStop(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req contractStopRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	trade, err := s.journalFor(sess).SetContractStop(r.Context(), sess.UserID,
		r.PathValue("id"), r.PathValue("cid"), req.Stop)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTradeDTO(trade))
}

type editSharesRequest struct {
	Shares int64 `json:"shares"`
}

func (s *Server) handleEditShares(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req editSharesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	trade, err := s.journalFor(sess).EditShares(r.Context(), sess.UserID,
		r.PathValue("id"), r.PathValue("cid"), req.Shares)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTradeDTO(trade))
}

type closeTradeRequest struct {
	ExitPrice float64 `json:"exitPrice"`
}

func (s *Server) handleCloseTrade(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req closeTradeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	trade, err := s.journalFor(sess).Close(r.Context(), sess.UserID, r.PathValue("id"), req.ExitPrice)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.TradesClosed.Inc()
	}
	s.writeJSON(w, http.StatusOK, toTradeDTO(trade))
}
