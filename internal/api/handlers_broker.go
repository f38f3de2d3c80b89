package api

import (
	"net/http"

	"trade-journal/internal/domain"
)

// brokerConfigured guards routes when no OAuth client is registered.
func (s *Server) brokerConfigured(w http.ResponseWriter) bool {
	if s.deps.Broker == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "broker linking not configured"})
		return false
	}
	return true
}

func (s *Server) handleBrokerAuthorize(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	if !s.brokerConfigured(w) {
		return
	}
	// Guests have no durable account to attach tokens to.
	if sess.Guest {
		s.writeJSON(w, http.StatusForbidden, errorResponse{Error: "broker linking requires an account"})
		return
	}

	url, err := s.deps.Broker.AuthorizeURL(sess.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"authorizeUrl": url})
}

// handleBrokerCallback is hit by the provider redirect, not by our client,
// so it is authenticated by the one-time state instead of a session.
func (s *Server) handleBrokerCallback(w http.ResponseWriter, r *http.Request) {
	if !s.brokerConfigured(w) {
		return
	}

	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "authorization denied: " + errCode})
		return
	}

	userID, err := s.deps.Broker.HandleCallback(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"linked": "true", "userId": userID})
}

func (s *Server) handleBrokerStatus(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	if !s.brokerConfigured(w) {
		return
	}

	link, err := s.deps.Broker.Linked(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"provider":    link.Provider,
		"linkedAt":    link.LinkedAt,
		"tokenExpiry": link.TokenExpiry,
	})
}

func (s *Server) handleBrokerUnlink(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	if !s.brokerConfigured(w) {
		return
	}

	if err := s.deps.Broker.Unlink(r.Context(), sess.UserID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleBrokerAccounts(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	if !s.brokerConfigured(w) {
		return
	}

	accounts, err := s.deps.Broker.Accounts(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(accounts)
}
