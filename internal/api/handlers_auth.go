package api

import (
	"net/http"

	"trade-journal/internal/domain"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User    *userDTO   `json:"user,omitempty"`
	Session sessionDTO `json:"session"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	user, session, err := s.deps.Auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// New accounts start from stock settings.
	settings := domain.DefaultSettings(user.UserID)
	settings.UpdatedAt = user.CreatedAt
	if err := s.deps.Settings.Upsert(r.Context(), settings); err != nil {
		s.writeError(w, err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.SessionsIssued.WithLabelValues("user").Inc()
	}
	u := toUserDTO(user)
	s.writeJSON(w, http.StatusCreated, authResponse{User: &u, Session: toSessionDTO(session)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	user, session, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.SessionsIssued.WithLabelValues("user").Inc()
	}
	u := toUserDTO(user)
	s.writeJSON(w, http.StatusOK, authResponse{User: &u, Session: toSessionDTO(session)})
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Auth.Guest(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.SessionsIssued.WithLabelValues("guest").Inc()
	}
	s.writeJSON(w, http.StatusCreated, authResponse{Session: toSessionDTO(session)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	if err := s.deps.Auth.Logout(r.Context(), sess.Token); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	s.writeJSON(w, http.StatusOK, toSessionDTO(sess))
}
