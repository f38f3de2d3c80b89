package memory

import (
	"context"
	"sync"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// SessionStore is an in-memory implementation of storage.SessionStore.
// Sessions are server-side state only; losing them on restart just forces
// a re-login, matching how the browser app held auth state client-side.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Session // keyed by token
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		data: make(map[string]*domain.Session),
	}
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

// Insert adds a new session. Returns ErrDuplicateKey if token exists.
func (s *SessionStore) Insert(_ context.Context, sess *domain.Session) error {
	if sess == nil || sess.Token == "" || sess.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sess.Token]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *sess
	s.data[sess.Token] = &cp
	return nil
}

// GetByToken retrieves a session. Returns ErrNotFound if not exists.
func (s *SessionStore) GetByToken(_ context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.data[token]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *sess
	return &cp, nil
}

// Delete removes a session. Returns ErrNotFound if not exists.
func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[token]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, token)
	return nil
}

// DeleteExpired removes sessions past expiry and returns the removed sessions.
func (s *SessionStore) DeleteExpired(_ context.Context, nowMs int64) ([]*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*domain.Session
	for token, sess := range s.data {
		if sess.Expired(nowMs) {
			cp := *sess
			removed = append(removed, &cp)
			delete(s.data, token)
		}
	}
	return removed, nil
}
