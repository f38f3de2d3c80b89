package memory

import (
	"context"
	"sync"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// UserStore is an in-memory implementation of storage.UserStore.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

// Compile-time interface check.
var _ storage.UserStore = (*UserStore)(nil)

// Insert adds a new user. Returns ErrDuplicateKey if user_id or email exists.
func (s *UserStore) Insert(_ context.Context, u *domain.User) error {
	if u == nil || u.UserID == "" || u.Email == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[u.UserID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.byEmail[u.Email]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *u
	s.byID[u.UserID] = &cp
	s.byEmail[u.Email] = &cp
	return nil
}

// GetByID retrieves a user by ID. Returns ErrNotFound if not exists.
func (s *UserStore) GetByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.byID[userID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *u
	return &cp, nil
}

// GetByEmail retrieves a user by email. Returns ErrNotFound if not exists.
func (s *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.byEmail[email]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *u
	return &cp, nil
}
