package memory

import (
	"context"
	"sync"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// SettingsStore is an in-memory implementation of storage.SettingsStore.
type SettingsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Settings // keyed by user_id
}

// NewSettingsStore creates a new in-memory settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		data: make(map[string]*domain.Settings),
	}
}

// Compile-time interface check.
var _ storage.SettingsStore = (*SettingsStore)(nil)

// Upsert inserts or replaces the user's settings.
func (s *SettingsStore) Upsert(_ context.Context, st *domain.Settings) error {
	if st == nil || st.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *st
	s.data[st.UserID] = &cp
	return nil
}

// DeleteByUser drops the user's settings. Used when a guest session expires.
func (s *SettingsStore) DeleteByUser(_ context.Context, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[userID]; !exists {
		return 0
	}
	delete(s.data, userID)
	return 1
}

// GetByUser retrieves the user's settings. Returns ErrNotFound if not exists.
func (s *SettingsStore) GetByUser(_ context.Context, userID string) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[userID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *st
	return &cp, nil
}
