package memory

import (
	"context"
	"sync"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// BrokerLinkStore is an in-memory implementation of storage.BrokerLinkStore.
type BrokerLinkStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BrokerLink // keyed by user_id|provider
}

// NewBrokerLinkStore creates a new in-memory broker link store.
func NewBrokerLinkStore() *BrokerLinkStore {
	return &BrokerLinkStore{
		data: make(map[string]*domain.BrokerLink),
	}
}

// Compile-time interface check.
var _ storage.BrokerLinkStore = (*BrokerLinkStore)(nil)

func linkKey(userID, provider string) string {
	return userID + "|" + provider
}

// Upsert inserts or replaces the link for (user_id, provider).
func (s *BrokerLinkStore) Upsert(_ context.Context, l *domain.BrokerLink) error {
	if l == nil || l.UserID == "" || l.Provider == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *l
	s.data[linkKey(l.UserID, l.Provider)] = &cp
	return nil
}

// Get retrieves the link for (user_id, provider). Returns ErrNotFound if not exists.
func (s *BrokerLinkStore) Get(_ context.Context, userID, provider string) (*domain.BrokerLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, exists := s.data[linkKey(userID, provider)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *l
	return &cp, nil
}

// Delete removes the link. Returns ErrNotFound if not exists.
func (s *BrokerLinkStore) Delete(_ context.Context, userID, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := linkKey(userID, provider)
	if _, exists := s.data[key]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, key)
	return nil
}
