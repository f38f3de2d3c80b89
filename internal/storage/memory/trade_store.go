package memory

import (
	"context"
	"sort"
	"sync"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
// Backs guest sessions: data is device-session scoped and gone on restart.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Trade // keyed by trade_id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.Trade),
	}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.TradeID == "" || t.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[t.TradeID] = copyTrade(t)
	return nil
}

// Update replaces an existing trade. Returns ErrNotFound if not exists.
func (s *TradeStore) Update(_ context.Context, t *domain.Trade) error {
	if t == nil || t.TradeID == "" || t.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data[t.TradeID]
	if !exists || existing.UserID != t.UserID {
		return storage.ErrNotFound
	}

	s.data[t.TradeID] = copyTrade(t)
	return nil
}

// GetByID retrieves a trade owned by userID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, userID, tradeID string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tradeID]
	if !exists || t.UserID != userID {
		return nil, storage.ErrNotFound
	}

	return copyTrade(t), nil
}

// ListByUser retrieves a user's trades, newest first.
func (s *TradeStore) ListByUser(_ context.Context, userID string, status domain.TradeStatus) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.UserID != userID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		result = append(result, copyTrade(t))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].TradeID > result[j].TradeID
	})

	return result, nil
}

// Delete removes a trade owned by userID. Returns ErrNotFound if not exists.
func (s *TradeStore) Delete(_ context.Context, userID, tradeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[tradeID]
	if !exists || t.UserID != userID {
		return storage.ErrNotFound
	}

	delete(s.data, tradeID)
	return nil
}

// DeleteByUser drops every trade owned by userID. Used when a guest
// session expires.
func (s *TradeStore) DeleteByUser(_ context.Context, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, t := range s.data {
		if t.UserID == userID {
			delete(s.data, id)
			n++
		}
	}
	return n
}

// copyTrade returns a deep copy so callers cannot mutate stored state.
func copyTrade(t *domain.Trade) *domain.Trade {
	cp := *t
	if t.Contracts != nil {
		cp.Contracts = make([]domain.Contract, len(t.Contracts))
		copy(cp.Contracts, t.Contracts)
	}
	return &cp
}
