package memory

import (
	"context"
	"sort"
	"sync"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// OutcomeStore is an in-memory implementation of storage.OutcomeStore.
type OutcomeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeOutcome // keyed by trade_id
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{
		data: make(map[string]*domain.TradeOutcome),
	}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

// Insert adds a new outcome. Returns ErrDuplicateKey if trade_id exists.
func (s *OutcomeStore) Insert(_ context.Context, o *domain.TradeOutcome) error {
	if o == nil || o.TradeID == "" || o.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[o.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *o
	s.data[o.TradeID] = &cp
	return nil
}

// GetByUser retrieves a user's outcomes, ordered by closed_at ASC.
func (s *OutcomeStore) GetByUser(_ context.Context, userID string) ([]*domain.TradeOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeOutcome
	for _, o := range s.data {
		if o.UserID == userID {
			cp := *o
			result = append(result, &cp)
		}
	}

	sortOutcomes(result)
	return result, nil
}

// GetBySymbol retrieves a user's outcomes for one symbol, ordered by closed_at ASC.
func (s *OutcomeStore) GetBySymbol(_ context.Context, userID, symbol string) ([]*domain.TradeOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeOutcome
	for _, o := range s.data {
		if o.UserID == userID && o.Symbol == symbol {
			cp := *o
			result = append(result, &cp)
		}
	}

	sortOutcomes(result)
	return result, nil
}

// DeleteByUser drops every outcome owned by userID. Used when a guest
// session expires.
func (s *OutcomeStore) DeleteByUser(_ context.Context, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, o := range s.data {
		if o.UserID == userID {
			delete(s.data, id)
			n++
		}
	}
	return n
}

func sortOutcomes(outcomes []*domain.TradeOutcome) {
	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].ClosedAt != outcomes[j].ClosedAt {
			return outcomes[i].ClosedAt < outcomes[j].ClosedAt
		}
		return outcomes[i].TradeID < outcomes[j].TradeID
	})
}
