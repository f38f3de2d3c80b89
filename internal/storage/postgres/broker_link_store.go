package postgres

import (
	"context"
	"fmt"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// BrokerLinkStore implements storage.BrokerLinkStore using PostgreSQL.
type BrokerLinkStore struct {
	pool *Pool
}

// NewBrokerLinkStore creates a new BrokerLinkStore.
func NewBrokerLinkStore(pool *Pool) *BrokerLinkStore {
	return &BrokerLinkStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BrokerLinkStore = (*BrokerLinkStore)(nil)

// Upsert inserts or replaces the link for (user_id, provider).
func (s *BrokerLinkStore) Upsert(ctx context.Context, l *domain.BrokerLink) error {
	query := `
		INSERT INTO broker_links (user_id, provider, access_token, refresh_token, token_expiry, linked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expiry = EXCLUDED.token_expiry,
			linked_at = EXCLUDED.linked_at
	`

	_, err := s.pool.Exec(ctx, query,
		l.UserID, l.Provider, l.AccessToken, l.RefreshToken, l.TokenExpiry, l.LinkedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert broker link: %w", err)
	}
	return nil
}

// Get retrieves the link for (user_id, provider). Returns ErrNotFound if not exists.
func (s *BrokerLinkStore) Get(ctx context.Context, userID, provider string) (*domain.BrokerLink, error) {
	query := `
		SELECT user_id, provider, access_token, refresh_token, token_expiry, linked_at
		FROM broker_links WHERE user_id = $1 AND provider = $2
	`

	var l domain.BrokerLink
	err := s.pool.QueryRow(ctx, query, userID, provider).Scan(
		&l.UserID, &l.Provider, &l.AccessToken, &l.RefreshToken, &l.TokenExpiry, &l.LinkedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get broker link: %w", err)
	}
	return &l, nil
}

// Delete removes the link. Returns ErrNotFound if not exists.
func (s *BrokerLinkStore) Delete(ctx context.Context, userID, provider string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM broker_links WHERE user_id = $1 AND provider = $2`, userID, provider)
	if err != nil {
		return fmt.Errorf("delete broker link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
