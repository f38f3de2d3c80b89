package postgres

import (
	"context"
	"fmt"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// SettingsStore implements storage.SettingsStore using PostgreSQL.
type SettingsStore struct {
	pool *Pool
}

// NewSettingsStore creates a new SettingsStore.
func NewSettingsStore(pool *Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SettingsStore = (*SettingsStore)(nil)

// Upsert inserts or replaces the user's settings.
func (s *SettingsStore) Upsert(ctx context.Context, st *domain.Settings) error {
	query := `
		INSERT INTO settings (user_id, capital, default_risk_pct, default_market, currency, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			capital = EXCLUDED.capital,
			default_risk_pct = EXCLUDED.default_risk_pct,
			default_market = EXCLUDED.default_market,
			currency = EXCLUDED.currency,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		st.UserID, st.Capital, st.DefaultRiskPct, string(st.DefaultMarket), st.Currency, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// GetByUser retrieves the user's settings. Returns ErrNotFound if not exists.
func (s *SettingsStore) GetByUser(ctx context.Context, userID string) (*domain.Settings, error) {
	query := `
		SELECT user_id, capital, default_risk_pct, default_market, currency, updated_at
		FROM settings WHERE user_id = $1
	`

	var st domain.Settings
	var market string
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&st.UserID, &st.Capital, &st.DefaultRiskPct, &market, &st.Currency, &st.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	st.DefaultMarket = domain.Market(market)
	return &st, nil
}
