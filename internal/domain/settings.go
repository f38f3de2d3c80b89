package domain

import "errors"

// Settings errors.
var (
	ErrInvalidCapital = errors.New("capital must be positive")
	ErrInvalidRiskPct = errors.New("risk percent must be in (0, 100]")
)

// Settings holds per-user sizing defaults.
// Corresponds to the settings table in PostgreSQL.
type Settings struct {
	UserID         string // PRIMARY KEY
	Capital        float64
	DefaultRiskPct float64 // percent of capital risked per trade
	DefaultMarket  Market
	Currency       string // display currency, e.g. USD or CNY
	UpdatedAt      int64  // Unix timestamp in milliseconds
}

// DefaultSettings returns the settings applied to a new account.
func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID:         userID,
		Capital:        10000,
		DefaultRiskPct: 1.0,
		DefaultMarket:  MarketUS,
		Currency:       "USD",
	}
}

// Validate checks settings bounds.
func (s *Settings) Validate() error {
	if s.Capital <= 0 {
		return ErrInvalidCapital
	}
	if s.DefaultRiskPct <= 0 || s.DefaultRiskPct > 100 {
		return ErrInvalidRiskPct
	}
	if s.DefaultMarket != MarketUS && s.DefaultMarket != MarketCN {
		return ErrInvalidMarket
	}
	return nil
}
