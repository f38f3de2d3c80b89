package storage

import (
	"context"

	"trade-journal/internal/domain"
)

// TradeStore provides access to trades storage. All reads and writes are
// scoped by user: a trade owned by another user behaves as ErrNotFound.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// Update replaces an existing trade. Returns ErrNotFound if not exists.
	Update(ctx context.Context, t *domain.Trade) error

	// GetByID retrieves a trade owned by userID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, userID, tradeID string) (*domain.Trade, error)

	// ListByUser retrieves a user's trades, newest first.
	// An empty status matches all statuses.
	ListByUser(ctx context.Context, userID string, status domain.TradeStatus) ([]*domain.Trade, error)

	// Delete removes a trade owned by userID. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, userID, tradeID string) error
}

// UserStore provides access to users storage.
type UserStore interface {
	// Insert adds a new user. Returns ErrDuplicateKey if user_id or email exists.
	Insert(ctx context.Context, u *domain.User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, userID string) (*domain.User, error)

	// GetByEmail retrieves a user by email. Returns ErrNotFound if not exists.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SessionStore provides access to session tokens.
type SessionStore interface {
	// Insert adds a new session. Returns ErrDuplicateKey if token exists.
	Insert(ctx context.Context, s *domain.Session) error

	// GetByToken retrieves a session. Returns ErrNotFound if not exists.
	GetByToken(ctx context.Context, token string) (*domain.Session, error)

	// Delete removes a session. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes sessions past expiry and returns the removed
	// sessions, so callers can release data owned by expired guests.
	DeleteExpired(ctx context.Context, nowMs int64) ([]*domain.Session, error)
}

// SettingsStore provides access to per-user settings.
type SettingsStore interface {
	// Upsert inserts or replaces the user's settings.
	Upsert(ctx context.Context, s *domain.Settings) error

	// GetByUser retrieves the user's settings. Returns ErrNotFound if not exists.
	GetByUser(ctx context.Context, userID string) (*domain.Settings, error)
}

// BrokerLinkStore provides access to broker OAuth links.
type BrokerLinkStore interface {
	// Upsert inserts or replaces the link for (user_id, provider).
	Upsert(ctx context.Context, l *domain.BrokerLink) error

	// Get retrieves the link for (user_id, provider). Returns ErrNotFound if not exists.
	Get(ctx context.Context, userID, provider string) (*domain.BrokerLink, error)

	// Delete removes the link. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, userID, provider string) error
}

// OutcomeStore provides access to closed-trade analytics rows.
// Rows are append-only: a trade closes once.
type OutcomeStore interface {
	// Insert adds a new outcome. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, o *domain.TradeOutcome) error

	// GetByUser retrieves a user's outcomes, ordered by closed_at ASC.
	GetByUser(ctx context.Context, userID string) ([]*domain.TradeOutcome, error)

	// GetBySymbol retrieves a user's outcomes for one symbol, ordered by closed_at ASC.
	GetBySymbol(ctx context.Context, userID, symbol string) ([]*domain.TradeOutcome, error)
}
