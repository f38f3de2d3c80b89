package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
// Contracts are stored as a JSONB column: the lot list always travels
// with its trade, mirroring the embedded document shape.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	trade_id, user_id, symbol, direction, market,
	entry, stop, target, position_size, risk_amount,
	contracts, status, notes,
	created_at, updated_at, closed_at, exit_price, realized_pnl, realized_r
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	contracts, err := json.Marshal(t.Contracts)
	if err != nil {
		return fmt.Errorf("marshal contracts: %w", err)
	}

	query := `
		INSERT INTO trades (` + tradeColumns + `) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13,
			$14, $15, $16, $17, $18, $19
		)
	`

	_, err = s.pool.Exec(ctx, query,
		t.TradeID, t.UserID, t.Symbol, string(t.Direction), string(t.Market),
		t.Entry, t.Stop, t.Target, t.PositionSize, t.RiskAmount,
		contracts, string(t.Status), t.Notes,
		t.CreatedAt, t.UpdatedAt, t.ClosedAt, t.ExitPrice, t.RealizedPnL, t.RealizedR,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Update replaces an existing trade. Returns ErrNotFound if not exists.
func (s *TradeStore) Update(ctx context.Context, t *domain.Trade) error {
	contracts, err := json.Marshal(t.Contracts)
	if err != nil {
		return fmt.Errorf("marshal contracts: %w", err)
	}

	query := `
		UPDATE trades SET
			symbol = $3, direction = $4, market = $5,
			entry = $6, stop = $7, target = $8, position_size = $9, risk_amount = $10,
			contracts = $11, status = $12, notes = $13,
			updated_at = $14, closed_at = $15, exit_price = $16, realized_pnl = $17, realized_r = $18
		WHERE trade_id = $1 AND user_id = $2
	`

	tag, err := s.pool.Exec(ctx, query,
		t.TradeID, t.UserID, t.Symbol, string(t.Direction), string(t.Market),
		t.Entry, t.Stop, t.Target, t.PositionSize, t.RiskAmount,
		contracts, string(t.Status), t.Notes,
		t.UpdatedAt, t.ClosedAt, t.ExitPrice, t.RealizedPnL, t.RealizedR,
	)
	if err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a trade owned by userID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, userID, tradeID string) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE trade_id = $1 AND user_id = $2`

	row := s.pool.QueryRow(ctx, query, tradeID, userID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// ListByUser retrieves a user's trades, newest first.
func (s *TradeStore) ListByUser(ctx context.Context, userID string, status domain.TradeStatus) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, trade_id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trades by user: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// Delete removes a trade owned by userID. Returns ErrNotFound if not exists.
func (s *TradeStore) Delete(ctx context.Context, userID, tradeID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trades WHERE trade_id = $1 AND user_id = $2`, tradeID, userID)
	if err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanTrade scans a single row into a Trade.
func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	var direction, market, status string
	var contracts []byte

	err := row.Scan(
		&t.TradeID, &t.UserID, &t.Symbol, &direction, &market,
		&t.Entry, &t.Stop, &t.Target, &t.PositionSize, &t.RiskAmount,
		&contracts, &status, &t.Notes,
		&t.CreatedAt, &t.UpdatedAt, &t.ClosedAt, &t.ExitPrice, &t.RealizedPnL, &t.RealizedR,
	)
	if err != nil {
		return nil, err
	}

	t.Direction = domain.Direction(direction)
	t.Market = domain.Market(market)
	t.Status = domain.TradeStatus(status)
	if len(contracts) > 0 {
		if err := json.Unmarshal(contracts, &t.Contracts); err != nil {
			return nil, fmt.Errorf("unmarshal contracts: %w", err)
		}
	}

	return &t, nil
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
