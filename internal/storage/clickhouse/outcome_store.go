package clickhouse

import (
	"context"
	"fmt"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore using ClickHouse.
// MergeTree does not enforce uniqueness, so duplicates are detected with
// an explicit existence check before insert.
type OutcomeStore struct {
	conn *Conn
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(conn *Conn) *OutcomeStore {
	return &OutcomeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

const outcomeColumns = `
	trade_id, user_id, symbol, market, direction,
	position_size, entry_avg, exit_price, risk_amount,
	realized_pnl, realized_r, outcome_class,
	opened_at, closed_at, hold_duration_ms
`

// Insert adds a new outcome. Returns ErrDuplicateKey if trade_id exists.
func (s *OutcomeStore) Insert(ctx context.Context, o *domain.TradeOutcome) error {
	exists, err := s.exists(ctx, o.TradeID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO trade_outcomes (` + outcomeColumns + `) VALUES (
			?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?
		)
	`

	err = s.conn.Exec(ctx, query,
		o.TradeID, o.UserID, o.Symbol, string(o.Market), string(o.Direction),
		o.PositionSize, o.EntryAvg, o.ExitPrice, o.RiskAmount,
		o.RealizedPnL, o.RealizedR, o.OutcomeClass,
		o.OpenedAt, o.ClosedAt, o.HoldDurationMs,
	)
	if err != nil {
		return fmt.Errorf("insert trade outcome: %w", err)
	}
	return nil
}

// GetByUser retrieves a user's outcomes, ordered by closed_at ASC.
func (s *OutcomeStore) GetByUser(ctx context.Context, userID string) ([]*domain.TradeOutcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM trade_outcomes
		WHERE user_id = ?
		ORDER BY closed_at ASC, trade_id ASC
	`
	return s.query(ctx, query, userID)
}

// GetBySymbol retrieves a user's outcomes for one symbol, ordered by closed_at ASC.
func (s *OutcomeStore) GetBySymbol(ctx context.Context, userID, symbol string) ([]*domain.TradeOutcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM trade_outcomes
		WHERE user_id = ? AND symbol = ?
		ORDER BY closed_at ASC, trade_id ASC
	`
	return s.query(ctx, query, userID, symbol)
}

func (s *OutcomeStore) exists(ctx context.Context, tradeID string) (bool, error) {
	var count uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM trade_outcomes WHERE trade_id = ?`, tradeID)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *OutcomeStore) query(ctx context.Context, query string, args ...any) ([]*domain.TradeOutcome, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trade outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*domain.TradeOutcome
	for rows.Next() {
		var o domain.TradeOutcome
		var market, direction string

		err := rows.Scan(
			&o.TradeID, &o.UserID, &o.Symbol, &market, &direction,
			&o.PositionSize, &o.EntryAvg, &o.ExitPrice, &o.RiskAmount,
			&o.RealizedPnL, &o.RealizedR, &o.OutcomeClass,
			&o.OpenedAt, &o.ClosedAt, &o.HoldDurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade outcome row: %w", err)
		}

		o.Market = domain.Market(market)
		o.Direction = domain.Direction(direction)
		outcomes = append(outcomes, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade outcome rows: %w", err)
	}

	return outcomes, nil
}
