// Package journal implements the trade lifecycle: planning, filling,
// adjusting, and closing positions, with derived sizing kept consistent
// on every mutation.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"trade-journal/internal/domain"
	"trade-journal/internal/idhash"
	"trade-journal/internal/risk"
	"trade-journal/internal/storage"
)

var (
	// ErrTradeClosed is returned when mutating a trade that already closed.
	ErrTradeClosed = errors.New("trade is closed")

	// ErrNoPosition is returned when closing a trade with no filled contracts.
	ErrNoPosition = errors.New("trade has no filled contracts")

	// ErrContractNotFound is returned when a contract id does not belong to the trade.
	ErrContractNotFound = errors.New("contract not found")
)

// CreateInput describes a new trade. A positive Shares value logs an
// initial fill at the entry price; zero leaves the trade in PLANNED.
type CreateInput struct {
	Symbol    string
	Direction domain.Direction
	Market    domain.Market
	Entry     float64
	Stop      float64
	Target    *float64
	Shares    int64
	Notes     string
}

// ContractInput describes an additional fill on an existing trade.
type ContractInput struct {
	EntryPrice   float64
	Shares       int64
	ContractStop *float64
}

// Service implements trade journal operations over a TradeStore.
// Closed trades additionally produce an analytics row in the outcome store.
type Service struct {
	trades   storage.TradeStore
	outcomes storage.OutcomeStore
	logger   *zap.Logger
	now      func() time.Time // Injectable clock for deterministic tests
}

// NewService creates a journal service backed by the given stores.
func NewService(trades storage.TradeStore, outcomes storage.OutcomeStore, logger *zap.Logger) *Service {
	return &Service{
		trades:   trades,
		outcomes: outcomes,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates and stores a new trade. With Shares > 0 the trade opens
// ACTIVE with one contract filled at the entry price; otherwise PLANNED.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*domain.Trade, error) {
	nowMs := s.now().UnixMilli()

	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	trade := &domain.Trade{
		TradeID:   idhash.ComputeTradeID(userID, symbol, string(in.Direction), nowMs),
		UserID:    userID,
		Symbol:    symbol,
		Direction: in.Direction,
		Market:    in.Market,
		Entry:     in.Entry,
		Stop:      in.Stop,
		Target:    in.Target,
		Status:    domain.StatusPlanned,
		Notes:     in.Notes,
		CreatedAt: nowMs,
		UpdatedAt: nowMs,
	}

	if in.Shares > 0 {
		trade.Status = domain.StatusActive
		trade.Contracts = []domain.Contract{{
			ContractID: idhash.ComputeContractID(trade.TradeID, in.Entry, in.Shares, nowMs),
			EntryPrice: in.Entry,
			Shares:     in.Shares,
			AddedAt:    nowMs,
		}}
	}

	if err := trade.Validate(); err != nil {
		return nil, err
	}
	s.recompute(trade)

	if err := s.trades.Insert(ctx, trade); err != nil {
		return nil, fmt.Errorf("insert trade: %w", err)
	}

	s.logger.Info("trade created",
		zap.String("trade_id", trade.TradeID),
		zap.String("symbol", trade.Symbol),
		zap.String("status", string(trade.Status)))
	return trade, nil
}

// Get retrieves a trade owned by userID.
func (s *Service) Get(ctx context.Context, userID, tradeID string) (*domain.Trade, error) {
	return s.trades.GetByID(ctx, userID, tradeID)
}

// List retrieves the user's trades, newest first. Empty status matches all.
func (s *Service) List(ctx context.Context, userID string, status domain.TradeStatus) ([]*domain.Trade, error) {
	return s.trades.ListByUser(ctx, userID, status)
}

// AddContract logs an additional fill. A planned trade becomes active on
// its first fill.
func (s *Service) AddContract(ctx context.Context, userID, tradeID string, in ContractInput) (*domain.Trade, error) {
	trade, err := s.getOpen(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}

	nowMs := s.now().UnixMilli()
	trade.Contracts = append(trade.Contracts, domain.Contract{
		ContractID:   idhash.ComputeContractID(trade.TradeID, in.EntryPrice, in.Shares, nowMs),
		EntryPrice:   in.EntryPrice,
		Shares:       in.Shares,
		ContractStop: in.ContractStop,
		AddedAt:      nowMs,
	})
	trade.Status = domain.StatusActive

	return s.saveMutation(ctx, trade, nowMs, "contract added")
}

// AdjustStop moves the trade-level stop. The new stop must stay strictly
// on the loss side of the planned entry. Relative to contracts filled
// beyond the plan it may still reach their entries or better, which
// zeroes those contracts' risk.
func (s *Service) AdjustStop(ctx context.Context, userID, tradeID string, stop float64) (*domain.Trade, error) {
	trade, err := s.getOpen(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}

	trade.Stop = stop
	return s.saveMutation(ctx, trade, s.now().UnixMilli(), "stop adjusted")
}

// SetContractStop sets or clears a per-contract stop override.
// A nil stop reverts the contract to the trade-level stop.
func (s *Service) SetContractStop(ctx context.Context, userID, tradeID, contractID string, stop *float64) (*domain.Trade, error) {
	trade, err := s.getOpen(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}

	c := findContract(trade, contractID)
	if c == nil {
		return nil, ErrContractNotFound
	}
	c.ContractStop = stop

	return s.saveMutation(ctx, trade, s.now().UnixMilli(), "contract stop set")
}

// EditShares changes a contract's share count. Zero shares removes the
// contract; a trade whose last contract is removed reverts to PLANNED.
func (s *Service) EditShares(ctx context.Context, userID, tradeID, contractID string, shares int64) (*domain.Trade, error) {
	trade, err := s.getOpen(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range trade.Contracts {
		if trade.Contracts[i].ContractID == contractID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrContractNotFound
	}

	if shares == 0 {
		trade.Contracts = append(trade.Contracts[:idx], trade.Contracts[idx+1:]...)
		if len(trade.Contracts) == 0 {
			trade.Status = domain.StatusPlanned
		}
	} else {
		trade.Contracts[idx].Shares = shares
	}

	return s.saveMutation(ctx, trade, s.now().UnixMilli(), "shares edited")
}

// UpdatePlan changes the planned target and notes.
func (s *Service) UpdatePlan(ctx context.Context, userID, tradeID string, target *float64, notes string) (*domain.Trade, error) {
	trade, err := s.getOpen(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}

	trade.Target = target
	trade.Notes = notes
	return s.saveMutation(ctx, trade, s.now().UnixMilli(), "plan updated")
}

// Close exits the full position at exitPrice, computes the realized
// outcome, and records an analytics row. Closing is terminal.
func (s *Service) Close(ctx context.Context, userID, tradeID string, exitPrice float64) (*domain.Trade, error) {
	trade, err := s.getOpen(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}
	if len(trade.Contracts) == 0 {
		return nil, ErrNoPosition
	}
	if exitPrice <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	s.recompute(trade)

	nowMs := s.now().UnixMilli()
	entryAvg := trade.WeightedEntry()
	pnl := risk.RealizedPnL(trade.Direction, entryAvg, exitPrice, trade.PositionSize)
	r := risk.RealizedR(pnl, trade.RiskAmount)

	trade.Status = domain.StatusClosed
	trade.ClosedAt = &nowMs
	trade.ExitPrice = &exitPrice
	trade.RealizedPnL = &pnl
	trade.RealizedR = &r
	trade.UpdatedAt = nowMs

	if err := s.trades.Update(ctx, trade); err != nil {
		return nil, fmt.Errorf("update trade: %w", err)
	}

	outcome := &domain.TradeOutcome{
		TradeID:        trade.TradeID,
		UserID:         trade.UserID,
		Symbol:         trade.Symbol,
		Market:         trade.Market,
		Direction:      trade.Direction,
		PositionSize:   trade.PositionSize,
		EntryAvg:       entryAvg,
		ExitPrice:      exitPrice,
		RiskAmount:     trade.RiskAmount,
		RealizedPnL:    pnl,
		RealizedR:      r,
		OutcomeClass:   outcomeClass(pnl),
		OpenedAt:       trade.CreatedAt,
		ClosedAt:       nowMs,
		HoldDurationMs: nowMs - trade.CreatedAt,
	}
	// The journal row is the source of truth; a failed analytics write
	// must not roll back the close.
	if err := s.outcomes.Insert(ctx, outcome); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		s.logger.Warn("outcome insert failed",
			zap.String("trade_id", trade.TradeID),
			zap.Error(err))
	}

	s.logger.Info("trade closed",
		zap.String("trade_id", trade.TradeID),
		zap.String("symbol", trade.Symbol),
		zap.Float64("realized_pnl", pnl),
		zap.Float64("realized_r", r))
	return trade, nil
}

// Delete removes a trade. Closed trades keep their analytics row.
func (s *Service) Delete(ctx context.Context, userID, tradeID string) error {
	if err := s.trades.Delete(ctx, userID, tradeID); err != nil {
		return err
	}
	s.logger.Info("trade deleted", zap.String("trade_id", tradeID))
	return nil
}

// getOpen retrieves a trade and rejects mutation of closed ones.
func (s *Service) getOpen(ctx context.Context, userID, tradeID string) (*domain.Trade, error) {
	trade, err := s.trades.GetByID(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Status == domain.StatusClosed {
		return nil, ErrTradeClosed
	}
	return trade, nil
}

// saveMutation validates, recomputes derived sizing, and persists the trade.
func (s *Service) saveMutation(ctx context.Context, trade *domain.Trade, nowMs int64, event string) (*domain.Trade, error) {
	if err := trade.Validate(); err != nil {
		return nil, err
	}
	s.recompute(trade)
	trade.UpdatedAt = nowMs

	if err := s.trades.Update(ctx, trade); err != nil {
		return nil, fmt.Errorf("update trade: %w", err)
	}

	s.logger.Info(event, zap.String("trade_id", trade.TradeID))
	return trade, nil
}

// recompute refreshes PositionSize and RiskAmount from the contracts.
func (s *Service) recompute(trade *domain.Trade) {
	if len(trade.Contracts) == 0 {
		trade.PositionSize = 0
		trade.RiskAmount = 0
		return
	}
	sum, err := risk.Summarize(trade)
	if err != nil {
		trade.PositionSize = 0
		trade.RiskAmount = 0
		return
	}
	trade.PositionSize = sum.TotalShares
	trade.RiskAmount = sum.TotalRisk
}

func findContract(trade *domain.Trade, contractID string) *domain.Contract {
	for i := range trade.Contracts {
		if trade.Contracts[i].ContractID == contractID {
			return &trade.Contracts[i]
		}
	}
	return nil
}

func outcomeClass(pnl float64) string {
	if pnl >= 0 {
		return domain.OutcomeClassWin
	}
	return domain.OutcomeClassLoss
}
