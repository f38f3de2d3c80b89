package domain

import (
	"errors"
	"fmt"
	"math"
)

// Validation errors.
var (
	ErrInvalidPrice     = errors.New("price must be positive and finite")
	ErrStopSide         = errors.New("stop must be on the loss side of entry")
	ErrTargetSide       = errors.New("target must be on the profit side of entry")
	ErrLotSize          = errors.New("share count must be a multiple of the market lot size")
	ErrInvalidShares    = errors.New("share count must be positive")
	ErrInvalidDirection = errors.New("direction must be LONG or SHORT")
	ErrInvalidMarket    = errors.New("market must be US or CN")
	ErrInvalidSymbol    = errors.New("symbol must not be empty")
)

// validPrice reports whether p is a usable price.
func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

// ValidateStopSide checks that stop lies on the loss side of entry.
func ValidateStopSide(direction Direction, entry, stop float64) error {
	switch direction {
	case DirectionLong:
		if stop >= entry {
			return ErrStopSide
		}
	case DirectionShort:
		if stop <= entry {
			return ErrStopSide
		}
	default:
		return ErrInvalidDirection
	}
	return nil
}

// ValidateTargetSide checks that target lies on the profit side of entry.
func ValidateTargetSide(direction Direction, entry, target float64) error {
	switch direction {
	case DirectionLong:
		if target <= entry {
			return ErrTargetSide
		}
	case DirectionShort:
		if target >= entry {
			return ErrTargetSide
		}
	default:
		return ErrInvalidDirection
	}
	return nil
}

// Validate checks all trade invariants. Called before every write.
func (t *Trade) Validate() error {
	if t.Symbol == "" {
		return ErrInvalidSymbol
	}
	if t.Market != MarketUS && t.Market != MarketCN {
		return ErrInvalidMarket
	}
	if !validPrice(t.Entry) || !validPrice(t.Stop) {
		return ErrInvalidPrice
	}
	if err := ValidateStopSide(t.Direction, t.Entry, t.Stop); err != nil {
		return err
	}
	if t.Target != nil {
		if !validPrice(*t.Target) {
			return ErrInvalidPrice
		}
		if err := ValidateTargetSide(t.Direction, t.Entry, *t.Target); err != nil {
			return err
		}
	}

	lot := t.Market.LotSize()
	for i := range t.Contracts {
		c := &t.Contracts[i]
		if c.Shares <= 0 {
			return fmt.Errorf("contract %s: %w", c.ContractID, ErrInvalidShares)
		}
		if c.Shares%lot != 0 {
			return fmt.Errorf("contract %s: %w", c.ContractID, ErrLotSize)
		}
		if !validPrice(c.EntryPrice) {
			return fmt.Errorf("contract %s: %w", c.ContractID, ErrInvalidPrice)
		}
		if c.ContractStop != nil {
			if !validPrice(*c.ContractStop) {
				return fmt.Errorf("contract %s: %w", c.ContractID, ErrInvalidPrice)
			}
			if err := ValidateStopSide(t.Direction, c.EntryPrice, *c.ContractStop); err != nil {
				return fmt.Errorf("contract %s: %w", c.ContractID, err)
			}
		}
	}

	return nil
}
