package memory

import (
	"context"
	"errors"
	"testing"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

func sampleTrade(id, userID string, createdAt int64) *domain.Trade {
	return &domain.Trade{
		TradeID:   id,
		UserID:    userID,
		Symbol:    "AAPL",
		Direction: domain.DirectionLong,
		Market:    domain.MarketUS,
		Entry:     100,
		Stop:      95,
		Status:    domain.StatusActive,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Contracts: []domain.Contract{
			{ContractID: id + "-c1", EntryPrice: 100, Shares: 50, AddedAt: createdAt},
		},
	}
}

func TestTradeStore_InsertAndGet(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	if err := store.Insert(ctx, sampleTrade("t1", "u1", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Symbol != "AAPL" {
		t.Errorf("Symbol mismatch: got %s", got.Symbol)
	}
	if len(got.Contracts) != 1 {
		t.Errorf("Expected 1 contract, got %d", len(got.Contracts))
	}
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	if err := store.Insert(ctx, sampleTrade("t1", "u1", 1000)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, sampleTrade("t1", "u1", 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeStore_UserScoping(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	if err := store.Insert(ctx, sampleTrade("t1", "u1", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Another user's lookup must behave as not found.
	if _, err := store.GetByID(ctx, "u2", "t1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for wrong user, got %v", err)
	}
	if err := store.Delete(ctx, "u2", "t1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on cross-user delete, got %v", err)
	}

	// Owner still sees it.
	if _, err := store.GetByID(ctx, "u1", "t1"); err != nil {
		t.Errorf("Owner lookup failed: %v", err)
	}
}

func TestTradeStore_ListByUser_NewestFirst(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	store.Insert(ctx, sampleTrade("t1", "u1", 1000))
	store.Insert(ctx, sampleTrade("t2", "u1", 3000))
	store.Insert(ctx, sampleTrade("t3", "u1", 2000))
	store.Insert(ctx, sampleTrade("x1", "u2", 5000))

	trades, err := store.ListByUser(ctx, "u1", "")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(trades) != 3 {
		t.Fatalf("Expected 3 trades, got %d", len(trades))
	}
	if trades[0].TradeID != "t2" || trades[1].TradeID != "t3" || trades[2].TradeID != "t1" {
		t.Errorf("Wrong order: %s, %s, %s", trades[0].TradeID, trades[1].TradeID, trades[2].TradeID)
	}
}

func TestTradeStore_ListByUser_StatusFilter(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	open := sampleTrade("t1", "u1", 1000)
	closed := sampleTrade("t2", "u1", 2000)
	closed.Status = domain.StatusClosed
	store.Insert(ctx, open)
	store.Insert(ctx, closed)

	trades, err := store.ListByUser(ctx, "u1", domain.StatusClosed)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(trades) != 1 || trades[0].TradeID != "t2" {
		t.Errorf("Expected only t2, got %d trades", len(trades))
	}
}

func TestTradeStore_Update(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	tr := sampleTrade("t1", "u1", 1000)
	store.Insert(ctx, tr)

	tr.Stop = 97
	tr.UpdatedAt = 2000
	if err := store.Update(ctx, tr); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "u1", "t1")
	if got.Stop != 97 {
		t.Errorf("Expected updated stop 97, got %f", got.Stop)
	}

	// Updating a missing trade fails.
	missing := sampleTrade("nope", "u1", 1000)
	if err := store.Update(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTradeStore_CopyOnRead(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	store.Insert(ctx, sampleTrade("t1", "u1", 1000))

	got, _ := store.GetByID(ctx, "u1", "t1")
	got.Contracts[0].Shares = 9999

	again, _ := store.GetByID(ctx, "u1", "t1")
	if again.Contracts[0].Shares != 50 {
		t.Errorf("Stored state mutated through returned copy")
	}
}

func TestTradeStore_DeleteByUser(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	store.Insert(ctx, sampleTrade("t1", "g1", 1000))
	store.Insert(ctx, sampleTrade("t2", "g1", 2000))
	store.Insert(ctx, sampleTrade("t3", "u1", 3000))

	if n := store.DeleteByUser(ctx, "g1"); n != 2 {
		t.Errorf("Expected 2 deleted, got %d", n)
	}
	trades, _ := store.ListByUser(ctx, "u1", "")
	if len(trades) != 1 {
		t.Errorf("Other user's trades must survive, got %d", len(trades))
	}
}
