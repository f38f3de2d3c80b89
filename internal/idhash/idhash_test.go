package idhash

import (
	"testing"
)

func TestComputeTradeID(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		symbol    string
		direction string
		createdAt int64
		wantLen   int // hash length should be 64
	}{
		{
			name:      "long trade",
			userID:    "u-abc123",
			symbol:    "AAPL",
			direction: "LONG",
			createdAt: 1704067234567,
			wantLen:   64,
		},
		{
			name:      "cn short trade",
			userID:    "u-xyz789",
			symbol:    "600519",
			direction: "SHORT",
			createdAt: 1704067300000,
			wantLen:   64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.userID, tt.symbol, tt.direction, tt.createdAt)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeTradeID() length = %d, want %d", len(got), tt.wantLen)
			}

			// Verify determinism: same inputs should produce same output.
			again := ComputeTradeID(tt.userID, tt.symbol, tt.direction, tt.createdAt)
			if got != again {
				t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, again)
			}
		})
	}
}

func TestComputeTradeID_DistinctInputs(t *testing.T) {
	a := ComputeTradeID("u1", "AAPL", "LONG", 1704067234567)
	b := ComputeTradeID("u1", "AAPL", "SHORT", 1704067234567)
	if a == b {
		t.Error("different directions must produce different trade IDs")
	}

	c := ComputeTradeID("u2", "AAPL", "LONG", 1704067234567)
	if a == c {
		t.Error("different users must produce different trade IDs")
	}
}

func TestComputeContractID(t *testing.T) {
	a := ComputeContractID("trade-1", 50.25, 100, 1704067234567)
	b := ComputeContractID("trade-1", 50.25, 100, 1704067234567)
	if a != b {
		t.Error("ComputeContractID() not deterministic")
	}
	if len(a) != 64 {
		t.Errorf("ComputeContractID() length = %d, want 64", len(a))
	}

	c := ComputeContractID("trade-1", 50.25, 200, 1704067234567)
	if a == c {
		t.Error("different shares must produce different contract IDs")
	}
}

func TestNewToken(t *testing.T) {
	tok, err := NewToken(32)
	if err != nil {
		t.Fatalf("NewToken failed: %v", err)
	}
	if tok == "" {
		t.Fatal("expected non-empty token")
	}

	other, err := NewToken(32)
	if err != nil {
		t.Fatalf("NewToken failed: %v", err)
	}
	if tok == other {
		t.Error("two tokens should not collide")
	}
}
