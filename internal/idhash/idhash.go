// Package idhash generates deterministic record IDs and opaque tokens.
package idhash

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(user_id|symbol|direction|created_at)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(userID, symbol, direction string, createdAt int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", userID, symbol, direction, createdAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeContractID computes a deterministic contract_id using SHA256.
// Formula: SHA256(trade_id|entry_price|shares|added_at)
func ComputeContractID(tradeID string, entryPrice float64, shares int64, addedAt int64) string {
	data := fmt.Sprintf("%s|%g|%d|%d", tradeID, entryPrice, shares, addedAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeUserID computes a deterministic user_id from the account email.
func ComputeUserID(email string) string {
	hash := sha256.Sum256([]byte("user|" + email))
	return hex.EncodeToString(hash[:])
}

// NewToken returns a base58-encoded random token of n bytes of entropy.
// Used for session and guest tokens; base58 keeps tokens copy-paste safe.
func NewToken(n int) (string, error) {
	if n <= 0 {
		n = 32
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base58.Encode(buf), nil
}
