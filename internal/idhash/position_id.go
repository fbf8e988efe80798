package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePositionID computes a deterministic position ID using SHA256.
// Formula: SHA256(user|token_mint|opened_at_ms|trade_seq)
// Returns hex-encoded hash (64 characters).
func ComputePositionID(user, tokenMint string, openedAtMs int64, tradeSeq uint64) string {
	data := fmt.Sprintf("%s|%s|%d|%d", user, tokenMint, openedAtMs, tradeSeq)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
