package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade id using SHA256.
// Formula: SHA256(account_id|instrument_key|opened_at_ms|sequence)
// The per-instrument sequence disambiguates flips, where a new trade opens
// at the same instant the previous one closes.
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	accountID string,
	instrumentKey string,
	openedAtMs int64,
	sequence int,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		accountID,
		instrumentKey,
		openedAtMs,
		sequence,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
