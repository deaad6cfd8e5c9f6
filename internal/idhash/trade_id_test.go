package idhash

import (
	"testing"
)

func TestComputeTradeID(t *testing.T) {
	tests := []struct {
		name          string
		accountID     string
		instrumentKey string
		openedAtMs    int64
		sequence      int
		wantLen       int // hash length should be 64
	}{
		{
			name:          "long trade",
			accountID:     "acct-1f2e3d",
			instrumentKey: "conid:265598",
			openedAtMs:    1736778600000,
			sequence:      0,
			wantLen:       64,
		},
		{
			name:          "symbol fallback key",
			accountID:     "acct-9a8b7c",
			instrumentKey: "symbol:AAPL",
			openedAtMs:    1736778660000,
			sequence:      3,
			wantLen:       64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.accountID, tt.instrumentKey, tt.openedAtMs, tt.sequence)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeTradeID() length = %d, want %d", len(got), tt.wantLen)
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeTradeID(tt.accountID, tt.instrumentKey, tt.openedAtMs, tt.sequence)
			if got != got2 {
				t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeTradeID_DifferentInputs(t *testing.T) {
	base := ComputeTradeID("account", "conid:1", 1000, 0)

	// Different account should produce different hash
	diffAccount := ComputeTradeID("other_account", "conid:1", 1000, 0)
	if base == diffAccount {
		t.Error("Different account should produce different hash")
	}

	// Different instrument should produce different hash
	diffInstrument := ComputeTradeID("account", "conid:2", 1000, 0)
	if base == diffInstrument {
		t.Error("Different instrument should produce different hash")
	}

	// Different open time should produce different hash
	diffTime := ComputeTradeID("account", "conid:1", 2000, 0)
	if base == diffTime {
		t.Error("Different open time should produce different hash")
	}

	// Different sequence should produce different hash, as happens on a flip
	diffSeq := ComputeTradeID("account", "conid:1", 1000, 1)
	if base == diffSeq {
		t.Error("Different sequence should produce different hash")
	}
}
