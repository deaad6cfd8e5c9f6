package domain

import (
	"strconv"
	"time"
)

// Side is the direction of a single fill as reported by the broker.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// String returns the string representation of Side.
func (s Side) String() string {
	return string(s)
}

// IsValid checks if the side is a valid value.
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// Execution is a single broker fill normalized from a Flex export.
// Immutable once imported. Unique per (account_id, execution_id).
type Execution struct {
	ID          string // surrogate uuid
	AccountID   string
	ExecutionID string // broker trade id, unique within the account
	Symbol      string
	ConID       *int64 // broker contract id (nullable)

	TsUTC time.Time // execution instant; zero value means unparseable
	TsRaw string    // raw timestamp string as exported

	Side       Side
	Quantity   float64 // always > 0; sign is carried by Side
	Price      float64
	Commission float64 // negative by broker convention

	Exchange  string
	OrderType string
	Currency  string
}

// SignedQuantity returns +Quantity for BUY and -Quantity for SELL.
func (e *Execution) SignedQuantity() float64 {
	if e.Side == SideSell {
		return -e.Quantity
	}
	return e.Quantity
}

// InstrumentKey identifies the instrument for position tracking. The numeric
// contract id is preferred over the symbol, since symbols can be reassigned
// across instruments over time.
func (e *Execution) InstrumentKey() string {
	if e.ConID != nil {
		return "conid:" + strconv.FormatInt(*e.ConID, 10)
	}
	return "symbol:" + e.Symbol
}
