package domain

import "time"

// Direction is the side of the market a trade is positioned on.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	return string(d)
}

// TradeStatus tracks whether a trade has fully closed.
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "open"
	TradeStatusClosed TradeStatus = "closed"
)

// Trade is a reconstructed round-trip position, from flat back to flat
// (or still open). It may span multiple executions, days and partial fills.
type Trade struct {
	ID            string // deterministic hash, see idhash.ComputeTradeID
	AccountID     string
	Symbol        string
	ConID         *int64
	InstrumentKey string

	Direction Direction
	Status    TradeStatus

	OpenedAtUTC time.Time
	ClosedAtUTC *time.Time // nil until fully closed

	QuantityOpened float64
	QuantityClosed float64

	// Quantity-weighted fill averages, maintained as fills accrue.
	AvgEntryPrice float64
	AvgExitPrice  float64

	GrossPnlTotal   float64
	CommissionTotal float64 // negative cost
	NetPnlTotal     float64 // always GrossPnlTotal + CommissionTotal
}

// Role says which end of a trade an execution link contributed to.
type Role string

const (
	RoleOpen  Role = "open"
	RoleClose Role = "close"
)

// TradeExecutionLink records how much of one execution contributed to one
// trade. Never mutated after creation. A flip produces two links for the
// same execution: one close on the old trade and one open on the new one.
type TradeExecutionLink struct {
	TradeID     string
	ExecutionID string // surrogate id of the execution
	SignedQty   float64
	Role        Role
}

// DayStatus classifies one local calendar day within a trade's lifetime.
type DayStatus string

const (
	DayStatusOpened   DayStatus = "opened"   // first day of the trade, no close activity
	DayStatusAdjusted DayStatus = "adjusted" // any other day with partial activity
	DayStatusClosed   DayStatus = "closed"   // the day the trade's last share closes
)

// TradeDay is the slice of a trade's realized P&L attributed to one local
// calendar day. Rows are rebuilt wholesale on each reconstruction run and
// never mutated afterwards.
type TradeDay struct {
	TradeID      string
	DayDateLocal string // YYYY-MM-DD in the report timezone
	DayStatus    DayStatus

	RealizedGross float64
	Commissions   float64
	RealizedNet   float64 // RealizedGross + Commissions

	SharesClosed float64
}

// DailyPnl is the account-level daily aggregate of TradeDay rows, kept in
// the timeseries store for equity-curve queries.
type DailyPnl struct {
	AccountID    string
	Day          string // YYYY-MM-DD in the report timezone
	Gross        float64
	Commissions  float64
	Net          float64
	TradesActive int // distinct trades with activity that day
	SharesClosed float64
}
