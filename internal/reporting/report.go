package reporting

import (
	"time"

	"tradejournal/internal/metrics"
)

// Report is the complete journal report for one account.
type Report struct {
	// Metadata
	GeneratedAt   time.Time `json:"generated_at"`
	AccountID     string    `json:"account_id"`
	AccountNumber string    `json:"account_number"`
	Timezone      string    `json:"timezone"`

	// Closed-trade summary
	Overview metrics.Overview `json:"overview"`

	// Cumulative daily P&L (sorted by day ASC)
	EquityCurve []*metrics.EquityPoint `json:"equity_curve"`

	// Breakdowns
	InstrumentStats []*metrics.InstrumentStat  `json:"instrument_stats"`
	EntryHourStats  []*metrics.HourStat        `json:"entry_hour_stats"`
	PriceBuckets    []*metrics.PriceBucketStat `json:"price_buckets"`
}
