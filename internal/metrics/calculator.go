// Package metrics computes portfolio analytics over reconstructed trades:
// equity curve, win rate, profit factor, and per-instrument, per-hour and
// per-price-band breakdowns.
package metrics

import (
	"context"
	"fmt"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/storage"
)

// Calculator loads reconstructed trades and day rows and derives analytics.
type Calculator struct {
	trades   storage.TradeStore
	dailyPnl storage.DailyPnlStore
}

// NewCalculator creates a new Calculator. dailyPnl may be nil when the
// daily timeseries store is not configured; RefreshDailyPnl then fails.
func NewCalculator(trades storage.TradeStore, dailyPnl storage.DailyPnlStore) *Calculator {
	return &Calculator{trades: trades, dailyPnl: dailyPnl}
}

// Overview returns the account's closed-trade summary.
func (c *Calculator) Overview(ctx context.Context, accountID string) (*Overview, error) {
	trades, err := c.trades.GetTradesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return computeOverview(trades), nil
}

// EquityCurve returns the cumulative daily P&L curve. With useGross the
// curve ignores commissions.
func (c *Calculator) EquityCurve(ctx context.Context, accountID string, useGross bool) ([]*EquityPoint, error) {
	days, err := c.trades.GetDaysByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load trade days: %w", err)
	}
	return computeEquityCurve(days, useGross), nil
}

// DailySummary aggregates one local day across all trades.
func (c *Calculator) DailySummary(ctx context.Context, accountID, day string) (*domain.DailyPnl, error) {
	days, err := c.trades.GetDaysByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load trade days: %w", err)
	}
	var matched []*domain.TradeDay
	for _, d := range days {
		if d.DayDateLocal == day {
			matched = append(matched, d)
		}
	}
	rows := computeDailyPnl(accountID, matched)
	if len(rows) == 0 {
		return &domain.DailyPnl{AccountID: accountID, Day: day}, nil
	}
	return rows[0], nil
}

// InstrumentStats returns per-symbol performance, sorted by symbol.
func (c *Calculator) InstrumentStats(ctx context.Context, accountID string) ([]*InstrumentStat, error) {
	trades, err := c.trades.GetTradesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return computeInstrumentStats(trades), nil
}

// EntryHourStats returns closed-trade performance grouped by the hour the
// trade opened, in the report timezone.
func (c *Calculator) EntryHourStats(ctx context.Context, accountID, timezone string, useGross bool) ([]*HourStat, error) {
	tz, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	trades, err := c.trades.GetTradesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return computeHourStats(trades, tz, useGross), nil
}

// PriceBucketStats returns closed-trade performance grouped by average
// entry price band. A nil edges slice uses DefaultPriceBucketEdges.
func (c *Calculator) PriceBucketStats(ctx context.Context, accountID string, edges []float64, useGross bool) ([]*PriceBucketStat, error) {
	if edges == nil {
		edges = DefaultPriceBucketEdges
	}
	trades, err := c.trades.GetTradesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return computePriceBucketStats(trades, edges, useGross), nil
}

// RefreshDailyPnl collapses the account's trade days into one row per day
// and replaces the daily timeseries. Run after every reconstruction.
func (c *Calculator) RefreshDailyPnl(ctx context.Context, accountID string) (int, error) {
	if c.dailyPnl == nil {
		return 0, fmt.Errorf("daily pnl store not configured")
	}
	days, err := c.trades.GetDaysByAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("load trade days: %w", err)
	}
	rows := computeDailyPnl(accountID, days)
	if err := c.dailyPnl.ReplaceForAccount(ctx, accountID, rows); err != nil {
		return 0, fmt.Errorf("replace daily pnl: %w", err)
	}
	return len(rows), nil
}
