// Package reporting renders account-level journal reports from computed
// analytics, as Markdown for reading and CSV for spreadsheets.
package reporting

import (
	"context"
	"fmt"
	"time"

	"tradejournal/internal/metrics"
	"tradejournal/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	accountStore storage.AccountStore
	calculator   *metrics.Calculator
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(accountStore storage.AccountStore, calculator *metrics.Calculator) *Generator {
	return &Generator{
		accountStore: accountStore,
		calculator:   calculator,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces the full journal report for one account. timezone is
// the report timezone used for the entry-hour breakdown.
func (g *Generator) Generate(ctx context.Context, accountID, timezone string) (*Report, error) {
	account, err := g.accountStore.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", accountID, err)
	}

	overview, err := g.calculator.Overview(ctx, accountID)
	if err != nil {
		return nil, err
	}
	curve, err := g.calculator.EquityCurve(ctx, accountID, false)
	if err != nil {
		return nil, err
	}
	instruments, err := g.calculator.InstrumentStats(ctx, accountID)
	if err != nil {
		return nil, err
	}
	hours, err := g.calculator.EntryHourStats(ctx, accountID, timezone, false)
	if err != nil {
		return nil, err
	}
	buckets, err := g.calculator.PriceBucketStats(ctx, accountID, nil, false)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt:     g.now(),
		AccountID:       account.ID,
		AccountNumber:   account.AccountNumber,
		Timezone:        timezone,
		Overview:        *overview,
		EquityCurve:     curve,
		InstrumentStats: instruments,
		EntryHourStats:  hours,
		PriceBuckets:    buckets,
	}, nil
}
