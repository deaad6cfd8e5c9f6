// Package reconstruct rebuilds round-trip trades from raw executions.
// It walks each instrument's execution history in time order, matches
// closes against opens FIFO, and buckets realized P&L into local trading
// days.
package reconstruct

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/storage"
)

// Reconstructor rebuilds an account's trades from its stored executions.
// Each run is a full rebuild: prior derived rows for the account are
// replaced atomically, so re-running over the same executions is a no-op.
type Reconstructor struct {
	executions storage.ExecutionStore
	trades     storage.TradeStore
	verbose    bool
}

// Options for creating Reconstructor.
type Options struct {
	ExecutionStore storage.ExecutionStore
	TradeStore     storage.TradeStore
	Verbose        bool
}

// New creates a new Reconstructor.
func New(opts Options) *Reconstructor {
	return &Reconstructor{
		executions: opts.ExecutionStore,
		trades:     opts.TradeStore,
		verbose:    opts.Verbose,
	}
}

// Result summarizes one reconstruction run.
type Result struct {
	ExecutionsProcessed int
	TradesCreated       int
	TradeDaysCreated    int
	LinksCreated        int
	Warnings            []string
}

// ReconstructAccount rebuilds all trades for one account. timezone names
// the IANA zone used to bucket P&L into trading days (e.g. "US/Eastern").
func (r *Reconstructor) ReconstructAccount(ctx context.Context, accountID, timezone string) (*Result, error) {
	tz, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	executions, err := r.executions.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load executions for account %s: %w", accountID, err)
	}
	r.log("account %s: %d executions", accountID, len(executions))

	result := &Result{}

	usable := make([]*domain.Execution, 0, len(executions))
	for _, exe := range executions {
		if exe.TsUTC.IsZero() {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("execution %s has no timestamp, skipped", exe.ExecutionID))
			continue
		}
		if exe.Quantity <= 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("execution %s has non-positive quantity %f, skipped", exe.ExecutionID, exe.Quantity))
			continue
		}
		usable = append(usable, exe)
	}

	// Stores return rows ordered already; re-sort so correctness does not
	// depend on the backend.
	sort.SliceStable(usable, func(i, j int) bool {
		if !usable[i].TsUTC.Equal(usable[j].TsUTC) {
			return usable[i].TsUTC.Before(usable[j].TsUTC)
		}
		return usable[i].ExecutionID < usable[j].ExecutionID
	})

	// Partition by instrument, preserving first-seen order.
	var keys []string
	byInstrument := make(map[string][]*domain.Execution)
	for _, exe := range usable {
		key := exe.InstrumentKey()
		if _, ok := byInstrument[key]; !ok {
			keys = append(keys, key)
		}
		byInstrument[key] = append(byInstrument[key], exe)
	}

	var (
		trades []*domain.Trade
		links  []*domain.TradeExecutionLink
		days   []*domain.TradeDay
	)

	for _, key := range keys {
		group := byInstrument[key]
		first := group[0]

		tracker := newPositionTracker(accountID, key, first.Symbol, first.ConID, tz)
		for _, exe := range group {
			if err := tracker.apply(exe); err != nil {
				return nil, fmt.Errorf("instrument %s: %w", key, err)
			}
		}
		tracker.finish()

		r.log("instrument %s: %d executions → %d trades", key, len(group), len(tracker.trades))
		trades = append(trades, tracker.trades...)
		links = append(links, tracker.links...)
		days = append(days, tracker.out...)
	}

	if err := r.trades.ReplaceForAccount(ctx, accountID, trades, links, days); err != nil {
		return nil, fmt.Errorf("replace trades for account %s: %w", accountID, err)
	}

	result.ExecutionsProcessed = len(usable)
	result.TradesCreated = len(trades)
	result.LinksCreated = len(links)
	result.TradeDaysCreated = len(days)
	r.log("account %s: %d trades, %d links, %d trade days",
		accountID, result.TradesCreated, result.LinksCreated, result.TradeDaysCreated)

	return result, nil
}

func (r *Reconstructor) log(format string, args ...interface{}) {
	if r.verbose {
		log.Printf("[reconstruct] "+format, args...)
	}
}
