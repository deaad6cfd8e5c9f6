package reconstruct

import (
	"context"
	"testing"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/storage/memory"
)

func insertAll(t *testing.T, store *memory.ExecutionStore, execs ...*domain.Execution) {
	t.Helper()
	for _, exe := range execs {
		if err := store.Insert(context.Background(), exe); err != nil {
			t.Fatalf("insert %s: %v", exe.ExecutionID, err)
		}
	}
}

func TestReconstructor_EndToEnd(t *testing.T) {
	ctx := context.Background()
	executions := memory.NewExecutionStore()
	trades := memory.NewTradeStore()

	insertAll(t, executions,
		makeExecution("e1", baseTs, domain.SideBuy, 10, 100, -1),
		makeExecution("e2", baseTs.Add(time.Minute), domain.SideBuy, 10, 110, -1),
		makeExecution("e3", baseTs.Add(2*time.Minute), domain.SideSell, 15, 120, -1.5),
	)

	r := New(Options{ExecutionStore: executions, TradeStore: trades})
	result, err := r.ReconstructAccount(ctx, "acct-1", "US/Eastern")
	if err != nil {
		t.Fatalf("reconstruct failed: %v", err)
	}

	if result.ExecutionsProcessed != 3 || result.TradesCreated != 1 || result.TradeDaysCreated != 1 {
		t.Errorf("result = %+v, want 3 executions, 1 trade, 1 day", result)
	}

	stored, err := trades.GetTradesByAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("get trades: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored trade, got %d", len(stored))
	}
	trade := stored[0]
	if !approxEq(trade.NetPnlTotal, 246.5) || trade.Status != domain.TradeStatusOpen {
		t.Errorf("trade = net %f status %s, want 246.5 open", trade.NetPnlTotal, trade.Status)
	}

	links, err := trades.GetLinksByTrade(ctx, trade.ID)
	if err != nil {
		t.Fatalf("get links: %v", err)
	}
	if len(links) != 3 {
		t.Errorf("expected 3 links, got %d", len(links))
	}

	days, err := trades.GetDaysByTrade(ctx, trade.ID)
	if err != nil {
		t.Fatalf("get days: %v", err)
	}
	if len(days) != 1 || !approxEq(days[0].RealizedNet, 246.5) {
		t.Errorf("days = %+v, want one day with net 246.5", days)
	}
}

func TestReconstructor_Idempotent(t *testing.T) {
	ctx := context.Background()
	executions := memory.NewExecutionStore()
	trades := memory.NewTradeStore()

	insertAll(t, executions,
		makeExecution("e1", baseTs, domain.SideBuy, 10, 100, -1),
		makeExecution("e2", baseTs.Add(time.Minute), domain.SideSell, 10, 105, -1),
	)

	r := New(Options{ExecutionStore: executions, TradeStore: trades})

	var firstIDs []string
	for run := 0; run < 3; run++ {
		result, err := r.ReconstructAccount(ctx, "acct-1", "US/Eastern")
		if err != nil {
			t.Fatalf("run %d failed: %v", run, err)
		}
		if result.TradesCreated != 1 {
			t.Fatalf("run %d created %d trades, want 1", run, result.TradesCreated)
		}

		stored, err := trades.GetTradesByAccount(ctx, "acct-1")
		if err != nil {
			t.Fatalf("run %d get trades: %v", run, err)
		}
		ids := make([]string, len(stored))
		for i, trade := range stored {
			ids[i] = trade.ID
		}
		if run == 0 {
			firstIDs = ids
			continue
		}
		if len(ids) != len(firstIDs) {
			t.Fatalf("run %d: %d trades, want %d", run, len(ids), len(firstIDs))
		}
		for i := range ids {
			if ids[i] != firstIDs[i] {
				t.Errorf("run %d trade %d id changed: %s != %s", run, i, ids[i], firstIDs[i])
			}
		}
	}
}

func TestReconstructor_PartitionsByInstrument(t *testing.T) {
	ctx := context.Background()
	executions := memory.NewExecutionStore()
	trades := memory.NewTradeStore()

	conid := int64(265598)
	aapl := makeExecution("e1", baseTs, domain.SideBuy, 10, 100, -1)
	aapl.ConID = &conid
	msft := makeExecution("e2", baseTs.Add(time.Second), domain.SideBuy, 10, 300, -1)
	msft.Symbol = "MSFT"
	// A sell of MSFT must not consume AAPL lots.
	msftSell := makeExecution("e3", baseTs.Add(time.Minute), domain.SideSell, 10, 310, -1)
	msftSell.Symbol = "MSFT"

	insertAll(t, executions, aapl, msft, msftSell)

	r := New(Options{ExecutionStore: executions, TradeStore: trades})
	result, err := r.ReconstructAccount(ctx, "acct-1", "US/Eastern")
	if err != nil {
		t.Fatalf("reconstruct failed: %v", err)
	}
	if result.TradesCreated != 2 {
		t.Fatalf("expected 2 trades, got %d", result.TradesCreated)
	}

	stored, _ := trades.GetTradesByAccount(ctx, "acct-1")
	byKey := make(map[string]*domain.Trade)
	for _, trade := range stored {
		byKey[trade.InstrumentKey] = trade
	}
	if got := byKey["conid:265598"]; got == nil || got.Status != domain.TradeStatusOpen {
		t.Errorf("conid trade = %+v, want open", got)
	}
	if got := byKey["symbol:MSFT"]; got == nil || got.Status != domain.TradeStatusClosed {
		t.Errorf("MSFT trade = %+v, want closed", got)
	}
}

func TestReconstructor_SkipsUnusableExecutions(t *testing.T) {
	ctx := context.Background()
	executions := memory.NewExecutionStore()
	trades := memory.NewTradeStore()

	noTs := makeExecution("e1", time.Time{}, domain.SideBuy, 10, 100, -1)
	zeroQty := makeExecution("e2", baseTs, domain.SideBuy, 0, 100, -1)
	good := makeExecution("e3", baseTs.Add(time.Minute), domain.SideBuy, 10, 100, -1)
	insertAll(t, executions, noTs, zeroQty, good)

	r := New(Options{ExecutionStore: executions, TradeStore: trades})
	result, err := r.ReconstructAccount(ctx, "acct-1", "US/Eastern")
	if err != nil {
		t.Fatalf("reconstruct failed: %v", err)
	}
	if result.ExecutionsProcessed != 1 {
		t.Errorf("processed = %d, want 1", result.ExecutionsProcessed)
	}
	if len(result.Warnings) != 2 {
		t.Errorf("warnings = %v, want 2", result.Warnings)
	}
}

func TestReconstructor_WeekendActivityRollsToFriday(t *testing.T) {
	ctx := context.Background()
	executions := memory.NewExecutionStore()
	trades := memory.NewTradeStore()

	friday := time.Date(2024, 1, 12, 15, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, 1, 13, 15, 0, 0, 0, time.UTC)
	insertAll(t, executions,
		makeExecution("e1", friday, domain.SideBuy, 10, 100, -1),
		makeExecution("e2", saturday, domain.SideSell, 10, 105, -1),
	)

	r := New(Options{ExecutionStore: executions, TradeStore: trades})
	if _, err := r.ReconstructAccount(ctx, "acct-1", "US/Eastern"); err != nil {
		t.Fatalf("reconstruct failed: %v", err)
	}

	days, err := trades.GetDaysByAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("get days: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected activity merged into one day, got %d", len(days))
	}
	if days[0].DayDateLocal != "2024-01-12" {
		t.Errorf("day = %s, want 2024-01-12", days[0].DayDateLocal)
	}
}

func TestReconstructor_BadTimezone(t *testing.T) {
	r := New(Options{ExecutionStore: memory.NewExecutionStore(), TradeStore: memory.NewTradeStore()})
	if _, err := r.ReconstructAccount(context.Background(), "acct-1", "Not/AZone"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestReconstructor_EmptyAccountClearsPriorRows(t *testing.T) {
	ctx := context.Background()
	executions := memory.NewExecutionStore()
	trades := memory.NewTradeStore()

	insertAll(t, executions, makeExecution("e1", baseTs, domain.SideBuy, 10, 100, -1))
	r := New(Options{ExecutionStore: executions, TradeStore: trades})
	if _, err := r.ReconstructAccount(ctx, "acct-1", "US/Eastern"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Rebuilding a different, empty account must not touch acct-1 rows.
	if _, err := r.ReconstructAccount(ctx, "acct-2", "US/Eastern"); err != nil {
		t.Fatalf("empty run failed: %v", err)
	}
	stored, _ := trades.GetTradesByAccount(ctx, "acct-1")
	if len(stored) != 1 {
		t.Errorf("acct-1 trades = %d, want 1 untouched", len(stored))
	}
}
