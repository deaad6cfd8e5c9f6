package metrics

import (
	"math"
	"testing"
	"time"

	"tradejournal/internal/domain"
)

func closedTrade(symbol string, gross, commission float64, openedAt time.Time) *domain.Trade {
	return &domain.Trade{
		ID:              symbol + openedAt.Format("20060102150405"),
		Symbol:          symbol,
		Status:          domain.TradeStatusClosed,
		OpenedAtUTC:     openedAt,
		GrossPnlTotal:   gross,
		CommissionTotal: commission,
		NetPnlTotal:     gross + commission,
	}
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeOverview(t *testing.T) {
	opened := time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)
	trades := []*domain.Trade{
		closedTrade("A", 100, -2, opened),
		closedTrade("B", -40, -2, opened),
		closedTrade("C", 60, -2, opened),
		{ID: "open", Symbol: "D", Status: domain.TradeStatusOpen, GrossPnlTotal: 999},
	}

	o := computeOverview(trades)
	if o.TotalTrades != 3 {
		t.Fatalf("total = %d, want 3 (open trade excluded)", o.TotalTrades)
	}
	if o.WinningTrades != 2 || o.LosingTrades != 1 {
		t.Errorf("wins/losses = %d/%d, want 2/1", o.WinningTrades, o.LosingTrades)
	}
	if !almost(o.WinRate, 2.0/3.0) {
		t.Errorf("win rate = %f", o.WinRate)
	}
	if !almost(o.TotalGross, 120) || !almost(o.TotalCommissions, -6) || !almost(o.TotalNet, 114) {
		t.Errorf("totals = %f/%f/%f", o.TotalGross, o.TotalCommissions, o.TotalNet)
	}
	// Profit factor is on gross: (100+60)/40.
	if !almost(o.ProfitFactor, 4) {
		t.Errorf("profit factor = %f, want 4", o.ProfitFactor)
	}
	if !almost(o.AvgWin, (98+58)/2.0) || !almost(o.AvgLoss, -42) {
		t.Errorf("avg win/loss = %f/%f", o.AvgWin, o.AvgLoss)
	}
}

func TestComputeOverview_Empty(t *testing.T) {
	o := computeOverview(nil)
	if o.TotalTrades != 0 || o.WinRate != 0 || o.ProfitFactor != 0 {
		t.Errorf("empty overview = %+v", o)
	}
}

func TestComputeOverview_NoLosses(t *testing.T) {
	opened := time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)
	o := computeOverview([]*domain.Trade{closedTrade("A", 100, -1, opened)})
	if o.ProfitFactor != 0 {
		t.Errorf("profit factor with no losses = %f, want 0", o.ProfitFactor)
	}
}

func TestComputeEquityCurve(t *testing.T) {
	days := []*domain.TradeDay{
		{TradeID: "t1", DayDateLocal: "2024-01-10", RealizedGross: 100, Commissions: -2},
		{TradeID: "t2", DayDateLocal: "2024-01-10", RealizedGross: 20, Commissions: -1},
		{TradeID: "t1", DayDateLocal: "2024-01-11", RealizedGross: -60, Commissions: -2},
		{TradeID: "t3", DayDateLocal: "2024-01-12", RealizedGross: 10, Commissions: -1},
	}

	points := computeEquityCurve(days, false)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}

	// Day 1 merges both rows: 117 net.
	if !almost(points[0].DailyPnl, 117) || !almost(points[0].CumulativePnl, 117) {
		t.Errorf("day 1 = %+v", points[0])
	}
	if !almost(points[0].Drawdown, 0) {
		t.Errorf("day 1 drawdown = %f", points[0].Drawdown)
	}
	// Day 2 drops to 55, drawdown -62.
	if !almost(points[1].CumulativePnl, 55) || !almost(points[1].Drawdown, -62) {
		t.Errorf("day 2 = %+v", points[1])
	}
	// Day 3 recovers slightly, still under water.
	if !almost(points[2].CumulativePnl, 64) || !almost(points[2].Drawdown, -53) {
		t.Errorf("day 3 = %+v", points[2])
	}
}

func TestComputeEquityCurve_Gross(t *testing.T) {
	days := []*domain.TradeDay{
		{TradeID: "t1", DayDateLocal: "2024-01-10", RealizedGross: 100, Commissions: -10},
	}
	points := computeEquityCurve(days, true)
	if len(points) != 1 || !almost(points[0].DailyPnl, 100) {
		t.Errorf("gross curve = %+v", points)
	}
}

func TestComputeDailyPnl(t *testing.T) {
	days := []*domain.TradeDay{
		{TradeID: "t1", DayDateLocal: "2024-01-10", RealizedGross: 100, Commissions: -2, SharesClosed: 10},
		{TradeID: "t2", DayDateLocal: "2024-01-10", RealizedGross: 20, Commissions: -1, SharesClosed: 5},
		{TradeID: "t1", DayDateLocal: "2024-01-11", RealizedGross: 30, Commissions: -1, SharesClosed: 3},
	}

	rows := computeDailyPnl("acct-1", days)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.Day != "2024-01-10" || first.TradesActive != 2 {
		t.Errorf("row 1 = %+v", first)
	}
	if !almost(first.Gross, 120) || !almost(first.Net, 117) || !almost(first.SharesClosed, 15) {
		t.Errorf("row 1 sums = %+v", first)
	}
	if rows[1].TradesActive != 1 {
		t.Errorf("row 2 = %+v", rows[1])
	}
}

func TestComputeInstrumentStats(t *testing.T) {
	opened := time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)
	trades := []*domain.Trade{
		closedTrade("MSFT", 50, -1, opened),
		closedTrade("AAPL", 100, -2, opened),
		closedTrade("AAPL", -30, -2, opened.Add(time.Hour)),
	}

	stats := computeInstrumentStats(trades)
	if len(stats) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(stats))
	}
	if stats[0].Symbol != "AAPL" || stats[1].Symbol != "MSFT" {
		t.Errorf("order = %s, %s, want AAPL, MSFT", stats[0].Symbol, stats[1].Symbol)
	}
	aapl := stats[0]
	if aapl.Trades != 2 || aapl.Wins != 1 || !almost(aapl.WinRate, 0.5) {
		t.Errorf("AAPL = %+v", aapl)
	}
	if !almost(aapl.Net, 66) {
		t.Errorf("AAPL net = %f, want 66", aapl.Net)
	}
}

func TestComputeHourStats(t *testing.T) {
	eastern, err := time.LoadLocation("US/Eastern")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 14:30 UTC = 09:30 EST, 16:05 UTC = 11:05 EST.
	trades := []*domain.Trade{
		closedTrade("A", 100, -1, time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)),
		closedTrade("B", -50, -1, time.Date(2024, 1, 10, 14, 45, 0, 0, time.UTC)),
		closedTrade("C", 20, -1, time.Date(2024, 1, 10, 16, 5, 0, 0, time.UTC)),
	}

	stats := computeHourStats(trades, eastern, false)
	if len(stats) != 2 {
		t.Fatalf("expected 2 hours, got %d", len(stats))
	}
	nine := stats[0]
	if nine.Hour != 9 || nine.Trades != 2 {
		t.Errorf("first bucket = %+v", nine)
	}
	if !almost(nine.PnlSum, 48) || !almost(nine.WinRate, 0.5) {
		t.Errorf("09:00 bucket = %+v", nine)
	}
	if stats[1].Hour != 11 {
		t.Errorf("second bucket hour = %d, want 11", stats[1].Hour)
	}
}

func TestComputePriceBucketStats(t *testing.T) {
	opened := time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)
	mk := func(entry, net float64) *domain.Trade {
		t := closedTrade("X", net, 0, opened)
		t.AvgEntryPrice = entry
		return t
	}
	trades := []*domain.Trade{
		mk(3.5, 10),    // [0, 5)
		mk(5, 20),      // [5, 10): left-closed edge
		mk(12, -5),     // [10, 20)
		mk(15, 25),     // [10, 20)
		mk(20000, 100), // above the last edge, dropped
	}

	stats := computePriceBucketStats(trades, DefaultPriceBucketEdges, false)
	if len(stats) != 3 {
		t.Fatalf("expected 3 populated buckets, got %d: %+v", len(stats), stats)
	}
	if stats[0].Bucket != "[0, 5)" || stats[0].Trades != 1 {
		t.Errorf("bucket 1 = %+v", stats[0])
	}
	if stats[1].Bucket != "[5, 10)" || stats[1].Trades != 1 {
		t.Errorf("bucket 2 = %+v", stats[1])
	}
	band := stats[2]
	if band.Bucket != "[10, 20)" || band.Trades != 2 || !almost(band.PnlSum, 20) || !almost(band.PnlAvg, 10) {
		t.Errorf("bucket 3 = %+v", band)
	}
}
