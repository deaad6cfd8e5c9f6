package metrics

import (
	"fmt"
	"sort"
	"time"

	"tradejournal/internal/domain"
)

// Overview is the account-level closed-trade summary.
type Overview struct {
	TotalTrades      int     `json:"total_trades"`
	WinningTrades    int     `json:"winning_trades"`
	LosingTrades     int     `json:"losing_trades"`
	WinRate          float64 `json:"win_rate"`
	TotalGross       float64 `json:"total_gross"`
	TotalCommissions float64 `json:"total_commissions"`
	TotalNet         float64 `json:"total_net"`
	AvgWin           float64 `json:"avg_win"`
	AvgLoss          float64 `json:"avg_loss"`
	ProfitFactor     float64 `json:"profit_factor"`
}

// EquityPoint is one day on the cumulative P&L curve.
type EquityPoint struct {
	Day           string  `json:"day"` // YYYY-MM-DD
	DailyPnl      float64 `json:"daily_pnl"`
	DailyGross    float64 `json:"daily_gross"`
	CumulativePnl float64 `json:"cumulative_pnl"`
	Drawdown      float64 `json:"drawdown"` // <= 0, distance below the running peak
}

// InstrumentStat aggregates closed trades for one symbol.
type InstrumentStat struct {
	Symbol      string  `json:"symbol"`
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"win_rate"`
	Gross       float64 `json:"gross"`
	Commissions float64 `json:"commissions"`
	Net         float64 `json:"net"`
}

// HourStat aggregates closed trades by entry hour in the report timezone.
type HourStat struct {
	Hour    int     `json:"hour"`
	Trades  int     `json:"trades"`
	PnlSum  float64 `json:"pnl_sum"`
	PnlAvg  float64 `json:"pnl_avg"`
	WinRate float64 `json:"win_rate"`
}

// PriceBucketStat aggregates closed trades by average entry price band.
type PriceBucketStat struct {
	Bucket string  `json:"bucket"` // e.g. "[10, 20)"
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Trades int     `json:"trades"`
	PnlSum float64 `json:"pnl_sum"`
	PnlAvg float64 `json:"pnl_avg"`
}

// DefaultPriceBucketEdges splits entry prices into the bands traders
// usually reason about.
var DefaultPriceBucketEdges = []float64{0, 5, 10, 20, 50, 100, 200, 500, 1000, 10000}

// computeOverview calculates the closed-trade summary. Trades with any
// other status are ignored.
func computeOverview(trades []*domain.Trade) *Overview {
	o := &Overview{}

	var grossWins, grossLosses, netWins, netLosses float64
	for _, t := range trades {
		if t.Status != domain.TradeStatusClosed {
			continue
		}
		o.TotalTrades++
		o.TotalGross += t.GrossPnlTotal
		o.TotalCommissions += t.CommissionTotal
		o.TotalNet += t.NetPnlTotal

		switch {
		case t.NetPnlTotal > 0:
			o.WinningTrades++
			grossWins += t.GrossPnlTotal
			netWins += t.NetPnlTotal
		case t.NetPnlTotal < 0:
			o.LosingTrades++
			grossLosses += -t.GrossPnlTotal
			netLosses += t.NetPnlTotal
		}
	}

	if o.TotalTrades > 0 {
		o.WinRate = float64(o.WinningTrades) / float64(o.TotalTrades)
	}
	if o.WinningTrades > 0 {
		o.AvgWin = netWins / float64(o.WinningTrades)
	}
	if o.LosingTrades > 0 {
		o.AvgLoss = netLosses / float64(o.LosingTrades)
	}
	if grossLosses > 0 {
		o.ProfitFactor = grossWins / grossLosses
	}

	return o
}

// computeEquityCurve folds per-day P&L rows into a cumulative curve with
// running drawdown. Days arrive as TradeDay rows, possibly many per day.
func computeEquityCurve(days []*domain.TradeDay, useGross bool) []*EquityPoint {
	if len(days) == 0 {
		return nil
	}

	type daily struct {
		gross       float64
		commissions float64
	}
	byDay := make(map[string]*daily)
	var order []string
	for _, d := range days {
		b, ok := byDay[d.DayDateLocal]
		if !ok {
			b = &daily{}
			byDay[d.DayDateLocal] = b
			order = append(order, d.DayDateLocal)
		}
		b.gross += d.RealizedGross
		b.commissions += d.Commissions
	}
	sort.Strings(order)

	points := make([]*EquityPoint, 0, len(order))
	cumulative := 0.0
	peak := 0.0
	for _, day := range order {
		b := byDay[day]
		pnl := b.gross + b.commissions
		if useGross {
			pnl = b.gross
		}
		cumulative += pnl
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := 0.0
		if peak > 0 {
			drawdown = cumulative - peak
		}
		points = append(points, &EquityPoint{
			Day:           day,
			DailyPnl:      pnl,
			DailyGross:    b.gross,
			CumulativePnl: cumulative,
			Drawdown:      drawdown,
		})
	}
	return points
}

// computeDailyPnl collapses TradeDay rows into one DailyPnl row per day.
func computeDailyPnl(accountID string, days []*domain.TradeDay) []*domain.DailyPnl {
	type bucket struct {
		gross        float64
		commissions  float64
		sharesClosed float64
		trades       map[string]struct{}
	}
	byDay := make(map[string]*bucket)
	var order []string
	for _, d := range days {
		b, ok := byDay[d.DayDateLocal]
		if !ok {
			b = &bucket{trades: make(map[string]struct{})}
			byDay[d.DayDateLocal] = b
			order = append(order, d.DayDateLocal)
		}
		b.gross += d.RealizedGross
		b.commissions += d.Commissions
		b.sharesClosed += d.SharesClosed
		b.trades[d.TradeID] = struct{}{}
	}
	sort.Strings(order)

	rows := make([]*domain.DailyPnl, 0, len(order))
	for _, day := range order {
		b := byDay[day]
		rows = append(rows, &domain.DailyPnl{
			AccountID:    accountID,
			Day:          day,
			Gross:        b.gross,
			Commissions:  b.commissions,
			Net:          b.gross + b.commissions,
			TradesActive: len(b.trades),
			SharesClosed: b.sharesClosed,
		})
	}
	return rows
}

// computeInstrumentStats groups closed trades by symbol, sorted by symbol.
func computeInstrumentStats(trades []*domain.Trade) []*InstrumentStat {
	bySymbol := make(map[string]*InstrumentStat)
	var symbols []string
	for _, t := range trades {
		if t.Status != domain.TradeStatusClosed {
			continue
		}
		s, ok := bySymbol[t.Symbol]
		if !ok {
			s = &InstrumentStat{Symbol: t.Symbol}
			bySymbol[t.Symbol] = s
			symbols = append(symbols, t.Symbol)
		}
		s.Trades++
		if t.NetPnlTotal > 0 {
			s.Wins++
		}
		s.Gross += t.GrossPnlTotal
		s.Commissions += t.CommissionTotal
		s.Net += t.NetPnlTotal
	}
	sort.Strings(symbols)

	stats := make([]*InstrumentStat, 0, len(symbols))
	for _, symbol := range symbols {
		s := bySymbol[symbol]
		s.WinRate = float64(s.Wins) / float64(s.Trades)
		stats = append(stats, s)
	}
	return stats
}

// computeHourStats groups closed trades by the local hour they opened.
func computeHourStats(trades []*domain.Trade, tz *time.Location, useGross bool) []*HourStat {
	byHour := make(map[int]*HourStat)
	wins := make(map[int]int)
	for _, t := range trades {
		if t.Status != domain.TradeStatusClosed {
			continue
		}
		hour := t.OpenedAtUTC.In(tz).Hour()
		s, ok := byHour[hour]
		if !ok {
			s = &HourStat{Hour: hour}
			byHour[hour] = s
		}
		pnl := t.NetPnlTotal
		if useGross {
			pnl = t.GrossPnlTotal
		}
		s.Trades++
		s.PnlSum += pnl
		if pnl > 0 {
			wins[hour]++
		}
	}

	stats := make([]*HourStat, 0, len(byHour))
	for hour, s := range byHour {
		s.PnlAvg = s.PnlSum / float64(s.Trades)
		s.WinRate = float64(wins[hour]) / float64(s.Trades)
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Hour < stats[j].Hour })
	return stats
}

// computePriceBucketStats groups closed trades by average entry price into
// left-closed bands. Trades priced outside the last edge are dropped.
func computePriceBucketStats(trades []*domain.Trade, edges []float64, useGross bool) []*PriceBucketStat {
	if len(edges) < 2 {
		return nil
	}

	buckets := make([]*PriceBucketStat, len(edges)-1)
	for i := range buckets {
		buckets[i] = &PriceBucketStat{
			Bucket: fmt.Sprintf("[%g, %g)", edges[i], edges[i+1]),
			Low:    edges[i],
			High:   edges[i+1],
		}
	}

	for _, t := range trades {
		if t.Status != domain.TradeStatusClosed {
			continue
		}
		idx := sort.SearchFloat64s(edges, t.AvgEntryPrice)
		if idx < len(edges) && edges[idx] == t.AvgEntryPrice {
			// Exact edge belongs to the band it opens.
		} else {
			idx--
		}
		if idx < 0 || idx >= len(buckets) {
			continue
		}

		pnl := t.NetPnlTotal
		if useGross {
			pnl = t.GrossPnlTotal
		}
		buckets[idx].Trades++
		buckets[idx].PnlSum += pnl
	}

	stats := make([]*PriceBucketStat, 0, len(buckets))
	for _, b := range buckets {
		if b.Trades == 0 {
			continue
		}
		b.PnlAvg = b.PnlSum / float64(b.Trades)
		stats = append(stats, b)
	}
	return stats
}
