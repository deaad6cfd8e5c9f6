package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Trade Journal Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Account: %s | Timezone: %s\n\n", r.AccountNumber, r.Timezone))

	// Overview
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", r.Overview.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Winners / Losers | %d / %d |\n", r.Overview.WinningTrades, r.Overview.LosingTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", r.Overview.WinRate*100))
	sb.WriteString(fmt.Sprintf("| Gross P&L | %.2f |\n", r.Overview.TotalGross))
	sb.WriteString(fmt.Sprintf("| Commissions | %.2f |\n", r.Overview.TotalCommissions))
	sb.WriteString(fmt.Sprintf("| Net P&L | %.2f |\n", r.Overview.TotalNet))
	sb.WriteString(fmt.Sprintf("| Avg Win / Avg Loss | %.2f / %.2f |\n", r.Overview.AvgWin, r.Overview.AvgLoss))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %.2f |\n", r.Overview.ProfitFactor))
	sb.WriteString("\n")

	// Equity curve
	sb.WriteString("## Equity Curve\n\n")
	if len(r.EquityCurve) > 0 {
		sb.WriteString("| Day | Daily P&L | Cumulative | Drawdown |\n")
		sb.WriteString("|-----|-----------|------------|----------|\n")
		for _, p := range r.EquityCurve {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f |\n",
				p.Day, p.DailyPnl, p.CumulativePnl, p.Drawdown))
		}
	} else {
		sb.WriteString("No realized P&L yet.\n")
	}
	sb.WriteString("\n")

	// Instruments
	sb.WriteString("## Instruments\n\n")
	if len(r.InstrumentStats) > 0 {
		sb.WriteString("| Symbol | Trades | Win Rate | Gross | Commissions | Net |\n")
		sb.WriteString("|--------|--------|----------|-------|-------------|-----|\n")
		for _, s := range r.InstrumentStats {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f%% | %.2f | %.2f | %.2f |\n",
				s.Symbol, s.Trades, s.WinRate*100, s.Gross, s.Commissions, s.Net))
		}
	} else {
		sb.WriteString("No closed trades.\n")
	}
	sb.WriteString("\n")

	// Entry hours
	sb.WriteString("## Performance by Entry Hour\n\n")
	if len(r.EntryHourStats) > 0 {
		sb.WriteString("| Hour | Trades | P&L Sum | P&L Avg | Win Rate |\n")
		sb.WriteString("|------|--------|---------|---------|----------|\n")
		for _, h := range r.EntryHourStats {
			sb.WriteString(fmt.Sprintf("| %02d:00 | %d | %.2f | %.2f | %.2f%% |\n",
				h.Hour, h.Trades, h.PnlSum, h.PnlAvg, h.WinRate*100))
		}
	} else {
		sb.WriteString("No closed trades.\n")
	}
	sb.WriteString("\n")

	// Price buckets
	sb.WriteString("## Performance by Entry Price\n\n")
	if len(r.PriceBuckets) > 0 {
		sb.WriteString("| Price Band | Trades | P&L Sum | P&L Avg |\n")
		sb.WriteString("|------------|--------|---------|--------|\n")
		for _, b := range r.PriceBuckets {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f |\n",
				b.Bucket, b.Trades, b.PnlSum, b.PnlAvg))
		}
	} else {
		sb.WriteString("No closed trades.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
