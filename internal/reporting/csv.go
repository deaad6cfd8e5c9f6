package reporting

import (
	"fmt"
	"strings"

	"tradejournal/internal/metrics"
)

// RenderEquityCSV renders the equity curve as CSV string.
func RenderEquityCSV(points []*metrics.EquityPoint) string {
	var sb strings.Builder
	sb.WriteString("day,daily_pnl,daily_gross,cumulative_pnl,drawdown\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f,%.6f,%.6f\n",
			p.Day, p.DailyPnl, p.DailyGross, p.CumulativePnl, p.Drawdown))
	}
	return sb.String()
}

// RenderInstrumentCSV renders per-symbol stats as CSV string.
func RenderInstrumentCSV(stats []*metrics.InstrumentStat) string {
	var sb strings.Builder
	sb.WriteString("symbol,trades,wins,win_rate,gross_pnl,commissions,net_pnl\n")
	for _, s := range stats {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%.6f,%.6f,%.6f,%.6f\n",
			s.Symbol, s.Trades, s.Wins, s.WinRate, s.Gross, s.Commissions, s.Net))
	}
	return sb.String()
}
