package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the per-symbol breakdown as a CSV string.
func RenderCSV(rows []SymbolMetricRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("symbol,market,trades,wins,win_rate,net_pnl,total_r,avg_r\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%.4f,%.2f,%.4f,%.4f\n",
			r.Symbol,
			r.Market,
			r.Trades,
			r.Wins,
			r.WinRate,
			r.NetPnL,
			r.TotalR,
			r.AvgR,
		))
	}

	return sb.String()
}
