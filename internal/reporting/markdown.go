package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Performance Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	if r.Summary.TotalTrades == 0 {
		sb.WriteString("No closed trades.\n")
		return sb.String()
	}

	s := r.Summary

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", s.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Wins / Losses | %d / %d |\n", s.Wins, s.Losses))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", s.WinRate*100))
	sb.WriteString(fmt.Sprintf("| Net PnL | %.2f |\n", s.NetPnL))
	sb.WriteString(fmt.Sprintf("| Total R | %.4f |\n", s.TotalR))
	sb.WriteString(fmt.Sprintf("| Expectancy (R) | %.4f |\n", s.ExpectancyR))
	sb.WriteString(fmt.Sprintf("| Avg Win (R) | %.4f |\n", s.AvgWinR))
	sb.WriteString(fmt.Sprintf("| Avg Loss (R) | %.4f |\n", s.AvgLossR))
	sb.WriteString(fmt.Sprintf("| Median R | %.4f |\n", s.MedianR))
	sb.WriteString(fmt.Sprintf("| P10 / P90 R | %.4f / %.4f |\n", s.P10R, s.P90R))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %.4f |\n", s.ProfitFactor))
	sb.WriteString(fmt.Sprintf("| Max Drawdown (R) | %.4f |\n", s.MaxDrawdownR))
	sb.WriteString(fmt.Sprintf("| Max Consecutive Losses | %d |\n", s.MaxConsecutiveLosses))
	sb.WriteString(fmt.Sprintf("| First Close (ms) | %d |\n", s.FirstClosedAt))
	sb.WriteString(fmt.Sprintf("| Last Close (ms) | %d |\n", s.LastClosedAt))
	sb.WriteString("\n")

	// Per-symbol breakdown
	sb.WriteString("## Per Symbol\n\n")
	if len(r.PerSymbol) > 0 {
		sb.WriteString("| Symbol | Market | Trades | WinRate | Net PnL | Total R | Avg R |\n")
		sb.WriteString("|--------|--------|--------|---------|---------|---------|-------|\n")
		for _, row := range r.PerSymbol {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.4f | %.2f | %.4f | %.4f |\n",
				row.Symbol, row.Market, row.Trades, row.WinRate,
				row.NetPnL, row.TotalR, row.AvgR))
		}
	} else {
		sb.WriteString("No per-symbol data available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
