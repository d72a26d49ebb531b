package finance

import (
	"fmt"
	"strings"
	"time"

	"portfolioRiskBot/internal/storage"
)

// FormatPercent renders a fraction as a percentage, or N/A when undefined.
func FormatPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

// FormatRatio renders a plain ratio with two decimals, or N/A when undefined.
func FormatRatio(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatAnalysis renders the metrics panel of an analysis as Markdown.
func FormatAnalysis(a *Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Portfolio Risk & Return* (%s)\n", strings.Join(a.Weights.Assets, ", "))
	if a.Returns.Len() > 0 {
		fmt.Fprintf(&b, "%s → %s • %d trading days\n\n",
			a.Returns.Dates[0].Format("2006-01-02"),
			a.Returns.Dates[a.Returns.Len()-1].Format("2006-01-02"),
			a.Returns.Len())
	} else {
		b.WriteString("not enough history for returns\n\n")
	}

	fmt.Fprintf(&b, "*Annualized Return*: %s\n", FormatPercent(a.AnnualReturn))
	fmt.Fprintf(&b, "*Annualized Volatility*: %s\n", FormatPercent(a.AnnualVolatility))
	fmt.Fprintf(&b, "*Sharpe Ratio* (rf %.2f%%): %s\n", a.Request.RiskFree*100, FormatRatio(a.SharpeRatio))
	fmt.Fprintf(&b, "*Max Drawdown*: %s\n\n", FormatPercent(a.MaxDrawdown))

	b.WriteString("*Allocation*\n")
	for i, asset := range a.Weights.Assets {
		fmt.Fprintf(&b, "  • %s: %.1f%%\n", asset, a.Weights.Weights[i]*100)
	}
	if missing := a.Missing(); len(missing) > 0 {
		fmt.Fprintf(&b, "\n⚠️ No data for: %s\n", strings.Join(missing, ", "))
	}
	b.WriteString("\n_Data from Yahoo Finance. For educational use only, not investment advice._")
	return b.String()
}

// NewAnalysisRecord summarizes an analysis for storage.
func NewAnalysisRecord(chatID int64, a *Analysis, at time.Time) storage.AnalysisRecord {
	return storage.AnalysisRecord{
		ChatID:           chatID,
		Tickers:          append([]string(nil), a.Weights.Assets...),
		Weights:          append([]float64(nil), a.Weights.Weights...),
		Lookback:         a.Request.Window,
		RiskFree:         a.Request.RiskFree,
		AnnualReturn:     a.AnnualReturn,
		AnnualVolatility: a.AnnualVolatility,
		SharpeRatio:      a.SharpeRatio,
		MaxDrawdown:      a.MaxDrawdown,
		CreatedAt:        at,
	}
}

func allocation(r storage.AnalysisRecord) string {
	parts := make([]string, len(r.Tickers))
	for i, t := range r.Tickers {
		w := 0.0
		if i < len(r.Weights) {
			w = r.Weights[i]
		}
		parts[i] = fmt.Sprintf("%s %.0f%%", t, w*100)
	}
	return strings.Join(parts, ", ")
}

// FormatRecord renders a stored analysis as Markdown.
func FormatRecord(r storage.AnalysisRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Portfolio* %s (%s, rf %.2f%%)\n", allocation(r), r.Lookback, r.RiskFree*100)
	fmt.Fprintf(&b, "*Annualized Return*: %s\n", FormatPercent(r.AnnualReturn))
	fmt.Fprintf(&b, "*Annualized Volatility*: %s\n", FormatPercent(r.AnnualVolatility))
	fmt.Fprintf(&b, "*Sharpe Ratio*: %s\n", FormatRatio(r.SharpeRatio))
	fmt.Fprintf(&b, "*Max Drawdown*: %s", FormatPercent(r.MaxDrawdown))
	return b.String()
}

func shortRef(ref string) string {
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}

// FormatHistory renders a list of stored analyses, newest first.
func FormatHistory(recs []storage.AnalysisRecord) string {
	if len(recs) == 0 {
		return "No analyses yet. Try /risk AAPL, MSFT"
	}
	var b strings.Builder
	b.WriteString("🗂 *Recent Analyses* (/explain <ref> for commentary)\n\n")
	for i, r := range recs {
		fmt.Fprintf(&b, "%d. `%s` %s • %s (%s)\n   Return %s • Vol %s • Sharpe %s • MDD %s\n",
			i+1, shortRef(r.Ref), r.CreatedAt.UTC().Format("2006-01-02 15:04"), allocation(r), r.Lookback,
			FormatPercent(r.AnnualReturn), FormatPercent(r.AnnualVolatility),
			FormatRatio(r.SharpeRatio), FormatPercent(r.MaxDrawdown))
	}
	return b.String()
}
