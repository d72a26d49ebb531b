package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"portfolioRiskBot/internal/storage"
)

func TestFormatNumbers(t *testing.T) {
	v := 0.1234
	assert.Equal(t, "12.34%", FormatPercent(&v))
	assert.Equal(t, "N/A", FormatPercent(nil))
	r := 1.234
	assert.Equal(t, "1.23", FormatRatio(&r))
	assert.Equal(t, "N/A", FormatRatio(nil))
}

func TestFormatAnalysis(t *testing.T) {
	a := analyzeFixture(t, "AAPL,CASH,DEAD", "3,1,1")
	out := FormatAnalysis(a)
	assert.Contains(t, out, "(AAPL, CASH)")
	assert.Contains(t, out, "2024-06-04 → 2024-06-10 • 7 trading days")
	assert.Contains(t, out, "AAPL: 75.0%")
	assert.Contains(t, out, "No data for: DEAD")
	assert.Contains(t, out, "rf 2.00%")
	assert.Contains(t, out, "not investment advice")

	flat := analyzeFixture(t, "CASH", "")
	assert.Contains(t, FormatAnalysis(flat), "*Sharpe Ratio* (rf 2.00%): N/A")
}

func TestAnalysisRecordRoundTrip(t *testing.T) {
	a := analyzeFixture(t, "AAPL,MSFT", "1,1")
	at := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	rec := NewAnalysisRecord(7, a, at)

	assert.Equal(t, int64(7), rec.ChatID)
	assert.Equal(t, []string{"AAPL", "MSFT"}, rec.Tickers)
	assert.Equal(t, []float64{0.5, 0.5}, rec.Weights)
	assert.Equal(t, "1y", rec.Lookback)
	assert.Equal(t, a.SharpeRatio, rec.SharpeRatio)
	assert.Equal(t, at, rec.CreatedAt)

	out := FormatRecord(rec)
	assert.Contains(t, out, "AAPL 50%, MSFT 50%")
	assert.Contains(t, out, "*Sharpe Ratio*: "+FormatRatio(a.SharpeRatio))
}

func TestFormatHistory(t *testing.T) {
	assert.Contains(t, FormatHistory(nil), "No analyses yet")

	ret := 0.1
	recs := []storage.AnalysisRecord{{
		Ref: "0123456789abcdef", Tickers: []string{"SPY"}, Weights: []float64{1}, Lookback: "3y",
		AnnualReturn: &ret, CreatedAt: time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC),
	}}
	out := FormatHistory(recs)
	assert.Contains(t, out, "1. `01234567` 2024-07-01 09:30 • SPY 100% (3y)")
	assert.Contains(t, out, "Return 10.00% • Vol N/A • Sharpe N/A • MDD N/A")
}
