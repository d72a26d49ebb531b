package finance

import (
	"time"

	"portfolioRiskBot/internal/metrics"
)

// RiskRequest is a validated request for a portfolio analysis.
type RiskRequest struct {
	Tickers    []string  // normalized, in input order
	RawWeights []float64 // one per ticker, not yet normalized
	Window     string    // lookback as typed, e.g. 5y
	Days       int       // lookback in calendar days
	RiskFree   float64   // annual, as a decimal
}

// Range returns the lookback ending at end.
func (r RiskRequest) Range(end time.Time) (time.Time, time.Time) {
	return end.AddDate(0, 0, -r.Days), end
}

// Analysis bundles everything computed for one request. Nothing in it is
// modified after Analyze returns.
type Analysis struct {
	Request     RiskRequest
	Start       time.Time
	End         time.Time
	Prices      metrics.PriceTable
	Returns     metrics.ReturnTable
	Weights     metrics.WeightVector
	Portfolio   metrics.Series
	Curve       metrics.Series
	Correlation metrics.CorrelationMatrix

	AnnualReturn     *float64
	AnnualVolatility *float64
	SharpeRatio      *float64
	MaxDrawdown      *float64
}

// Missing lists requested tickers that returned no prices.
func (a *Analysis) Missing() []string {
	var out []string
	for _, t := range a.Request.Tickers {
		if _, ok := a.Prices.Column(t); !ok {
			out = append(out, t)
		}
	}
	return out
}
