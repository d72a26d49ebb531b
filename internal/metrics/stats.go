package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AnnualizedReturn is the arithmetic mean of daily returns times
// TradingDaysPerYear. This is simple annualization, not geometric compounding.
// Returns nil when the series has no defined observations.
func AnnualizedReturn(returns Series) *float64 {
	xs := returns.definedValues()
	if len(xs) == 0 {
		return nil
	}
	return ptr(stat.Mean(xs, nil) * TradingDaysPerYear)
}

// AnnualizedVolatility is the sample (N-1) standard deviation of daily returns
// scaled by sqrt(TradingDaysPerYear). Returns nil below two observations.
func AnnualizedVolatility(returns Series) *float64 {
	xs := returns.definedValues()
	if len(xs) < 2 {
		return nil
	}
	if constant(xs) {
		return ptr(0)
	}
	return ptr(stat.StdDev(xs, nil) * math.Sqrt(TradingDaysPerYear))
}

// SharpeRatio is the annualized excess return over riskFreeAnnual divided by
// annualized volatility. Returns nil when volatility is zero or undefined.
func SharpeRatio(returns Series, riskFreeAnnual float64) *float64 {
	vol := AnnualizedVolatility(returns)
	if vol == nil || *vol == 0 {
		return nil
	}
	ret := AnnualizedReturn(returns)
	if ret == nil {
		return nil
	}
	return ptr((*ret - riskFreeAnnual) / *vol)
}

// constant reports whether all values are identical. The mean of identical
// values is not always exact in floating point, which would leave a residual
// variance instead of zero.
func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
