package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradingDaysConstant(t *testing.T) {
	assert.Equal(t, 252, TradingDaysPerYear)
}

func TestAnnualizedReturn(t *testing.T) {
	t.Run("mean times 252", func(t *testing.T) {
		got := AnnualizedReturn(series(0.01, 0.02, 0.03))
		require.NotNil(t, got)
		assert.InDelta(t, 0.02*252, *got, 1e-12)
	})

	t.Run("scales linearly", func(t *testing.T) {
		a := AnnualizedReturn(series(0.001, 0.003))
		b := AnnualizedReturn(series(0.002, 0.006))
		require.NotNil(t, a)
		require.NotNil(t, b)
		assert.InDelta(t, 2*(*a), *b, 1e-12)
	})

	t.Run("skips undefined rows", func(t *testing.T) {
		got := AnnualizedReturn(series(0.01, math.NaN(), 0.03))
		require.NotNil(t, got)
		assert.InDelta(t, 0.02*252, *got, 1e-12)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, AnnualizedReturn(Series{}))
		assert.Nil(t, AnnualizedReturn(series(math.NaN())))
	})
}

func TestAnnualizedVolatility(t *testing.T) {
	t.Run("sample std times sqrt 252", func(t *testing.T) {
		// sample std of {0.01, 0.02, 0.03} is exactly 0.01
		got := AnnualizedVolatility(series(0.01, 0.02, 0.03))
		require.NotNil(t, got)
		assert.InDelta(t, 0.01*math.Sqrt(252), *got, 1e-12)
	})

	t.Run("two observations", func(t *testing.T) {
		got := AnnualizedVolatility(series(0.0, 0.02))
		require.NotNil(t, got)
		assert.InDelta(t, math.Sqrt(0.0002)*math.Sqrt(252), *got, 1e-12)
	})

	t.Run("constant series has zero volatility", func(t *testing.T) {
		got := AnnualizedVolatility(series(0.001, 0.001, 0.001, 0.001))
		require.NotNil(t, got)
		assert.Equal(t, 0.0, *got)
	})

	t.Run("fewer than two observations", func(t *testing.T) {
		assert.Nil(t, AnnualizedVolatility(Series{}))
		assert.Nil(t, AnnualizedVolatility(series(0.05)))
		assert.Nil(t, AnnualizedVolatility(series(0.05, math.NaN())))
	})
}

func TestSharpeRatio(t *testing.T) {
	t.Run("excess return over volatility", func(t *testing.T) {
		got := SharpeRatio(series(0.01, 0.02, 0.03), 0.04)
		require.NotNil(t, got)
		assert.InDelta(t, (0.02*252-0.04)/(0.01*math.Sqrt(252)), *got, 1e-9)
	})

	t.Run("zero risk free", func(t *testing.T) {
		got := SharpeRatio(series(0.01, 0.02, 0.03), 0)
		require.NotNil(t, got)
		assert.InDelta(t, 0.02*252/(0.01*math.Sqrt(252)), *got, 1e-9)
	})

	t.Run("constant series is undefined", func(t *testing.T) {
		assert.Nil(t, SharpeRatio(series(0.002, 0.002, 0.002), 0.02))
	})

	t.Run("single observation is undefined", func(t *testing.T) {
		assert.Nil(t, SharpeRatio(series(0.01), 0.0))
	})
}

func TestMaxDrawdown(t *testing.T) {
	t.Run("trough against running max", func(t *testing.T) {
		got := MaxDrawdown(series(1.0, 1.10, 0.99, 1.05))
		require.NotNil(t, got)
		assert.InDelta(t, 0.99/1.10-1, *got, 1e-12)
		assert.InDelta(t, -0.10, *got, 1e-9)
	})

	t.Run("monotonic rise", func(t *testing.T) {
		got := MaxDrawdown(series(1, 2, 3))
		require.NotNil(t, got)
		assert.Equal(t, 0.0, *got)
	})

	t.Run("later deeper trough", func(t *testing.T) {
		got := MaxDrawdown(series(1, 0.9, 1.2, 0.6, 1.3))
		require.NotNil(t, got)
		assert.InDelta(t, -0.5, *got, 1e-12)
	})

	t.Run("undefined rows ignored", func(t *testing.T) {
		got := MaxDrawdown(series(1, math.NaN(), 0.8))
		require.NotNil(t, got)
		assert.InDelta(t, -0.2, *got, 1e-12)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, MaxDrawdown(Series{}))
	})
}

func TestDrawdowns(t *testing.T) {
	dd := Drawdowns(series(1.0, 1.10, 0.99, 1.05))
	require.Equal(t, 4, dd.Len())
	assert.Equal(t, 0.0, dd.Values[0])
	assert.Equal(t, 0.0, dd.Values[1])
	for _, v := range dd.Values {
		assert.LessOrEqual(t, v, 0.0)
	}
}

func TestEngineIsDeterministic(t *testing.T) {
	prices := mustTable(t, []string{"A", "B"},
		[]float64{100, 101, 99, 103, 104},
		[]float64{20, 19.5, 21, 20.5, 22},
	)
	run := func() []float64 {
		rets := DailyReturns(prices)
		w, err := NormalizeWeights([]float64{2, 1}, prices.Assets)
		require.NoError(t, err)
		port, err := PortfolioReturns(rets, w)
		require.NoError(t, err)
		curve := CumulativeCurve(port, DefaultStartValue)
		out := append([]float64(nil), curve.Values...)
		out = append(out, *AnnualizedReturn(port), *AnnualizedVolatility(port), *SharpeRatio(port, 0.02), *MaxDrawdown(curve))
		return out
	}

	first, second := run(), run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, math.Float64bits(first[i]), math.Float64bits(second[i]), "index %d", i)
	}
}
