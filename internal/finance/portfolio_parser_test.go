package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTickers(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, ParseTickers(" aapl; msft ,, nvda ", 0))
	assert.Equal(t, []string{"AAPL", "MSFT"}, ParseTickers("aapl,msft,nvda", 2))
	assert.Equal(t, []string{"SPY", "SPY"}, ParseTickers("spy, SPY", 5))
	assert.Empty(t, ParseTickers(" , ; ", 5))
}

func TestParseWeights(t *testing.T) {
	ws, err := ParseWeights("1, 2;3.5")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3.5}, ws)

	ws, err = ParseWeights("")
	require.NoError(t, err)
	assert.Empty(t, ws)

	_, err = ParseWeights("1,x")
	assert.ErrorContains(t, err, "invalid weight 'x'")

	for _, in := range []string{"inf,1", "1,-Inf", "NaN"} {
		_, err = ParseWeights(in)
		assert.ErrorContains(t, err, "must be a finite number", in)
	}
}

func TestNewRiskRequestDefaults(t *testing.T) {
	req, err := NewRiskRequest("aapl, msft", "", "", "", 5, 0.03)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, req.Tickers)
	assert.Equal(t, []float64{0.5, 0.5}, req.RawWeights)
	assert.Equal(t, "5y", req.Window)
	assert.Equal(t, 5*365, req.Days)
	assert.Equal(t, 0.03, req.RiskFree)
}

func TestNewRiskRequestWeights(t *testing.T) {
	req, err := NewRiskRequest("A,B,C,D,E,F", "1,2,3,4,5,6", "", "", 5, 0.02)
	require.NoError(t, err)
	assert.Len(t, req.Tickers, 5)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, req.RawWeights)

	_, err = NewRiskRequest("A,B", "1", "", "", 5, 0.02)
	assert.ErrorIs(t, err, ErrWeightCount)

	_, err = NewRiskRequest("", "", "", "", 5, 0.02)
	assert.ErrorIs(t, err, ErrNoTickers)
}

func TestNewRiskRequestRiskFree(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0.04", 0.04, false},
		{"2%", 0.02, false},
		{"0", 0, false},
		{"0.2", 0.2, false},
		{"0.3", 0, true},
		{"-0.01", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"inf", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			req, err := NewRiskRequest("SPY", "", "", tt.in, 5, 0.02)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, req.RiskFree, 1e-12)
		})
	}
}

func TestNewRiskRequestWindow(t *testing.T) {
	req, err := NewRiskRequest("SPY", "", "18M", "", 5, 0.02)
	require.NoError(t, err)
	assert.Equal(t, "18m", req.Window)
	assert.Equal(t, 540, req.Days)

	req, err = NewRiskRequest("SPY", "", "20y", "", 5, 0.02)
	require.NoError(t, err)
	assert.Equal(t, 3650, req.Days)

	_, err = NewRiskRequest("SPY", "", "5x", "", 5, 0.02)
	assert.ErrorContains(t, err, "invalid window format")
}

func TestParseRiskCommand(t *testing.T) {
	req, err := ParseRiskCommand("/risk@portfolio_bot aapl, msft w=1,3 rf=1% 2y", 5, 0.02)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, req.Tickers)
	assert.Equal(t, []float64{1, 3}, req.RawWeights)
	assert.InDelta(t, 0.01, req.RiskFree, 1e-12)
	assert.Equal(t, "2y", req.Window)
	assert.Equal(t, 730, req.Days)

	req, err = ParseRiskCommand("/risk SPY TLT weights=60,40", 5, 0.02)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY", "TLT"}, req.Tickers)
	assert.Equal(t, []float64{60, 40}, req.RawWeights)
	assert.Equal(t, "5y", req.Window)

	_, err = ParseRiskCommand("/risk", 5, 0.02)
	assert.ErrorIs(t, err, ErrNoTickers)
}
