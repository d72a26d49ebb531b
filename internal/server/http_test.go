package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioRiskBot/internal/finance"
	"portfolioRiskBot/internal/logger"
	"portfolioRiskBot/internal/metrics"
)

type fakeSource struct {
	prices map[string][]float64
	err    error
}

func (f fakeSource) Prices(_ context.Context, symbols []string, _, _ time.Time) (metrics.PriceTable, error) {
	if f.err != nil {
		return metrics.PriceTable{}, f.err
	}
	var assets []string
	var cols [][]float64
	n := 0
	for _, s := range symbols {
		if col, ok := f.prices[s]; ok {
			assets = append(assets, s)
			cols = append(cols, col)
			n = len(col)
		}
	}
	if len(assets) == 0 {
		return metrics.PriceTable{}, nil
	}
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	return metrics.NewTable(dates, assets, cols)
}

func newTestServer(src finance.PriceSource, webhook http.HandlerFunc) http.Handler {
	return New(Config{
		Port:     "0",
		Log:      logger.Nop(),
		Analyzer: finance.NewAnalyzer(src, logger.Nop()),
		Renderer: finance.NewRenderer(),
		Webhook:  webhook,
		RiskFree: 0.02,
	}).Handler()
}

var testPrices = fakeSource{prices: map[string][]float64{
	"AAPL": {100, 101, 99, 102, 104, 103},
	"CASH": {50, 50, 50, 50, 50, 50},
}}

func get(h http.Handler, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(newTestServer(testPrices, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRoute(t *testing.T) {
	called := false
	h := newTestServer(testPrices, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewBufferString("{}")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)

	rec = httptest.NewRecorder()
	newTestServer(testPrices, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRiskJSON(t *testing.T) {
	rec := get(newTestServer(testPrices, nil), "/api/risk?tickers=AAPL,CASH,NOPE&weights=1,1,2&years=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2y", body["window"])
	assert.Equal(t, []any{"NOPE"}, body["missing"])
	assert.EqualValues(t, 5, body["trading_days"])
	assert.NotNil(t, body["annualized_return"])
	assert.NotNil(t, body["sharpe_ratio"])

	weights := body["weights"].([]any)
	require.Len(t, weights, 2)
	assert.InDelta(t, 0.5, weights[0].(map[string]any)["weight"], 1e-12)

	corr := body["correlation"].(map[string]any)
	assert.Nil(t, corr["CASH"].(map[string]any)["AAPL"], "constant column has no correlation")
	assert.InDelta(t, 1.0, corr["AAPL"].(map[string]any)["AAPL"], 1e-12)
}

func TestRiskJSONUndefinedSharpeIsNull(t *testing.T) {
	rec := get(newTestServer(testPrices, nil), "/api/risk?tickers=CASH")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "sharpe_ratio")
	assert.Nil(t, body["sharpe_ratio"])
	assert.EqualValues(t, 0, body["annualized_volatility"])
	assert.EqualValues(t, 0, body["max_drawdown"])
}

func TestRiskErrors(t *testing.T) {
	h := newTestServer(testPrices, nil)

	assert.Equal(t, http.StatusBadRequest, get(h, "/api/risk").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/risk?tickers=AAPL&years=abc").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/risk?tickers=AAPL&rf=0.5").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/risk?tickers=AAPL,CASH&weights=1").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/risk?tickers=AAPL&rf=NaN").Code)

	rec := get(h, "/api/risk?tickers=AAPL,CASH&weights=inf,1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "finite")
	assert.Equal(t, http.StatusNotFound, get(h, "/api/risk?tickers=NOPE").Code)

	down := newTestServer(fakeSource{err: errors.New("upstream down")}, nil)
	rec = get(down, "/api/risk?tickers=AAPL")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream down")
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"weight": math.NaN()})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "encoding failed")
}

func TestRiskChart(t *testing.T) {
	h := newTestServer(testPrices, nil)

	rec := get(h, "/api/risk/chart/curve?tickers=AAPL,CASH")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusBadRequest, get(h, "/api/risk/chart/radar?tickers=AAPL").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/api/risk/chart/prices?tickers=NOPE").Code)
}
