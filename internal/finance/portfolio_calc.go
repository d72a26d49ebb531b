package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"portfolioRiskBot/internal/metrics"
)

// ErrNoPriceData is returned when the price source has nothing for the request.
var ErrNoPriceData = errors.New("no price data returned for the given tickers/range")

// Analyzer runs the analysis pipeline: prices, returns, weights, portfolio
// series, curve and statistics.
type Analyzer struct {
	source PriceSource
	log    zerolog.Logger
	now    func() time.Time
}

func NewAnalyzer(source PriceSource, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		source: source,
		log:    log.With().Str("component", "analyzer").Logger(),
		now:    time.Now,
	}
}

// Analyze computes a full analysis. An empty price table yields
// ErrNoPriceData and nothing downstream is computed.
func (a *Analyzer) Analyze(ctx context.Context, req RiskRequest) (*Analysis, error) {
	if len(req.Tickers) == 0 {
		return nil, ErrNoTickers
	}
	if len(req.RawWeights) != len(req.Tickers) {
		return nil, fmt.Errorf("%w: %d weights for %d tickers", ErrWeightCount, len(req.RawWeights), len(req.Tickers))
	}

	start, end := req.Range(a.now())
	prices, err := a.source.Prices(ctx, req.Tickers, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	if prices.Empty() {
		a.log.Info().Strs("tickers", req.Tickers).Msg("no price data")
		return nil, ErrNoPriceData
	}

	// weights follow the columns that actually came back
	raw := make([]float64, len(prices.Assets))
	for i, asset := range prices.Assets {
		for j, t := range req.Tickers {
			if t == asset {
				raw[i] = req.RawWeights[j]
				break
			}
		}
	}
	weights, err := metrics.NormalizeWeights(raw, prices.Assets)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize weights: %w", err)
	}

	returns := metrics.DailyReturns(prices)
	portfolio, err := metrics.PortfolioReturns(returns, weights)
	if err != nil {
		return nil, fmt.Errorf("failed to compute portfolio returns: %w", err)
	}
	curve := metrics.CumulativeCurve(portfolio, metrics.DefaultStartValue)

	out := &Analysis{
		Request:          req,
		Start:            start,
		End:              end,
		Prices:           prices,
		Returns:          returns,
		Weights:          weights,
		Portfolio:        portfolio,
		Curve:            curve,
		Correlation:      metrics.Correlation(returns),
		AnnualReturn:     metrics.AnnualizedReturn(portfolio),
		AnnualVolatility: metrics.AnnualizedVolatility(portfolio),
		SharpeRatio:      metrics.SharpeRatio(portfolio, req.RiskFree),
		MaxDrawdown:      metrics.MaxDrawdown(curve),
	}

	ev := a.log.Info().
		Strs("tickers", prices.Assets).
		Int("days", returns.Len()).
		Str("window", req.Window)
	if missing := out.Missing(); len(missing) > 0 {
		ev = ev.Strs("missing", missing)
	}
	ev.Msg("analysis computed")
	return out, nil
}
