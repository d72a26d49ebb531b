package finance

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"portfolioRiskBot/internal/config"
	"portfolioRiskBot/internal/metrics"
)

// PriceSource returns a price table aligned on a shared date index and
// forward-filled across gaps. No data is an empty table, not an error.
type PriceSource interface {
	Prices(ctx context.Context, symbols []string, start, end time.Time) (metrics.PriceTable, error)
}

// parseWindow turns a lookback such as 90d, 26w, 18m or 5y into days.
// Lookbacks longer than config.MaxYears are capped.
func parseWindow(window string) (int, error) {
	window = strings.ToLower(strings.TrimSpace(window))
	if window == "" {
		return config.DefaultYears * 365, nil
	}
	if len(window) < 2 {
		return 0, fmt.Errorf("invalid window format: %s (use format like 90d, 26w, 18m, 5y)", window)
	}
	n, err := strconv.Atoi(window[:len(window)-1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid window format: %s (use format like 90d, 26w, 18m, 5y)", window)
	}

	var days int
	switch window[len(window)-1] {
	case 'd':
		days = n
	case 'w':
		days = n * 7
	case 'm':
		days = n * 30 // Approximate days
	case 'y':
		days = n * 365
	default:
		return 0, fmt.Errorf("invalid window format: %s (use format like 90d, 26w, 18m, 5y)", window)
	}
	if limit := config.MaxYears * 365; days > limit {
		days = limit
	}
	return days, nil
}

// Prices fetches every symbol and aligns them. Symbols that fail or return no
// bars in range are logged and left out.
func (s *YahooSource) Prices(ctx context.Context, symbols []string, start, end time.Time) (metrics.PriceTable, error) {
	var series []assetSeries
	for _, symbol := range symbols {
		as, err := s.fetchDaily(ctx, symbol, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return metrics.PriceTable{}, fmt.Errorf("failed to fetch %s: %w", symbol, ctx.Err())
			}
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("no price data")
			continue
		}
		if len(as.Dates) == 0 {
			s.log.Warn().Str("symbol", symbol).Msg("no valid bars")
			continue
		}
		series = append(series, as)
	}
	return alignPrices(series, start, end)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// alignPrices puts every series on the union of their trading dates within
// [start, end], forward-filling gaps. Cells before an asset's first bar stay
// missing. Series with no bar in range are dropped.
func alignPrices(series []assetSeries, start, end time.Time) (metrics.PriceTable, error) {
	from, to := dayOf(start), dayOf(end)
	inRange := func(d time.Time) bool { return !d.Before(from) && !d.After(to) }

	dateSet := make(map[time.Time]struct{})
	var kept []assetSeries
	seen := make(map[string]struct{})
	for _, as := range series {
		if _, dup := seen[as.Symbol]; dup {
			continue
		}
		n := 0
		for _, d := range as.Dates {
			if inRange(d) {
				dateSet[d] = struct{}{}
				n++
			}
		}
		if n == 0 {
			continue
		}
		seen[as.Symbol] = struct{}{}
		kept = append(kept, as)
	}
	if len(kept) == 0 {
		return metrics.PriceTable{}, nil
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	assets := make([]string, len(kept))
	columns := make([][]float64, len(kept))
	for i, as := range kept {
		assets[i] = as.Symbol
		priceMap := make(map[time.Time]float64, len(as.Dates))
		for j, d := range as.Dates {
			priceMap[d] = as.Prices[j]
		}
		col := make([]float64, len(dates))
		last := metrics.Missing()
		for j, d := range dates {
			if p, ok := priceMap[d]; ok {
				last = p
			}
			col[j] = last
		}
		columns[i] = col
	}
	return metrics.NewTable(dates, assets, columns)
}
