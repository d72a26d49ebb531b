package metrics

import (
	"fmt"
	"time"
)

// DailyReturns converts prices to fractional changes from the prior available
// price of each asset. The first row is always dropped, as is any row where no
// asset has a defined return. Column order and ids are preserved.
func DailyReturns(prices PriceTable) ReturnTable {
	out := ReturnTable{
		Assets:  append([]string(nil), prices.Assets...),
		Columns: make([][]float64, len(prices.Assets)),
	}
	if prices.Len() < 2 {
		return out
	}

	rows := prices.Len() - 1
	raw := make([][]float64, len(prices.Columns))
	for c, col := range prices.Columns {
		raw[c] = make([]float64, rows)
		prev := col[0]
		for t := 1; t < len(col); t++ {
			cur := col[t]
			switch {
			case IsMissing(cur), IsMissing(prev), prev == 0:
				raw[c][t-1] = Missing()
			default:
				raw[c][t-1] = cur/prev - 1
			}
			if !IsMissing(cur) {
				prev = cur
			}
		}
	}

	for t := 0; t < rows; t++ {
		defined := false
		for c := range raw {
			if !IsMissing(raw[c][t]) {
				defined = true
				break
			}
		}
		if !defined {
			continue
		}
		out.Dates = append(out.Dates, prices.Dates[t+1])
		for c := range raw {
			out.Columns[c] = append(out.Columns[c], raw[c][t])
		}
	}
	return out
}

// SelectColumns returns the columns of the table named by assets, in the given
// order. It is the explicit alignment step between a weight vector and a table.
func SelectColumns(t Table, assets []string) ([][]float64, error) {
	cols := make([][]float64, len(assets))
	for i, a := range assets {
		col, ok := t.Column(a)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, a)
		}
		cols[i] = col
	}
	return cols, nil
}

// PortfolioReturns combines per-asset returns into one weighted series. Only
// the assets named by weights take part. A row where any of them is undefined
// is undefined. The result index equals the return table's index.
func PortfolioReturns(returns ReturnTable, weights WeightVector) (Series, error) {
	cols, err := SelectColumns(returns, weights.Assets)
	if err != nil {
		return Series{}, err
	}
	out := Series{
		Dates:  append([]time.Time(nil), returns.Dates...),
		Values: make([]float64, returns.Len()),
	}
	for t := range out.Values {
		sum := 0.0
		for i, col := range cols {
			r := col[t]
			if IsMissing(r) {
				sum = Missing()
				break
			}
			sum += r * weights.Weights[i]
		}
		out.Values[t] = sum
	}
	return out, nil
}

// CumulativeCurve compounds returns from startValue. Undefined rows stay
// undefined and leave the running product unchanged.
func CumulativeCurve(returns Series, startValue float64) Series {
	out := Series{
		Dates:  append([]time.Time(nil), returns.Dates...),
		Values: make([]float64, returns.Len()),
	}
	acc := 1.0
	for t, r := range returns.Values {
		if IsMissing(r) {
			out.Values[t] = Missing()
			continue
		}
		acc *= 1 + r
		out.Values[t] = acc * startValue
	}
	return out
}
