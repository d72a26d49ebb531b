package finance

import (
	"math"
	"time"
)

// cleanCloses drops bars without a usable close (null, NaN, Inf or <= 0),
// keeping timestamp and value arrays aligned.
func cleanCloses(ts []int64, cl []*float64) ([]int64, []float64) {
	n := len(ts)
	if len(cl) < n {
		n = len(cl)
	}
	outTs := make([]int64, 0, n)
	outCl := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if cl[i] == nil {
			continue
		}
		v := *cl[i]
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		outTs = append(outTs, ts[i])
		outCl = append(outCl, v)
	}
	return outTs, outCl
}

// tradingDate maps a bar timestamp to its calendar date at the exchange,
// expressed as midnight UTC so dates from different exchanges compare equal.
func tradingDate(ts int64, loc *time.Location) time.Time {
	t := time.Unix(ts, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// toDailySeries converts cleaned bars into one price per trading date. When a
// date appears twice the later bar wins.
func toDailySeries(symbol string, ts []int64, cl []float64, loc *time.Location) assetSeries {
	out := assetSeries{Symbol: symbol}
	for i := range ts {
		d := tradingDate(ts[i], loc)
		if n := len(out.Dates); n > 0 && out.Dates[n-1].Equal(d) {
			out.Prices[n-1] = cl[i]
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Prices = append(out.Prices, cl[i])
	}
	return out
}
