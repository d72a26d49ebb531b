package metrics

import "time"

// Drawdowns returns curve[t]/max(curve[0..t]) - 1 for every row. Undefined
// rows stay undefined and do not move the running maximum.
func Drawdowns(curve Series) Series {
	out := Series{
		Dates:  append([]time.Time(nil), curve.Dates...),
		Values: make([]float64, curve.Len()),
	}
	peak, seen := 0.0, false
	for t, v := range curve.Values {
		if IsMissing(v) {
			out.Values[t] = Missing()
			continue
		}
		if !seen || v > peak {
			peak = v
		}
		seen = true
		if peak == 0 {
			out.Values[t] = Missing()
			continue
		}
		out.Values[t] = v/peak - 1
	}
	return out
}

// MaxDrawdown returns the most negative drawdown of the curve, always <= 0.
// Returns nil for a curve with no defined values.
func MaxDrawdown(curve Series) *float64 {
	dd := Drawdowns(curve).definedValues()
	if len(dd) == 0 {
		return nil
	}
	worst := dd[0]
	for _, v := range dd[1:] {
		if v < worst {
			worst = v
		}
	}
	return ptr(worst)
}
