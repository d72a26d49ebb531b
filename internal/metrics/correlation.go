package metrics

import "gonum.org/v1/gonum/stat"

// CorrelationMatrix holds pairwise Pearson correlations of asset returns.
// Values[i][j] is NaN when the pair cannot be computed.
type CorrelationMatrix struct {
	Assets []string
	Values [][]float64
}

// At returns the correlation between two assets.
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, id := range m.Assets {
		if id == a {
			i = k
		}
		if id == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

// Correlation computes pairwise correlations over rows where both assets are
// defined. Pairs with fewer than two such rows, or where either side has no
// variance, are undefined.
func Correlation(returns ReturnTable) CorrelationMatrix {
	n := len(returns.Assets)
	out := CorrelationMatrix{
		Assets: append([]string(nil), returns.Assets...),
		Values: make([][]float64, n),
	}
	for i := range out.Values {
		out.Values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := pairCorrelation(returns.Columns[i], returns.Columns[j])
			out.Values[i][j] = v
			out.Values[j][i] = v
		}
	}
	return out
}

func pairCorrelation(a, b []float64) float64 {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(b))
	for t := range a {
		if IsMissing(a[t]) || IsMissing(b[t]) {
			continue
		}
		xs = append(xs, a[t])
		ys = append(ys, b[t])
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return Missing()
	}
	return stat.Correlation(xs, ys, nil)
}
