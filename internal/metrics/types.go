// Package metrics computes portfolio risk/return statistics from aligned price
// tables. Every function is pure: inputs are never mutated and no state is kept
// between calls.
package metrics

import (
	"errors"
	"math"
	"time"
)

const (
	// TradingDaysPerYear is the annualization constant for daily statistics.
	TradingDaysPerYear = 252
	// DefaultStartValue is the base of a cumulative curve.
	DefaultStartValue = 1.0
)

var (
	ErrLengthMismatch = errors.New("weights and asset ids length mismatch")
	ErrNoAssets       = errors.New("no asset ids provided")
	ErrDuplicateAsset = errors.New("duplicate asset id")
	ErrUnknownAsset   = errors.New("asset not present in return table")
	ErrRaggedTable    = errors.New("column length does not match date index")
)

// Missing is the cell value of an absent observation.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether a table cell or series value is undefined.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Table is a date-indexed set of asset columns. Dates are strictly increasing
// and each column has one value per date; missing cells are NaN.
type Table struct {
	Dates   []time.Time
	Assets  []string
	Columns [][]float64
}

// PriceTable holds positive prices per asset and date.
type PriceTable = Table

// ReturnTable holds fractional daily changes per asset and date.
type ReturnTable = Table

// NewTable validates the shape of the given columns and returns a table that
// owns copies of them.
func NewTable(dates []time.Time, assets []string, columns [][]float64) (Table, error) {
	if len(assets) != len(columns) {
		return Table{}, ErrLengthMismatch
	}
	seen := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		if _, ok := seen[a]; ok {
			return Table{}, ErrDuplicateAsset
		}
		seen[a] = struct{}{}
	}
	t := Table{
		Dates:   append([]time.Time(nil), dates...),
		Assets:  append([]string(nil), assets...),
		Columns: make([][]float64, len(columns)),
	}
	for i, col := range columns {
		if len(col) != len(dates) {
			return Table{}, ErrRaggedTable
		}
		t.Columns[i] = append([]float64(nil), col...)
	}
	return t, nil
}

// Empty reports whether the table has nothing to compute on.
func (t Table) Empty() bool { return len(t.Dates) == 0 || len(t.Assets) == 0 }

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Dates) }

// Column returns the values of the named asset.
func (t Table) Column(asset string) ([]float64, bool) {
	for i, a := range t.Assets {
		if a == asset {
			return t.Columns[i], true
		}
	}
	return nil, false
}

// Series is a date-indexed sequence of values (portfolio returns or a
// cumulative curve). Undefined rows hold NaN.
type Series struct {
	Dates  []time.Time
	Values []float64
}

func (s Series) Len() int { return len(s.Values) }

// Defined reports whether row i holds a computable value.
func (s Series) Defined(i int) bool { return !IsMissing(s.Values[i]) }

// definedValues returns the defined values of s in order.
func (s Series) definedValues() []float64 {
	out := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// WeightVector is an ordered mapping from asset id to weight.
type WeightVector struct {
	Assets  []string
	Weights []float64
}

// Weight returns the weight of the asset.
func (w WeightVector) Weight(asset string) (float64, bool) {
	for i, a := range w.Assets {
		if a == asset {
			return w.Weights[i], true
		}
	}
	return 0, false
}

// Sum returns the total of all weights.
func (w WeightVector) Sum() float64 {
	total := 0.0
	for _, v := range w.Weights {
		total += v
	}
	return total
}

func (w WeightVector) Len() int { return len(w.Assets) }

func ptr(v float64) *float64 { return &v }
