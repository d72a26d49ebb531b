package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/vicanso/go-charts/v2"

	"portfolioRiskBot/internal/metrics"
)

// ChartKind names one of the rendered views of an analysis.
type ChartKind string

const (
	ChartCurve       ChartKind = "curve"
	ChartAllocation  ChartKind = "allocation"
	ChartPrices      ChartKind = "prices"
	ChartCorrelation ChartKind = "correlation"
)

// ChartKinds lists every chart in display order.
var ChartKinds = []ChartKind{ChartCurve, ChartAllocation, ChartCorrelation, ChartPrices}

// ParseChartKind validates a chart name.
func ParseChartKind(s string) (ChartKind, error) {
	for _, k := range ChartKinds {
		if string(k) == strings.ToLower(s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart %q (use curve, allocation, prices or correlation)", s)
}

// Renderer draws analyses as PNG images.
type Renderer struct {
	cache *chartCache
}

func NewRenderer() *Renderer {
	return &Renderer{cache: newChartCache(chartCacheTTL)}
}

func cacheKey(a *Analysis, kind ChartKind) string {
	weightStrs := make([]string, len(a.Weights.Weights))
	for i, w := range a.Weights.Weights {
		weightStrs[i] = fmt.Sprintf("%.4f", w)
	}
	return fmt.Sprintf("%s-%s-%s-%s-%.4f-%s", kind,
		strings.Join(a.Weights.Assets, ","), strings.Join(weightStrs, ","),
		a.Request.Window, a.Request.RiskFree, a.End.Format("2006-01-02"))
}

// Render draws one chart of the analysis.
func (r *Renderer) Render(a *Analysis, kind ChartKind) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("no analysis to render")
	}
	key := cacheKey(a, kind)
	if img, found := r.cache.get(key); found {
		return img, nil
	}

	var (
		img []byte
		err error
	)
	switch kind {
	case ChartCurve:
		img, err = renderCurveChart(a)
	case ChartAllocation:
		img, err = renderAllocationChart(a)
	case ChartPrices:
		img, err = renderPriceChart(a)
	case ChartCorrelation:
		img, err = renderCorrelationChart(a)
	default:
		return nil, fmt.Errorf("unknown chart %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s chart: %w", kind, err)
	}

	// Cache the result
	r.cache.set(key, img)
	return img, nil
}

// dateLabels formats the x axis by the length of the series.
func dateLabels(dates []time.Time) []string {
	labels := make([]string, len(dates))
	for i, d := range dates {
		if len(dates) <= 60 {
			labels[i] = d.Format("Jan 02")
		} else {
			labels[i] = d.Format("Jan '06")
		}
	}
	return labels
}

// splitNumber picks the x axis label spacing for n points.
func splitNumber(n int) int {
	splitNum := 6
	if n <= 30 {
		splitNum = n / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}
	return splitNum
}

// paddedRange returns the y axis bounds with 5% padding.
func paddedRange(values ...[]float64) (float64, float64) {
	first := true
	var minVal, maxVal float64
	for _, vs := range values {
		for _, v := range vs {
			if first || v < minVal {
				minVal = v
			}
			if first || v > maxVal {
				maxVal = v
			}
			first = false
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	if padding == 0 {
		padding = 1
	}
	return minVal - padding, maxVal + padding
}

// plottable replaces undefined points with the previous defined one (or
// fallback before the first) so the line stays continuous.
func plottable(values []float64, fallback float64) []float64 {
	out := make([]float64, len(values))
	last := fallback
	for i, v := range values {
		if !metrics.IsMissing(v) {
			last = v
		}
		out[i] = last
	}
	return out
}

// renderCurveChart draws the cumulative growth curve with the statistics in
// the subtitle.
func renderCurveChart(a *Analysis) ([]byte, error) {
	if a.Curve.Len() < 2 {
		return nil, fmt.Errorf("need at least 2 data points for a curve")
	}
	values := plottable(a.Curve.Values, metrics.DefaultStartValue)
	yMin, yMax := paddedRange(values)
	xLabels := dateLabels(a.Curve.Dates)

	subtitle := fmt.Sprintf("Return: %s | Vol: %s | Sharpe: %s | MaxDD: %s",
		FormatPercent(a.AnnualReturn), FormatPercent(a.AnnualVolatility),
		FormatRatio(a.SharpeRatio), FormatPercent(a.MaxDrawdown))

	p, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc("Cumulative Return (Start = 1.0)", subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNumber(len(xLabels)),
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// renderAllocationChart draws the normalized weights as a pie. Assets with a
// zero weight are left out of the pie.
func renderAllocationChart(a *Analysis) ([]byte, error) {
	var values []float64
	var labels []string
	for i, asset := range a.Weights.Assets {
		w := a.Weights.Weights[i]
		if w <= 0 {
			continue
		}
		values = append(values, w)
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", asset, w*100))
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no allocation to draw")
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc("Allocation"),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}
