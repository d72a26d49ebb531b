package finance

import (
	"fmt"

	"github.com/vicanso/go-charts/v2"

	"portfolioRiskBot/internal/metrics"
)

// rebase indexes a price column to 100 at its first available price. Cells
// before the first price are drawn at the base.
func rebase(col []float64) []float64 {
	base := 0.0
	for _, v := range col {
		if !metrics.IsMissing(v) && v > 0 {
			base = v
			break
		}
	}
	out := make([]float64, len(col))
	if base == 0 {
		for i := range out {
			out[i] = 100
		}
		return out
	}
	for i, v := range plottable(col, base) {
		out[i] = v / base * 100
	}
	return out
}

// renderPriceChart draws every asset's adjusted close rebased to 100 so
// assets of different price levels share one axis.
func renderPriceChart(a *Analysis) ([]byte, error) {
	if a.Prices.Len() < 2 {
		return nil, fmt.Errorf("not enough data points")
	}
	values := make([][]float64, len(a.Prices.Columns))
	for i, col := range a.Prices.Columns {
		values[i] = rebase(col)
	}
	yMin, yMax := paddedRange(values...)
	xLabels := dateLabels(a.Prices.Dates)

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = a.Prices.Assets[i]
	}
	p, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Adjusted Close Prices", "rebased to 100"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: splitNumber(len(xLabels)),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: a.Prices.Assets}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// correlationRows formats the correlation matrix as table rows, one per asset.
func correlationRows(m metrics.CorrelationMatrix) ([]string, [][]string) {
	header := append([]string{""}, m.Assets...)
	rows := make([][]string, len(m.Assets))
	for i, asset := range m.Assets {
		row := make([]string, 0, len(m.Assets)+1)
		row = append(row, asset)
		for _, v := range m.Values[i] {
			if metrics.IsMissing(v) {
				row = append(row, "N/A")
			} else {
				row = append(row, fmt.Sprintf("%.2f", v))
			}
		}
		rows[i] = row
	}
	return header, rows
}

// renderCorrelationChart draws the daily return correlation matrix as a table.
func renderCorrelationChart(a *Analysis) ([]byte, error) {
	if len(a.Correlation.Assets) == 0 {
		return nil, fmt.Errorf("no correlation data")
	}
	header, rows := correlationRows(a.Correlation)
	p, err := charts.TableRender(header, rows)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}
