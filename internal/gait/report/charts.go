package report

import (
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/gait.report/internal/gait/pipeline"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ScatterChart renders one gyroscope vs accelerometer scatter per metric and
// a bar chart of the correlation coefficients to a single HTML page.
func ScatterChart(w io.Writer, comparisons []pipeline.Comparison) error {
	page := components.NewPage()
	page.PageTitle = "Gait interval correlation"
	page.SetLayout(components.PageFlexLayout)

	names := make([]string, 0, len(comparisons))
	coeffs := make([]opts.BarData, 0, len(comparisons))
	for _, c := range comparisons {
		page.AddCharts(comparisonScatter(c))
		names = append(names, string(c.Metric))
		r := c.Correlation.R
		if c.Err != nil || math.IsNaN(r) {
			r = 0
		}
		coeffs = append(coeffs, opts.BarData{Value: r})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "600px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Correlation coefficient", Subtitle: "shank gyroscope vs chest accelerometer"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: -1, Max: 1, Name: "r"}),
	)
	bar.SetXAxis(names).
		AddSeries("r", coeffs,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	page.AddCharts(bar)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render correlation page: %w", err)
	}
	return nil
}

func comparisonScatter(c pipeline.Comparison) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(c.Gyro))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range c.Gyro {
		data = append(data, opts.ScatterData{Value: []interface{}{c.Gyro[i], c.Accel[i]}})
		lo = math.Min(lo, math.Min(c.Gyro[i], c.Accel[i]))
		hi = math.Max(hi, math.Max(c.Gyro[i], c.Accel[i]))
	}

	subtitle := fmt.Sprintf("n=%d r=%.3f p=%.3g", len(data), c.Correlation.R, c.Correlation.P)
	if c.Err != nil {
		subtitle = fmt.Sprintf("n=%d %v", len(data), c.Err)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "600px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s time (s)", c.Metric), Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "gyroscope", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "accelerometer", NameLocation: "middle", NameGap: 35}),
	)
	scatter.AddSeries(string(c.Metric), data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	if len(data) > 0 {
		// y = x reference line
		scatter.AddSeries("y = x", []opts.ScatterData{
			{Value: []interface{}{lo, lo}},
			{Value: []interface{}{hi, hi}},
		}, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	}
	return scatter
}
