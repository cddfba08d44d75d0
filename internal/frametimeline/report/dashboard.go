package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const dashboardAssetsPrefix = "/assets/"

// RenderDashboardHTML writes an HTML dashboard with a present-delta
// percentile bar and a jank-rate-by-category bar.
func RenderDashboardHTML(w io.Writer, summary Summary) error {
	percentileBar := charts.NewBar()
	percentileBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px", AssetsHost: dashboardAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{
			Title: "Present Delta (ms)",
			Subtitle: fmt.Sprintf("frames=%d", summary.FrameCount),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	percentileBar.SetXAxis([]string{"p50", "p85", "p98", "max"}).
		AddSeries("present_delta_ms", []opts.BarData{
			{Value: summary.PresentDeltaMs.P50},
			{Value: summary.PresentDeltaMs.P85},
			{Value: summary.PresentDeltaMs.P98},
			{Value: summary.PresentDeltaMs.Max},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	categories := make([]string, len(summary.JankRates))
	counts := make([]opts.BarData, len(summary.JankRates))
	for i, row := range summary.JankRates {
		categories[i] = row.Category
		counts[i] = opts.BarData{Value: row.Count}
	}

	jankBar := charts.NewBar()
	jankBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px", AssetsHost: dashboardAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Jank Rate by Category"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	jankBar.SetXAxis(categories).
		AddSeries("frames", counts, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.SetAssetsHost(dashboardAssetsPrefix)
	page.AddCharts(percentileBar, jankBar)

	return page.Render(w)
}
