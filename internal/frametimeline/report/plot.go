package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderHistogramPNG draws a histogram of present-delta samples (in
// milliseconds) and saves it to path.
func RenderHistogramPNG(presentDeltasMs []float64, path string) error {
	if len(presentDeltasMs) == 0 {
		return fmt.Errorf("report: no present-delta samples to plot")
	}

	values := make(plotter.Values, len(presentDeltasMs))
	copy(values, presentDeltasMs)

	p := plot.New()
	p.Title.Text = "Present Delta Distribution"
	p.X.Label.Text = "present_delta_ms"
	p.Y.Label.Text = "frames"

	hist, err := plotter.NewHist(values, 32)
	if err != nil {
		return fmt.Errorf("report: new histogram: %w", err)
	}
	p.Add(hist)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("report: save histogram %s: %w", path, err)
	}
	return nil
}
