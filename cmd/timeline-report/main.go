// Command timeline-report runs a synthetic session through the frame
// timeline engine, mirrors its finalized frames into the in-memory SQLite
// store, and renders a percentile/jank-rate report as an HTML dashboard
// and a PNG histogram.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/banshee-data/frametimeline/internal/frametimeline/demo"
	"github.com/banshee-data/frametimeline/internal/frametimeline/engine"
	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/report"
	"github.com/banshee-data/frametimeline/internal/frametimeline/store"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
	"github.com/banshee-data/frametimeline/internal/timeutil"
)

func main() {
	var (
		frames int
		dashboardOut string
		histOut string
	)
	flag.IntVar(&frames, "frames", 200, "number of simulated VSYNC cycles to generate")
	flag.StringVar(&dashboardOut, "out", "timeline-report.html", "path to write the HTML dashboard")
	flag.StringVar(&histOut, "hist", "timeline-present-delta.png", "path to write the present-delta histogram")
	flag.Parse()

	tokens := token.NewManager(timeutil.RealClock{})
	ft := engine.New(tokens, jank.DefaultThresholds(), 100, nil)

	opts := demo.DefaultOptions()
	opts.Frames = frames
	demo.Run(ft, opts)

	db, err := store.Open()
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer db.Close()

	recordedAt := time.Now().UnixNano()
	for _, df := range ft.DisplayFrames() {
		if err := db.InsertDisplayFrame(df, recordedAt); err != nil {
			log.Fatalf("insert display frame: %v", err)
		}
	}

	deltas, err := db.PresentDeltas()
	if err != nil {
		log.Fatalf("present deltas: %v", err)
	}
	jankRates, err := db.JankRateByType()
	if err != nil {
		log.Fatalf("jank rates: %v", err)
	}

	summary := report.BuildSummary(len(ft.DisplayFrames()), deltas, jankRates)
	log.Printf("timeline-report: %s", summary)

	dashboard, err := os.Create(dashboardOut)
	if err != nil {
		log.Fatalf("create %s: %v", dashboardOut, err)
	}
	defer dashboard.Close()
	if err := report.RenderDashboardHTML(dashboard, summary); err != nil {
		log.Fatalf("render dashboard: %v", err)
	}

	if len(deltas) > 0 {
		deltasMs := make([]float64, len(deltas))
		for i, d := range deltas {
			deltasMs[i] = d / 1e6
		}
		if err := report.RenderHistogramPNG(deltasMs, histOut); err != nil {
			log.Fatalf("render histogram: %v", err)
		}
	}
}
