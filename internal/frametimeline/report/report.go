// Package report aggregates finalized frame history from
// internal/frametimeline/store into percentile summaries and renders them
// as either a static histogram (gonum/plot) or an HTML dashboard
// (go-echarts).
package report

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
)

// PresentDeltaPercentiles holds the p50/p85/p98 percentiles and the maximum
// of a set of present deltas (actual present time minus predicted present
// time), in the unit of the input samples; Summary carries milliseconds.
type PresentDeltaPercentiles struct {
	P50 float64
	P85 float64
	P98 float64
	Max float64
}

// ComputePresentDeltaPercentiles sorts deltas and computes the standard
// percentile set via stat.Quantile with the Empirical estimator.
func ComputePresentDeltaPercentiles(deltas []float64) PresentDeltaPercentiles {
	if len(deltas) == 0 {
		return PresentDeltaPercentiles{}
	}
	sorted := make([]float64, len(deltas))
	copy(sorted, deltas)
	sort.Float64s(sorted)

	return PresentDeltaPercentiles{
		P50: stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P85: stat.Quantile(0.85, stat.Empirical, sorted, nil),
		P98: stat.Quantile(0.98, stat.Empirical, sorted, nil),
		Max: sorted[len(sorted)-1],
	}
}

// JankCategoryCount is one row of the jank-rate-by-category breakdown: how
// many finalized DisplayFrames carried a given jank bit, and what fraction
// of the total that represents.
type JankCategoryCount struct {
	Category string
	Count int64
	Fraction float64
}

var jankBits = []jank.Type{
	jank.DisplayHAL,
	jank.SurfaceFlingerCpuDeadlineMissed,
	jank.SurfaceFlingerGpuDeadlineMissed,
	jank.SurfaceFlingerScheduling,
	jank.AppDeadlineMissed,
	jank.PredictionError,
	jank.BufferStuffing,
	jank.Unknown,
}

// JankRateByCategory expands a jank_type -> count histogram (as produced by
// store.DB.JankRateByType, whose keys are exact bitmask values) into one row
// per individual jank bit, counting every frame whose mask has that bit set
// regardless of what else is set. Frames may therefore contribute to more
// than one row.
func JankRateByCategory(counts map[jank.Type]int64) []JankCategoryCount {
	var total int64
	for _, n := range counts {
		total += n
	}

	rows := make([]JankCategoryCount, 0, len(jankBits))
	for _, bit := range jankBits {
		var bitCount int64
		for mask, n := range counts {
			if mask.Has(bit) {
				bitCount += n
			}
		}
		if bitCount == 0 {
			continue
		}
		frac := 0.0
		if total > 0 {
			frac = float64(bitCount) / float64(total)
		}
		rows = append(rows, JankCategoryCount{Category: bit.String(), Count: bitCount, Fraction: frac})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return rows
}

// Summary is the full report dataset passed to the render functions.
type Summary struct {
	FrameCount int
	PresentDeltaMs PresentDeltaPercentiles
	JankRates []JankCategoryCount
}

// BuildSummary converts raw nanosecond present deltas and a jank histogram
// into a render-ready Summary, converting nanoseconds to milliseconds for
// display.
func BuildSummary(frameCount int, presentDeltasNs []float64, jankCounts map[jank.Type]int64) Summary {
	deltasMs := make([]float64, len(presentDeltasNs))
	for i, d := range presentDeltasNs {
		deltasMs[i] = d / 1e6
	}
	return Summary{
		FrameCount: frameCount,
		PresentDeltaMs: ComputePresentDeltaPercentiles(deltasMs),
		JankRates: JankRateByCategory(jankCounts),
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("frames=%d present_delta_ms{p50=%.2f p85=%.2f p98=%.2f max=%.2f} jank_categories=%d",
		s.FrameCount, s.PresentDeltaMs.P50, s.PresentDeltaMs.P85, s.PresentDeltaMs.P98, s.PresentDeltaMs.Max, len(s.JankRates))
}
