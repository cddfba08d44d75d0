// Package dump implements the text dump surface: two
// textual views of the retained DisplayFrame history, selected by the
// -jank and -all flags.
package dump

import (
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/frametimeline/internal/frametimeline/displayframe"
	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/surfaceframe"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
)

// Mode selects which DisplayFrames are rendered.
type Mode int

const (
	// All renders every retained DisplayFrame.
	All Mode = iota
	// JankOnly renders only DisplayFrames with a non-zero jank_type.
	JankOnly
)

// Write renders frames to w according to mode, following the header and
// per-frame block layout
func Write(w io.Writer, frames []*displayframe.DisplayFrame, mode Mode) error {
	selected := frames
	if mode == JankOnly {
		selected = make([]*displayframe.DisplayFrame, 0, len(frames))
		for _, f := range frames {
			if f.Metadata().Jank != jank.None {
				selected = append(selected, f)
			}
		}
	}

	if _, err := fmt.Fprintf(w, "Number of display frames: %d\n", len(selected)); err != nil {
		return err
	}

	for _, f := range selected {
		if err := writeDisplayFrame(w, f); err != nil {
			return err
		}
	}
	return nil
}

func baseTime(f *displayframe.DisplayFrame) int64 {
	predictions := f.Predictions()
	actuals := f.Actuals()

	min := int64(0)
	haveMin := false
	consider := func(ns int64, onlyIfValid bool) {
		if onlyIfValid && f.PredictionState() != token.Valid {
			return
		}
		if ns == 0 {
			return
		}
		if !haveMin || ns < min {
			min = ns
			haveMin = true
		}
	}

	consider(predictions.Start, true)
	consider(actuals.Start, false)
	consider(actuals.End, false)
	consider(actuals.Present, false)

	for _, sf := range f.SurfaceFrames() {
		sp := sf.Predictions()
		sa := sf.Actuals()
		consider(sp.Start, sf.PredictionState() == token.Valid)
		consider(sa.Start, false)
		consider(sa.End, false)
		consider(sa.Present, false)
	}

	return min
}

func relMs(base, ns int64) float64 {
	if ns == 0 {
		return 0
	}
	return float64(ns-base) / 1e6
}

func writeDisplayFrame(w io.Writer, f *displayframe.DisplayFrame) error {
	base := baseTime(f)
	meta := f.Metadata()
	predictions := f.Predictions()
	actuals := f.Actuals()
	presentDelta := actuals.Present - predictions.Present
	deltaToVsync := jank.DeltaToVsync(presentDelta, f.VsyncPeriod())

	var b strings.Builder
	fmt.Fprintf(&b, "DisplayFrame token=%d prediction_state=%s jank_type=%s\n",
		f.Token(), f.PredictionState(), meta.Jank)
	fmt.Fprintf(&b, " present=%s ready=%s start=%s vsync_period_ns=%d\n",
		presentMetaString(meta.Present), readyMetaString(meta.Ready), startMetaString(meta.Start), f.VsyncPeriod())
	fmt.Fprintf(&b, " present_delta_ns=%d delta_to_vsync_ns=%d\n", presentDelta, deltaToVsync)
	fmt.Fprintf(&b, " %-10s %10s %10s %10s\n", "", "start_ms", "end_ms", "present_ms")
	fmt.Fprintf(&b, " %-10s %10.3f %10.3f %10.3f\n", "predicted", relMs(base, predictions.Start), relMs(base, predictions.End), relMs(base, predictions.Present))
	fmt.Fprintf(&b, " %-10s %10.3f %10.3f %10.3f\n", "actual", relMs(base, actuals.Start), relMs(base, actuals.End), relMs(base, actuals.Present))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	for _, sf := range f.SurfaceFrames() {
		if err := writeSurfaceFrame(w, sf, base); err != nil {
			return err
		}
	}
	return nil
}

func writeSurfaceFrame(w io.Writer, sf *surfaceframe.SurfaceFrame, base int64) error {
	meta := sf.Metadata()
	predictions := sf.Predictions()
	actuals := sf.Actuals()

	var b strings.Builder
	fmt.Fprintf(&b, " SurfaceFrame token=%d layer=%q present_state=%s jank_type=%s\n",
		sf.Token(), sf.LayerName(), sf.PresentState(), meta.Jank)
	fmt.Fprintf(&b, " present=%s ready=%s start=%s\n",
		presentMetaString(meta.Present), readyMetaString(meta.Ready), startMetaString(meta.Start))
	fmt.Fprintf(&b, " %-10s %10s %10s %10s\n", "", "start_ms", "end_ms", "present_ms")
	fmt.Fprintf(&b, " %-10s %10.3f %10.3f %10.3f\n", "predicted", relMs(base, predictions.Start), relMs(base, predictions.End), relMs(base, predictions.Present))
	fmt.Fprintf(&b, " %-10s %10.3f %10.3f %10.3f\n", "actual", relMs(base, actuals.Start), relMs(base, actuals.End), relMs(base, actuals.Present))

	_, err := io.WriteString(w, b.String())
	return err
}

func presentMetaString(m jank.FramePresentMetadata) string {
	switch m {
	case jank.OnTimePresent:
		return "OnTime"
	case jank.EarlyPresent:
		return "Early"
	case jank.LatePresent:
		return "Late"
	default:
		return "Unknown"
	}
}

func readyMetaString(m jank.FrameReadyMetadata) string {
	switch m {
	case jank.OnTimeFinish:
		return "OnTime"
	case jank.LateFinish:
		return "Late"
	default:
		return "Unknown"
	}
}

func startMetaString(m jank.FrameStartMetadata) string {
	switch m {
	case jank.OnTimeStart:
		return "OnTime"
	case jank.LateStart:
		return "Late"
	case jank.EarlyStart:
		return "Early"
	default:
		return "Unknown"
	}
}
