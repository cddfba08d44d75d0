// Package demo implements a synthetic compositor loop: a per-VSYNC
// producer that exercises GenerateToken -> CreateSurfaceFrameForToken ->
// SetSfWakeUp/SetSfPresent -> fence reconciliation end to end. Shared by
// cmd/timeline-demo, cmd/timeline-dump, and cmd/timeline-report, none of
// which have a real compositor process to attach to.
package demo

import (
	"github.com/banshee-data/frametimeline/internal/frametimeline/engine"
	"github.com/banshee-data/frametimeline/internal/frametimeline/fence"
	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
)

// Options configures one synthetic session.
type Options struct {
	Frames int
	VsyncPeriodNs int64
	FenceLatencyNs int64 // delay between SetSfPresent and the fence signaling
	LayerName string
	OwnerPID int32
	OwnerUID int32
	// JankEvery, if > 0, injects an extra present-delay on every Nth frame
	// (1-indexed) so dump/report output has non-trivial jank to show.
	JankEvery int
	JankDelayNs int64
}

// DefaultOptions returns a reasonable 60Hz synthetic session of 30 frames.
func DefaultOptions() Options {
	return Options{
		Frames: 30,
		VsyncPeriodNs: 16_666_667,
		FenceLatencyNs: 2_000_000,
		LayerName: "com.example.demo/MainLayer",
		OwnerPID: 1234,
		OwnerUID: 10100,
		JankEvery: 7,
		JankDelayNs: 12_000_000,
	}
}

// Run drives ft through opts.Frames simulated VSYNC cycles, synchronously:
// each fence is a fence.Stub that already reports its signal time, so
// FlushPendingPresentFences classifies every frame inline. This mirrors
// production ordering without needing real goroutine scheduling or a clock
// the caller can't control.
func Run(ft *engine.FrameTimeline, opts Options) {
	frameStart := int64(0)

	for i := 1; i <= opts.Frames; i++ {
		wakeTime := frameStart
		predictedStart := wakeTime
		predictedEnd := wakeTime + opts.VsyncPeriodNs/2
		predictedPresent := wakeTime + opts.VsyncPeriodNs

		tok := ft.GenerateToken(token.TimelineItem{
			Start: predictedStart,
			End: predictedEnd,
			Present: predictedPresent,
		})
		ft.SetSfWakeUp(tok, wakeTime, opts.VsyncPeriodNs)

		sf := ft.CreateSurfaceFrameForToken(tok, opts.OwnerPID, opts.OwnerUID, opts.LayerName, "demo-buffer")
		ft.AddSurfaceFrame(sf)

		actualEnd := predictedEnd
		actualPresent := predictedPresent + opts.FenceLatencyNs
		if opts.JankEvery > 0 && i%opts.JankEvery == 0 {
			actualEnd += opts.JankDelayNs
			actualPresent += opts.JankDelayNs
		}

		sf.SetActualStartTime(predictedStart)
		sf.SetAcquireFenceTime(actualEnd)
		sf.SetPresentState(jank.Presented, actualEnd)

		ft.SetSfPresent(actualEnd, fence.NewStub(actualPresent))

		frameStart += opts.VsyncPeriodNs
	}
}
