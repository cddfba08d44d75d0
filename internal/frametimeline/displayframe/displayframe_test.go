package displayframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/stats"
	"github.com/banshee-data/frametimeline/internal/frametimeline/surfaceframe"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
)

func defaultThresholds() jank.Thresholds { return jank.DefaultThresholds() }

// TestScenario2_DroppedFrameNotUpdated is scenario 2.
func TestScenario2_DroppedFrameNotUpdated(t *testing.T) {
	t.Parallel()

	d := New(defaultThresholds(), 100)
	d.OnSfWakeUp(1, 16_666_666, token.TimelineItem{Start: 22, End: 26, Present: 30}, true, 20)

	sf := surfaceframe.New(surfaceframe.Config{
		PredictionState: token.Valid,
		Predictions: token.TimelineItem{Start: 10, End: 20, Present: 30},
		Thresholds: defaultThresholds(),
	})
	sf.SetPresentState(jank.Dropped, 0)
	d.AddSurfaceFrame(sf)
	d.SetActualEndTime(25)

	d.OnPresent(30)

	got := d.SurfaceFrames()
	require.Len(t, got, 1)
	assert.Equal(t, jank.Dropped, got[0].PresentState())
	assert.Equal(t, int64(0), got[0].Actuals().Present)
}

// TestScenario3_PresentedFramesGetPresentTime is scenario 3.
func TestScenario3_PresentedFramesGetPresentTime(t *testing.T) {
	t.Parallel()

	d := New(defaultThresholds(), 100)
	d.OnSfWakeUp(1, 16_666_666, token.TimelineItem{Start: 22, End: 26, Present: 30}, true, 22)

	sf1 := surfaceframe.New(surfaceframe.Config{
		PredictionState: token.Valid,
		Predictions: token.TimelineItem{Start: 10, End: 20, Present: 30},
		Thresholds: defaultThresholds(),
	})
	sf1.SetPresentState(jank.Presented, 0)
	sf2 := surfaceframe.New(surfaceframe.Config{
		PredictionState: token.Valid,
		Predictions: token.TimelineItem{Start: 10, End: 20, Present: 30},
		Thresholds: defaultThresholds(),
	})
	sf2.SetPresentState(jank.Presented, 0)

	d.AddSurfaceFrame(sf1)
	d.AddSurfaceFrame(sf2)
	d.SetActualEndTime(26)

	d.OnPresent(42)

	assert.Equal(t, int64(42), d.Actuals().Present)
	for _, sf := range d.SurfaceFrames() {
		assert.Equal(t, int64(42), sf.Actuals().Present)
	}
}

func TestOnPresent_SubmissionOrderPreserved(t *testing.T) {
	t.Parallel()

	d := New(defaultThresholds(), 100)
	d.OnSfWakeUp(1, 16_666_666, token.TimelineItem{}, false, 0)

	names := []string{"a", "b", "c"}
	for _, n := range names {
		sf := surfaceframe.New(surfaceframe.Config{LayerName: n, Thresholds: defaultThresholds()})
		sf.SetPresentState(jank.Presented, 0)
		d.AddSurfaceFrame(sf)
	}
	d.OnPresent(100)

	got := d.SurfaceFrames()
	require.Len(t, got, 3)
	for i, n := range names {
		assert.Equal(t, n, got[i].LayerName())
	}
}

func TestOnPresent_ExpiredPredictionYieldsUnknown(t *testing.T) {
	t.Parallel()

	d := New(defaultThresholds(), 100)
	d.OnSfWakeUp(token.InvalidToken, 16_666_666, token.TimelineItem{}, false, 20)
	d.SetActualEndTime(25)

	d.OnPresent(30)

	assert.Equal(t, jank.Unknown, d.Metadata().Jank)
	assert.True(t, d.Classified())
}

func TestOnPresent_LateCpuDeadlineMissed(t *testing.T) {
	t.Parallel()

	const ms = int64(1_000_000)
	d := New(defaultThresholds(), 100)
	d.OnSfWakeUp(1, 16_666_666, token.TimelineItem{Start: 52 * ms, End: 56 * ms, Present: 60 * ms}, true, 52*ms)
	d.SetActualEndTime(59 * ms)

	d.OnPresent(90 * ms)

	assert.Equal(t, jank.SurfaceFlingerCpuDeadlineMissed, d.Metadata().Jank)
}

// TestScenario5_LongSfCpuJankPropagatesToStats is scenario 5: a DisplayFrame
// that classifies SurfaceFlingerCpuDeadlineMissed must propagate that mask as
// parentJank into every contained SurfaceFrame's own classification, and the
// SurfaceFrame's stats sink must record it both per-layer and globally.
func TestScenario5_LongSfCpuJankPropagatesToStats(t *testing.T) {
	t.Parallel()

	const ms = int64(1_000_000)
	sink := stats.NewInProcess()

	d := New(defaultThresholds(), 100)
	d.OnSfWakeUp(1, 16_666_666, token.TimelineItem{Start: 52 * ms, End: 56 * ms, Present: 60 * ms}, true, 52*ms)
	d.SetActualEndTime(59 * ms)

	sf := surfaceframe.New(surfaceframe.Config{
		OwnerUID: 7001,
		LayerName: "com.example/Layer",
		PredictionState: token.Valid,
		Predictions: token.TimelineItem{Start: 52 * ms, End: 56 * ms, Present: 60 * ms},
		Thresholds: defaultThresholds(),
		Stats: sink,
	})
	sf.SetPresentState(jank.Presented, 0)
	sf.SetAcquireFenceTime(59 * ms)
	d.AddSurfaceFrame(sf)

	d.OnPresent(90 * ms)

	require.Equal(t, jank.SurfaceFlingerCpuDeadlineMissed, d.Metadata().Jank)
	require.Equal(t, jank.SurfaceFlingerCpuDeadlineMissed, sf.Metadata().Jank,
		"parentJank must override the surface frame's own AppDeadlineMissed verdict")

	assert.Equal(t, uint64(1), sink.CountFor(7001, "com.example/Layer", jank.SurfaceFlingerCpuDeadlineMissed))
	assert.Equal(t, uint64(1), sink.GlobalCount(jank.SurfaceFlingerCpuDeadlineMissed))
}
