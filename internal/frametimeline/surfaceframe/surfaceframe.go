// Package surfaceframe implements the SurfaceFrame: one
// application-side buffer submission, associated with at most one
// DisplayFrame, classified when its parent present-fence reconciles.
package surfaceframe

import (
	"sync"

	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/stats"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
)

// Actuals holds the observed wall-clock timestamps for a SurfaceFrame.
type Actuals struct {
	Start int64
	End int64
	Present int64
}

// Metadata is the classification output attached after OnPresent runs.
type Metadata struct {
	Present jank.FramePresentMetadata
	Ready jank.FrameReadyMetadata
	Start jank.FrameStartMetadata
	Jank jank.Type
}

// Config bundles the construction inputs that aren't
// mutated after construction.
type Config struct {
	Token token.Token
	OwnerPID int32
	OwnerUID int32
	LayerName string
	DebugName string
	PredictionState token.PredictionState
	Predictions token.TimelineItem
	Thresholds jank.Thresholds
	Stats stats.Sink // may be nil; treated as stats.Noop{}
}

// SurfaceFrame is one application buffer submission. One mutex guards every
// mutable field so a producer can fill in actuals concurrently with the
// classification read triggered by fence reconciliation.
type SurfaceFrame struct {
	token token.Token
	ownerPID int32
	ownerUID int32
	layerName string
	debugName string
	predictionState token.PredictionState
	predictions token.TimelineItem
	thresholds jank.Thresholds
	stats stats.Sink

	mu sync.Mutex
	actuals Actuals
	presentState jank.PresentState
	lastLatchTime int64
	metadata Metadata
	classified bool
}

// New constructs a SurfaceFrame from cfg. A nil cfg.Stats is replaced with a
// no-op sink so OnPresent never needs a nil check.
func New(cfg Config) *SurfaceFrame {
	sink := cfg.Stats
	if sink == nil {
		sink = stats.Noop{}
	}
	return &SurfaceFrame{
		token: cfg.Token,
		ownerPID: cfg.OwnerPID,
		ownerUID: cfg.OwnerUID,
		layerName: cfg.LayerName,
		debugName: cfg.DebugName,
		predictionState: cfg.PredictionState,
		predictions: cfg.Predictions,
		thresholds: cfg.Thresholds,
		stats: sink,
	}
}

// Token, OwnerPID, OwnerUID, LayerName, DebugName, PredictionState are
// immutable after construction and need no locking.
func (f *SurfaceFrame) Token() token.Token { return f.token }
func (f *SurfaceFrame) OwnerPID() int32 { return f.ownerPID }
func (f *SurfaceFrame) OwnerUID() int32 { return f.ownerUID }
func (f *SurfaceFrame) LayerName() string { return f.layerName }
func (f *SurfaceFrame) DebugName() string { return f.debugName }
func (f *SurfaceFrame) PredictionState() token.PredictionState { return f.predictionState }
func (f *SurfaceFrame) Predictions() token.TimelineItem { return f.predictions }

// SetActualStartTime records when the producer began building this frame.
func (f *SurfaceFrame) SetActualStartTime(ns int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actuals.Start = ns
}

// SetActualQueueTime records when the frame was queued to the compositor,
// maintaining the actuals.end = max(acquire_fence_time, actual_queue_time)
// invariant regardless of call order.
func (f *SurfaceFrame) SetActualQueueTime(ns int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actuals.End = max64(f.actuals.End, ns)
}

// SetAcquireFenceTime records the acquire fence signal time, maintaining the
// same actuals.end invariant as SetActualQueueTime.
func (f *SurfaceFrame) SetAcquireFenceTime(ns int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actuals.End = max64(f.actuals.End, ns)
}

// SetPresentState is called exactly once by the engine/consumer before
// on_present classification.
func (f *SurfaceFrame) SetPresentState(state jank.PresentState, lastLatchTime int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presentState = state
	f.lastLatchTime = lastLatchTime
}

// Actuals returns a snapshot of the observed timestamps.
func (f *SurfaceFrame) Actuals() Actuals {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.actuals
}

// PresentState returns the present-state set by SetPresentState.
func (f *SurfaceFrame) PresentState() jank.PresentState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.presentState
}

// Metadata returns the classification metadata computed by OnPresent. Zero
// value before classification runs.
func (f *SurfaceFrame) Metadata() Metadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metadata
}

// OnPresent implements steps 1-10, invoked by the parent
// DisplayFrame with its own already-computed jank_type and vsync_period.
func (f *SurfaceFrame) OnPresent(presentTime int64, parentJank jank.Type, vsyncPeriod int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Step 1: dropped/unknown frames are not classified.
	if f.presentState != jank.Presented {
		return
	}

	// Step 2.
	f.actuals.Present = presentTime

	// Step 3.
	if f.predictionState == token.None {
		return
	}

	// Step 4.
	if f.predictionState == token.Expired {
		f.metadata = Metadata{
			Present: jank.UnknownPresent,
			Ready: jank.UnknownFinish,
			Start: jank.UnknownStart,
			Jank: jank.Unknown,
		}
		f.classified = true
		f.stats.IncrementJankyFrames(f.ownerUID, f.layerName, jank.Unknown)
		f.stats.IncrementJankyFramesGlobal(jank.Unknown)
		return
	}

	// Step 5.
	presentDelta := f.actuals.Present - f.predictions.Present
	deadlineDelta := f.actuals.End - f.predictions.End
	deltaToVsync := jank.DeltaToVsync(presentDelta, vsyncPeriod)

	// Steps 6-7.
	ready := jank.ClassifyReady(deadlineDelta, f.thresholds.DeadlineNs)
	present := jank.ClassifyPresent(presentDelta, f.thresholds.PresentNs)
	start := jank.ClassifyStart(f.actuals.Start, f.predictions.Start, f.thresholds.StartNs)

	// Step 8.
	jankType := jank.SurfaceFrameOutcome(present, ready, deltaToVsync, vsyncPeriod, f.thresholds.PresentNs, parentJank)

	// Step 9.
	jankType = jank.MaybeBufferStuffing(jankType, f.predictions.End, f.lastLatchTime)

	f.metadata = Metadata{Present: present, Ready: ready, Start: start, Jank: jankType}
	f.classified = true

	// Step 10.
	f.stats.IncrementJankyFrames(f.ownerUID, f.layerName, jankType)
	f.stats.IncrementJankyFramesGlobal(jankType)
}

// Classified reports whether OnPresent has run and produced metadata.
func (f *SurfaceFrame) Classified() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.classified
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
