// Package displayframe implements the DisplayFrame: the
// compositor's unit of work for one VSYNC cycle, owning the SurfaceFrames
// submitted against it in that cycle.
package displayframe

import (
	"sync"

	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/surfaceframe"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
)

// Actuals holds the observed wall-clock timestamps for a DisplayFrame.
type Actuals struct {
	Start int64
	End int64
	Present int64
}

// Metadata is the classification output attached by OnPresent.
type Metadata struct {
	Present jank.FramePresentMetadata
	Ready jank.FrameReadyMetadata
	Start jank.FrameStartMetadata
	Jank jank.Type
}

// DisplayFrame is the compositor's unit of work for one VSYNC cycle. One
// mutex guards every mutable field.
type DisplayFrame struct {
	mu sync.Mutex

	token token.Token
	vsyncPeriod int64
	predictionState token.PredictionState
	predictions token.TimelineItem
	sfPID int32
	thresholds jank.Thresholds

	actuals Actuals
	surfaceFrames []*surfaceframe.SurfaceFrame
	metadata Metadata
	classified bool
}

// New constructs an empty, not-yet-woken DisplayFrame. thresholds are used
// by OnPresent classification; sfPID is recorded for trace emission.
func New(thresholds jank.Thresholds, sfPID int32) *DisplayFrame {
	return &DisplayFrame{thresholds: thresholds, sfPID: sfPID}
}

// OnSfWakeUp populates the prediction fields and records the wake time as
// actuals.start. If predictions is not ok, prediction_state becomes Expired
// (OnSfWakeUp never sets PredictionState None — the engine always attempts
// a token lookup; only a frame that was never woken keeps the zero value).
func (d *DisplayFrame) OnSfWakeUp(tok token.Token, vsyncPeriod int64, predictions token.TimelineItem, predictionsOK bool, wakeTime int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.token = tok
	d.vsyncPeriod = vsyncPeriod
	d.actuals.Start = wakeTime

	if predictionsOK {
		d.predictionState = token.Valid
		d.predictions = predictions
	} else {
		d.predictionState = token.Expired
		d.predictions = token.TimelineItem{}
	}
}

// AddSurfaceFrame appends frame in submission order. Producers must not
// mutate frame after calling this.
func (d *DisplayFrame) AddSurfaceFrame(frame *surfaceframe.SurfaceFrame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.surfaceFrames = append(d.surfaceFrames, frame)
}

// SetActualEndTime records when the compositor completed its CPU work.
func (d *DisplayFrame) SetActualEndTime(ns int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actuals.End = ns
}

// Token, VsyncPeriod, PredictionState, Predictions, SfPID are read-mostly
// accessors used by the trace emitter and dump surface.
func (d *DisplayFrame) Token() token.Token {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.token
}

func (d *DisplayFrame) VsyncPeriod() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vsyncPeriod
}

func (d *DisplayFrame) PredictionState() token.PredictionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.predictionState
}

func (d *DisplayFrame) Predictions() token.TimelineItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.predictions
}

func (d *DisplayFrame) SfPID() int32 { return d.sfPID }

// Actuals returns a snapshot of the observed timestamps.
func (d *DisplayFrame) Actuals() Actuals {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.actuals
}

// Metadata returns the classification metadata computed by OnPresent.
func (d *DisplayFrame) Metadata() Metadata {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metadata
}

// Classified reports whether OnPresent has run.
func (d *DisplayFrame) Classified() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classified
}

// SurfaceFrames returns a shallow copy of the contained SurfaceFrame slice,
// in submission order.
func (d *DisplayFrame) SurfaceFrames() []*surfaceframe.SurfaceFrame {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*surfaceframe.SurfaceFrame, len(d.surfaceFrames))
	copy(out, d.surfaceFrames)
	return out
}

// OnPresent performs DisplayFrame-level classification, then propagates classification to every contained SurfaceFrame,
// passing this frame's own jank_type as parent and its vsync_period.
// signalTime is the hardware present-fence signal time.
func (d *DisplayFrame) OnPresent(signalTime int64) {
	d.mu.Lock()

	d.actuals.Present = signalTime

	var parentJank jank.Type
	var vsyncPeriod int64

	if d.predictionState == token.Expired || d.predictionState == token.None {
		d.metadata = Metadata{
			Present: jank.UnknownPresent,
			Ready: jank.UnknownFinish,
			Start: jank.UnknownStart,
			Jank: jank.Unknown,
		}
		parentJank = jank.Unknown
	} else {
		presentDelta := d.actuals.Present - d.predictions.Present
		deadlineDelta := d.actuals.End - d.predictions.End
		deltaToVsync := jank.DeltaToVsync(presentDelta, d.vsyncPeriod)

		ready := jank.ClassifyReady(deadlineDelta, d.thresholds.DeadlineNs)
		present := jank.ClassifyPresent(presentDelta, d.thresholds.PresentNs)
		start := jank.ClassifyStart(d.actuals.Start, d.predictions.Start, d.thresholds.StartNs)

		jankType := jank.DisplayFrameOutcome(present, ready, deltaToVsync, d.vsyncPeriod, d.thresholds.PresentNs)

		d.metadata = Metadata{Present: present, Ready: ready, Start: start, Jank: jankType}
		parentJank = jankType
	}
	vsyncPeriod = d.vsyncPeriod
	d.classified = true

	frames := make([]*surfaceframe.SurfaceFrame, len(d.surfaceFrames))
	copy(frames, d.surfaceFrames)

	d.mu.Unlock()

	// Dispatch to contained SurfaceFrames outside the DisplayFrame's own
	// lock: the engine must never hold a lock while calling into a
	// SurfaceFrame mutator.
	for _, f := range frames {
		f.OnPresent(signalTime, parentJank, vsyncPeriod)
	}
}
