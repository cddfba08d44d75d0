// Package jank holds the fault-classification vocabulary shared by
// SurfaceFrame and DisplayFrame: the jank bitmask, the present/ready/start
// metadata enums, and the pure scoring helpers the classification
// matrices are built from.
package jank

import "fmt"

// Type is a bitmask over the fault categories a missed deadline can be
// attributed to. Zero value is None.
type Type uint32

const (
	None Type = 0
	DisplayHAL Type = 1 << 0
	SurfaceFlingerCpuDeadlineMissed Type = 1 << 1
	SurfaceFlingerGpuDeadlineMissed Type = 1 << 2
	SurfaceFlingerScheduling Type = 1 << 3
	AppDeadlineMissed Type = 1 << 4
	PredictionError Type = 1 << 5
	BufferStuffing Type = 1 << 6
	Unknown Type = 1 << 7
)

func (t Type) Has(bit Type) bool { return t&bit != 0 }

// String renders the set bits for logs and the dump surface, in ascending
// bit order.
func (t Type) String() string {
	if t == None {
		return "None"
	}
	names := []struct {
		bit Type
		name string
	}{
		{DisplayHAL, "DisplayHAL"},
		{SurfaceFlingerCpuDeadlineMissed, "SurfaceFlingerCpuDeadlineMissed"},
		{SurfaceFlingerGpuDeadlineMissed, "SurfaceFlingerGpuDeadlineMissed"},
		{SurfaceFlingerScheduling, "SurfaceFlingerScheduling"},
		{AppDeadlineMissed, "AppDeadlineMissed"},
		{PredictionError, "PredictionError"},
		{BufferStuffing, "BufferStuffing"},
		{Unknown, "Unknown"},
	}
	s := ""
	for _, n := range names {
		if t.Has(n.bit) {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	if s == "" {
		return fmt.Sprintf("Type(%#x)", uint32(t))
	}
	return s
}

// PresentState is the SurfaceFrame-local buffer-present outcome. It is set
// at most once, before classification.
type PresentState int

const (
	PresentUnknownState PresentState = iota
	Presented
	Dropped
)

func (s PresentState) String() string {
	switch s {
	case Presented:
		return "Presented"
	case Dropped:
		return "Dropped"
	default:
		return "Unknown"
	}
}

// FramePresentMetadata classifies actuals.present against predictions.present.
type FramePresentMetadata int

const (
	UnknownPresent FramePresentMetadata = iota
	OnTimePresent
	EarlyPresent
	LatePresent
)

// FrameReadyMetadata classifies actuals.end against predictions.end.
type FrameReadyMetadata int

const (
	UnknownFinish FrameReadyMetadata = iota
	OnTimeFinish
	LateFinish
)

// FrameStartMetadata classifies actuals.start against predictions.start.
type FrameStartMetadata int

const (
	UnknownStart FrameStartMetadata = iota
	OnTimeStart
	LateStart
	EarlyStart
)

// Thresholds are the configurable nanosecond tolerances used by the
// classification matrices.
type Thresholds struct {
	PresentNs int64
	DeadlineNs int64
	StartNs int64
}

// DefaultThresholds returns the standard 2ms present/start tolerance with
// no deadline slack.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PresentNs: 2_000_000, // 2ms
		DeadlineNs: 0,
		StartNs: 2_000_000, // 2ms
	}
}

// ClassifyPresent implements the frame_present_metadata classification
// rule: within threshold is on-time, positive delta is late, negative is
// early.
func ClassifyPresent(presentDelta, presentThreshold int64) FramePresentMetadata {
	if abs64(presentDelta) <= presentThreshold {
		return OnTimePresent
	}
	if presentDelta > 0 {
		return LatePresent
	}
	return EarlyPresent
}

// ClassifyReady implements the frame_ready_metadata classification rule:
// a deadline delta beyond threshold is a late finish.
func ClassifyReady(deadlineDelta, deadlineThreshold int64) FrameReadyMetadata {
	if deadlineDelta > deadlineThreshold {
		return LateFinish
	}
	return OnTimeFinish
}

// ClassifyStart implements the frame_start_metadata classification rule.
// It reports UnknownStart whenever either operand is zero (actualStart
// unset, or no valid prediction).
func ClassifyStart(actualStart, predictedStart, startThreshold int64) FrameStartMetadata {
	if actualStart == 0 || predictedStart == 0 {
		return UnknownStart
	}
	delta := actualStart - predictedStart
	if abs64(delta) <= startThreshold {
		return OnTimeStart
	}
	if delta > 0 {
		return LateStart
	}
	return EarlyStart
}

// DeltaToVsync implements delta_to_vsync = |present_delta| mod vsync_period.
func DeltaToVsync(presentDelta, vsyncPeriod int64) int64 {
	if vsyncPeriod <= 0 {
		return 0
	}
	d := abs64(presentDelta)
	return d % vsyncPeriod
}

// NearVsyncBoundary reports whether deltaToVsync falls within
// presentThreshold of either a 0 or a full-vsync-period boundary — the
// "delta_to_vsync near 0/vsync" condition shared by both classification
// matrices.
func NearVsyncBoundary(deltaToVsync, vsyncPeriod, presentThreshold int64) bool {
	if vsyncPeriod <= 0 {
		return false
	}
	return deltaToVsync < presentThreshold || deltaToVsync >= vsyncPeriod-presentThreshold
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
