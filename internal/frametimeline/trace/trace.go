// Package trace implements the trace packet emitter and its sinks: one
// packet per finalized DisplayFrame, and one per contained SurfaceFrame
// with a valid token pair.
package trace

import (
	"github.com/banshee-data/frametimeline/internal/frametimeline/displayframe"
	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/surfaceframe"
)

// ClockID identifies which clock a packet's timestamp was drawn from. Only
// the monotonic clock is used by this emitter.
type ClockID int

const ClockMonotonic ClockID = 0

// PresentType is the wire-level present outcome, folding PresentState and
// FramePresentMetadata into the single enum a trace consumer expects.
type PresentType int

const (
	PresentUnspecified PresentType = iota
	PresentOnTime
	PresentLate
	PresentEarly
	PresentDropped
)

func (p PresentType) String() string {
	switch p {
	case PresentOnTime:
		return "PRESENT_ON_TIME"
	case PresentLate:
		return "PRESENT_LATE"
	case PresentEarly:
		return "PRESENT_EARLY"
	case PresentDropped:
		return "PRESENT_DROPPED"
	default:
		return "PRESENT_UNSPECIFIED"
	}
}

// ProtoPresentType maps a SurfaceFrame's present state and classification
// metadata to the wire present type:
// PRESENT_DROPPED if Dropped, PRESENT_UNSPECIFIED if Unknown, otherwise the
// mapping of frame_present_metadata.
func ProtoPresentType(state jank.PresentState, meta jank.FramePresentMetadata) PresentType {
	switch state {
	case jank.Dropped:
		return PresentDropped
	case jank.PresentUnknownState:
		return PresentUnspecified
	}
	return protoPresentTypeFromMetadata(meta)
}

// protoPresentTypeFromMetadata maps frame_present_metadata directly to the
// wire present type, with no PresentState short-circuit. DisplayFrame has
// no PresentState of its own (that concept is SurfaceFrame-local), so its
// packets map through here instead of ProtoPresentType.
func protoPresentTypeFromMetadata(meta jank.FramePresentMetadata) PresentType {
	switch meta {
	case jank.OnTimePresent:
		return PresentOnTime
	case jank.LatePresent:
		return PresentLate
	case jank.EarlyPresent:
		return PresentEarly
	default:
		return PresentUnspecified
	}
}

// DisplayFramePacket is the emitted field set for a finalized DisplayFrame.
type DisplayFramePacket struct {
	Token int64
	PresentType PresentType
	OnTimeFinish bool
	GpuComposition bool
	JankType jank.ProtoJank
	ExpectedStartNs int64
	ExpectedEndNs int64
	ActualStartNs int64
	ActualEndNs int64
	SfPID int32
}

// SurfaceFramePacket is the emitted field set for a contained SurfaceFrame.
type SurfaceFramePacket struct {
	DisplayFramePacket
	DisplayFrameToken int64
	LayerName string
	PID int32
}

// PacketBuilder is the consumed builder seam: new_trace_packet()
// returns a builder exposing timestamp setters and a frame-timeline event.
type PacketBuilder interface {
	SetTimestampClockID(id ClockID) PacketBuilder
	SetTimestamp(ns int64) PacketBuilder
	SetFrameTimelineEvent() EventBuilder
}

// EventBuilder exposes the display-frame and surface-frame sub-message
// builders.
type EventBuilder interface {
	SetDisplayFrame(DisplayFramePacket)
	SetSurfaceFrame(SurfaceFramePacket)
}

// Sink is the consumed trace sink interface.
type Sink interface {
	NewTracePacket() PacketBuilder
}

// EmitDisplayFrame builds and emits the DisplayFrame packet for df.
func EmitDisplayFrame(sink Sink, df *displayframe.DisplayFrame, timestampNs int64) {
	actuals := df.Actuals()
	predictions := df.Predictions()
	meta := df.Metadata()

	pkt := DisplayFramePacket{
		Token: int64(df.Token()),
		PresentType: protoPresentTypeFromMetadata(meta.Present),
		OnTimeFinish: meta.Ready == jank.OnTimeFinish,
		JankType: jank.Proto(meta.Jank),
		ExpectedStartNs: predictions.Start,
		ExpectedEndNs: predictions.End,
		ActualStartNs: actuals.Start,
		ActualEndNs: actuals.End,
		SfPID: df.SfPID(),
	}

	builder := sink.NewTracePacket()
	builder.SetTimestampClockID(ClockMonotonic).SetTimestamp(timestampNs).SetFrameTimelineEvent().SetDisplayFrame(pkt)
}

// EmitSurfaceFrame builds and emits the SurfaceFrame packet for sf, a
// contained frame of df. Callers must only invoke this when both
// df.Token() and sf.Token() are valid.
func EmitSurfaceFrame(sink Sink, df *displayframe.DisplayFrame, sf *surfaceframe.SurfaceFrame, timestampNs int64) {
	actuals := sf.Actuals()
	predictions := sf.Predictions()
	meta := sf.Metadata()
	presentState := sf.PresentState()

	pkt := SurfaceFramePacket{
		DisplayFramePacket: DisplayFramePacket{
			Token: int64(sf.Token()),
			PresentType: ProtoPresentType(presentState, meta.Present),
			OnTimeFinish: meta.Ready == jank.OnTimeFinish,
			JankType: jank.Proto(meta.Jank),
			ExpectedStartNs: predictions.Start,
			ExpectedEndNs: predictions.End,
			ActualStartNs: actuals.Start,
			ActualEndNs: actuals.End,
			SfPID: sf.OwnerPID(),
		},
		DisplayFrameToken: int64(df.Token()),
		LayerName: sf.LayerName(),
		PID: sf.OwnerPID(),
	}

	builder := sink.NewTracePacket()
	builder.SetTimestampClockID(ClockMonotonic).SetTimestamp(timestampNs).SetFrameTimelineEvent().SetSurfaceFrame(pkt)
}

// Noop discards every packet. Useful where a caller has no tracing backend
// wired up but still needs a non-nil Sink.
type Noop struct{}

func (Noop) NewTracePacket() PacketBuilder { return noopBuilder{} }

type noopBuilder struct{}

func (noopBuilder) SetTimestampClockID(ClockID) PacketBuilder { return noopBuilder{} }
func (noopBuilder) SetTimestamp(int64) PacketBuilder { return noopBuilder{} }
func (noopBuilder) SetFrameTimelineEvent() EventBuilder { return noopEvent{} }

type noopEvent struct{}

func (noopEvent) SetDisplayFrame(DisplayFramePacket) {}
func (noopEvent) SetSurfaceFrame(SurfaceFramePacket) {}

var (
	_ Sink = Noop{}
	_ PacketBuilder = noopBuilder{}
	_ EventBuilder = noopEvent{}
)
