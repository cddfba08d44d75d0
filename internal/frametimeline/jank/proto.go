package jank

// ProtoJank is the wire enum a JankType bitmask collapses to when the trace
// schema wants a single enum field instead of a bitmask.
type ProtoJank int32

const (
	ProtoNone ProtoJank = iota
	ProtoDisplayHAL
	ProtoSFDeadlineMissed
	ProtoAppDeadlineMissed
	ProtoSFScheduling
	ProtoBufferStuffing
	ProtoUnknown
)

func (p ProtoJank) String() string {
	switch p {
	case ProtoNone:
		return "NONE"
	case ProtoDisplayHAL:
		return "DISPLAY_HAL"
	case ProtoSFDeadlineMissed:
		return "SF_DEADLINE_MISSED"
	case ProtoAppDeadlineMissed:
		return "APP_DEADLINE_MISSED"
	case ProtoSFScheduling:
		return "SF_SCHEDULING"
	case ProtoBufferStuffing:
		return "BUFFER_STUFFING"
	default:
		return "UNKNOWN"
	}
}

// Proto collapses a jank bitmask to a single enum value using the
// precedence chain:
//
//	DisplayHAL -> SF_DEADLINE_MISSED (cpu or gpu) -> APP_DEADLINE_MISSED
//	(app or prediction error) -> SF_SCHEDULING -> BUFFER_STUFFING -> UNKNOWN -> NONE
func Proto(t Type) ProtoJank {
	switch {
	case t.Has(DisplayHAL):
		return ProtoDisplayHAL
	case t.Has(SurfaceFlingerCpuDeadlineMissed) || t.Has(SurfaceFlingerGpuDeadlineMissed):
		return ProtoSFDeadlineMissed
	case t.Has(AppDeadlineMissed) || t.Has(PredictionError):
		return ProtoAppDeadlineMissed
	case t.Has(SurfaceFlingerScheduling):
		return ProtoSFScheduling
	case t.Has(BufferStuffing):
		return ProtoBufferStuffing
	case t.Has(Unknown):
		return ProtoUnknown
	default:
		return ProtoNone
	}
}
