package jank

// SurfaceFrameOutcome implements the per-surface-frame fault classification
// matrix. parentJank is the enclosing DisplayFrame's jank_type, already
// computed by DisplayFrameOutcome.
func SurfaceFrameOutcome(present FramePresentMetadata, ready FrameReadyMetadata, deltaToVsync, vsyncPeriod, presentThreshold int64, parentJank Type) Type {
	nearVsync := NearVsyncBoundary(deltaToVsync, vsyncPeriod, presentThreshold)

	switch present {
	case OnTimePresent:
		return None

	case EarlyPresent:
		switch ready {
		case OnTimeFinish:
			if nearVsync {
				return SurfaceFlingerScheduling
			}
			return PredictionError
		default: // LateFinish or UnknownFinish
			return Unknown
		}

	case LatePresent:
		switch ready {
		case OnTimeFinish:
			if parentJank != None {
				return parentJank
			}
			if nearVsync {
				return SurfaceFlingerScheduling
			}
			return PredictionError
		case LateFinish:
			if parentJank != None {
				return parentJank
			}
			return AppDeadlineMissed
		default:
			return Unknown
		}

	default: // UnknownPresent
		return Unknown
	}
}

// DisplayFrameOutcome implements the per-display-frame fault
// classification matrix.
func DisplayFrameOutcome(present FramePresentMetadata, ready FrameReadyMetadata, deltaToVsync, vsyncPeriod, presentThreshold int64) Type {
	nearVsync := NearVsyncBoundary(deltaToVsync, vsyncPeriod, presentThreshold)

	switch present {
	case OnTimePresent:
		return None

	case EarlyPresent:
		switch ready {
		case OnTimeFinish:
			if nearVsync {
				return SurfaceFlingerScheduling
			}
			return PredictionError
		case LateFinish:
			return SurfaceFlingerScheduling
		default:
			return Unknown
		}

	case LatePresent:
		switch ready {
		case OnTimeFinish:
			if nearVsync {
				return DisplayHAL
			}
			return PredictionError
		case LateFinish:
			return SurfaceFlingerCpuDeadlineMissed
		default:
			return Unknown
		}

	default: // UnknownPresent
		return Unknown
	}
}

// MaybeBufferStuffing ORs BufferStuffing into jank when the app's
// predicted finish already preceded the last latch.
func MaybeBufferStuffing(jankType Type, predictedEnd, lastLatchTime int64) Type {
	if lastLatchTime != 0 && predictedEnd != 0 && predictedEnd <= lastLatchTime {
		return jankType | BufferStuffing
	}
	return jankType
}
