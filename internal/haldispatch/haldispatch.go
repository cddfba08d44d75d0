// Package haldispatch models a vibrator HAL capability set: a closed set
// of operations a hardware backend may support, dispatched by capability
// bitmask rather than by interface inheritance. A sibling concern to the
// frame timeline, not wired into it.
package haldispatch

import "errors"

// Capability is one bit in a backend's supported-operations bitmask.
type Capability uint32

const (
	On Capability = 1 << iota
	Off
	SetAmplitude
	SetExternalControl
	AlwaysOn
	GetCapabilities
	GetSupportedEffects
	PerformEffect
	PerformComposedEffect
)

func (c Capability) Has(bit Capability) bool { return c&bit != 0 }

// Result is a three-state sum type: a successful value, an operation the
// backend does not implement, or an operation that failed at runtime.
// Exactly one of the three states holds.
type Result[T any] struct {
	ok bool
	unsupported bool
	value T
	err error
}

// Ok wraps a successful result.
func Ok[T any](value T) Result[T] { return Result[T]{ok: true, value: value} }

// Unsupported reports that the backend does not implement the operation.
func Unsupported[T any]() Result[T] { return Result[T]{unsupported: true} }

// Failed wraps a runtime failure, distinct from Unsupported.
func Failed[T any](err error) Result[T] { return Result[T]{err: err} }

// IsOk reports the Ok state.
func (r Result[T]) IsOk() bool { return r.ok }

// IsUnsupported reports the Unsupported state.
func (r Result[T]) IsUnsupported() bool { return r.unsupported }

// IsFailed reports the Failed state.
func (r Result[T]) IsFailed() bool { return !r.ok && !r.unsupported }

// Value returns the wrapped value and whether the result was Ok.
func (r Result[T]) Value() (T, bool) { return r.value, r.ok }

// Err returns the wrapped error, or nil if the result isn't Failed.
func (r Result[T]) Err() error { return r.err }

// Effect identifies a predefined haptic waveform.
type Effect int

var errDurationMustBePositive = errors.New("haldispatch: duration must be positive")

// Backend is the vibrator HAL contract. Callers must consult Capabilities()
// before invoking an operation; backends return Unsupported for anything
// outside their declared capability set rather than panicking or no-oping
// silently.
type Backend interface {
	Capabilities() Capability
	On(durationMs int64) Result[struct{}]
	Off() Result[struct{}]
	SetAmplitude(amplitude uint8) Result[struct{}]
	SetExternalControl(enabled bool) Result[struct{}]
	AlwaysOn(id int32, effect Effect) Result[struct{}]
	GetSupportedEffects() Result[[]Effect]
	PerformEffect(effect Effect) Result[int64]
	PerformComposedEffect(effects []Effect) Result[int64]
}

// unsupportedAll implements every Backend method as Unsupported; concrete
// backends embed it and override only what they declare in Capabilities().
type unsupportedAll struct{}

func (unsupportedAll) On(int64) Result[struct{}] { return Unsupported[struct{}]() }
func (unsupportedAll) Off() Result[struct{}] { return Unsupported[struct{}]() }
func (unsupportedAll) SetAmplitude(uint8) Result[struct{}] { return Unsupported[struct{}]() }
func (unsupportedAll) SetExternalControl(bool) Result[struct{}] { return Unsupported[struct{}]() }
func (unsupportedAll) AlwaysOn(int32, Effect) Result[struct{}] { return Unsupported[struct{}]() }
func (unsupportedAll) GetSupportedEffects() Result[[]Effect] { return Unsupported[[]Effect]() }
func (unsupportedAll) PerformEffect(Effect) Result[int64] { return Unsupported[int64]() }
func (unsupportedAll) PerformComposedEffect([]Effect) Result[int64] { return Unsupported[int64]() }

// NullBackend implements no capability at all; every call returns
// Unsupported. Useful as a default when no vibrator hardware is present.
type NullBackend struct{ unsupportedAll }

func (NullBackend) Capabilities() Capability { return 0 }

var _ Backend = NullBackend{}

// SoftwareBackend implements only On/Off/SetAmplitude, simulating a simple
// ERM motor driver with no composed-effect or always-on hardware support.
type SoftwareBackend struct {
	unsupportedAll
	amplitude uint8
	running bool
}

func (b *SoftwareBackend) Capabilities() Capability {
	return On | Off | SetAmplitude
}

func (b *SoftwareBackend) On(durationMs int64) Result[struct{}] {
	if durationMs <= 0 {
		return Failed[struct{}](errDurationMustBePositive)
	}
	b.running = true
	return Ok(struct{}{})
}

func (b *SoftwareBackend) Off() Result[struct{}] {
	b.running = false
	return Ok(struct{}{})
}

func (b *SoftwareBackend) SetAmplitude(amplitude uint8) Result[struct{}] {
	b.amplitude = amplitude
	return Ok(struct{}{})
}

var _ Backend = (*SoftwareBackend)(nil)
