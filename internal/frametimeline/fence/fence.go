// Package fence declares the consumed fence interface and
// two small implementations used by tests and the synthetic demo producer.
// The real fence primitive lives outside this repository entirely; this
// package only needs to model the seam.
package fence

import "sync"

// SignalTimePending and SignalTimeInvalid are the sentinel return values a
// Fence's SignalTime may report in addition to a real timestamp.
const (
	SignalTimeInvalid int64 = -1
	SignalTimePending int64 = 1<<63 - 1 // math.MaxInt64, spelled out to avoid importing math for one constant
)

// Fence is the external fence interface the engine polls during
// reconciliation.
type Fence interface {
	// SignalTime returns a positive nanosecond timestamp, SignalTimePending,
	// or SignalTimeInvalid.
	SignalTime() int64
	IsValid() bool
}

// Stub is a Fence with a fixed signal time, useful for tests that don't
// need to simulate pending/invalid transitions.
type Stub struct {
	signalNs int64
	valid bool
}

// NewStub returns a Stub that already reports signalNs.
func NewStub(signalNs int64) *Stub {
	return &Stub{signalNs: signalNs, valid: signalNs != SignalTimeInvalid}
}

// NewInvalidStub returns a Stub that always reports SignalTimeInvalid.
func NewInvalidStub() *Stub {
	return &Stub{signalNs: SignalTimeInvalid, valid: false}
}

func (s *Stub) SignalTime() int64 { return s.signalNs }
func (s *Stub) IsValid() bool { return s.valid }

// Deferred is a Fence whose signal time is set later, simulating the
// asynchronous hardware signal the reconciliation loop polls for. Safe for
// concurrent use: the engine may poll SignalTime while another goroutine
// calls Signal or Invalidate.
type Deferred struct {
	mu sync.Mutex
	pending bool
	signal int64
}

// NewDeferred returns a Deferred fence that reports SignalTimePending until
// Signal or Invalidate is called.
func NewDeferred() *Deferred {
	return &Deferred{pending: true, signal: SignalTimePending}
}

// Signal records the hardware present time, making subsequent SignalTime
// calls return it.
func (d *Deferred) Signal(ns int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = false
	d.signal = ns
}

// Invalidate marks the fence as having no present time to report.
func (d *Deferred) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = false
	d.signal = SignalTimeInvalid
}

func (d *Deferred) SignalTime() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.signal
}

func (d *Deferred) IsValid() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending || d.signal != SignalTimeInvalid
}
