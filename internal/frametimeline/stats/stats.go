// Package stats declares the stats sink interface consumed by SurfaceFrame
// classification and a best-effort in-process implementation. The sink is
// advisory, never on the engine's error path.
package stats

import (
	"fmt"
	"sync"

	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
)

// Sink is the consumed stats interface. Go doesn't support overloaded
// methods, so the two conceptual overloads
// (incrementJankyFrames(uid, layer, mask) and incrementJankyFrames(mask))
// become two distinctly named methods.
type Sink interface {
	IncrementJankyFrames(uid int32, layerName string, mask jank.Type)
	IncrementJankyFramesGlobal(mask jank.Type)
}

// key identifies a (uid, layer) pair for per-layer counters.
type key struct {
	uid int32
	layer string
}

// InProcess is a best-effort, lock-guarded counter sink, useful for tests.
// Production
// deployments would swap in whatever the surrounding stats/telemetry
// pipeline already exports.
type InProcess struct {
	mu sync.Mutex
	perLayer map[key]map[jank.Type]uint64
	globalMask map[jank.Type]uint64
}

// NewInProcess returns an initialised InProcess sink.
func NewInProcess() *InProcess {
	return &InProcess{
		perLayer: make(map[key]map[jank.Type]uint64),
		globalMask: make(map[jank.Type]uint64),
	}
}

func (s *InProcess) IncrementJankyFrames(uid int32, layerName string, mask jank.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{uid: uid, layer: layerName}
	m, ok := s.perLayer[k]
	if !ok {
		m = make(map[jank.Type]uint64)
		s.perLayer[k] = m
	}
	m[mask]++
}

func (s *InProcess) IncrementJankyFramesGlobal(mask jank.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalMask[mask]++
}

// CountFor returns how many times (uid, layer) was recorded with exactly
// the given mask.
func (s *InProcess) CountFor(uid int32, layerName string, mask jank.Type) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perLayer[key{uid: uid, layer: layerName}][mask]
}

// GlobalCount returns how many times mask was recorded globally.
func (s *InProcess) GlobalCount(mask jank.Type) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.globalMask[mask]
}

// Summary renders a one-line-per-bucket human-readable dump of the
// per-layer counters, in no particular order.
func (s *InProcess) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := ""
	for k, counts := range s.perLayer {
		for mask, n := range counts {
			out += fmt.Sprintf("uid=%d layer=%s jank=%s count=%d\n", k.uid, k.layer, mask, n)
		}
	}
	return out
}

// Noop discards everything. Useful where a caller has no stats pipeline
// wired up but still needs a non-nil Sink.
type Noop struct{}

func (Noop) IncrementJankyFrames(int32, string, jank.Type) {}
func (Noop) IncrementJankyFramesGlobal(jank.Type) {}

var (
	_ Sink = (*InProcess)(nil)
	_ Sink = Noop{}
)
