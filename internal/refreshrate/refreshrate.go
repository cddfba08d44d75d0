// Package refreshrate implements the RefreshRateSelector:
// mode table, policy, and the v1/v2 vote-scoring algorithms that choose a
// display config from a set of per-layer refresh-rate requests.
package refreshrate

import (
	"errors"
	"math"
	"sort"
	"sync"
)

// ErrBadPolicy is returned by SetPolicy when the requested default config is
// unknown or its fps falls outside [min_fps, max_fps].
var ErrBadPolicy = errors.New("refreshrate: default config unknown or outside fps window")

// ConfigID identifies a hardware refresh-rate configuration.
type ConfigID int32

// RefreshRate is one hardware display configuration.
type RefreshRate struct {
	ConfigID ConfigID
	VsyncPeriod int64 // nanoseconds
	Group int
	FPS float64
	Name string
}

// Policy constrains the set of rates considered available.
type Policy struct {
	DefaultID ConfigID
	MinFPS float64
	MaxFPS float64
}

// Vote is the kind of request a layer can make for a refresh rate.
type Vote int

const (
	NoVote Vote = iota
	Min
	Max
	Heuristic
	ExplicitDefault
	ExplicitExactOrMultiple
)

// LayerRequirement is one layer's refresh-rate request, input to Select.
type LayerRequirement struct {
	Name string
	Vote Vote
	DesiredRefreshRate float64
	Weight float64
}

// MarginNs is the alignment tolerance used by the v2 scoring algorithm
//, 800 microseconds.
const MarginNs = 800_000

// MaxFramesToFit bounds the iterative alignment search in the v2 scorer.
const MaxFramesToFit = 10

// legacyMargin is the v1 selector's integer-ratio tolerance.
const legacyMargin = 0.05

// Selector is the RefreshRateSelector. One mutex guards the available-rates
// list and policy.
type Selector struct {
	mu sync.Mutex

	configs map[ConfigID]RefreshRate
	currentID ConfigID
	policy Policy
	available []RefreshRate // sorted by descending vsync period (ascending fps)
}

// New constructs a Selector. configs must be non-empty and currentID must be
// present in configs; both are fatal construction errors
// ("Empty configs / current id out of range: fatal").
func New(configs []RefreshRate, currentID ConfigID, policy Policy) *Selector {
	if len(configs) == 0 {
		panic("refreshrate: configs must not be empty")
	}
	m := make(map[ConfigID]RefreshRate, len(configs))
	for _, c := range configs {
		m[c.ConfigID] = c
	}
	if _, ok := m[currentID]; !ok {
		panic("refreshrate: currentID not present in configs")
	}

	s := &Selector{configs: m, currentID: currentID}
	if err := s.setPolicyLocked(policy); err != nil {
		panic("refreshrate: initial policy rejected: " + err.Error())
	}
	return s
}

// SetPolicy replaces the policy, recomputing `available`. Returns
// ErrBadPolicy and leaves state unchanged when default_id is unknown or
// outside [min_fps, max_fps].
func (s *Selector) SetPolicy(policy Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setPolicyLocked(policy)
}

func (s *Selector) setPolicyLocked(policy Policy) error {
	def, ok := s.configs[policy.DefaultID]
	if !ok {
		return ErrBadPolicy
	}
	if def.FPS < policy.MinFPS || def.FPS > policy.MaxFPS {
		return ErrBadPolicy
	}

	group := def.Group
	var avail []RefreshRate
	for _, c := range s.configs {
		if c.Group != group {
			continue
		}
		if c.FPS < policy.MinFPS || c.FPS > policy.MaxFPS {
			continue
		}
		avail = append(avail, c)
	}
	sort.Slice(avail, func(i, j int) bool { return avail[i].VsyncPeriod > avail[j].VsyncPeriod })

	s.policy = policy
	s.available = avail
	return nil
}

// Available returns a copy of the current available-rates list, sorted by
// descending vsync period (ascending fps).
func (s *Selector) Available() []RefreshRate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RefreshRate, len(s.available))
	copy(out, s.available)
	return out
}

// Current returns the current config.
func (s *Selector) Current() RefreshRate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configs[s.currentID]
}

// SetCurrent records id as the active config, without consulting the
// policy; used by tests and by the caller once it has committed to the
// result of Select/SelectLegacy.
func (s *Selector) SetCurrent(id ConfigID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[id]; ok {
		s.currentID = id
	}
}

type voteTally struct {
	noVote, min, max int
	explicitDefault, explicitExact, heuristic int
	total int
}

func tally(layers []LayerRequirement) voteTally {
	var t voteTally
	for _, l := range layers {
		t.total++
		switch l.Vote {
		case NoVote:
			t.noVote++
		case Min:
			t.min++
		case Max:
			t.max++
		case ExplicitDefault:
			t.explicitDefault++
		case ExplicitExactOrMultiple:
			t.explicitExact++
		case Heuristic:
			t.heuristic++
		}
	}
	return t
}

// Select runs the content-v2 selector.
func (s *Selector) Select(layers []LayerRequirement) RefreshRate {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.available) == 0 {
		return s.configs[s.currentID]
	}

	t := tally(layers)

	// Step 2.
	if t.noVote+t.min == t.total {
		return s.available[0]
	}
	// Step 3.
	if t.max > 0 && t.explicitDefault+t.explicitExact == 0 {
		return s.available[len(s.available)-1]
	}

	// Step 4.
	scores := make([]float64, len(s.available))

	hasExplicit := t.explicitDefault+t.explicitExact > 0
	hasExplicitExact := t.explicitExact > 0

	// Step 5-7.
	for _, l := range layers {
		if l.Vote == NoVote || l.Vote == Min || l.Vote == Max {
			continue
		}
		weight := l.Weight
		if hasExplicit && l.Vote == Heuristic {
			weight /= 2
		}
		if hasExplicitExact && (l.Vote == Heuristic || l.Vote == ExplicitDefault) {
			weight /= 2
		}

		for i, rate := range s.available {
			scores[i] += layerScore(l.DesiredRefreshRate, weight, rate.VsyncPeriod)
		}
	}

	bestIdx := -1
	bestScore := 0.0
	for i, sc := range scores {
		if sc > bestScore {
			bestScore = sc
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return s.configs[s.currentID]
	}
	return s.available[bestIdx]
}

// layerScore implements step 6: align the layer's desired
// period against the display period, scoring exact and near-exact integer
// multiples highest.
func layerScore(desiredRefreshRate, weight float64, displayPeriod int64) float64 {
	if desiredRefreshRate <= 0 || displayPeriod <= 0 {
		return 0
	}
	layerPeriod := int64(math.Round(1e9 / desiredRefreshRate))

	q := layerPeriod / displayPeriod
	r := layerPeriod % displayPeriod

	if r <= MarginNs || displayPeriod-r <= MarginNs {
		q++
		r = 0
	}

	switch {
	case r == 0:
		return weight
	case q == 0:
		return weight * (float64(layerPeriod) / float64(displayPeriod)) / (MaxFramesToFit + 1)
	default:
		diff := int64(math.Abs(float64(r - (displayPeriod - r))))
		iter := int64(2)
		for diff > MarginNs && iter < MaxFramesToFit {
			diff -= displayPeriod - diff
			iter++
		}
		return weight / float64(iter)
	}
}

// SelectLegacy runs the simpler v1 selector: max voted content framerate,
// then the available rate minimizing |fps - content_fps|, scanning forward
// for an integer-ratio match within legacyMargin if the closest rate isn't
// one.
func (s *Selector) SelectLegacy(layers []LayerRequirement) RefreshRate {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.available) == 0 {
		return s.configs[s.currentID]
	}

	contentFPS := 0.0
	for _, l := range layers {
		if l.Vote == NoVote || l.Vote == Min || l.Vote == Max {
			continue
		}
		if l.DesiredRefreshRate > contentFPS {
			contentFPS = l.DesiredRefreshRate
		}
	}
	if contentFPS == 0 {
		return s.configs[s.currentID]
	}

	// available is sorted descending by vsync period i.e. ascending fps.
	bestIdx := 0
	bestDiff := math.MaxFloat64
	for i, rate := range s.available {
		diff := math.Abs(rate.FPS - contentFPS)
		if diff < bestDiff {
			bestDiff = diff
			bestIdx = i
		}
	}

	if isNearIntegerRatio(s.available[bestIdx].FPS, contentFPS, legacyMargin) {
		return s.available[bestIdx]
	}

	for i := bestIdx; i < len(s.available); i++ {
		if isNearIntegerRatio(s.available[i].FPS, contentFPS, legacyMargin) {
			return s.available[i]
		}
	}
	return s.available[bestIdx]
}

func isNearIntegerRatio(fps, contentFPS, margin float64) bool {
	if contentFPS == 0 {
		return false
	}
	ratio := fps / contentFPS
	return math.Abs(ratio-math.Round(ratio)) <= margin
}
