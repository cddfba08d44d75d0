// Package token implements the TokenManager: a
// monotonically increasing 64-bit token registry with bounded retention.
package token

import (
	"container/list"
	"sync"
	"time"

	"github.com/banshee-data/frametimeline/internal/timeutil"
)

// TimelineItem is the nanosecond (start, end, present) prediction triple
// Any field may be zero, meaning unknown.
type TimelineItem struct {
	Start int64
	End int64
	Present int64
}

func (t TimelineItem) IsZero() bool {
	return t.Start == 0 && t.End == 0 && t.Present == 0
}

// Token is the opaque handle minted by GenerateToken. Tokens are unique
// within a process lifetime and strictly increasing.
type Token int64

// InvalidToken is the sentinel for "no prediction", matching
// ISurfaceComposer::INVALID_VSYNC_ID — a compile-time negative constant.
const InvalidToken Token = -1

// PredictionState reports whether a token resolved to a live prediction.
type PredictionState int

const (
	// None means no token was supplied at all.
	None PredictionState = iota
	// Valid means the token resolved to a live, unevicted prediction.
	Valid
	// Expired means the token existed but was evicted before lookup.
	Expired
)

func (p PredictionState) String() string {
	switch p {
	case Valid:
		return "Valid"
	case Expired:
		return "Expired"
	default:
		return "None"
	}
}

// MaxRetentionTime is a compile-time constant: predictions
// older than this are evicted from the registry.
const MaxRetentionTime = 120 * time.Millisecond

type entry struct {
	token Token
	mintedAt time.Time
	predictions TimelineItem
}

// Manager is the TokenManager. One mutex guards the counter and the
// insertion-ordered prediction map, mirroring the single-mutex-per-shared-
// struct discipline requires.
type Manager struct {
	mu sync.Mutex
	clock timeutil.Clock
	next Token
	order *list.List // of *entry, oldest (smallest token) at Front
	byTok map[Token]*list.Element
}

// NewManager constructs a TokenManager. clock is injected for deterministic
// retention tests; production callers pass timeutil.RealClock{}.
func NewManager(clock timeutil.Clock) *Manager {
	return &Manager{
		clock: clock,
		order: list.New(),
		byTok: make(map[Token]*list.Element),
	}
}

// GenerateToken mints a new token bound to predictions, sweeps expired
// entries using the current time as reference, and returns the token.
// Runs in amortized constant time.
func (m *Manager) GenerateToken(predictions TimelineItem) Token {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	tok := m.next
	el := m.order.PushBack(&entry{token: tok, mintedAt: now, predictions: predictions})
	m.byTok[tok] = el

	m.flushLocked(now)
	return tok
}

// GetPredictionsForToken returns the prediction bound to token, or false if
// it is absent (never minted, or evicted).
func (m *Manager) GetPredictionsForToken(tok Token) (TimelineItem, bool) {
	if tok == InvalidToken {
		return TimelineItem{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.byTok[tok]
	if !ok {
		return TimelineItem{}, false
	}
	return el.Value.(*entry).predictions, true
}

// FlushTokens evicts every entry minted before referenceTime -
// MaxRetentionTime. Because tokens are minted with monotonic clock reads,
// insertion order in the list is equivalent to age order, so eviction only
// ever needs to look at the head.
func (m *Manager) FlushTokens(referenceTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushLocked(referenceTime)
}

func (m *Manager) flushLocked(referenceTime time.Time) {
	cutoff := referenceTime.Add(-MaxRetentionTime)
	for {
		front := m.order.Front()
		if front == nil {
			return
		}
		e := front.Value.(*entry)
		if e.mintedAt.After(cutoff) {
			return
		}
		m.order.Remove(front)
		delete(m.byTok, e.token)
	}
}

// Len returns the number of retained predictions, for tests and dump/debug
// surfaces; callers must not assume a cardinality bound beyond retention.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}
