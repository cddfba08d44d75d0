// Package engine implements the FrameTimeline orchestrator: the
// compositor-facing entrypoint that owns the current DisplayFrame, the
// bounded history deque, and the pending present-fence reconciliation
// FIFO.
package engine

import (
	"container/list"
	"sync"

	"github.com/banshee-data/frametimeline/internal/frametimeline/displayframe"
	"github.com/banshee-data/frametimeline/internal/frametimeline/fence"
	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/surfaceframe"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
	"github.com/banshee-data/frametimeline/internal/frametimeline/trace"
	"github.com/banshee-data/frametimeline/internal/timeutil"
)

// DefaultMaxDisplayFrames is the default history deque bound.
const DefaultMaxDisplayFrames = 64

type pendingEntry struct {
	fence fence.Fence
	df *displayframe.DisplayFrame
}

// FrameTimeline is the compositor-facing engine. One mutex guards
// currentDisplayFrame, the displayFrames deque, and the pending present-
// fence FIFO.
type FrameTimeline struct {
	mu sync.Mutex

	tokens *token.Manager
	thresholds jank.Thresholds
	sfPID int32
	sink trace.Sink
	clock timeutil.Clock

	current *displayframe.DisplayFrame
	displayFrames *list.List // of *displayframe.DisplayFrame, oldest at Front
	pendingFences *list.List // of *pendingEntry, oldest at Front
	maxDisplayFrames int
}

// New constructs a FrameTimeline using timeutil.RealClock{} for trace
// packet timestamps. sink may be nil, in which case trace.Noop{} is used.
func New(tokens *token.Manager, thresholds jank.Thresholds, sfPID int32, sink trace.Sink) *FrameTimeline {
	return NewWithClock(tokens, thresholds, sfPID, sink, timeutil.RealClock{})
}

// NewWithClock is New with an injectable clock, for deterministic tests of
// trace packet timestamps.
func NewWithClock(tokens *token.Manager, thresholds jank.Thresholds, sfPID int32, sink trace.Sink, clock timeutil.Clock) *FrameTimeline {
	if sink == nil {
		sink = trace.Noop{}
	}
	ft := &FrameTimeline{
		tokens: tokens,
		thresholds: thresholds,
		sfPID: sfPID,
		sink: sink,
		clock: clock,
		displayFrames: list.New(),
		pendingFences: list.New(),
		maxDisplayFrames: DefaultMaxDisplayFrames,
	}
	ft.current = displayframe.New(thresholds, sfPID)
	return ft
}

// GenerateToken delegates to the TokenManager.
func (ft *FrameTimeline) GenerateToken(predictions token.TimelineItem) token.Token {
	return ft.tokens.GenerateToken(predictions)
}

// CreateSurfaceFrameForToken builds a SurfaceFrame, resolving tok to
// Valid/Expired/None against the token registry.
func (ft *FrameTimeline) CreateSurfaceFrameForToken(tok token.Token, pid, uid int32, layerName, debugName string) *surfaceframe.SurfaceFrame {
	cfg := surfaceframe.Config{
		Token: tok,
		OwnerPID: pid,
		OwnerUID: uid,
		LayerName: layerName,
		DebugName: debugName,
		Thresholds: ft.thresholds,
	}

	if tok == token.InvalidToken {
		cfg.PredictionState = token.None
	} else if predictions, ok := ft.tokens.GetPredictionsForToken(tok); ok {
		cfg.PredictionState = token.Valid
		cfg.Predictions = predictions
	} else {
		cfg.PredictionState = token.Expired
	}

	return surfaceframe.New(cfg)
}

// AddSurfaceFrame attaches frame to the current DisplayFrame.
func (ft *FrameTimeline) AddSurfaceFrame(frame *surfaceframe.SurfaceFrame) {
	ft.mu.Lock()
	current := ft.current
	ft.mu.Unlock()

	current.AddSurfaceFrame(frame)
}

// SetSfWakeUp initializes the current DisplayFrame's predictions and start
// time, resolving tok against the token registry.
func (ft *FrameTimeline) SetSfWakeUp(tok token.Token, wakeTime, vsyncPeriod int64) {
	ft.mu.Lock()
	current := ft.current
	ft.mu.Unlock()

	if tok == token.InvalidToken {
		current.OnSfWakeUp(tok, vsyncPeriod, token.TimelineItem{}, false, wakeTime)
		return
	}

	predictions, ok := ft.tokens.GetPredictionsForToken(tok)
	current.OnSfWakeUp(tok, vsyncPeriod, predictions, ok, wakeTime)
}

// SetSfPresent sets the current DisplayFrame's actuals.end, enqueues
// (presentFence, current) for reconciliation, finalizes the current
// DisplayFrame (it is pushed into the bounded deque and a new empty
// DisplayFrame becomes current), and then flushes the pending FIFO.
func (ft *FrameTimeline) SetSfPresent(presentTime int64, presentFence fence.Fence) {
	ft.mu.Lock()

	current := ft.current
	current.SetActualEndTime(presentTime)

	ft.pendingFences.PushBack(&pendingEntry{fence: presentFence, df: current})
	ft.displayFrames.PushBack(current)
	if ft.displayFrames.Len() > ft.maxDisplayFrames {
		ft.displayFrames.Remove(ft.displayFrames.Front())
	}

	ft.current = displayframe.New(ft.thresholds, ft.sfPID)

	ft.mu.Unlock()

	ft.FlushPendingPresentFences()
}

// SetMaxDisplayFrames sets the deque bound, clearing the deque and the
// pending-fence FIFO.
func (ft *FrameTimeline) SetMaxDisplayFrames(n int) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.maxDisplayFrames = n
	ft.displayFrames.Init()
	ft.pendingFences.Init()
}

// Reset sets the deque bound back to DefaultMaxDisplayFrames.
func (ft *FrameTimeline) Reset() {
	ft.SetMaxDisplayFrames(DefaultMaxDisplayFrames)
}

// FlushPendingPresentFences implements the present-fence reconciliation
// loop: iterate the pending FIFO from the head; a pending signal stops iteration
// (preserving order); an invalid signal drops the entry; any other value
// triggers classification and trace emission before the entry is removed.
func (ft *FrameTimeline) FlushPendingPresentFences() {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	for {
		front := ft.pendingFences.Front()
		if front == nil {
			return
		}
		entry := front.Value.(*pendingEntry)
		signal := entry.fence.SignalTime()

		switch signal {
		case fence.SignalTimePending:
			return
		case fence.SignalTimeInvalid:
			ft.pendingFences.Remove(front)
		default:
			entry.df.OnPresent(signal)
			ft.trace(entry.df)
			ft.pendingFences.Remove(front)
		}
	}
}

// trace emits packets for df and its contained SurfaceFrames. A
// DisplayFrame minted against an invalid token produces no packet at all:
// an untokened display cycle carries no information any consumer of the
// trace can correlate. Invoked while holding ft.mu, so classification and
// trace emission run synchronously on the thread that observes the fence
// signal; trace emission itself never blocks on the engine's own lock
// since Sink implementations must not call back in.
func (ft *FrameTimeline) trace(df *displayframe.DisplayFrame) {
	if df.Token() == token.InvalidToken {
		return
	}
	now := ft.clock.Now().UnixNano()
	trace.EmitDisplayFrame(ft.sink, df, now)
	for _, sf := range df.SurfaceFrames() {
		if sf.Token() == token.InvalidToken {
			continue
		}
		trace.EmitSurfaceFrame(ft.sink, df, sf, now)
	}
}

// DisplayFrames returns a snapshot of the bounded history deque, oldest
// first.
func (ft *FrameTimeline) DisplayFrames() []*displayframe.DisplayFrame {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	out := make([]*displayframe.DisplayFrame, 0, ft.displayFrames.Len())
	for e := ft.displayFrames.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*displayframe.DisplayFrame))
	}
	return out
}

// PendingFenceCount returns the number of entries still awaiting
// reconciliation, for tests and dump/debug surfaces.
func (ft *FrameTimeline) PendingFenceCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.pendingFences.Len()
}
