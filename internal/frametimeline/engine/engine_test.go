package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/frametimeline/internal/frametimeline/fence"
	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
	"github.com/banshee-data/frametimeline/internal/frametimeline/trace"
	"github.com/banshee-data/frametimeline/internal/timeutil"
)

func newTestEngine() *FrameTimeline {
	tokens := token.NewManager(timeutil.RealClock{})
	return New(tokens, jank.DefaultThresholds(), 100, nil)
}

func TestSetSfPresent_FinalizesCurrentAndStartsNew(t *testing.T) {
	t.Parallel()

	ft := newTestEngine()
	tok := ft.GenerateToken(token.TimelineItem{Start: 22, End: 26, Present: 30})
	ft.SetSfWakeUp(tok, 22, 16_666_666)
	ft.SetSfPresent(26, fence.NewStub(30))

	frames := ft.DisplayFrames()
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Classified())
	assert.Equal(t, 0, ft.PendingFenceCount())
}

func TestFlushPendingPresentFences_PendingStopsIteration(t *testing.T) {
	t.Parallel()

	ft := newTestEngine()
	tok1 := ft.GenerateToken(token.TimelineItem{Start: 1, End: 2, Present: 3})
	ft.SetSfWakeUp(tok1, 1, 16_666_666)
	ft.SetSfPresent(2, fence.NewDeferred()) // never signals

	tok2 := ft.GenerateToken(token.TimelineItem{Start: 10, End: 11, Present: 12})
	ft.SetSfWakeUp(tok2, 10, 16_666_666)
	ft.SetSfPresent(11, fence.NewStub(12))

	// Second frame's fence already signaled, but FIFO order means it must
	// not be classified until the first (pending) one resolves.
	frames := ft.DisplayFrames()
	require.Len(t, frames, 2)
	assert.False(t, frames[0].Classified())
	assert.False(t, frames[1].Classified())
	assert.Equal(t, 2, ft.PendingFenceCount())
}

func TestFlushPendingPresentFences_InvalidDropsWithoutClassification(t *testing.T) {
	t.Parallel()

	ft := newTestEngine()
	tok := ft.GenerateToken(token.TimelineItem{Start: 1, End: 2, Present: 3})
	ft.SetSfWakeUp(tok, 1, 16_666_666)
	ft.SetSfPresent(2, fence.NewInvalidStub())

	frames := ft.DisplayFrames()
	require.Len(t, frames, 1)
	assert.False(t, frames[0].Classified())
	assert.Equal(t, 0, ft.PendingFenceCount())
}

// TestScenario4_SlidingWindow is scenario 4.
func TestScenario4_SlidingWindow(t *testing.T) {
	t.Parallel()

	ft := newTestEngine()
	for k := int64(0); k < 65; k++ {
		start := 22 + 30*k
		end := 27 + 30*k
		present := 32 + 30*k
		tok := ft.GenerateToken(token.TimelineItem{Start: start, End: end, Present: present})
		ft.SetSfWakeUp(tok, start, 16_666_666)
		ft.SetSfPresent(end, fence.NewStub(present))
	}

	frames := ft.DisplayFrames()
	require.Len(t, frames, DefaultMaxDisplayFrames)
	assert.Equal(t, int64(52), frames[0].Actuals().Start)
	assert.Equal(t, int64(57), frames[0].Actuals().End)
	assert.Equal(t, int64(62), frames[0].Actuals().Present)
}

// TestScenario7_InvalidTokenProducesNoPacket is scenario 7.
func TestScenario7_InvalidTokenProducesNoPacket(t *testing.T) {
	t.Parallel()

	mem := trace.NewMemory()
	tokens := token.NewManager(timeutil.RealClock{})
	ft := New(tokens, jank.DefaultThresholds(), 100, mem)

	ft.SetSfWakeUp(token.InvalidToken, 20, 16_666_666)
	ft.SetSfPresent(25, fence.NewStub(30))

	assert.Empty(t, mem.Packets())
}

func TestSetMaxDisplayFrames_ClearsDequeAndPending(t *testing.T) {
	t.Parallel()

	ft := newTestEngine()
	tok := ft.GenerateToken(token.TimelineItem{Start: 1, End: 2, Present: 3})
	ft.SetSfWakeUp(tok, 1, 16_666_666)
	ft.SetSfPresent(2, fence.NewStub(3))
	require.Len(t, ft.DisplayFrames(), 1)

	ft.SetMaxDisplayFrames(8)
	assert.Empty(t, ft.DisplayFrames())
	assert.Equal(t, 0, ft.PendingFenceCount())

	ft.Reset()
	assert.Empty(t, ft.DisplayFrames())
}

func TestCreateSurfaceFrameForToken_ResolvesStates(t *testing.T) {
	t.Parallel()

	ft := newTestEngine()
	valid := ft.GenerateToken(token.TimelineItem{Start: 1, End: 2, Present: 3})

	sfValid := ft.CreateSurfaceFrameForToken(valid, 1, 2, "layer", "debug")
	assert.Equal(t, token.Valid, sfValid.PredictionState())

	sfNone := ft.CreateSurfaceFrameForToken(token.InvalidToken, 1, 2, "layer", "debug")
	assert.Equal(t, token.None, sfNone.PredictionState())

	sfExpired := ft.CreateSurfaceFrameForToken(token.Token(999999), 1, 2, "layer", "debug")
	assert.Equal(t, token.Expired, sfExpired.PredictionState())
}
