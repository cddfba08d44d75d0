package token

import (
	"testing"
	"time"

	"github.com/banshee-data/frametimeline/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenMonotonic(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(time.Unix(0, 0))
	m := NewManager(clock)

	t1 := m.GenerateToken(TimelineItem{})
	t2 := m.GenerateToken(TimelineItem{})
	assert.Less(t, int64(t1), int64(t2))
}

func TestGetPredictionsForToken_Absent(t *testing.T) {
	t.Parallel()

	m := NewManager(timeutil.NewMockClock(time.Unix(0, 0)))
	_, ok := m.GetPredictionsForToken(Token(9999))
	assert.False(t, ok)

	_, ok = m.GetPredictionsForToken(InvalidToken)
	assert.False(t, ok)
}

// TestScenario1_TokenExpiry is scenario 1.
func TestScenario1_TokenExpiry(t *testing.T) {
	t.Parallel()

	base := time.Unix(0, 0)
	clock := timeutil.NewMockClock(base)
	m := NewManager(clock)

	t1 := m.GenerateToken(TimelineItem{})
	clock.Set(base.Add(MaxRetentionTime))
	t2 := m.GenerateToken(TimelineItem{Start: 10, End: 20, Present: 30})

	_, ok := m.GetPredictionsForToken(t1)
	assert.False(t, ok, "t1 should have been evicted")

	got, ok := m.GetPredictionsForToken(t2)
	require.True(t, ok)
	assert.Equal(t, TimelineItem{Start: 10, End: 20, Present: 30}, got)
}

func TestFlushTokens_Property(t *testing.T) {
	t.Parallel()

	base := time.Unix(0, 0)
	clock := timeutil.NewMockClock(base)
	m := NewManager(clock)

	tokens := make([]Token, 0, 5)
	for i := 0; i < 5; i++ {
		tokens = append(tokens, m.GenerateToken(TimelineItem{Start: int64(i) + 1}))
		clock.Set(clock.Now().Add(time.Millisecond))
	}

	m.FlushTokens(clock.Now().Add(MaxRetentionTime))

	for _, tok := range tokens {
		_, ok := m.GetPredictionsForToken(tok)
		assert.False(t, ok, "token %d minted before the flush reference must be evicted", tok)
	}
}

func TestFlushTokens_KeepsFresh(t *testing.T) {
	t.Parallel()

	base := time.Unix(0, 0)
	clock := timeutil.NewMockClock(base)
	m := NewManager(clock)

	t1 := m.GenerateToken(TimelineItem{Start: 1})
	clock.Set(base.Add(MaxRetentionTime / 2))
	t2 := m.GenerateToken(TimelineItem{Start: 2})

	m.FlushTokens(base.Add(MaxRetentionTime))

	_, ok1 := m.GetPredictionsForToken(t1)
	assert.False(t, ok1)
	_, ok2 := m.GetPredictionsForToken(t2)
	assert.True(t, ok2, "t2 is within retention and must survive")
	assert.Equal(t, 1, m.Len())
}

func TestOrderingProperty_OlderEvictedNoLaterThanNewer(t *testing.T) {
	t.Parallel()

	base := time.Unix(0, 0)
	clock := timeutil.NewMockClock(base)
	m := NewManager(clock)

	t1 := m.GenerateToken(TimelineItem{Start: 1})
	clock.Set(base.Add(10 * time.Millisecond))
	t2 := m.GenerateToken(TimelineItem{Start: 2})

	clock.Set(base.Add(MaxRetentionTime + 5*time.Millisecond))
	m.FlushTokens(clock.Now())

	_, ok1 := m.GetPredictionsForToken(t1)
	_, ok2 := m.GetPredictionsForToken(t2)
	if ok2 {
		assert.False(t, ok1, "t1 (older) must be evicted whenever t2 (newer) still is not")
	}
}
