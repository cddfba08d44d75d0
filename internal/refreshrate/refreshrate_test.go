package refreshrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoRateConfigs() []RefreshRate {
	return []RefreshRate{
		{ConfigID: 0, VsyncPeriod: 16_666_667, Group: 0, FPS: 60, Name: "60Hz"},
		{ConfigID: 1, VsyncPeriod: 11_111_111, Group: 0, FPS: 90, Name: "90Hz"},
	}
}

func TestNew_PanicsOnEmptyConfigs(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		New(nil, 0, Policy{DefaultID: 0, MinFPS: 0, MaxFPS: 120})
	})
}

func TestNew_PanicsOnUnknownCurrentID(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		New(twoRateConfigs(), 99, Policy{DefaultID: 0, MinFPS: 0, MaxFPS: 120})
	})
}

func TestSetPolicy_RejectsUnknownDefault(t *testing.T) {
	t.Parallel()

	s := New(twoRateConfigs(), 0, Policy{DefaultID: 0, MinFPS: 0, MaxFPS: 120})
	err := s.SetPolicy(Policy{DefaultID: 99, MinFPS: 0, MaxFPS: 120})
	require.ErrorIs(t, err, ErrBadPolicy)

	// state unchanged
	assert.Len(t, s.Available(), 2)
}

func TestSetPolicy_RejectsDefaultOutsideWindow(t *testing.T) {
	t.Parallel()

	s := New(twoRateConfigs(), 0, Policy{DefaultID: 0, MinFPS: 0, MaxFPS: 120})
	err := s.SetPolicy(Policy{DefaultID: 1, MinFPS: 0, MaxFPS: 80})
	require.ErrorIs(t, err, ErrBadPolicy)
}

func TestSetPolicy_NarrowsAvailable(t *testing.T) {
	t.Parallel()

	s := New(twoRateConfigs(), 0, Policy{DefaultID: 0, MinFPS: 0, MaxFPS: 120})
	require.NoError(t, s.SetPolicy(Policy{DefaultID: 0, MinFPS: 0, MaxFPS: 65}))
	avail := s.Available()
	require.Len(t, avail, 1)
	assert.Equal(t, ConfigID(0), avail[0].ConfigID)
}

func TestSelect_AllNoVoteOrMin_ReturnsFirst(t *testing.T) {
	t.Parallel()

	s := New(twoRateConfigs(), 0, Policy{DefaultID: 0, MinFPS: 0, MaxFPS: 120})
	got := s.Select([]LayerRequirement{{Name: "a", Vote: NoVote}, {Name: "b", Vote: Min}})
	assert.Equal(t, s.Available()[0], got)
}

func TestSelect_MaxVoteWithoutExplicit_ReturnsLast(t *testing.T) {
	t.Parallel()

	s := New(twoRateConfigs(), 0, Policy{DefaultID: 0, MinFPS: 0, MaxFPS: 120})
	got := s.Select([]LayerRequirement{{Name: "a", Vote: Max}})
	avail := s.Available()
	assert.Equal(t, avail[len(avail)-1], got)
}

// TestScenario8_RefreshRateAlignment is scenario 8: a single
// Heuristic vote for 45fps aligns exactly with 90Hz (q=2, r=0) and only
// approximately with 60Hz, so 90Hz wins.
func TestScenario8_RefreshRateAlignment(t *testing.T) {
	t.Parallel()

	s := New(twoRateConfigs(), 0, Policy{DefaultID: 0, MinFPS: 0, MaxFPS: 120})
	got := s.Select([]LayerRequirement{{Name: "content", Vote: Heuristic, DesiredRefreshRate: 45, Weight: 1}})
	assert.Equal(t, ConfigID(1), got.ConfigID, "expected 90Hz to win via exact alignment")
}

func TestSelectLegacy_PicksClosestIntegerRatio(t *testing.T) {
	t.Parallel()

	s := New(twoRateConfigs(), 0, Policy{DefaultID: 0, MinFPS: 0, MaxFPS: 120})
	got := s.SelectLegacy([]LayerRequirement{{Name: "content", Vote: Heuristic, DesiredRefreshRate: 30, Weight: 1}})
	assert.Equal(t, ConfigID(0), got.ConfigID)
}

func TestSelectLegacy_NoContentVotes_ReturnsCurrent(t *testing.T) {
	t.Parallel()

	s := New(twoRateConfigs(), 1, Policy{DefaultID: 1, MinFPS: 0, MaxFPS: 120})
	got := s.SelectLegacy([]LayerRequirement{{Name: "a", Vote: NoVote}})
	assert.Equal(t, ConfigID(1), got.ConfigID)
}
