package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoadDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := MustLoadDefaultConfig()
	th := cfg.GetThresholds()
	assert.Equal(t, int64(2_000_000), th.PresentNs)
	assert.Equal(t, int64(0), th.DeadlineNs)
	assert.Equal(t, int64(2_000_000), th.StartNs)
	assert.Equal(t, DefaultMaxDisplayFrames, cfg.GetMaxDisplayFrames())
}

func TestLoadTimelineConfig_PartialOverlay(t *testing.T) {
	t.Parallel()

	cfg, err := LoadTimelineConfig([]byte(`{"present_threshold_ns": 5000000}`))
	require.NoError(t, err)

	th := cfg.GetThresholds()
	assert.Equal(t, int64(5_000_000), th.PresentNs)
	// unspecified fields fall back to defaults
	assert.Equal(t, int64(0), th.DeadlineNs)
	assert.Equal(t, DefaultMaxDisplayFrames, cfg.GetMaxDisplayFrames())
}

func TestLoadTimelineConfig_Invalid(t *testing.T) {
	t.Parallel()

	_, err := LoadTimelineConfig([]byte(`{"present_threshold_ns": -1}`))
	require.Error(t, err)

	_, err = LoadTimelineConfig([]byte(`{"max_display_frames": 0}`))
	require.Error(t, err)
}

func TestOverride(t *testing.T) {
	t.Parallel()

	base := *EmptyTimelineConfig()
	maxFrames := 8
	out := base.Override(nil, nil, nil, &maxFrames)
	assert.Equal(t, 8, out.GetMaxDisplayFrames())
}
