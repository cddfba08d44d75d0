package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/frametimeline/internal/frametimeline/engine"
	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
	"github.com/banshee-data/frametimeline/internal/timeutil"
)

func TestRun_ProducesClassifiedFrames(t *testing.T) {
	t.Parallel()

	tokens := token.NewManager(timeutil.RealClock{})
	ft := engine.New(tokens, jank.DefaultThresholds(), 100, nil)

	opts := DefaultOptions()
	opts.Frames = 10
	Run(ft, opts)

	frames := ft.DisplayFrames()
	require.Len(t, frames, 10)
	for _, f := range frames {
		assert.True(t, f.Classified())
		require.Len(t, f.SurfaceFrames(), 1)
	}
}

func TestRun_InjectsPeriodicJank(t *testing.T) {
	t.Parallel()

	tokens := token.NewManager(timeutil.RealClock{})
	ft := engine.New(tokens, jank.DefaultThresholds(), 100, nil)

	opts := DefaultOptions()
	opts.Frames = 7
	opts.JankEvery = 7
	Run(ft, opts)

	frames := ft.DisplayFrames()
	require.Len(t, frames, 7)
	assert.NotEqual(t, jank.None, frames[6].Metadata().Jank)
}
