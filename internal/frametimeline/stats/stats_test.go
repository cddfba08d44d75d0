package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
)

func TestInProcess_PerLayerCounting(t *testing.T) {
	t.Parallel()

	s := NewInProcess()
	s.IncrementJankyFrames(1000, "com.example/MainActivity", jank.AppDeadlineMissed)
	s.IncrementJankyFrames(1000, "com.example/MainActivity", jank.AppDeadlineMissed)
	s.IncrementJankyFrames(1000, "com.example/MainActivity", jank.SurfaceFlingerScheduling)
	s.IncrementJankyFrames(2000, "com.other/Splash", jank.AppDeadlineMissed)

	assert.Equal(t, uint64(2), s.CountFor(1000, "com.example/MainActivity", jank.AppDeadlineMissed))
	assert.Equal(t, uint64(1), s.CountFor(1000, "com.example/MainActivity", jank.SurfaceFlingerScheduling))
	assert.Equal(t, uint64(1), s.CountFor(2000, "com.other/Splash", jank.AppDeadlineMissed))
	assert.Equal(t, uint64(0), s.CountFor(2000, "com.example/MainActivity", jank.AppDeadlineMissed))
}

func TestInProcess_GlobalCounting(t *testing.T) {
	t.Parallel()

	s := NewInProcess()
	s.IncrementJankyFramesGlobal(jank.DisplayHAL)
	s.IncrementJankyFramesGlobal(jank.DisplayHAL)
	s.IncrementJankyFramesGlobal(jank.SurfaceFlingerCpuDeadlineMissed)

	assert.Equal(t, uint64(2), s.GlobalCount(jank.DisplayHAL))
	assert.Equal(t, uint64(1), s.GlobalCount(jank.SurfaceFlingerCpuDeadlineMissed))
	assert.Equal(t, uint64(0), s.GlobalCount(jank.BufferStuffing))
}

func TestInProcess_ConcurrentIncrements(t *testing.T) {
	t.Parallel()

	s := NewInProcess()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrementJankyFrames(1, "layer", jank.AppDeadlineMissed)
			s.IncrementJankyFramesGlobal(jank.AppDeadlineMissed)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(100), s.CountFor(1, "layer", jank.AppDeadlineMissed))
	assert.Equal(t, uint64(100), s.GlobalCount(jank.AppDeadlineMissed))
}

func TestNoop_DoesNotPanic(t *testing.T) {
	t.Parallel()

	var s Sink = Noop{}
	s.IncrementJankyFrames(1, "layer", jank.AppDeadlineMissed)
	s.IncrementJankyFramesGlobal(jank.AppDeadlineMissed)
}
