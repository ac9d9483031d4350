package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTickSamplesAfterInterval(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	common.SetLogger(zap.New(core))
	t.Cleanup(func() { common.SetLogger(nil) })

	start := time.Unix(100, 0)
	clock := start
	p := NewProfiler(time.Second)
	p.lastTime = start
	p.now = func() time.Time { return clock }

	for i := 0; i < 59; i++ {
		clock = clock.Add(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock = start.Add(2 * time.Second)
	require.True(t, p.Tick(zap.String("mode", "deferred")))

	assert.InDelta(t, 30.0, p.Last().FPS, 1e-9)
	entries := logs.FilterMessage("profiler").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "deferred", entries[0].ContextMap()["mode"])

	// counters restart
	clock = clock.Add(500 * time.Millisecond)
	assert.False(t, p.Tick())
}

func TestNewProfilerDefaultsInterval(t *testing.T) {
	assert.Equal(t, time.Second, NewProfiler(0).updateInterval)
}
