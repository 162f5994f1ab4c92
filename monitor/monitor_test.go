package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCollector struct {
	metrics map[string]float64
}

func (c *staticCollector) CollectMetrics() map[string]float64 {
	return c.metrics
}

func TestRecordAggregates(t *testing.T) {
	m := New(Options{})

	m.Record("fps", 10)
	m.Record("fps", 20)
	m.Record("fps", 30)

	stats := m.Stats()
	require.Contains(t, stats, "fps")
	assert.InDelta(t, 20.0, stats["fps"].Avg, 1e-9)
	assert.Equal(t, 10.0, stats["fps"].Min)
	assert.Equal(t, 30.0, stats["fps"].Max)
	assert.Equal(t, 3, stats["fps"].Samples)
}

func TestSampleWindowIsBounded(t *testing.T) {
	m := New(Options{MaxSamples: 3})

	for i := 1; i <= 10; i++ {
		m.Record("depth", float64(i))
	}

	stats := m.Stats()
	require.Contains(t, stats, "depth")
	assert.Equal(t, 3, stats["depth"].Samples)
	// Window holds 8, 9, 10.
	assert.InDelta(t, 9.0, stats["depth"].Avg, 1e-9)
}

func TestWindowExtremesFollowTrimmedSamples(t *testing.T) {
	m := New(Options{MaxSamples: 3})

	// The early extremes fall out of the window and must stop being reported.
	for _, v := range []float64{100, 0, 5, 7, 6} {
		m.Record("latency", v)
	}

	stats := m.Stats()
	require.Contains(t, stats, "latency")
	// Window holds 5, 7, 6.
	assert.Equal(t, 5.0, stats["latency"].Min)
	assert.Equal(t, 7.0, stats["latency"].Max)
	assert.InDelta(t, 6.0, stats["latency"].Avg, 1e-9)
}

func TestCollectorIsSampled(t *testing.T) {
	m := New(Options{SampleInterval: 5 * time.Millisecond})
	m.AddCollector(&staticCollector{metrics: map[string]float64{"queue_depth": 2}})

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		_, ok := m.Stats()["queue_depth"]
		return ok
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 2.0, m.Stats()["queue_depth"].Max)
}

func TestStartStopIdempotent(t *testing.T) {
	m := New(Options{SampleInterval: 5 * time.Millisecond})

	m.Start()
	m.Start()
	m.Stop()
	m.Stop()
}
