package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the tracker deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(interval time.Duration) (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tracker := NewTracker(interval)
	tracker.now = clock.now
	tracker.windowAt = clock.t
	return tracker, clock
}

func TestTrackerNoEmissionBeforeInterval(t *testing.T) {
	tracker, clock := newTestTracker(time.Second)

	for i := 0; i < 10; i++ {
		clock.advance(50 * time.Millisecond)
		_, due := tracker.Record(2)
		assert.False(t, due, "emission before 1s elapsed")
	}
}

func TestTrackerEmitsProcessedOverElapsed(t *testing.T) {
	tracker, clock := newTestTracker(time.Second)

	// 9 frames inside the window, the 10th lands at 2s elapsed.
	for i := 0; i < 9; i++ {
		_, due := tracker.Record(3)
		require.False(t, due)
	}
	clock.advance(2 * time.Second)

	sample, due := tracker.Record(3)
	require.True(t, due)
	assert.InDelta(t, 10.0/2.0, sample.FramesPerSecond, 1e-9)
	assert.Equal(t, 30, sample.ObjectsDetected)
}

func TestTrackerResetsAfterEmission(t *testing.T) {
	tracker, clock := newTestTracker(time.Second)

	clock.advance(time.Second)
	_, due := tracker.Record(5)
	require.True(t, due)

	// Counters and window start over: nothing due until another interval.
	_, due = tracker.Record(5)
	assert.False(t, due)

	clock.advance(time.Second)
	sample, due := tracker.Record(5)
	require.True(t, due)
	assert.Equal(t, 10, sample.ObjectsDetected)
	assert.InDelta(t, 2.0, sample.FramesPerSecond, 1e-9)
}

func TestTrackerAtMostOncePerInterval(t *testing.T) {
	tracker, clock := newTestTracker(time.Second)

	emissions := 0
	// 4 seconds of 20 Hz recording can yield at most 4 emissions.
	for i := 0; i < 80; i++ {
		clock.advance(50 * time.Millisecond)
		if _, due := tracker.Record(1); due {
			emissions++
		}
	}
	assert.Equal(t, 4, emissions)
}

func TestTrackerDefaultInterval(t *testing.T) {
	tracker := NewTracker(0)
	assert.Equal(t, time.Second, tracker.interval)
}
