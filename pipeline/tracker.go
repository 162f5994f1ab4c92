package pipeline

import "time"

// Sample is a throughput summary over the trailing emission window.
type Sample struct {
	// FramesPerSecond is processed frames divided by elapsed seconds.
	FramesPerSecond float64
	// ObjectsDetected is the total object count since the last emission.
	ObjectsDetected int
}

// Tracker maintains rolling counters of processed frames and detected
// objects and emits a Sample at most once per interval.
//
// The window is reset-based rather than sliding: counters and the window
// start are zeroed after each emission.
//
// Tracker is not safe for concurrent use; the single detection worker is
// its only caller.
type Tracker struct {
	interval  time.Duration
	now       func() time.Time
	processed int
	objects   int
	windowAt  time.Time
}

// NewTracker creates a tracker emitting at most once per interval.
// Non-positive intervals fall back to one second.
func NewTracker(interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = time.Second
	}
	t := &Tracker{
		interval: interval,
		now:      time.Now,
	}
	t.windowAt = t.now()
	return t
}

// Record counts one processed frame and its detected objects, and reports
// whether an emission is due.
//
// Arguments:
//   - objects: Number of objects detected in the frame.
//
// Returns:
//   - Sample: The emitted sample, meaningful only when ok is true.
//   - bool: True when at least one interval elapsed since the last emission.
func (t *Tracker) Record(objects int) (Sample, bool) {
	t.processed++
	t.objects += objects

	elapsed := t.now().Sub(t.windowAt)
	if elapsed < t.interval {
		return Sample{}, false
	}

	sample := Sample{
		FramesPerSecond: float64(t.processed) / elapsed.Seconds(),
		ObjectsDetected: t.objects,
	}

	t.processed = 0
	t.objects = 0
	t.windowAt = t.now()
	return sample, true
}
