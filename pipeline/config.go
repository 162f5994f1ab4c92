// Package pipeline - Decoupled capture/detection pipeline: bounded frame
// queue, single detection worker, and a 1 Hz performance tracker.
package pipeline

import (
	"sync"
	"sync/atomic"
)

// Config is the worker's runtime configuration.
//
// The worker reads one immutable snapshot per iteration; mutators publish a
// new snapshot with last-writer-wins semantics and take effect on the next
// drain/process cycle. No acknowledgement is produced.
type Config struct {
	// DetectionEnabled gates draining and detector invocation entirely.
	DetectionEnabled bool
	// ConfidenceThreshold is the minimum detection confidence, in [0,1].
	ConfidenceThreshold float64
	// FrameSkip processes every Nth drained frame, at least 1.
	FrameSkip int
}

// DefaultConfig returns the worker configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		DetectionEnabled:    true,
		ConfidenceThreshold: 0.5,
		FrameSkip:           1,
	}
}

// clamp normalizes out-of-range values instead of rejecting them.
func (c Config) clamp() Config {
	if c.ConfidenceThreshold < 0 {
		c.ConfidenceThreshold = 0
	}
	if c.ConfidenceThreshold > 1 {
		c.ConfidenceThreshold = 1
	}
	if c.FrameSkip < 1 {
		c.FrameSkip = 1
	}
	return c
}

// configHolder publishes configuration snapshots to the worker.
//
// Reads are a single atomic pointer load on the worker's schedule; writes
// happen on the control surface's schedule and are serialized by a mutex so
// concurrent read-modify-write updates never lose a field.
type configHolder struct {
	mu  sync.Mutex
	ptr atomic.Pointer[Config]
}

func newConfigHolder(cfg Config) *configHolder {
	h := &configHolder{}
	cfg = cfg.clamp()
	h.ptr.Store(&cfg)
	return h
}

// load returns the current snapshot by value.
func (h *configHolder) load() Config {
	return *h.ptr.Load()
}

// update applies fn to a copy of the current snapshot and publishes the
// clamped result.
func (h *configHolder) update(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cfg := *h.ptr.Load()
	fn(&cfg)
	cfg = cfg.clamp()
	h.ptr.Store(&cfg)
}
