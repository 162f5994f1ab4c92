package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvr-ai/go-framepipe/detectors"
	"github.com/nvr-ai/go-framepipe/frames"
	"github.com/nvr-ai/go-framepipe/queue"
)

// Result is one annotated detection outcome, produced once per processed
// frame and consumed exactly once by the sink.
type Result struct {
	// Frame is the annotated frame, same dimensions as the input.
	Frame *frames.Frame
	// Detections are the raw detections behind the annotation.
	Detections []detectors.Detection
	// Objects is the detected object count.
	Objects int
	// Labels are the distinct object labels, in first-seen order.
	Labels []string
	// Duration is the wall-clock processing time for this frame.
	Duration time.Duration
}

// Options configures a Pipeline.
type Options struct {
	// QueueCapacity bounds the frame queue (default queue.DefaultCapacity).
	QueueCapacity int
	// PollInterval is the worker's idle sleep (default 5ms).
	PollInterval time.Duration
	// ResultBuffer sizes the results channel (default 8).
	ResultBuffer int
	// SampleInterval is the performance emission period (default 1s).
	SampleInterval time.Duration
	// Config is the initial worker configuration. Nil uses DefaultConfig;
	// a non-nil all-zero config is honored as given (detection disabled).
	Config *Config
	// Logger receives worker lifecycle and failure events (default no-op).
	Logger *zerolog.Logger
}

// Pipeline connects a frame producer to a detector through a bounded
// drop-oldest queue and a single background worker.
//
// The producer calls Submit at the video's native rate and never blocks on
// inference; the worker drains the queue on its own schedule and emits
// Results and Samples asynchronously. Because of eviction and frame-skip
// not every submitted frame yields a Result, but Results always preserve
// the relative submission order of their source frames.
type Pipeline struct {
	queue    *queue.Queue
	detector detectors.Detector
	config   *configHolder
	tracker  *Tracker
	log      zerolog.Logger

	pollInterval time.Duration
	results      chan Result
	samples      chan Sample

	// Worker-visible counters, read by CollectMetrics on other schedules.
	drained   atomic.Uint64
	skipped   atomic.Uint64
	processed atomic.Uint64
	failures  atomic.Uint64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	stopped bool
}

// New creates a pipeline around the given detector.
//
// Arguments:
//   - detector: The external detector invoked per processed frame.
//   - opts: Tuning knobs; zero values fall back to defaults.
//
// Returns:
//   - *Pipeline: The pipeline, not yet started.
func New(detector detectors.Detector, opts Options) *Pipeline {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Millisecond
	}
	if opts.ResultBuffer <= 0 {
		opts.ResultBuffer = 8
	}
	cfg := DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Pipeline{
		queue:        queue.New(opts.QueueCapacity),
		detector:     detector,
		config:       newConfigHolder(cfg),
		tracker:      NewTracker(opts.SampleInterval),
		log:          log,
		pollInterval: opts.PollInterval,
		results:      make(chan Result, opts.ResultBuffer),
		samples:      make(chan Sample, 1),
	}
}

// Start launches the detection worker. Safe to call multiple times; only
// the first call has an effect. Stopped is terminal: Start on a stopped
// pipeline is a no-op.
func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.stopped {
		return
	}
	p.running = true

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.wg.Add(1)
	go p.workerLoop()

	p.log.Info().Str("detector", p.detector.Name()).
		Int("queue_capacity", p.queue.Capacity()).
		Msg("pipeline started")
}

// Stop requests a cooperative shutdown and waits for the worker to exit.
//
// The worker observes the request at the top of its loop and stops within
// one polling interval; an in-flight detector call is allowed to finish.
// Frames left in the queue are discarded, and the results and samples
// channels are closed so sinks terminate. Idempotent, and terminal: a
// stopped pipeline cannot be restarted.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.stopped = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	p.queue.Clear()
	close(p.results)
	close(p.samples)

	p.log.Info().Msg("pipeline stopped")
}

// Submit validates and enqueues a frame, evicting the oldest queued frame
// when at capacity. Never blocks; the caller may reuse the frame's buffer
// immediately after return.
//
// Arguments:
//   - frame: The captured frame.
//
// Returns:
//   - error: A validation error for malformed frames, nil otherwise.
func (p *Pipeline) Submit(frame *frames.Frame) error {
	return p.queue.Submit(frame)
}

// Results returns the channel of annotated detection results. Closed by
// Stop. The sink must not hold up reads for long: the worker blocks on
// this channel once its buffer fills.
func (p *Pipeline) Results() <-chan Result {
	return p.results
}

// Samples returns the channel of periodic performance summaries. Emission
// is non-blocking, a sink that falls behind loses samples rather than
// stalling the worker. Closed by Stop.
func (p *Pipeline) Samples() <-chan Sample {
	return p.samples
}

// SetDetectionEnabled enables or disables detection. While disabled the
// worker drains nothing and the detector is never invoked; submitted
// frames accumulate in the queue under its eviction policy.
func (p *Pipeline) SetDetectionEnabled(enabled bool) {
	p.config.update(func(c *Config) { c.DetectionEnabled = enabled })
}

// SetConfidenceThreshold updates the detection threshold, clamped to [0,1].
func (p *Pipeline) SetConfidenceThreshold(threshold float64) {
	p.config.update(func(c *Config) { c.ConfidenceThreshold = threshold })
}

// SetFrameSkip updates the frame-skip factor, clamped to at least 1.
func (p *Pipeline) SetFrameSkip(skip int) {
	p.config.update(func(c *Config) { c.FrameSkip = skip })
}

// ConfigSnapshot returns the configuration the next worker iteration will
// observe.
func (p *Pipeline) ConfigSnapshot() Config {
	return p.config.load()
}

// QueueStats returns a snapshot of the frame queue counters.
func (p *Pipeline) QueueStats() queue.Stats {
	return p.queue.Stats()
}

// CollectMetrics implements monitor.MetricsCollector.
//
// Returns:
//   - map[string]float64: Pipeline counters keyed by metric name.
func (p *Pipeline) CollectMetrics() map[string]float64 {
	qs := p.queue.Stats()
	return map[string]float64{
		"queue_depth":      float64(qs.Depth),
		"queue_evicted":    float64(qs.Evicted),
		"queue_rejected":   float64(qs.Rejected),
		"frames_submitted": float64(qs.Submitted),
		"frames_drained":   float64(p.drained.Load()),
		"frames_skipped":   float64(p.skipped.Load()),
		"frames_processed": float64(p.processed.Load()),
		"detector_errors":  float64(p.failures.Load()),
	}
}
