// Package monitor periodically collects runtime and application metrics
// and reports them through structured logging.
package monitor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MetricsCollector supplies application metrics to the monitor. The
// returned map is keyed by metric name; values are point-in-time readings.
type MetricsCollector interface {
	CollectMetrics() map[string]float64
}

// Options configures a Monitor.
type Options struct {
	// ReportInterval is the period between log reports (default: 5s).
	ReportInterval time.Duration
	// SampleInterval is the period between metric samples (default: 250ms).
	SampleInterval time.Duration
	// MaxSamples bounds the per-metric sample history (default: 240).
	MaxSamples int
	// Logger receives the reports. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// series accumulates samples for one metric over a bounded window.
type series struct {
	values []float64
	sum    float64
	min    float64
	max    float64
}

func (s *series) record(v float64, limit int) {
	s.values = append(s.values, v)

	trimmed := false
	var dropped float64
	if len(s.values) > limit {
		dropped = s.values[0]
		s.sum -= dropped
		s.values = s.values[1:]
		trimmed = true
	}
	s.sum += v

	if len(s.values) == 1 {
		s.min, s.max = v, v
		return
	}
	if trimmed && (dropped == s.min || dropped == s.max) {
		// The window extreme may have just left; rescan what remains.
		s.min, s.max = s.values[0], s.values[0]
		for _, x := range s.values[1:] {
			if x < s.min {
				s.min = x
			}
			if x > s.max {
				s.max = x
			}
		}
		return
	}
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
}

// Stat is an aggregated view of one metric's recent samples.
type Stat struct {
	Avg     float64
	Min     float64
	Max     float64
	Samples int
}

// Monitor samples registered collectors on a fixed schedule and logs a
// periodic summary alongside Go runtime health (goroutines, heap, GC).
type Monitor struct {
	reportInterval time.Duration
	sampleInterval time.Duration
	maxSamples     int
	log            zerolog.Logger

	mu         sync.Mutex
	metrics    map[string]*series
	collectors []MetricsCollector
	startTime  time.Time
	running    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a monitor with the given options.
//
// Arguments:
//   - opts: Tuning knobs; zero values fall back to defaults.
//
// Returns:
//   - *Monitor: The monitor, not yet started.
func New(opts Options) *Monitor {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 5 * time.Second
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = 250 * time.Millisecond
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 240
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Monitor{
		reportInterval: opts.ReportInterval,
		sampleInterval: opts.SampleInterval,
		maxSamples:     opts.MaxSamples,
		log:            log,
		metrics:        make(map[string]*series),
	}
}

// AddCollector registers a metrics source. Safe to call before or after
// Start.
func (m *Monitor) AddCollector(c MetricsCollector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collectors = append(m.collectors, c)
}

// Record stores a single metric value outside the sampling schedule.
//
// Arguments:
//   - name: The metric name.
//   - value: The value to record.
func (m *Monitor) Record(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordLocked(name, value)
}

func (m *Monitor) recordLocked(name string, value float64) {
	s, ok := m.metrics[name]
	if !ok {
		s = &series{values: make([]float64, 0, m.maxSamples)}
		m.metrics[name] = s
	}
	s.record(value, m.maxSamples)
}

// Start launches the sampling and reporting goroutines. Idempotent.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.startTime = time.Now()
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.wg.Add(2)
	go m.sampleLoop()
	go m.reportLoop()
}

// Stop halts sampling and reporting and waits for both loops to exit.
// Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

func (m *Monitor) sampleLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	m.mu.Lock()
	collectors := make([]MetricsCollector, len(m.collectors))
	copy(collectors, m.collectors)
	m.mu.Unlock()

	// Collect outside the lock; collectors may take their own locks.
	collected := make([]map[string]float64, 0, len(collectors))
	for _, c := range collectors {
		collected = append(collected, c.CollectMetrics())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, metrics := range collected {
		for name, value := range metrics {
			m.recordLocked(name, value)
		}
	}
}

func (m *Monitor) reportLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.report()
		}
	}
}

func (m *Monitor) report() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := m.Stats()

	event := m.log.Info().
		Dur("uptime", time.Since(m.startTime)).
		Int("goroutines", runtime.NumGoroutine()).
		Uint64("heap_alloc_bytes", memStats.HeapAlloc).
		Uint32("gc_cycles", memStats.NumGC)

	for name, stat := range stats {
		event = event.Dict(name, zerolog.Dict().
			Float64("avg", stat.Avg).
			Float64("min", stat.Min).
			Float64("max", stat.Max).
			Int("samples", stat.Samples))
	}

	event.Msg("runtime report")
}

// Stats returns aggregated statistics for every tracked metric.
//
// Returns:
//   - map[string]Stat: Per-metric averages and extremes over the window.
func (m *Monitor) Stats() map[string]Stat {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[string]Stat, len(m.metrics))
	for name, s := range m.metrics {
		if len(s.values) == 0 {
			continue
		}
		stats[name] = Stat{
			Avg:     s.sum / float64(len(s.values)),
			Min:     s.min,
			Max:     s.max,
			Samples: len(s.values),
		}
	}
	return stats
}
