// Package config loads and validates the application configuration from
// YAML, with sane defaults for every field.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-framepipe/detectors"
	"github.com/nvr-ai/go-framepipe/pipeline"
)

// Duration wraps time.Duration so YAML values can be written as
// human-readable strings ("5ms", "2s") or raw nanosecond integers.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return errors.Wrapf(perr, "parsing duration %q", s)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return errors.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// PipelineConfig holds the frame pipeline tuning knobs.
type PipelineConfig struct {
	// QueueCapacity bounds the frame queue.
	QueueCapacity int `yaml:"queue_capacity"`
	// ResultBuffer sizes the results channel.
	ResultBuffer int `yaml:"result_buffer"`
	// PollInterval is the worker's idle sleep.
	PollInterval Duration `yaml:"poll_interval"`
	// SampleInterval is the performance emission period.
	SampleInterval Duration `yaml:"sample_interval"`
	// DetectionEnabled is the initial detection toggle.
	DetectionEnabled bool `yaml:"detection_enabled"`
	// ConfidenceThreshold is the initial detection threshold.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	// FrameSkip is the initial frame-skip factor.
	FrameSkip int `yaml:"frame_skip"`
}

// SourceConfig selects and configures the frame producer.
type SourceConfig struct {
	// Video is the input video file path. Takes precedence over Device.
	Video string `yaml:"video"`
	// Device is the capture device ID used when Video is empty.
	Device int `yaml:"device"`
}

// SinkConfig configures the annotated output.
type SinkConfig struct {
	// Output is the output video file path. Empty disables writing.
	Output string `yaml:"output"`
	// Codec is the fourcc codec for the output video (default "avc1").
	Codec string `yaml:"codec"`
	// FPS is the output frame rate (default 30).
	FPS float64 `yaml:"fps"`
}

// MonitorConfig configures the runtime reporter.
type MonitorConfig struct {
	// Enabled toggles the periodic runtime report.
	Enabled bool `yaml:"enabled"`
	// ReportInterval is the period between log reports.
	ReportInterval Duration `yaml:"report_interval"`
}

// Config is the complete application configuration.
type Config struct {
	Pipeline PipelineConfig   `yaml:"pipeline"`
	Detector detectors.Config `yaml:"detector"`
	Source   SourceConfig     `yaml:"source"`
	Sink     SinkConfig       `yaml:"sink"`
	Monitor  MonitorConfig    `yaml:"monitor"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	worker := pipeline.DefaultConfig()
	return Config{
		Pipeline: PipelineConfig{
			QueueCapacity:       3,
			ResultBuffer:        8,
			PollInterval:        Duration(5 * time.Millisecond),
			SampleInterval:      Duration(time.Second),
			DetectionEnabled:    worker.DetectionEnabled,
			ConfidenceThreshold: worker.ConfidenceThreshold,
			FrameSkip:           worker.FrameSkip,
		},
		Detector: detectors.DefaultConfig(),
		Sink: SinkConfig{
			Codec: "avc1",
			FPS:   30,
		},
		Monitor: MonitorConfig{
			Enabled:        true,
			ReportInterval: Duration(5 * time.Second),
		},
	}
}

// Load reads a YAML configuration file over the defaults.
//
// Arguments:
//   - path: The configuration file path. Empty returns Default().
//
// Returns:
//   - Config: The merged configuration.
//   - error: A read, parse, or validation error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Pipeline.QueueCapacity < 1 {
		return errors.Errorf("pipeline.queue_capacity must be at least 1, got %d", c.Pipeline.QueueCapacity)
	}
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 1 {
		return errors.Errorf("pipeline.confidence_threshold must be in [0,1], got %v", c.Pipeline.ConfidenceThreshold)
	}
	if c.Pipeline.FrameSkip < 1 {
		return errors.Errorf("pipeline.frame_skip must be at least 1, got %d", c.Pipeline.FrameSkip)
	}
	if c.Sink.FPS <= 0 {
		return errors.Errorf("sink.fps must be positive, got %v", c.Sink.FPS)
	}
	return nil
}

// WorkerConfig converts the pipeline section to a worker configuration.
func (c *Config) WorkerConfig() pipeline.Config {
	return pipeline.Config{
		DetectionEnabled:    c.Pipeline.DetectionEnabled,
		ConfidenceThreshold: c.Pipeline.ConfidenceThreshold,
		FrameSkip:           c.Pipeline.FrameSkip,
	}
}
