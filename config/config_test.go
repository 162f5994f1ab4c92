package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "framepipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  queue_capacity: 10
  frame_skip: 3
  confidence_threshold: 0.25
source:
  video: input.mp4
sink:
  output: out.mp4
  fps: 24
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Pipeline.QueueCapacity)
	assert.Equal(t, 3, cfg.Pipeline.FrameSkip)
	assert.Equal(t, 0.25, cfg.Pipeline.ConfidenceThreshold)
	assert.Equal(t, "input.mp4", cfg.Source.Video)
	assert.Equal(t, "out.mp4", cfg.Sink.Output)
	assert.Equal(t, 24.0, cfg.Sink.FPS)

	// Untouched fields keep their defaults.
	assert.Equal(t, 5*time.Millisecond, cfg.Pipeline.PollInterval.Std())
	assert.Equal(t, "avc1", cfg.Sink.Codec)
}

func TestLoadParsesDurationStrings(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  poll_interval: 10ms
  sample_interval: 2s
monitor:
  report_interval: 1m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, cfg.Pipeline.PollInterval.Std())
	assert.Equal(t, 2*time.Second, cfg.Pipeline.SampleInterval.Std())
	assert.Equal(t, time.Minute, cfg.Monitor.ReportInterval.Std())
}

func TestLoadParsesDurationNanoseconds(t *testing.T) {
	cfg, err := Load(writeConfig(t, "pipeline:\n  poll_interval: 5000000\n"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, cfg.Pipeline.PollInterval.Std())
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "pipeline:\n  poll_interval: soon\n"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero capacity", body: "pipeline:\n  queue_capacity: 0\n"},
		{name: "threshold above one", body: "pipeline:\n  confidence_threshold: 1.5\n"},
		{name: "zero skip", body: "pipeline:\n  frame_skip: 0\n"},
		{name: "negative fps", body: "sink:\n  fps: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "pipeline: [not a map"))
	assert.Error(t, err)
}

func TestWorkerConfig(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.DetectionEnabled = false
	cfg.Pipeline.ConfidenceThreshold = 0.8
	cfg.Pipeline.FrameSkip = 2

	worker := cfg.WorkerConfig()
	assert.False(t, worker.DetectionEnabled)
	assert.Equal(t, 0.8, worker.ConfidenceThreshold)
	assert.Equal(t, 2, worker.FrameSkip)
}
