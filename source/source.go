// Package source provides frame producers that feed the pipeline at the
// capture's native rate.
package source

import (
	"context"

	"github.com/nvr-ai/go-framepipe/frames"
)

// Submitter accepts captured frames. Implementations must never block on
// downstream processing.
type Submitter interface {
	Submit(frame *frames.Frame) error
}

// Info describes a source's stream.
type Info struct {
	// Width and Height are the frame dimensions in pixels.
	Width  int
	Height int
	// FPS is the native frame rate, zero when unknown.
	FPS float64
	// TotalFrames is the stream length in frames, zero for live sources.
	TotalFrames int
}

// Source produces frames until the stream ends or the context is
// cancelled.
type Source interface {
	// Info returns the stream's dimensions and rate.
	Info() Info
	// Stream reads frames and hands each to dst until exhaustion or
	// cancellation. Per-frame submission errors are logged and do not
	// stop the stream.
	Stream(ctx context.Context, dst Submitter) error
	// Close releases the underlying capture.
	Close() error
}
