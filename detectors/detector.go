// Package detectors - Object detector interface and implementations consumed
// by the frame pipeline.
package detectors

import (
	"image"

	"github.com/nvr-ai/go-framepipe/frames"
)

// Detection is a single detected object.
type Detection struct {
	// Label is the class name of the detected object.
	Label string
	// Confidence is the final detection confidence in [0,1].
	Confidence float32
	// Box is the bounding box in frame pixel coordinates.
	Box image.Rectangle
}

// Detector runs object detection on a single frame.
//
// Implementations may be slow (hundreds of milliseconds per frame) and must
// not be assumed synchronous-cheap; the pipeline worker calls Detect from
// its own goroutine and absorbs per-frame failures.
type Detector interface {
	// Detect returns the objects found in the frame with confidence at or
	// above confidenceThreshold.
	Detect(frame *frames.Frame, confidenceThreshold float64) ([]Detection, error)
	// Name identifies the detector for logging and metrics.
	Name() string
	// Close releases detector resources.
	Close() error
}

// DistinctLabels returns the unique labels of the detections in first-seen
// order.
func DistinctLabels(detections []Detection) []string {
	seen := make(map[string]bool, len(detections))
	labels := make([]string, 0, len(detections))
	for _, d := range detections {
		if !seen[d.Label] {
			seen[d.Label] = true
			labels = append(labels, d.Label)
		}
	}
	return labels
}
