package detectors

import (
	"image"
	"sort"

	"github.com/chewxy/math32"
)

// decodeConfig describes the raw YOLO output layout for decoding.
type decodeConfig struct {
	// numClasses is the number of class score rows (80 for COCO).
	numClasses int
	// numCandidates is the number of candidate boxes per image (8400 for 640x640).
	numCandidates int
	// inputWidth and inputHeight are the model input dimensions the box
	// coordinates are expressed in.
	inputWidth  int
	inputHeight int
	// frameWidth and frameHeight scale boxes back to the source frame.
	frameWidth  int
	frameHeight int
	// classes maps class indexes to labels.
	classes []string
}

// decodeOutput converts a raw (4+numClasses, numCandidates) YOLO output
// tensor into detections at or above the confidence threshold, scaled to
// frame coordinates. No NMS is applied here.
func decodeOutput(output []float32, cfg decodeConfig, confidenceThreshold float32) []Detection {
	var detections []Detection

	scaleX := float32(cfg.frameWidth) / float32(cfg.inputWidth)
	scaleY := float32(cfg.frameHeight) / float32(cfg.inputHeight)

	for i := 0; i < cfg.numCandidates; i++ {
		classID := 0
		score := float32(0)
		for c := 0; c < cfg.numClasses; c++ {
			s := output[(4+c)*cfg.numCandidates+i]
			if s > score {
				score = s
				classID = c
			}
		}
		if score < confidenceThreshold {
			continue
		}

		cx := output[0*cfg.numCandidates+i] * scaleX
		cy := output[1*cfg.numCandidates+i] * scaleY
		w := output[2*cfg.numCandidates+i] * scaleX
		h := output[3*cfg.numCandidates+i] * scaleY

		x1 := int(math32.Max(cx-w/2, 0))
		y1 := int(math32.Max(cy-h/2, 0))
		x2 := int(math32.Min(cx+w/2, float32(cfg.frameWidth)))
		y2 := int(math32.Min(cy+h/2, float32(cfg.frameHeight)))

		detections = append(detections, Detection{
			Label:      className(cfg.classes, classID),
			Confidence: score,
			Box:        image.Rect(x1, y1, x2, y2),
		})
	}

	return detections
}

// applyNMS filters overlapping detections with greedy Non-Maximum
// Suppression, keeping the highest-confidence box per overlap cluster.
//
// Arguments:
//   - detections: Candidate detections in any order.
//   - iouThreshold: Overlap above which the lower-confidence box is dropped.
//
// Returns:
//   - []Detection: The surviving detections, highest confidence first.
func applyNMS(detections []Detection, iouThreshold float32) []Detection {
	if len(detections) == 0 {
		return nil
	}

	sort.Slice(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})

	used := make([]bool, len(detections))
	result := make([]Detection, 0, len(detections))

	for i := range detections {
		if used[i] {
			continue
		}
		result = append(result, detections[i])
		used[i] = true

		for j := i + 1; j < len(detections); j++ {
			if used[j] {
				continue
			}
			if intersectionOverUnion(detections[i].Box, detections[j].Box) > iouThreshold {
				used[j] = true
			}
		}
	}

	return result
}

// intersectionOverUnion computes IoU of two boxes.
func intersectionOverUnion(a, b image.Rectangle) float32 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float32(inter.Dx() * inter.Dy())
	union := float32(a.Dx()*a.Dy()) + float32(b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
