package detectors

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildOutput creates a planar (4+numClasses, numCandidates) tensor with
// the given candidate boxes written in.
func buildOutput(numClasses, numCandidates int, candidates []struct {
	idx     int
	cx, cy  float32
	w, h    float32
	classID int
	score   float32
}) []float32 {
	out := make([]float32, (4+numClasses)*numCandidates)
	for _, c := range candidates {
		out[0*numCandidates+c.idx] = c.cx
		out[1*numCandidates+c.idx] = c.cy
		out[2*numCandidates+c.idx] = c.w
		out[3*numCandidates+c.idx] = c.h
		out[(4+c.classID)*numCandidates+c.idx] = c.score
	}
	return out
}

func TestDecodeOutputFiltersByConfidence(t *testing.T) {
	cfg := decodeConfig{
		numClasses:    3,
		numCandidates: 4,
		inputWidth:    100,
		inputHeight:   100,
		frameWidth:    200,
		frameHeight:   100,
		classes:       []string{"person", "car", "dog"},
	}

	out := buildOutput(3, 4, []struct {
		idx     int
		cx, cy  float32
		w, h    float32
		classID int
		score   float32
	}{
		{idx: 0, cx: 50, cy: 50, w: 20, h: 20, classID: 0, score: 0.9},
		{idx: 1, cx: 10, cy: 10, w: 10, h: 10, classID: 1, score: 0.3},
		{idx: 2, cx: 80, cy: 20, w: 10, h: 10, classID: 2, score: 0.6},
	})

	dets := decodeOutput(out, cfg, 0.5)
	require.Len(t, dets, 2)
	assert.Equal(t, "person", dets[0].Label)
	assert.Equal(t, "dog", dets[1].Label)
}

func TestDecodeOutputScalesToFrameCoordinates(t *testing.T) {
	cfg := decodeConfig{
		numClasses:    1,
		numCandidates: 1,
		inputWidth:    100,
		inputHeight:   100,
		frameWidth:    200,
		frameHeight:   400,
		classes:       []string{"person"},
	}

	out := buildOutput(1, 1, []struct {
		idx     int
		cx, cy  float32
		w, h    float32
		classID int
		score   float32
	}{
		{idx: 0, cx: 50, cy: 50, w: 20, h: 10, classID: 0, score: 0.8},
	})

	dets := decodeOutput(out, cfg, 0.5)
	require.Len(t, dets, 1)
	// 2x horizontal scale, 4x vertical scale.
	assert.Equal(t, image.Rect(80, 180, 120, 220), dets[0].Box)
}

func TestDecodeOutputClampsToFrameBounds(t *testing.T) {
	cfg := decodeConfig{
		numClasses:    1,
		numCandidates: 1,
		inputWidth:    100,
		inputHeight:   100,
		frameWidth:    100,
		frameHeight:   100,
		classes:       []string{"person"},
	}

	out := buildOutput(1, 1, []struct {
		idx     int
		cx, cy  float32
		w, h    float32
		classID int
		score   float32
	}{
		{idx: 0, cx: 5, cy: 95, w: 30, h: 30, classID: 0, score: 0.8},
	})

	dets := decodeOutput(out, cfg, 0.5)
	require.Len(t, dets, 1)
	assert.GreaterOrEqual(t, dets[0].Box.Min.X, 0)
	assert.GreaterOrEqual(t, dets[0].Box.Min.Y, 0)
	assert.LessOrEqual(t, dets[0].Box.Max.X, 100)
	assert.LessOrEqual(t, dets[0].Box.Max.Y, 100)
}

func TestApplyNMSSuppressesOverlaps(t *testing.T) {
	dets := []Detection{
		{Label: "person", Confidence: 0.7, Box: image.Rect(12, 12, 52, 52)},
		{Label: "person", Confidence: 0.9, Box: image.Rect(10, 10, 50, 50)},
		{Label: "car", Confidence: 0.8, Box: image.Rect(200, 200, 260, 260)},
	}

	kept := applyNMS(dets, 0.5)
	require.Len(t, kept, 2)
	// Highest confidence first, overlap suppressed.
	assert.Equal(t, float32(0.9), kept[0].Confidence)
	assert.Equal(t, "car", kept[1].Label)
}

func TestApplyNMSKeepsDisjointBoxes(t *testing.T) {
	dets := []Detection{
		{Label: "a", Confidence: 0.9, Box: image.Rect(0, 0, 10, 10)},
		{Label: "b", Confidence: 0.8, Box: image.Rect(50, 50, 60, 60)},
		{Label: "c", Confidence: 0.7, Box: image.Rect(100, 100, 110, 110)},
	}
	assert.Len(t, applyNMS(dets, 0.5), 3)
}

func TestApplyNMSEmptyInput(t *testing.T) {
	assert.Nil(t, applyNMS(nil, 0.5))
}

func TestIntersectionOverUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b image.Rectangle
		want float32
	}{
		{name: "identical", a: image.Rect(0, 0, 10, 10), b: image.Rect(0, 0, 10, 10), want: 1},
		{name: "disjoint", a: image.Rect(0, 0, 10, 10), b: image.Rect(20, 20, 30, 30), want: 0},
		{name: "half overlap", a: image.Rect(0, 0, 10, 10), b: image.Rect(5, 0, 15, 10), want: 1.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, intersectionOverUnion(tt.a, tt.b), 1e-6)
		})
	}
}

func TestDistinctLabels(t *testing.T) {
	dets := []Detection{
		{Label: "person"},
		{Label: "car"},
		{Label: "person"},
		{Label: "dog"},
		{Label: "car"},
	}
	assert.Equal(t, []string{"person", "car", "dog"}, DistinctLabels(dets))
	assert.Empty(t, DistinctLabels(nil))
}
