package frames

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFrame() *Frame {
	return &Frame{
		Pix:       make([]byte, 6*4*3),
		Width:     6,
		Height:    4,
		Channels:  3,
		Timestamp: time.Now(),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Frame)
		wantErr error
	}{
		{name: "valid", mutate: func(f *Frame) {}, wantErr: nil},
		{
			name:    "nil buffer",
			mutate:  func(f *Frame) { f.Pix = nil },
			wantErr: ErrNilBuffer,
		},
		{
			name:    "short buffer",
			mutate:  func(f *Frame) { f.Pix = f.Pix[:10] },
			wantErr: ErrDimensionMismatch,
		},
		{
			name:    "zero width",
			mutate:  func(f *Frame) { f.Width = 0 },
			wantErr: ErrDimensionMismatch,
		},
		{
			name:    "wrong channel count",
			mutate:  func(f *Frame) { f.Channels = 4 },
			wantErr: ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := validFrame()
			tt.mutate(frame)
			err := frame.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr) || errors.Cause(err) == tt.wantErr)
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	frame := validFrame()
	frame.Pix[0] = 42
	frame.Seq = 7

	clone := frame.Clone()
	require.Equal(t, frame.Pix, clone.Pix)
	assert.Equal(t, frame.Seq, clone.Seq)

	frame.Pix[0] = 99
	assert.Equal(t, byte(42), clone.Pix[0], "clone shares the pixel buffer")
}

func TestRGBToImageRoundTrip(t *testing.T) {
	frame := validFrame()
	// Mark one pixel red.
	frame.Pix[0] = 255

	img, err := frame.ToImage()
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, frame.Width, bounds.Dx())
	assert.Equal(t, frame.Height, bounds.Dy())

	r, _, _, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), a, "RGB frames become opaque RGBA")
}

func TestFromImagePreservesPixels(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	frame := FromImage(src)
	require.NoError(t, frame.Validate())
	assert.Equal(t, 3, frame.Width)
	assert.Equal(t, 2, frame.Height)
	assert.Equal(t, 4, frame.Channels)

	offset := (1*3 + 1) * 4
	assert.Equal(t, byte(10), frame.Pix[offset])
	assert.Equal(t, byte(20), frame.Pix[offset+1])
	assert.Equal(t, byte(30), frame.Pix[offset+2])
}

func TestAnnotateDoesNotModifyInput(t *testing.T) {
	frame := validFrame()
	before := make([]byte, len(frame.Pix))
	copy(before, frame.Pix)

	annotated, err := Annotate(frame, []Box{
		{Rect: image.Rect(1, 1, 5, 3), Label: "person"},
	})
	require.NoError(t, err)

	assert.Equal(t, before, frame.Pix, "input frame mutated")
	assert.Equal(t, frame.Width, annotated.Width)
	assert.Equal(t, frame.Height, annotated.Height)

	// The source is all black, so any green byte proves a border was drawn.
	drawn := false
	for i := 1; i < len(annotated.Pix); i += 4 {
		if annotated.Pix[i] == 255 {
			drawn = true
			break
		}
	}
	assert.True(t, drawn, "no annotation drawn")
}

func TestAnnotateClipsOutOfBoundsBoxes(t *testing.T) {
	frame := validFrame()

	// Boxes partially or fully outside the frame must not panic.
	annotated, err := Annotate(frame, []Box{
		{Rect: image.Rect(-10, -10, 3, 3), Label: "edge"},
		{Rect: image.Rect(100, 100, 200, 200), Label: "gone"},
	})
	require.NoError(t, err)
	require.NoError(t, annotated.Validate())
}

func TestAnnotatePreservesIdentity(t *testing.T) {
	frame := validFrame()
	frame.Seq = 12
	frame.Timestamp = time.Unix(500, 0)

	annotated, err := Annotate(frame, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), annotated.Seq)
	assert.Equal(t, frame.Timestamp, annotated.Timestamp)
}
