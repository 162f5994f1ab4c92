// Package frames - Frame type and pixel buffer helpers shared by the pipeline.
package frames

import (
	"image"
	"time"

	"github.com/pkg/errors"
)

// ErrNilBuffer is returned when a frame carries no pixel data.
var ErrNilBuffer = errors.New("frame has nil pixel buffer")

// ErrDimensionMismatch is returned when the pixel buffer length does not
// match Width*Height*Channels.
var ErrDimensionMismatch = errors.New("frame buffer length does not match dimensions")

// Frame is a single decoded video frame.
//
// The pixel buffer is interleaved (RGB or RGBA row-major). Frames handed to
// the pipeline are copied on submission, so the producer may reuse its own
// buffer immediately after Submit returns.
type Frame struct {
	// Pix holds the interleaved pixel data, Width*Height*Channels bytes.
	Pix []byte
	// Width of the frame in pixels.
	Width int
	// Height of the frame in pixels.
	Height int
	// Channels per pixel (3 for RGB, 4 for RGBA).
	Channels int
	// Timestamp is the capture time, not the processing time.
	Timestamp time.Time
	// Seq is assigned by the queue at submission, monotonically increasing.
	Seq uint64
}

// Validate checks the frame's buffer against its declared dimensions.
//
// Returns:
//   - error: ErrNilBuffer or ErrDimensionMismatch, nil if the frame is well-formed.
func (f *Frame) Validate() error {
	if len(f.Pix) == 0 {
		return ErrNilBuffer
	}
	if f.Width <= 0 || f.Height <= 0 || f.Channels <= 0 {
		return errors.Wrapf(ErrDimensionMismatch, "%dx%dx%d", f.Width, f.Height, f.Channels)
	}
	if len(f.Pix) != f.Width*f.Height*f.Channels {
		return errors.Wrapf(ErrDimensionMismatch,
			"have %d bytes, want %d", len(f.Pix), f.Width*f.Height*f.Channels)
	}
	return nil
}

// Clone returns a deep copy of the frame with its own pixel buffer.
func (f *Frame) Clone() *Frame {
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{
		Pix:       pix,
		Width:     f.Width,
		Height:    f.Height,
		Channels:  f.Channels,
		Timestamp: f.Timestamp,
		Seq:       f.Seq,
	}
}

// FromImage converts an image.Image into an RGBA frame captured now.
//
// Arguments:
//   - img: The source image.
//
// Returns:
//   - *Frame: A 4-channel frame with its own pixel buffer.
func FromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || !rgba.Rect.Min.Eq(image.Point{}) || rgba.Stride != bounds.Dx()*4 {
		converted := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				converted.Set(x-bounds.Min.X, y-bounds.Min.Y, img.At(x, y))
			}
		}
		rgba = converted
	}

	pix := make([]byte, len(rgba.Pix))
	copy(pix, rgba.Pix)

	return &Frame{
		Pix:       pix,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Channels:  4,
		Timestamp: time.Now(),
	}
}

// ToImage converts the frame back to an image.Image.
//
// Returns:
//   - image.Image: An *image.RGBA view over a copy of the pixel data.
//   - error: An error if the frame is malformed or not 3/4 channel.
func (f *Frame) ToImage() (image.Image, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	switch f.Channels {
	case 4:
		copy(out.Pix, f.Pix)
	case 3:
		for i := 0; i < f.Width*f.Height; i++ {
			out.Pix[i*4+0] = f.Pix[i*3+0]
			out.Pix[i*4+1] = f.Pix[i*3+1]
			out.Pix[i*4+2] = f.Pix[i*3+2]
			out.Pix[i*4+3] = 0xff
		}
	default:
		return nil, errors.Errorf("unsupported channel count %d", f.Channels)
	}
	return out, nil
}
