package frames

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Box is a labeled rectangle to draw onto a frame.
type Box struct {
	// Rect is the bounding box in frame pixel coordinates.
	Rect image.Rectangle
	// Label is drawn above the box, empty labels are skipped.
	Label string
}

var boxColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

const boxThickness = 2

// Annotate returns a copy of the frame with boxes and labels drawn on it.
// The input frame is never modified.
//
// Arguments:
//   - f: The frame to annotate.
//   - boxes: Bounding boxes in frame coordinates, clipped to frame bounds.
//
// Returns:
//   - *Frame: A new 4-channel frame of the same dimensions.
//   - error: An error if the frame is malformed.
func Annotate(f *Frame, boxes []Box) (*Frame, error) {
	img, err := f.ToImage()
	if err != nil {
		return nil, err
	}
	canvas := img.(*image.RGBA)

	for _, box := range boxes {
		rect := box.Rect.Intersect(canvas.Bounds())
		if rect.Empty() {
			continue
		}
		drawRect(canvas, rect)
		if box.Label != "" {
			drawLabel(canvas, box.Label, rect.Min)
		}
	}

	annotated := FromImage(canvas)
	annotated.Timestamp = f.Timestamp
	annotated.Seq = f.Seq
	return annotated, nil
}

// drawRect draws a hollow rectangle border.
func drawRect(img *image.RGBA, rect image.Rectangle) {
	for t := 0; t < boxThickness; t++ {
		inner := rect.Inset(t)
		if inner.Empty() {
			return
		}
		for x := inner.Min.X; x < inner.Max.X; x++ {
			img.SetRGBA(x, inner.Min.Y, boxColor)
			img.SetRGBA(x, inner.Max.Y-1, boxColor)
		}
		for y := inner.Min.Y; y < inner.Max.Y; y++ {
			img.SetRGBA(inner.Min.X, y, boxColor)
			img.SetRGBA(inner.Max.X-1, y, boxColor)
		}
	}
}

// drawLabel draws text just above the given anchor, shifted inside the
// frame when the box touches the top edge.
func drawLabel(img *image.RGBA, label string, anchor image.Point) {
	y := anchor.Y - 4
	if y < basicfont.Face7x13.Ascent {
		y = anchor.Y + basicfont.Face7x13.Height
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(boxColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(anchor.X, y),
	}
	drawer.DrawString(label)
}
