package detectors

import (
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-framepipe/frames"
)

// prepareInput resizes the frame to the model's input resolution and writes
// it into the destination tensor in planar CHW order, normalized to [0,1].
//
// Arguments:
//   - frame: The frame to prepare.
//   - dst: The destination tensor, shaped (1, 3, height, width).
//   - width: Model input width in pixels.
//   - height: Model input height in pixels.
//
// Returns:
//   - error: An error if the frame is malformed or the tensor is too small.
func prepareInput(frame *frames.Frame, dst *ort.Tensor[float32], width, height int) error {
	img, err := frame.ToImage()
	if err != nil {
		return errors.Wrap(err, "converting frame")
	}

	data := dst.GetData()
	channelSize := width * height
	if len(data) < channelSize*3 {
		return errors.Errorf("destination tensor holds %d floats, need %d",
			len(data), channelSize*3)
	}
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	resized := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)

	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}
