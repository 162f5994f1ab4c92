package source

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framepipe/frames"
)

// Capture reads frames from a camera device or a video URL through
// OpenCV. Frames are converted from OpenCV's BGR layout to RGB.
type Capture struct {
	capture *gocv.VideoCapture
	log     zerolog.Logger
}

// CaptureOptions configures a Capture source.
type CaptureOptions struct {
	// Logger receives per-frame submission failures (default no-op).
	Logger *zerolog.Logger
}

// OpenDevice opens a capture device by ID.
//
// Arguments:
//   - deviceID: The OpenCV capture device index.
//   - opts: Source options.
//
// Returns:
//   - *Capture: The opened source.
//   - error: A device open error.
func OpenDevice(deviceID int, opts CaptureOptions) (*Capture, error) {
	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, errors.Wrapf(err, "opening capture device %d", deviceID)
	}
	return newCapture(capture, opts), nil
}

// OpenStream opens a video file or stream URL.
//
// Arguments:
//   - url: A file path or stream URL OpenCV can decode.
//   - opts: Source options.
//
// Returns:
//   - *Capture: The opened source.
//   - error: An open error.
func OpenStream(url string, opts CaptureOptions) (*Capture, error) {
	capture, err := gocv.OpenVideoCapture(url)
	if err != nil {
		return nil, errors.Wrapf(err, "opening stream %s", url)
	}
	return newCapture(capture, opts), nil
}

func newCapture(capture *gocv.VideoCapture, opts CaptureOptions) *Capture {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Capture{capture: capture, log: log}
}

// Info returns the capture's dimensions and rate. TotalFrames is zero
// for live devices.
func (s *Capture) Info() Info {
	total := int(s.capture.Get(gocv.VideoCaptureFrameCount))
	if total < 0 {
		total = 0
	}
	return Info{
		Width:       int(s.capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:      int(s.capture.Get(gocv.VideoCaptureFrameHeight)),
		FPS:         s.capture.Get(gocv.VideoCaptureFPS),
		TotalFrames: total,
	}
}

// Stream reads frames at the device's own pace and submits each one
// until the capture ends or the context is cancelled. Empty reads from
// a live device are retried; end of a file stream terminates.
func (s *Capture) Stream(ctx context.Context, dst Submitter) error {
	img := gocv.NewMat()
	defer img.Close()
	rgb := gocv.NewMat()
	defer rgb.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if ok := s.capture.Read(&img); !ok {
			return nil
		}
		if img.Empty() {
			continue
		}

		gocv.CvtColor(img, &rgb, gocv.ColorBGRToRGB)

		frame := &frames.Frame{
			Pix:       rgb.ToBytes(),
			Width:     rgb.Cols(),
			Height:    rgb.Rows(),
			Channels:  rgb.Channels(),
			Timestamp: time.Now(),
		}
		if err := dst.Submit(frame); err != nil {
			s.log.Warn().Err(err).Msg("frame rejected")
		}
	}
}

// Close releases the capture device.
func (s *Capture) Close() error {
	return s.capture.Close()
}
