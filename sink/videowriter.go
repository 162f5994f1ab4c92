// Package sink consumes pipeline results and writes annotated frames
// out as a video file.
package sink

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-framepipe/frames"
	"github.com/nvr-ai/go-framepipe/pipeline"
)

// VideoWriter writes annotated frames to an output video through
// OpenCV.
type VideoWriter struct {
	writer  *gocv.VideoWriter
	log     zerolog.Logger
	written int
}

// VideoWriterOptions configures a VideoWriter sink.
type VideoWriterOptions struct {
	// Codec is the fourcc codec string (default "avc1").
	Codec string
	// FPS is the output frame rate (default 30).
	FPS float64
	// Logger receives per-frame write failures (default no-op).
	Logger *zerolog.Logger
}

// NewVideoWriter opens an output video file.
//
// Arguments:
//   - path: The output file path.
//   - width, height: The frame dimensions; every written frame must match.
//   - opts: Sink options.
//
// Returns:
//   - *VideoWriter: The opened sink.
//   - error: An open error.
func NewVideoWriter(path string, width, height int, opts VideoWriterOptions) (*VideoWriter, error) {
	if opts.Codec == "" {
		opts.Codec = "avc1"
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	writer, err := gocv.VideoWriterFile(path, opts.Codec, opts.FPS, width, height, true)
	if err != nil {
		return nil, errors.Wrapf(err, "opening output video %s", path)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, errors.Errorf("output video %s did not open", path)
	}

	return &VideoWriter{writer: writer, log: log}, nil
}

// WriteFrame appends one annotated frame to the output video.
//
// Arguments:
//   - frame: An RGB or RGBA frame.
//
// Returns:
//   - error: A conversion or write error.
func (s *VideoWriter) WriteFrame(frame *frames.Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}

	var matType gocv.MatType
	var code gocv.ColorConversionCode
	switch frame.Channels {
	case 3:
		// RGB→BGR is the same channel swap as BGR→RGB.
		matType, code = gocv.MatTypeCV8UC3, gocv.ColorBGRToRGB
	case 4:
		matType, code = gocv.MatTypeCV8UC4, gocv.ColorRGBAToBGR
	default:
		return errors.Errorf("unsupported channel count %d", frame.Channels)
	}

	img, err := gocv.NewMatFromBytes(frame.Height, frame.Width, matType, frame.Pix)
	if err != nil {
		return errors.Wrap(err, "wrapping frame pixels")
	}
	defer img.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(img, &bgr, code)

	if err := s.writer.Write(bgr); err != nil {
		return errors.Wrap(err, "writing frame")
	}
	s.written++
	return nil
}

// Consume drains the results channel until it closes, writing every
// annotated frame. Per-frame write failures are logged and skipped.
//
// Arguments:
//   - results: The pipeline's results channel.
//
// Returns:
//   - int: The number of frames written.
func (s *VideoWriter) Consume(results <-chan pipeline.Result) int {
	for result := range results {
		if err := s.WriteFrame(result.Frame); err != nil {
			s.log.Warn().Err(err).Uint64("seq", result.Frame.Seq).Msg("dropping unwritable frame")
		}
	}
	return s.written
}

// Written returns the number of frames written so far.
func (s *VideoWriter) Written() int {
	return s.written
}

// Close finalizes the output file.
func (s *VideoWriter) Close() error {
	return s.writer.Close()
}
