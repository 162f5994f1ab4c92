package source

import (
	"context"
	"time"

	vidio "github.com/AlexEidt/Vidio"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nvr-ai/go-framepipe/frames"
)

// VideoFile reads frames from a video file through ffmpeg, without an
// OpenCV dependency. Frames are RGBA.
type VideoFile struct {
	video    *vidio.Video
	realtime bool
	log      zerolog.Logger
}

// VideoFileOptions configures a VideoFile source.
type VideoFileOptions struct {
	// Realtime paces frame delivery to the file's native FPS instead of
	// reading as fast as decoding allows.
	Realtime bool
	// Logger receives per-frame submission failures (default no-op).
	Logger *zerolog.Logger
}

// OpenVideoFile opens a video file as a frame source.
//
// Arguments:
//   - path: The video file path.
//   - opts: Source options.
//
// Returns:
//   - *VideoFile: The opened source.
//   - error: An open or probe error.
func OpenVideoFile(path string, opts VideoFileOptions) (*VideoFile, error) {
	video, err := vidio.NewVideo(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening video %s", path)
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &VideoFile{
		video:    video,
		realtime: opts.Realtime,
		log:      log,
	}, nil
}

// Info returns the video's dimensions, frame rate, and length.
func (s *VideoFile) Info() Info {
	return Info{
		Width:       s.video.Width(),
		Height:      s.video.Height(),
		FPS:         s.video.FPS(),
		TotalFrames: s.video.Frames(),
	}
}

// Stream decodes frames and submits each one until the file ends or the
// context is cancelled.
func (s *VideoFile) Stream(ctx context.Context, dst Submitter) error {
	var ticker *time.Ticker
	if s.realtime && s.video.FPS() > 0 {
		ticker = time.NewTicker(time.Duration(float64(time.Second) / s.video.FPS()))
		defer ticker.Stop()
	}

	for s.video.Read() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame := &frames.Frame{
			Pix:       s.video.FrameBuffer(),
			Width:     s.video.Width(),
			Height:    s.video.Height(),
			Channels:  4,
			Timestamp: time.Now(),
		}
		if err := dst.Submit(frame); err != nil {
			s.log.Warn().Err(err).Msg("frame rejected")
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
	return nil
}

// Close releases the decoder.
func (s *VideoFile) Close() error {
	s.video.Close()
	return nil
}
