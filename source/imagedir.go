package source

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nvr-ai/go-framepipe/frames"
)

// ImageDir replays a directory of frame-<n>.<ext> image files as a
// frame stream, in frame-number order. Useful for extracted-frame
// datasets and for exercising the pipeline without a video decoder.
type ImageDir struct {
	paths []string
	size  image.Point
	log   zerolog.Logger
}

// ImageDirOptions configures an ImageDir source.
type ImageDirOptions struct {
	// Logger receives per-frame decode and submission failures
	// (default no-op).
	Logger *zerolog.Logger
}

// OpenImageDir scans a directory for frame-numbered image files.
//
// Arguments:
//   - dir: Directory containing frame-<n>.jpg/.jpeg/.png files.
//   - opts: Source options.
//
// Returns:
//   - *ImageDir: The source, frames sorted by number.
//   - error: A scan error, or an error when no frames are found.
func OpenImageDir(dir string, opts ImageDirOptions) (*ImageDir, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading frame directory %s", dir)
	}

	type numbered struct {
		path string
		n    int
	}
	var found []numbered
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		switch ext {
		case ".jpg", ".jpeg", ".png":
		default:
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ext)
		n, err := strconv.Atoi(strings.TrimPrefix(stem, "frame-"))
		if err != nil {
			continue
		}
		found = append(found, numbered{path: filepath.Join(dir, entry.Name()), n: n})
	}
	if len(found) == 0 {
		return nil, errors.Errorf("no frame images in %s", dir)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = f.path
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	src := &ImageDir{paths: paths, log: log}
	if err := src.probe(); err != nil {
		return nil, err
	}
	return src, nil
}

// probe decodes the first frame's header for the stream dimensions.
func (s *ImageDir) probe() error {
	f, err := os.Open(s.paths[0])
	if err != nil {
		return errors.Wrap(err, "probing first frame")
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return errors.Wrapf(err, "decoding %s", s.paths[0])
	}
	s.size = image.Point{X: cfg.Width, Y: cfg.Height}
	return nil
}

// Info returns the stream's dimensions and length. FPS is zero: the
// replay has no inherent rate.
func (s *ImageDir) Info() Info {
	return Info{
		Width:       s.size.X,
		Height:      s.size.Y,
		TotalFrames: len(s.paths),
	}
}

// Stream decodes and submits each image in frame order. Undecodable
// files are logged and skipped.
func (s *ImageDir) Stream(ctx context.Context, dst Submitter) error {
	for _, path := range s.paths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, err := s.decode(path)
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("skipping undecodable frame")
			continue
		}
		if err := dst.Submit(frame); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("frame rejected")
		}
	}
	return nil
}

func (s *ImageDir) decode(path string) (*frames.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening frame")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}

	frame := frames.FromImage(img)
	frame.Timestamp = time.Now()
	return frame, nil
}

// Close is a no-op; files are opened per frame.
func (s *ImageDir) Close() error {
	return nil
}
