// Command framepipe runs object detection over a video file or a live
// capture device, writing annotated output and periodic performance
// summaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvr-ai/go-framepipe/config"
	"github.com/nvr-ai/go-framepipe/detectors"
	"github.com/nvr-ai/go-framepipe/frames"
	"github.com/nvr-ai/go-framepipe/monitor"
	"github.com/nvr-ai/go-framepipe/pipeline"
	"github.com/nvr-ai/go-framepipe/sink"
	"github.com/nvr-ai/go-framepipe/source"
)

const (
	// progressEvery is the submitted-frame period between progress lines
	// in offline mode.
	progressEvery = 30
)

func main() {
	var (
		configPath string
		videoPath  string
		deviceID   int
		modelPath  string
		outputPath string
		confidence float64
		frameSkip  int
		realtime   bool
		quiet      bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML configuration file")
	flag.StringVar(&videoPath, "video", "", "Path to input video file (omit to use a capture device)")
	flag.IntVar(&deviceID, "device", 0, "Capture device ID when no video file is given")
	flag.StringVar(&modelPath, "model", "", "Path to YOLO ONNX model file")
	flag.StringVar(&outputPath, "output", "", "Path for annotated output video (empty disables writing)")
	flag.Float64Var(&confidence, "confidence", -1, "Object detection confidence threshold override")
	flag.IntVar(&frameSkip, "skip", 0, "Process every Nth frame override")
	flag.BoolVar(&realtime, "realtime", false, "Pace file playback to its native FPS")
	flag.BoolVar(&quiet, "quiet", false, "Suppress per-second performance lines")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// Flags win over the file.
	if videoPath != "" {
		cfg.Source.Video = videoPath
	}
	if modelPath != "" {
		cfg.Detector.ModelPath = modelPath
	}
	if outputPath != "" {
		cfg.Sink.Output = outputPath
	}
	if confidence >= 0 {
		cfg.Pipeline.ConfidenceThreshold = confidence
	}
	if frameSkip > 0 {
		cfg.Pipeline.FrameSkip = frameSkip
	}
	if cfg.Detector.ModelPath == "" {
		log.Fatal("a model is required: pass -model or set detector.model_path")
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMilli}).
		With().Timestamp().Logger()

	if err := run(cfg, deviceID, realtime, quiet, logger); err != nil {
		logger.Fatal().Err(err).Msg("framepipe failed")
	}
}

func run(cfg config.Config, deviceID int, realtime, quiet bool, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector, err := detectors.NewONNXDetector(cfg.Detector)
	if err != nil {
		return err
	}
	defer detector.Close()

	src, err := openSource(cfg, deviceID, realtime, &logger)
	if err != nil {
		return err
	}
	defer src.Close()

	info := src.Info()
	logger.Info().
		Int("width", info.Width).Int("height", info.Height).
		Float64("fps", info.FPS).Int("total_frames", info.TotalFrames).
		Msg("source opened")

	worker := cfg.WorkerConfig()
	pipe := pipeline.New(detector, pipeline.Options{
		QueueCapacity:  cfg.Pipeline.QueueCapacity,
		PollInterval:   cfg.Pipeline.PollInterval.Std(),
		ResultBuffer:   cfg.Pipeline.ResultBuffer,
		SampleInterval: cfg.Pipeline.SampleInterval.Std(),
		Config:         &worker,
		Logger:         &logger,
	})

	var mon *monitor.Monitor
	if cfg.Monitor.Enabled {
		mon = monitor.New(monitor.Options{
			ReportInterval: cfg.Monitor.ReportInterval.Std(),
			Logger:         &logger,
		})
		mon.AddCollector(pipe)
		mon.Start()
		defer mon.Stop()
	}

	var writer *sink.VideoWriter
	if cfg.Sink.Output != "" {
		writer, err = sink.NewVideoWriter(cfg.Sink.Output, info.Width, info.Height, sink.VideoWriterOptions{
			Codec:  cfg.Sink.Codec,
			FPS:    outputFPS(cfg.Sink.FPS, info.FPS),
			Logger: &logger,
		})
		if err != nil {
			return err
		}
		defer writer.Close()
	}

	pipe.Start()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		consumeResults(pipe.Results(), writer, logger)
	}()
	go func() {
		defer wg.Done()
		for sample := range pipe.Samples() {
			if quiet {
				continue
			}
			logger.Info().
				Float64("fps", sample.FramesPerSecond).
				Int("objects", sample.ObjectsDetected).
				Msg("performance")
		}
	}()

	start := time.Now()
	submitter := &progressSubmitter{dst: pipe, total: info.TotalFrames, start: start}
	streamErr := src.Stream(ctx, submitter)

	pipe.Stop()
	wg.Wait()

	elapsed := time.Since(start)
	fmt.Printf("\nProcessing complete!\n")
	fmt.Printf("Total time: %.1f seconds\n", elapsed.Seconds())
	if elapsed > 0 {
		fmt.Printf("Average FPS: %.1f\n", float64(submitter.count)/elapsed.Seconds())
	}
	if writer != nil {
		fmt.Printf("Output file saved at: %s (%d frames)\n", cfg.Sink.Output, writer.Written())
	}

	if streamErr != nil && streamErr != context.Canceled {
		return streamErr
	}
	return nil
}

func openSource(cfg config.Config, deviceID int, realtime bool, logger *zerolog.Logger) (source.Source, error) {
	if cfg.Source.Video != "" {
		return source.OpenVideoFile(cfg.Source.Video, source.VideoFileOptions{
			Realtime: realtime,
			Logger:   logger,
		})
	}
	if cfg.Source.Device != 0 {
		deviceID = cfg.Source.Device
	}
	return source.OpenDevice(deviceID, source.CaptureOptions{Logger: logger})
}

func outputFPS(configured, native float64) float64 {
	if native > 0 {
		return native
	}
	return configured
}

func consumeResults(results <-chan pipeline.Result, writer *sink.VideoWriter, logger zerolog.Logger) {
	if writer != nil {
		writer.Consume(results)
		return
	}
	for result := range results {
		logger.Debug().
			Uint64("seq", result.Frame.Seq).
			Int("objects", result.Objects).
			Strs("labels", result.Labels).
			Dur("duration", result.Duration).
			Msg("detection")
	}
}

// progressSubmitter forwards frames to the pipeline and prints a
// progress line every progressEvery submissions when the stream length
// is known.
type progressSubmitter struct {
	dst   *pipeline.Pipeline
	total int
	start time.Time
	count int
}

func (p *progressSubmitter) Submit(frame *frames.Frame) error {
	err := p.dst.Submit(frame)
	p.count++

	if p.total > 0 && p.count%progressEvery == 0 {
		progress := float64(p.count) / float64(p.total) * 100
		elapsed := time.Since(p.start).Seconds()
		remaining := elapsed / float64(p.count) * float64(p.total-p.count)
		fmt.Printf("Progress: %d/%d (%.1f%%) - Elapsed: %.1fs - Remaining: %.1fs\n",
			p.count, p.total, progress, elapsed, remaining)
	}
	return err
}
