package pipeline

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-framepipe/detectors"
	"github.com/nvr-ai/go-framepipe/frames"
)

// workerLoop is the single long-lived detection worker.
//
// Each iteration checks for shutdown, loads one configuration snapshot,
// and either idles for a polling interval or drains the oldest frame.
// Drained frames pass the frame-skip gate before reaching the detector;
// a detector failure is contained to its frame and the loop continues.
func (p *Pipeline) workerLoop() {
	defer p.wg.Done()

	var counter uint64

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		cfg := p.config.load()
		if !cfg.DetectionEnabled {
			p.idle()
			continue
		}

		frame := p.queue.TakeOne()
		if frame == nil {
			p.idle()
			continue
		}

		p.drained.Add(1)
		counter++
		if counter%uint64(cfg.FrameSkip) != 0 {
			p.skipped.Add(1)
			continue
		}

		p.processFrame(frame, cfg)
	}
}

// idle sleeps for one polling interval, waking early on shutdown.
func (p *Pipeline) idle() {
	timer := time.NewTimer(p.pollInterval)
	defer timer.Stop()

	select {
	case <-p.ctx.Done():
	case <-timer.C:
	}
}

// processFrame invokes the detector, annotates the frame, and emits the
// result and any due performance sample.
func (p *Pipeline) processFrame(frame *frames.Frame, cfg Config) {
	start := time.Now()

	dets, err := p.safeDetect(frame, cfg.ConfidenceThreshold)
	if err != nil {
		p.failures.Add(1)
		p.log.Warn().Err(err).Uint64("seq", frame.Seq).Msg("detection failed, frame skipped")
		return
	}

	boxes := make([]frames.Box, len(dets))
	for i, d := range dets {
		boxes[i] = frames.Box{
			Rect:  d.Box,
			Label: fmt.Sprintf("%s %.2f", d.Label, d.Confidence),
		}
	}

	annotated, err := frames.Annotate(frame, boxes)
	if err != nil {
		p.failures.Add(1)
		p.log.Warn().Err(err).Uint64("seq", frame.Seq).Msg("annotation failed, frame skipped")
		return
	}

	result := Result{
		Frame:      annotated,
		Detections: dets,
		Objects:    len(dets),
		Labels:     detectors.DistinctLabels(dets),
		Duration:   time.Since(start),
	}

	// Ordered, exactly-once delivery; shutdown unblocks a stalled sink send.
	select {
	case p.results <- result:
	case <-p.ctx.Done():
		return
	}

	p.processed.Add(1)

	if sample, due := p.tracker.Record(len(dets)); due {
		select {
		case p.samples <- sample:
		default:
			// Sample lost, the next window supersedes it.
		}
	}
}

// safeDetect calls the detector, converting panics into errors so a
// misbehaving implementation cannot take down the worker.
func (p *Pipeline) safeDetect(frame *frames.Frame, threshold float64) (dets []detectors.Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			dets = nil
			err = errors.Errorf("detector panic: %v", r)
		}
	}()
	return p.detector.Detect(frame, threshold)
}
