package detectors

import (
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-framepipe/frames"
)

// ONNXDetector runs YOLO-style object detection through ONNX Runtime.
//
// The session owns fixed input/output tensors, so Detect is serialized with
// a mutex; the pipeline's single worker never contends in practice.
type ONNXDetector struct {
	config  Config
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	mu      sync.Mutex
	closed  bool
}

// NewONNXDetector initializes the ONNX Runtime environment and creates an
// inference session for the configured model.
//
// Arguments:
//   - config: The detector configuration, ModelPath is required.
//
// Returns:
//   - *ONNXDetector: The ready detector.
//   - error: An error if the runtime or session setup fails.
func NewONNXDetector(config Config) (*ONNXDetector, error) {
	if config.ModelPath == "" {
		return nil, errors.New("model path not configured")
	}
	if config.InputShape.X <= 0 || config.InputShape.Y <= 0 {
		return nil, errors.Errorf("invalid input shape %v", config.InputShape)
	}
	if len(config.Classes) == 0 {
		config.Classes = YOLOClasses
	}

	if config.LibraryPath != "" {
		ort.SetSharedLibraryPath(config.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, errors.Wrap(err, "initializing ONNX Runtime environment")
	}

	inputShape := ort.NewShape(1, 3, int64(config.InputShape.Y), int64(config.InputShape.X))
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, errors.Wrap(err, "creating input tensor")
	}

	outputShape := ort.NewShape(1, int64(4+len(config.Classes)), int64(config.NumCandidates))
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrap(err, "creating output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "creating session options")
	}
	defer options.Destroy()

	if config.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(config.IntraOpThreads); err != nil {
			inputTensor.Destroy()
			outputTensor.Destroy()
			return nil, errors.Wrap(err, "setting intra-op thread count")
		}
	}
	if config.InterOpThreads > 0 {
		if err := options.SetInterOpNumThreads(config.InterOpThreads); err != nil {
			inputTensor.Destroy()
			outputTensor.Destroy()
			return nil, errors.Wrap(err, "setting inter-op thread count")
		}
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "setting graph optimization level")
	}

	session, err := ort.NewAdvancedSession(
		config.ModelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "creating ONNX session")
	}

	return &ONNXDetector{
		config:  config,
		session: session,
		input:   inputTensor,
		output:  outputTensor,
	}, nil
}

// Detect implements Detector.
//
// Arguments:
//   - frame: The frame to run inference on.
//   - confidenceThreshold: Minimum final confidence, in [0,1].
//
// Returns:
//   - []Detection: Detections in frame coordinates after NMS.
//   - error: An error if preprocessing or inference fails.
func (d *ONNXDetector) Detect(frame *frames.Frame, confidenceThreshold float64) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, errors.New("detector closed")
	}

	err := prepareInput(frame, d.input, d.config.InputShape.X, d.config.InputShape.Y)
	if err != nil {
		return nil, errors.Wrap(err, "preparing input")
	}

	if err := d.session.Run(); err != nil {
		return nil, errors.Wrap(err, "running inference")
	}

	detections := decodeOutput(d.output.GetData(), decodeConfig{
		numClasses:    len(d.config.Classes),
		numCandidates: d.config.NumCandidates,
		inputWidth:    d.config.InputShape.X,
		inputHeight:   d.config.InputShape.Y,
		frameWidth:    frame.Width,
		frameHeight:   frame.Height,
		classes:       d.config.Classes,
	}, float32(confidenceThreshold))

	return applyNMS(detections, d.config.NMSThreshold), nil
}

// Name implements Detector.
func (d *ONNXDetector) Name() string {
	return "onnx:" + filepath.Base(d.config.ModelPath)
}

// Close implements Detector, releasing the session and tensors.
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	d.session.Destroy()
	d.input.Destroy()
	d.output.Destroy()
	return nil
}
