package detectors

import "image"

// Config configures the ONNX detector.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string `yaml:"model_path"`

	// LibraryPath is the path to the ONNX Runtime shared library. Empty
	// uses the platform default resolved by SharedLibraryPath.
	LibraryPath string `yaml:"library_path"`

	// InputShape is the model input resolution (width, height).
	InputShape image.Point `yaml:"input_shape"`

	// NMSThreshold is the Non-Maximum Suppression IoU threshold.
	NMSThreshold float32 `yaml:"nms_threshold"`

	// NumCandidates is the number of candidate boxes in the model output
	// (8400 for a 640x640 YOLOv8 export).
	NumCandidates int `yaml:"num_candidates"`

	// Classes lists the class labels in model output order. Empty uses
	// the COCO set in YOLO order.
	Classes []string `yaml:"classes"`

	// IntraOpThreads and InterOpThreads bound ONNX Runtime parallelism.
	// Zero uses the runtime defaults.
	IntraOpThreads int `yaml:"intra_op_threads"`
	InterOpThreads int `yaml:"inter_op_threads"`
}

// DefaultConfig returns a configuration for a 640x640 YOLOv8 COCO export.
//
// Returns:
//   - Config: Defaults with ModelPath left for the caller to set.
func DefaultConfig() Config {
	return Config{
		InputShape:     image.Point{X: 640, Y: 640},
		NMSThreshold:   0.7,
		NumCandidates:  8400,
		Classes:        YOLOClasses,
		IntraOpThreads: 4,
		InterOpThreads: 2,
	}
}
