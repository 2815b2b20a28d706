// Package onnx serves a classifier exported to an ONNX graph, such as a
// scikit-learn estimator converted with skl2onnx.
package onnx

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"diabetes-api/internal/model"
)

// ortEnv guards the process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// Options describes the graph's tensor names and expected input width.
type Options struct {
	LibraryPath string
	Input       string
	Output      string
	NumFeatures int
}

// Classifier runs a single-row inference through an ONNX session.
type Classifier struct {
	session *ort.DynamicAdvancedSession
	n       int
}

var _ model.Classifier = (*Classifier)(nil)

// New loads the graph at modelPath and validates its declared input and output tensors.
func New(modelPath string, opts Options) (*Classifier, error) {
	if opts.Input == "" {
		opts.Input = "float_input"
	}
	if opts.Output == "" {
		opts.Output = "label"
	}
	if err := initORT(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	n, err := inputWidth(inputs, opts.Input, opts.NumFeatures)
	if err != nil {
		return nil, err
	}
	if !hasTensor(outputs, opts.Output) {
		return nil, fmt.Errorf("onnx: model missing output %q", opts.Output)
	}

	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer so.Destroy()
	so.SetIntraOpNumThreads(1)
	so.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{opts.Input}, []string{opts.Output}, so)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}
	return &Classifier{session: session, n: n}, nil
}

// inputWidth returns the feature dimension of the named [batch, features] input.
// A dynamic width falls back to the declared count.
func inputWidth(inputs []ort.InputOutputInfo, name string, declared int) (int, error) {
	for _, in := range inputs {
		if in.Name != name {
			continue
		}
		if len(in.Dimensions) != 2 {
			return 0, fmt.Errorf("onnx: expected 2D input %q, got %v", name, in.Dimensions)
		}
		width := int(in.Dimensions[1])
		if width <= 0 {
			if declared <= 0 {
				return 0, errors.New("onnx: input width is dynamic and n_features_in is not set")
			}
			return declared, nil
		}
		if declared > 0 && declared != width {
			return 0, fmt.Errorf("onnx: input width %d does not match n_features_in %d", width, declared)
		}
		return width, nil
	}
	return 0, fmt.Errorf("onnx: model missing input %q", name)
}

func hasTensor(infos []ort.InputOutputInfo, name string) bool {
	for _, info := range infos {
		if info.Name == name {
			return true
		}
	}
	return false
}

func (c *Classifier) NumFeatures() int { return c.n }

func (c *Classifier) Predict(x model.FeatureVector) (model.Label, error) {
	if len(x) != c.n {
		return 0, fmt.Errorf("%w: got %d, want %d", model.ErrShapeMismatch, len(x), c.n)
	}
	row := make([]float32, len(x))
	for i, v := range x {
		row[i] = float32(v)
	}
	in, err := ort.NewTensor(ort.NewShape(1, int64(c.n)), row)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	// nil outputs are allocated by the runtime
	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{in}, outputs); err != nil {
		return 0, fmt.Errorf("onnx: inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	labels, ok := outputs[0].(*ort.Tensor[int64])
	if !ok {
		return 0, fmt.Errorf("onnx: unexpected label tensor type %T", outputs[0])
	}
	data := labels.GetData()
	if len(data) != 1 {
		return 0, fmt.Errorf("onnx: expected one label, got %d", len(data))
	}
	return model.Label(data[0]), nil
}

// Close releases the session.
func (c *Classifier) Close() error {
	return c.session.Destroy()
}
