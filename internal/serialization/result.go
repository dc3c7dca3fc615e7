package serialization

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
)

// Tensor names and metadata keys of a stored forward result.
const (
	TensorOutput  = "output"
	TensorIndices = "indices"

	MetaInputShape = "input_shape"
	MetaPoolHeight = "pool_height"
	MetaPoolWidth  = "pool_width"

	// ForwardFormat identifies files written by WriteForward.
	ForwardFormat = "roipool.forward/v1"
)

// ForwardResult is everything the backward pass needs from a forward call.
type ForwardResult struct {
	Output     *tensor.RawTensor
	Indices    *tensor.RawTensor
	InputShape tensor.Shape
	Config     roi.Config
}

// WriteForward writes r to a SafeTensors file at path.
func WriteForward(path string, r *ForwardResult) error {
	tensors, metadata, err := r.encode()
	if err != nil {
		return err
	}
	return WriteFile(path, tensors, metadata)
}

// ReadForward loads a forward result written by WriteForward.
func ReadForward(path string) (*ForwardResult, error) {
	file, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeForward(file)
}

func (r *ForwardResult) encode() (map[string]*tensor.RawTensor, map[string]string, error) {
	if r.Indices == nil || r.Indices.DType() != tensor.Int32 {
		return nil, nil, fmt.Errorf("forward result needs an int32 index map")
	}

	shapeJSON, err := json.Marshal([]int(r.InputShape))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode input shape: %w", err)
	}

	tensors := map[string]*tensor.RawTensor{TensorIndices: r.Indices}
	if r.Output != nil {
		tensors[TensorOutput] = r.Output
	}
	metadata := map[string]string{
		MetaFormat:     ForwardFormat,
		MetaInputShape: string(shapeJSON),
		MetaPoolHeight: strconv.Itoa(r.Config.PoolHeight),
		MetaPoolWidth:  strconv.Itoa(r.Config.PoolWidth),
	}
	return tensors, metadata, nil
}

// DecodeForward extracts a forward result from a loaded file.
// The pooled output is optional; the index map and input shape are required.
func DecodeForward(file *File) (*ForwardResult, error) {
	if format := file.Metadata[MetaFormat]; format != ForwardFormat {
		return nil, fmt.Errorf("not a forward result: format %q", format)
	}

	indices, err := file.Tensor(TensorIndices)
	if err != nil {
		return nil, err
	}

	var shape []int
	if err := json.Unmarshal([]byte(file.Metadata[MetaInputShape]), &shape); err != nil {
		return nil, fmt.Errorf("invalid %s metadata: %w", MetaInputShape, err)
	}

	cfg := roi.Config{ReturnIndices: true}
	if cfg.PoolHeight, err = strconv.Atoi(file.Metadata[MetaPoolHeight]); err != nil {
		return nil, fmt.Errorf("invalid %s metadata: %w", MetaPoolHeight, err)
	}
	if cfg.PoolWidth, err = strconv.Atoi(file.Metadata[MetaPoolWidth]); err != nil {
		return nil, fmt.Errorf("invalid %s metadata: %w", MetaPoolWidth, err)
	}

	return &ForwardResult{
		Output:     file.Tensors[TensorOutput],
		Indices:    indices,
		InputShape: tensor.Shape(shape),
		Config:     cfg,
	}, nil
}
