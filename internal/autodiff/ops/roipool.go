package ops

import (
	"fmt"

	"github.com/born-ml/roipool/internal/tensor"
)

// RoIPoolOp records a region-of-interest pooling call for autodiff.
//
// Forward:
//
//	output[r,i,j,c] = max(input[b_r, h, w, c] for (h, w) in bin (i, j) of region r)
//
// Backward:
//   - Input gradient: each output gradient flows to the input element recorded
//     in the index map; empty bins route nothing
//   - Elements chosen by several cells accumulate the sum
//   - Regions are integer coordinates and receive no gradient
//
// Example (region covering a 2x2 map, 1x1 pool):
//
//	Input:  [[1, 2],  Output: [4]  Input Grad: [[0, 0],
//	         [3, 4]]                             [0, grad]]
//
// The index map is the only state shared between the two passes.
type RoIPoolOp struct {
	input   *tensor.RawTensor
	rois    *tensor.RawTensor
	output  *tensor.RawTensor
	indices *tensor.RawTensor
}

// NewRoIPoolOp creates a new RoIPool operation.
//
// The index map must come from the same forward call that produced output;
// without it the backward pass cannot route gradients.
func NewRoIPoolOp(input, rois, output, indices *tensor.RawTensor) *RoIPoolOp {
	return &RoIPoolOp{
		input:   input,
		rois:    rois,
		output:  output,
		indices: indices,
	}
}

// Inputs returns the input tensors: features and regions.
func (op *RoIPoolOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.rois}
}

// Output returns the pooled output tensor.
func (op *RoIPoolOp) Output() *tensor.RawTensor {
	return op.output
}

// Indices returns the index map recorded by the forward pass.
func (op *RoIPoolOp) Indices() *tensor.RawTensor {
	return op.indices
}

// Backward computes the feature-map gradient for RoIPool.
//
// This is pure orchestration - delegates computation to backend.
func (op *RoIPoolOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) ([]*tensor.RawTensor, error) {
	if !outputGrad.Shape().Equal(op.output.Shape()) {
		return nil, fmt.Errorf("roipool op: output gradient shape %v != output shape %v", outputGrad.Shape(), op.output.Shape())
	}

	inputGrad, err := backend.RoIPoolBackward(outputGrad, op.indices, op.input.Shape())
	if err != nil {
		return nil, fmt.Errorf("roipool op: %w", err)
	}

	return []*tensor.RawTensor{inputGrad, nil}, nil
}
