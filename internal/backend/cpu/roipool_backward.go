package cpu

import (
	"github.com/born-ml/roipool/internal/parallel"
	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
)

// RoIPoolBackward computes the gradient w.r.t. the input of RoIPool.
//
// Algorithm: route each output gradient to the input element recorded in
// the index map.
//   - Cells holding roi.NoSource (empty bins) route nothing
//   - Every other cell adds its gradient at its recorded input offset
//   - Offsets hit by several cells (overlapping regions, or neighbouring
//     bins sharing a row/column) accumulate the sum
//
// Example (two regions whose bins both picked input offset 5):
//
//	grad[0,0,0,0] = 0.5, grad[1,1,0,0] = 2  ->  inputGrad[5] = 2.5
//
// Each index-map entry carries its cell's channel, so the kernel runs one
// work unit per channel: units write disjoint input elements and sum in
// a fixed order, keeping results deterministic without atomics.
func (cpu *CPUBackend) RoIPoolBackward(grad, indices *tensor.RawTensor, inputShape tensor.Shape) (*tensor.RawTensor, error) {
	const op = "roipool_backward"

	layout, err := roi.CheckBackwardShapes(op, grad.Shape(), indices.Shape(), inputShape)
	if err != nil {
		return nil, err
	}
	if !grad.DType().IsFloat() {
		return nil, roi.ShapeError(op, "unsupported gradient dtype %s", grad.DType())
	}
	if indices.DType() != tensor.Int32 {
		return nil, roi.ShapeError(op, "index map must be int32, got %s", indices.DType())
	}

	indexData := indices.AsInt32()
	if err := roi.CheckIndices(op, indexData, layout); err != nil {
		return nil, err
	}

	inputGrad, err := tensor.NewRaw(inputShape, grad.DType(), cpu.device)
	if err != nil {
		return nil, roi.ShapeError(op, "failed to create gradient tensor: %v", err)
	}

	switch grad.DType() {
	case tensor.Float32:
		roiPoolBackward(grad.AsFloat32(), inputGrad.AsFloat32(), indexData, layout.Channels, cpu.parallel)
	case tensor.Float64:
		roiPoolBackward(grad.AsFloat64(), inputGrad.AsFloat64(), indexData, layout.Channels, cpu.parallel)
	}

	return inputGrad, nil
}

// roiPoolBackward scatters grad into the zero-initialized inputGrad.
func roiPoolBackward[T float](grad, inputGrad []T, indices []int32, channels int, cfg parallel.Config) {
	cells := len(grad) / channels

	parallel.For(channels, func(c int) {
		for cell := 0; cell < cells; cell++ {
			k := cell*channels + c
			src := indices[k]
			if src == roi.NoSource {
				continue
			}
			inputGrad[src] += grad[k]
		}
	}, cfg)
}
