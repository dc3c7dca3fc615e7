//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// RoIPool performs region-of-interest max pooling on the GPU.
//
// Semantics match the CPU kernel exactly: the host validates the call and
// quantizes every region with roi.Quantize, then one GPU thread reduces
// each output cell. Only float32 feature maps are supported.
func (b *Backend) RoIPool(input, rois *tensor.RawTensor, poolHeight, poolWidth int) (*tensor.RawTensor, *tensor.RawTensor, error) {
	const op = "roipool"

	if input.DType() != tensor.Float32 {
		return nil, nil, roi.ConfigError(op, "webgpu supports float32 features only, got %s", input.DType())
	}
	if rois.DType() != tensor.Int32 {
		return nil, nil, roi.RegionError(op, -1, "region tensor must be int32, got %s", rois.DType())
	}

	plan, err := roi.NewPlan(op, input.Shape(), rois.Shape(), rois.AsInt32(), poolHeight, poolWidth)
	if err != nil {
		return nil, nil, err
	}

	output, err := tensor.NewRaw(plan.OutputShape(), tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, nil, roi.ConfigError(op, "failed to create output: %v", err)
	}
	indices, err := tensor.NewRaw(plan.OutputShape(), tensor.Int32, tensor.WebGPU)
	if err != nil {
		return nil, nil, roi.ConfigError(op, "failed to create index map: %v", err)
	}

	cells := plan.NumCells()
	if cells == 0 {
		return output, indices, nil
	}

	rowSpans, colSpans, batches := encodeGrids(plan)

	bufferInput := b.createBuffer(input.Data(), wgpu.BufferUsageStorage)
	defer bufferInput.Release()
	bufferRows := b.createBuffer(rowSpans, wgpu.BufferUsageStorage)
	defer bufferRows.Release()
	bufferCols := b.createBuffer(colSpans, wgpu.BufferUsageStorage)
	defer bufferCols.Release()
	bufferBatches := b.createBuffer(batches, wgpu.BufferUsageStorage)
	defer bufferBatches.Release()

	outputSize := uint64(output.ByteSize()) //nolint:gosec // G115: ByteSize is non-negative
	indexSize := uint64(indices.ByteSize()) //nolint:gosec // G115: ByteSize is non-negative
	bufferOutput := b.createStorageBuffer(outputSize)
	defer bufferOutput.Release()
	bufferIndices := b.createStorageBuffer(indexSize)
	defer bufferIndices.Release()

	l := plan.Layout
	params := make([]byte, 32)
	putUint32s(params, cells, l.Channels, poolHeight, poolWidth, l.Height, l.Width)
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	b.dispatch("roipool", roiPoolShader, cells, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, uint64(len(input.Data()))),
		wgpu.BufferBindingEntry(1, bufferRows, 0, uint64(len(rowSpans))),
		wgpu.BufferBindingEntry(2, bufferCols, 0, uint64(len(colSpans))),
		wgpu.BufferBindingEntry(3, bufferBatches, 0, uint64(len(batches))),
		wgpu.BufferBindingEntry(4, bufferOutput, 0, outputSize),
		wgpu.BufferBindingEntry(5, bufferIndices, 0, indexSize),
		wgpu.BufferBindingEntry(6, bufferParams, 0, 32),
	})

	outData, err := b.readBuffer(bufferOutput, outputSize)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: webgpu readback: %w", op, err)
	}
	idxData, err := b.readBuffer(bufferIndices, indexSize)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: webgpu readback: %w", op, err)
	}
	copy(output.Data(), outData)
	copy(indices.Data(), idxData)

	return output, indices, nil
}

// RoIPoolBackward routes output gradients to the recorded input elements
// on the GPU. Validation is identical to the CPU kernel.
func (b *Backend) RoIPoolBackward(grad, indices *tensor.RawTensor, inputShape tensor.Shape) (*tensor.RawTensor, error) {
	const op = "roipool_backward"

	layout, err := roi.CheckBackwardShapes(op, grad.Shape(), indices.Shape(), inputShape)
	if err != nil {
		return nil, err
	}
	if grad.DType() != tensor.Float32 {
		return nil, roi.ShapeError(op, "webgpu supports float32 gradients only, got %s", grad.DType())
	}
	if indices.DType() != tensor.Int32 {
		return nil, roi.ShapeError(op, "index map must be int32, got %s", indices.DType())
	}
	if err := roi.CheckIndices(op, indices.AsInt32(), layout); err != nil {
		return nil, err
	}

	inputGrad, err := tensor.NewRaw(inputShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, roi.ShapeError(op, "failed to create gradient tensor: %v", err)
	}
	if grad.NumElements() == 0 {
		return inputGrad, nil
	}

	bufferGrad := b.createBuffer(grad.Data(), wgpu.BufferUsageStorage)
	defer bufferGrad.Release()
	bufferIndices := b.createBuffer(indices.Data(), wgpu.BufferUsageStorage)
	defer bufferIndices.Release()

	resultSize := uint64(inputGrad.ByteSize()) //nolint:gosec // G115: ByteSize is non-negative
	bufferResult := b.createStorageBuffer(resultSize)
	defer bufferResult.Release()

	params := make([]byte, 16)
	putUint32s(params, grad.NumElements()/layout.Channels, layout.Channels)
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	b.dispatch("roipool_backward", roiPoolBackwardShader, layout.Channels, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferGrad, 0, uint64(len(grad.Data()))),
		wgpu.BufferBindingEntry(1, bufferIndices, 0, uint64(len(indices.Data()))),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})

	data, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, fmt.Errorf("%s: webgpu readback: %w", op, err)
	}
	copy(inputGrad.Data(), data)

	return inputGrad, nil
}

// encodeGrids flattens the plan's bin spans for upload: row spans as
// [regions*pool_h] (start, end) pairs, column spans as [regions*pool_w]
// pairs and one batch index per region.
func encodeGrids(plan *roi.Plan) (rowSpans, colSpans, batches []byte) {
	rowSpans = make([]byte, 0, len(plan.Regions)*plan.PoolHeight*8)
	colSpans = make([]byte, 0, len(plan.Regions)*plan.PoolWidth*8)
	batches = make([]byte, 0, len(plan.Regions)*4)

	for r, grid := range plan.Grids {
		for i := 0; i < plan.PoolHeight; i++ {
			bin := grid.Bin(i, 0)
			rowSpans = appendInt32s(rowSpans, bin.RowStart, bin.RowEnd)
		}
		for j := 0; j < plan.PoolWidth; j++ {
			bin := grid.Bin(0, j)
			colSpans = appendInt32s(colSpans, bin.ColStart, bin.ColEnd)
		}
		batches = appendInt32s(batches, plan.Regions[r].Batch)
	}
	return rowSpans, colSpans, batches
}

func appendInt32s(buf []byte, values ...int) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(v))) //nolint:gosec // G115: values fit in int32
	}
	return buf
}

func putUint32s(buf []byte, values ...int) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v)) //nolint:gosec // G115: values are non-negative
	}
}
