package cpu

import (
	"github.com/born-ml/roipool/internal/parallel"
	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
)

// float is the set of feature dtypes the CPU kernels accept.
type float interface {
	~float32 | ~float64
}

// RoIPool performs region-of-interest max pooling.
//
// Every region is partitioned into poolHeight x poolWidth adaptive bins
// (see roi.Quantize) and each bin is reduced to its maximum, per channel.
//
// Input shape:   [batch, height, width, channels] (NHWC)
// Regions shape: [num_regions, 5] int32 (batch_index, top, left, bottom, right)
// Output shape:  [num_regions, poolHeight, poolWidth, channels]
//
// The index map has the output's shape and records the flat input offset
// of each maximum. Ties go to the first element in row-major scan order
// within the bin; the first NaN in scan order wins the bin. Empty bins
// produce 0 with index roi.NoSource.
//
// Example (4x4 map, region (0, 1, 0, 3, 2), 2x2 pool):
//
//	Input: [[1,2,4,4],    Region rows 1-3, cols 0-2 -> bins rows {1,2},{2,3}
//	        [3,4,1,2],                                   cols {0,1},{1,2}
//	        [6,2,1,7],    Output: [[6,4],
//	        [1,3,2,8]]             [6,3]]
func (cpu *CPUBackend) RoIPool(input, rois *tensor.RawTensor, poolHeight, poolWidth int) (*tensor.RawTensor, *tensor.RawTensor, error) {
	const op = "roipool"

	if !input.DType().IsFloat() {
		return nil, nil, roi.ConfigError(op, "unsupported feature dtype %s", input.DType())
	}
	if rois.DType() != tensor.Int32 {
		return nil, nil, roi.RegionError(op, -1, "region tensor must be int32, got %s", rois.DType())
	}

	plan, err := roi.NewPlan(op, input.Shape(), rois.Shape(), rois.AsInt32(), poolHeight, poolWidth)
	if err != nil {
		return nil, nil, err
	}

	output, err := tensor.NewRaw(plan.OutputShape(), input.DType(), cpu.device)
	if err != nil {
		return nil, nil, roi.ConfigError(op, "failed to create output: %v", err)
	}
	indices, err := tensor.NewRaw(plan.OutputShape(), tensor.Int32, cpu.device)
	if err != nil {
		return nil, nil, roi.ConfigError(op, "failed to create index map: %v", err)
	}

	switch input.DType() {
	case tensor.Float32:
		roiPoolForward(input.AsFloat32(), output.AsFloat32(), indices.AsInt32(), plan, cpu.parallel)
	case tensor.Float64:
		roiPoolForward(input.AsFloat64(), output.AsFloat64(), indices.AsInt32(), plan, cpu.parallel)
	}

	return output, indices, nil
}

// roiPoolForward runs one work unit per (region, channel) pair. Units write
// disjoint output cells, so no synchronization is needed.
func roiPoolForward[T float](
	input, output []T,
	indices []int32,
	plan *roi.Plan,
	cfg parallel.Config,
) {
	layout := plan.Layout
	C := layout.Channels

	parallel.ForPairs(len(plan.Regions), C, func(r, c int) {
		grid := plan.Grids[r]
		b := plan.Regions[r].Batch
		ph, pw := grid.PoolHeight(), grid.PoolWidth()
		regionOffset := r * ph * pw * C

		for i := 0; i < ph; i++ {
			for j := 0; j < pw; j++ {
				outIdx := regionOffset + (i*pw+j)*C + c

				bin := grid.Bin(i, j)
				if bin.Empty() {
					output[outIdx] = 0
					indices[outIdx] = roi.NoSource
					continue
				}

				output[outIdx], indices[outIdx] = binMax(input, bin, b, c, layout)
			}
		}
	}, cfg)
}

// binMax scans a non-empty bin of channel c in row-major order and returns
// the maximum with its flat input offset.
func binMax[T float](input []T, bin roi.Bin, b, c int, layout roi.Layout) (T, int32) {
	rowStride := layout.Width * layout.Channels

	best := int(layout.Encode(b, bin.RowStart, bin.ColStart, c))
	maxVal := input[best]

	for h := bin.RowStart; h < bin.RowEnd; h++ {
		// Pre-slice row: offset of (b, h, 0, c)
		rowStart := int(layout.Encode(b, h, 0, c))
		rowData := input[rowStart : rowStart+rowStride-c]

		for w := bin.ColStart; w < bin.ColEnd; w++ {
			val := rowData[w*layout.Channels]

			if val != val { // NaN
				return val, int32(rowStart + w*layout.Channels) //nolint:gosec // G115: bounded by CheckFeatureShape
			}
			if val > maxVal {
				maxVal = val
				best = rowStart + w*layout.Channels
			}
		}
	}

	return maxVal, int32(best) //nolint:gosec // G115: bounded by CheckFeatureShape
}
