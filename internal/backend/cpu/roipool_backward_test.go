package cpu

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/born-ml/roipool/internal/parallel"
	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ones(t *testing.T, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	for i := range raw.AsFloat32() {
		raw.AsFloat32()[i] = 1
	}
	return raw
}

// TestRoIPoolBackward_Accumulates tests gradient routing for the reference
// case, where the first and third regions pick several shared maxima.
func TestRoIPoolBackward_Accumulates(t *testing.T) {
	backend := New()
	inputShape := tensor.Shape{1, 4, 4, 1}

	input := float32Raw(t, inputShape, referenceFeatures)
	output, indices, err := backend.RoIPool(input, regionsRaw(t, referenceRegions), 2, 2)
	require.NoError(t, err)

	inputGrad, err := backend.RoIPoolBackward(ones(t, output.Shape()), indices, inputShape)
	require.NoError(t, err)

	assert.True(t, inputGrad.Shape().Equal(inputShape))
	expected := []float32{
		0, 0, 0, 0,
		1, 2, 0, 0,
		3, 0, 1, 1,
		0, 2, 1, 1,
	}
	assert.Equal(t, expected, inputGrad.AsFloat32())
}

// TestRoIPoolBackward_RoundTrip tests that an all-ones gradient over
// non-overlapping regions marks exactly one maximum per bin and channel.
func TestRoIPoolBackward_RoundTrip(t *testing.T) {
	backend := New()
	shape := tensor.Shape{2, 8, 8, 3}
	input := randomFeatures(t, shape, 5)

	// Quadrants of batch 0 and the full map of batch 1.
	rois := regionsRaw(t, []int32{
		0, 0, 0, 3, 3,
		0, 4, 4, 7, 7,
		1, 0, 0, 7, 7,
	})
	ph, pw := 2, 2
	output, indices, err := backend.RoIPool(input, rois, ph, pw)
	require.NoError(t, err)

	inputGrad, err := backend.RoIPoolBackward(ones(t, output.Shape()), indices, shape)
	require.NoError(t, err)

	nonZero := 0
	var total float32
	for i, g := range inputGrad.AsFloat32() {
		if g != 0 {
			nonZero++
			assert.Equal(t, float32(1), g, "element %d", i)
		}
		total += g
	}
	assert.Equal(t, 3*ph*pw*shape[3], nonZero)
	assert.Equal(t, float32(3*ph*pw*shape[3]), total)

	// Each marked element is the value the forward pass reported.
	out := output.AsFloat32()
	for k, idx := range indices.AsInt32() {
		assert.Equal(t, out[k], input.AsFloat32()[idx])
		assert.Equal(t, float32(1), inputGrad.AsFloat32()[idx])
	}
}

// TestRoIPoolBackward_SkipsEmptyBins tests that sentinel cells route nothing.
func TestRoIPoolBackward_SkipsEmptyBins(t *testing.T) {
	backend := New()
	inputShape := tensor.Shape{1, 2, 2, 1}

	grad := float32Raw(t, tensor.Shape{1, 2, 2, 1}, []float32{5, 7, 11, 13})
	indices := int32Raw(t, tensor.Shape{1, 2, 2, 1}, []int32{roi.NoSource, 3, roi.NoSource, 3})

	inputGrad, err := backend.RoIPoolBackward(grad, indices, inputShape)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 20}, inputGrad.AsFloat32())
}

func TestRoIPoolBackward_NoRegions(t *testing.T) {
	backend := New()
	inputShape := tensor.Shape{1, 3, 3, 2}

	grad := float32Raw(t, tensor.Shape{0, 2, 2, 2}, nil)
	indices := int32Raw(t, tensor.Shape{0, 2, 2, 2}, nil)

	inputGrad, err := backend.RoIPoolBackward(grad, indices, inputShape)
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 18), inputGrad.AsFloat32())
}

func TestRoIPoolBackward_Float64(t *testing.T) {
	backend := New()

	grad, err := tensor.NewRaw(tensor.Shape{1, 1, 2, 1}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(grad.AsFloat64(), []float64{0.25, 0.5})
	indices := int32Raw(t, tensor.Shape{1, 1, 2, 1}, []int32{1, 1})

	inputGrad, err := backend.RoIPoolBackward(grad, indices, tensor.Shape{1, 1, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, tensor.Float64, inputGrad.DType())
	assert.Equal(t, []float64{0, 0.75}, inputGrad.AsFloat64())
}

// TestRoIPoolBackward_Deterministic tests identical sums across parallel
// configurations with heavily overlapping regions.
func TestRoIPoolBackward_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(17)) //nolint:gosec // deterministic test data
	shape := tensor.Shape{1, 10, 10, 6}
	input := randomFeatures(t, shape, 23)
	rois := regionsRaw(t, randomRegions(rng, 40, 1, 10, 10, 2, 2))

	seq := NewWithConfig(parallel.Sequential())
	output, indices, err := seq.RoIPool(input, rois, 3, 3)
	require.NoError(t, err)

	grad := randomFeatures(t, output.Shape(), 29)
	want, err := seq.RoIPoolBackward(grad, indices, shape)
	require.NoError(t, err)

	par := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 6, MinChunkSize: 1})
	for run := 0; run < 3; run++ {
		got, err := par.RoIPoolBackward(grad, indices, shape)
		require.NoError(t, err)
		assert.Equal(t, want.Data(), got.Data(), "run %d", run)
	}
}

func TestRoIPoolBackward_Errors(t *testing.T) {
	backend := New()
	inputShape := tensor.Shape{1, 4, 4, 2}
	cellShape := tensor.Shape{1, 2, 2, 2}

	tests := []struct {
		name       string
		grad       *tensor.RawTensor
		indices    *tensor.RawTensor
		inputShape tensor.Shape
		match      string
	}{
		{
			name:       "grad and index shapes differ",
			grad:       ones(t, cellShape),
			indices:    int32Raw(t, tensor.Shape{1, 2, 1, 2}, make([]int32, 4)),
			inputShape: inputShape,
			match:      "does not match",
		},
		{
			name:       "channel count differs from input",
			grad:       ones(t, tensor.Shape{1, 2, 2, 3}),
			indices:    int32Raw(t, tensor.Shape{1, 2, 2, 3}, make([]int32, 12)),
			inputShape: inputShape,
			match:      "channels",
		},
		{
			name:       "3D gradient",
			grad:       ones(t, tensor.Shape{2, 2, 2}),
			indices:    int32Raw(t, tensor.Shape{2, 2, 2}, make([]int32, 8)),
			inputShape: inputShape,
			match:      "4D gradient",
		},
		{
			name:       "invalid input shape",
			grad:       ones(t, cellShape),
			indices:    int32Raw(t, cellShape, make([]int32, 8)),
			inputShape: tensor.Shape{1, 0, 4, 2},
			match:      "input shape",
		},
		{
			name:       "index past the input",
			grad:       ones(t, cellShape),
			indices:    int32Raw(t, cellShape, []int32{0, 1, 2, 3, 4, 5, 6, 33}),
			inputShape: inputShape,
			match:      "outside input",
		},
		{
			name:       "index below the sentinel",
			grad:       ones(t, cellShape),
			indices:    int32Raw(t, cellShape, []int32{-2, 1, 2, 3, 4, 5, 6, 7}),
			inputShape: inputShape,
			match:      "outside input",
		},
		{
			name:       "index on the wrong channel",
			grad:       ones(t, cellShape),
			indices:    int32Raw(t, cellShape, []int32{0, 1, 2, 3, 4, 5, 7, 6}),
			inputShape: inputShape,
			match:      "points at channel",
		},
		{
			name:       "float index map",
			grad:       ones(t, cellShape),
			indices:    ones(t, cellShape),
			inputShape: inputShape,
			match:      "int32",
		},
		{
			name:       "int32 gradient",
			grad:       int32Raw(t, cellShape, make([]int32, 8)),
			indices:    int32Raw(t, cellShape, make([]int32, 8)),
			inputShape: inputShape,
			match:      "dtype",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := backend.RoIPoolBackward(tt.grad, tt.indices, tt.inputShape)
			require.Error(t, err)
			assert.True(t, errors.Is(err, roi.ErrShapeMismatch), "got %v", err)
			assert.Contains(t, err.Error(), tt.match)

			var roiErr *roi.Error
			require.True(t, errors.As(err, &roiErr))
			assert.Equal(t, "roipool_backward", roiErr.Op)
		})
	}
}
