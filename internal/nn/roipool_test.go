package nn

import (
	"errors"
	"testing"

	"github.com/born-ml/roipool/internal/autodiff"
	"github.com/born-ml/roipool/internal/backend/cpu"
	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceTensors[B tensor.Backend](t *testing.T, backend B) (*tensor.Tensor[float32, B], *tensor.Tensor[int32, B]) {
	t.Helper()
	features, err := tensor.FromSlice([]float32{
		1, 2, 4, 4,
		3, 4, 1, 2,
		6, 2, 1, 7,
		1, 3, 2, 8,
	}, tensor.Shape{1, 4, 4, 1}, backend)
	require.NoError(t, err)

	rois, err := tensor.FromSlice([]int32{
		0, 0, 0, 3, 1,
		0, 2, 2, 3, 3,
		0, 1, 0, 3, 2,
	}, tensor.Shape{3, 5}, backend)
	require.NoError(t, err)

	return features, rois
}

// TestRoIPool_Creation tests RoIPool layer creation.
func TestRoIPool_Creation(t *testing.T) {
	backend := cpu.New()

	pool, err := NewRoIPool(roi.Config{PoolHeight: 3, PoolWidth: 2}, backend)
	require.NoError(t, err)

	assert.Equal(t, 3, pool.PoolHeight())
	assert.Equal(t, 2, pool.PoolWidth())
	assert.Empty(t, pool.Parameters())
	assert.Equal(t, "RoIPool(pool_height=3, pool_width=2)", pool.String())
	assert.Equal(t, tensor.Shape{5, 3, 2, 64}, pool.ComputeOutputShape(5, 64))
}

func TestRoIPool_InvalidConfig(t *testing.T) {
	backend := cpu.New()

	for _, cfg := range []roi.Config{
		{PoolHeight: 0, PoolWidth: 2},
		{PoolHeight: 2, PoolWidth: -1},
	} {
		pool, err := NewRoIPool(cfg, backend)
		assert.Nil(t, pool)
		assert.True(t, errors.Is(err, roi.ErrInvalidConfiguration), "config %+v", cfg)
	}
}

// TestRoIPool_Forward tests the reference case through the layer.
func TestRoIPool_Forward(t *testing.T) {
	backend := cpu.New()
	features, rois := referenceTensors(t, backend)

	pool, err := NewRoIPool(roi.Config{PoolHeight: 2, PoolWidth: 2, ReturnIndices: true}, backend)
	require.NoError(t, err)

	pooled, err := pool.Forward(features, rois)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{3, 2, 2, 1}, pooled.Output.Shape())
	assert.Equal(t, []float32{3, 4, 6, 3, 1, 7, 2, 8, 6, 4, 6, 3}, pooled.Output.Data())
	require.NotNil(t, pooled.Indices)
	assert.Equal(t, []int32{4, 5, 8, 13, 10, 11, 14, 15, 8, 5, 8, 13}, pooled.Indices.Data())
	assert.Equal(t, float32(8), pooled.Output.At(1, 1, 1, 0))
}

// TestRoIPool_IndicesHidden tests that the index map is withheld but still
// drives Backward when ReturnIndices is false.
func TestRoIPool_IndicesHidden(t *testing.T) {
	backend := cpu.New()
	features, rois := referenceTensors(t, backend)

	pool, err := NewRoIPool(roi.DefaultConfig(), backend)
	require.NoError(t, err)

	pooled, err := pool.Forward(features, rois)
	require.NoError(t, err)
	assert.Nil(t, pooled.Indices)
	require.NotNil(t, pooled.Op)

	grad := tensor.Full[float32](pooled.Output.Shape(), 1, backend)
	inputGrad, err := pooled.Backward(grad)
	require.NoError(t, err)

	assert.Equal(t, []float32{
		0, 0, 0, 0,
		1, 2, 0, 0,
		3, 0, 1, 1,
		0, 2, 1, 1,
	}, inputGrad.Data())
}

// TestRoIPool_StatelessBackward tests Backward from a returned index map.
func TestRoIPool_StatelessBackward(t *testing.T) {
	backend := cpu.New()
	features, rois := referenceTensors(t, backend)

	pool, err := NewRoIPool(roi.Config{PoolHeight: 2, PoolWidth: 2, ReturnIndices: true}, backend)
	require.NoError(t, err)

	pooled, err := pool.Forward(features, rois)
	require.NoError(t, err)

	grad := tensor.Full[float32](pooled.Output.Shape(), 0.5, backend)
	inputGrad, err := pool.Backward(grad, pooled.Indices, features.Shape())
	require.NoError(t, err)

	assert.Equal(t, features.Shape(), inputGrad.Shape())
	assert.InDelta(t, 1.5, inputGrad.At(0, 2, 0, 0), 1e-6)

	_, err = pool.Backward(grad, pooled.Indices, tensor.Shape{1, 4, 4, 2})
	assert.True(t, errors.Is(err, roi.ErrShapeMismatch))
}

func TestRoIPool_ForwardErrors(t *testing.T) {
	backend := cpu.New()
	features, _ := referenceTensors(t, backend)

	pool, err := NewRoIPool(roi.DefaultConfig(), backend)
	require.NoError(t, err)

	badBatch, err := tensor.FromSlice([]int32{2, 0, 0, 1, 1}, tensor.Shape{1, 5}, backend)
	require.NoError(t, err)

	pooled, err := pool.Forward(features, badBatch)
	assert.Nil(t, pooled)
	assert.True(t, errors.Is(err, roi.ErrInvalidRegion))
}

// TestRoIPool_MockBackend tests that the layer forwards its pool size.
func TestRoIPool_MockBackend(t *testing.T) {
	backend := tensor.NewMockBackend()
	features := tensor.Zeros[float32](tensor.Shape{2, 8, 8, 3}, backend)
	rois := tensor.Zeros[int32](tensor.Shape{4, 5}, backend)

	pool, err := NewRoIPool(roi.Config{PoolHeight: 7, PoolWidth: 5}, backend)
	require.NoError(t, err)

	pooled, err := pool.Forward(features, rois)
	require.NoError(t, err)

	assert.Equal(t, 1, backend.PoolCalls)
	assert.Equal(t, [2]int{7, 5}, backend.LastPool)
	assert.Equal(t, tensor.Shape{4, 7, 5, 3}, pooled.Output.Shape())
}

// TestRoIPool_WithAutodiff tests that the layer records onto the tape.
func TestRoIPool_WithAutodiff(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()
	features, rois := referenceTensors(t, backend)

	pool, err := NewRoIPool(roi.DefaultConfig(), backend)
	require.NoError(t, err)

	pooled, err := pool.Forward(features, rois)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.Tape().NumOps())

	grads, err := autodiff.Backward(pooled.Output, backend)
	require.NoError(t, err)
	assert.Equal(t, float32(3), grads[features.Raw()].AsFloat32()[8])
}
