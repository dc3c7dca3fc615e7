package autodiff_test

import (
	"testing"

	"github.com/born-ml/roipool/internal/autodiff"
	"github.com/born-ml/roipool/internal/backend/cpu"
	"github.com/born-ml/roipool/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gradBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func referenceFeatures(t *testing.T, backend gradBackend) *tensor.Tensor[float32, gradBackend] {
	t.Helper()
	features, err := tensor.FromSlice([]float32{
		1, 2, 4, 4,
		3, 4, 1, 2,
		6, 2, 1, 7,
		1, 3, 2, 8,
	}, tensor.Shape{1, 4, 4, 1}, backend)
	require.NoError(t, err)
	return features
}

func regions(t *testing.T, backend gradBackend, data ...int32) *tensor.Tensor[int32, gradBackend] {
	t.Helper()
	rois, err := tensor.FromSlice(data, tensor.Shape{len(data) / 5, 5}, backend)
	require.NoError(t, err)
	return rois
}

func TestAutodiffBackend_Name(t *testing.T) {
	backend := autodiff.New(cpu.New())
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

// TestTape_Recording tests tape recording on/off.
func TestTape_Recording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	assert.False(t, tape.IsRecording())

	features := referenceFeatures(t, backend)
	rois := regions(t, backend, 0, 0, 0, 3, 3)

	// Not recording: nothing lands on the tape.
	_, _, err := backend.RoIPool(features.Raw(), rois.Raw(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, tape.NumOps())

	tape.StartRecording()
	assert.True(t, tape.IsRecording())
	_, _, err = backend.RoIPool(features.Raw(), rois.Raw(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, tape.NumOps())

	tape.StopRecording()
	assert.False(t, tape.IsRecording())

	tape.Clear()
	assert.Equal(t, 0, tape.NumOps())
}

// TestTape_FailedForwardIsNotRecorded tests that rejected calls leave the tape untouched.
func TestTape_FailedForwardIsNotRecorded(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	features := referenceFeatures(t, backend)
	rois := regions(t, backend, 3, 0, 0, 1, 1)

	_, _, err := backend.RoIPool(features.Raw(), rois.Raw(), 2, 2)
	require.Error(t, err)
	assert.Equal(t, 0, backend.Tape().NumOps())
}

// TestBackward_SingleCall tests gradients of sum(pooled) for the reference case.
func TestBackward_SingleCall(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	features := referenceFeatures(t, backend)
	rois := regions(t, backend,
		0, 0, 0, 3, 1,
		0, 2, 2, 3, 3,
		0, 1, 0, 3, 2,
	)

	out, _, err := backend.RoIPool(features.Raw(), rois.Raw(), 2, 2)
	require.NoError(t, err)
	pooled := tensor.New[float32](out, backend)

	grads, err := autodiff.Backward(pooled, backend)
	require.NoError(t, err)

	grad, ok := grads[features.Raw()]
	require.True(t, ok)
	assert.Equal(t, []float32{
		0, 0, 0, 0,
		1, 2, 0, 0,
		3, 0, 1, 1,
		0, 2, 1, 1,
	}, grad.AsFloat32())

	_, hasRegionGrad := grads[rois.Raw()]
	assert.False(t, hasRegionGrad)
	assert.True(t, backend.Tape().IsRecording(), "recording state is restored")
}

// TestTape_AccumulatesAcrossCalls tests that two pooling calls over one
// feature map sum their gradients.
func TestTape_AccumulatesAcrossCalls(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	features := referenceFeatures(t, backend)
	whole := regions(t, backend, 0, 0, 0, 3, 3)
	corner := regions(t, backend, 0, 2, 2, 3, 3)

	outA, _, err := backend.RoIPool(features.Raw(), whole.Raw(), 1, 1)
	require.NoError(t, err)
	outB, _, err := backend.RoIPool(features.Raw(), corner.Raw(), 1, 1)
	require.NoError(t, err)

	seedA := tensor.Full[float32](outA.Shape(), 2, backend)
	seedB := tensor.Full[float32](outB.Shape(), 0.5, backend)

	grads, err := tape.Backward(map[*tensor.RawTensor]*tensor.RawTensor{
		outA: seedA.Raw(),
		outB: seedB.Raw(),
	}, backend)
	require.NoError(t, err)

	// Both calls pick the 8 at offset 15.
	grad := grads[features.Raw()].AsFloat32()
	assert.InDelta(t, 2.5, grad[15], 1e-6)
	for i, g := range grad[:15] {
		assert.Zero(t, g, "element %d", i)
	}
}

func TestBackward_EmptyTape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	features := referenceFeatures(t, backend)

	_, err := autodiff.Backward(features, backend)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no operations recorded")
}
