package serialization

import (
	"errors"
	"testing"

	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatTensorRaw(t *testing.T) {
	raw, err := FloatTensor{Shape: []int{1, 2, 2, 1}, Data: []float32{1, 2, 3, 4}}.Raw()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, raw.AsFloat32())

	_, err = FloatTensor{Shape: []int{1, 2, 2, 1}, Data: []float32{1}}.Raw()
	assert.Error(t, err)

	_, err = FloatTensor{Shape: []int{-1}, Data: nil}.Raw()
	assert.Error(t, err)
}

func TestFloatTensorOfNarrowsFloat64(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat64(), []float64{0.5, -2})

	ft, err := FloatTensorOf(raw)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -2}, ft.Data)
	assert.Equal(t, []int{2}, ft.Shape)
}

func TestIndexTensorRoundTrip(t *testing.T) {
	it := IndexTensor{Shape: []int{1, 1, 2, 1}, Data: []int32{3, roi.NoSource}}
	raw, err := it.Raw()
	require.NoError(t, err)

	back, err := IndexTensorOf(raw)
	require.NoError(t, err)
	assert.Equal(t, it, back)
}

func TestRegionTensor(t *testing.T) {
	raw, err := RegionTensor([][]int32{{0, 0, 0, 3, 1}, {0, 2, 2, 3, 3}})
	require.NoError(t, err)
	assert.True(t, raw.Shape().Equal(tensor.Shape{2, 5}))
	assert.Equal(t, []int32{0, 0, 0, 3, 1, 0, 2, 2, 3, 3}, raw.AsInt32())

	empty, err := RegionTensor(nil)
	require.NoError(t, err)
	assert.True(t, empty.Shape().Equal(tensor.Shape{0, 5}))

	_, err = RegionTensor([][]int32{{0, 0, 0, 3, 1}, {0, 1, 1, 2}})
	assert.True(t, errors.Is(err, roi.ErrInvalidRegion))
	assert.Contains(t, err.Error(), "region 1")
}
