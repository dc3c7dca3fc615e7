package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice(t *testing.T) {
	backend := NewMockBackend()

	x, err := FromSlice[float32]([]float32{1, 2, 3, 4, 5, 6}, Shape{1, 2, 3, 1}, backend)
	require.NoError(t, err)

	assert.Equal(t, Float32, x.DType())
	assert.Equal(t, float32(6), x.At(0, 1, 2, 0))
	assert.Equal(t, float32(2), x.At(0, 0, 1, 0))

	x.Set(9, 0, 1, 0, 0)
	assert.Equal(t, float32(9), x.Data()[3])
}

func TestFromSliceLengthMismatch(t *testing.T) {
	_, err := FromSlice[int32]([]int32{0, 0, 0, 3}, Shape{1, 5}, NewMockBackend())
	assert.Error(t, err)
}

func TestTensorAtOutOfBounds(t *testing.T) {
	x := Zeros[float32](Shape{2, 2}, NewMockBackend())

	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })
}

func TestFull(t *testing.T) {
	x := Full[float64](Shape{2, 3}, 0.5, NewMockBackend())
	for _, v := range x.Data() {
		assert.Equal(t, 0.5, v)
	}
	assert.Equal(t, "Tensor[float64][2 3] on CPU", x.String())
}

func TestTensorClone(t *testing.T) {
	x := Full[int32](Shape{3}, 4, NewMockBackend())
	y := x.Clone()
	y.Data()[0] = 1

	assert.Equal(t, int32(4), x.Data()[0])
}
