package cpu

import (
	"math/rand"
	"testing"

	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// referenceFeatures is the single-channel 4x4 map of the reference case.
var referenceFeatures = []float32{
	1, 2, 4, 4,
	3, 4, 1, 2,
	6, 2, 1, 7,
	1, 3, 2, 8,
}

// referenceRegions are the three regions of the reference case.
var referenceRegions = []int32{
	0, 0, 0, 3, 1,
	0, 2, 2, 3, 3,
	0, 1, 0, 3, 2,
}

func float32Raw(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), data)
	return raw
}

func int32Raw(t *testing.T, shape tensor.Shape, data []int32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsInt32(), data)
	return raw
}

func regionsRaw(t *testing.T, data []int32) *tensor.RawTensor {
	t.Helper()
	return int32Raw(t, tensor.Shape{len(data) / roi.RecordSize, roi.RecordSize}, data)
}

// randomFeatures fills an NHWC map with values drawn from a fixed seed.
func randomFeatures(t *testing.T, shape tensor.Shape, seed int64) *tensor.RawTensor {
	t.Helper()
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	for i := range raw.AsFloat32() {
		raw.AsFloat32()[i] = rng.Float32()*20 - 10
	}
	return raw
}

// randomRegions draws regions of at least minH x minW pixels inside an
// h x w map.
func randomRegions(rng *rand.Rand, n, batch, h, w, minH, minW int) []int32 {
	data := make([]int32, 0, n*roi.RecordSize)
	for i := 0; i < n; i++ {
		top := rng.Intn(h - minH + 1)
		left := rng.Intn(w - minW + 1)
		bottom := top + minH - 1 + rng.Intn(h-top-minH+1)
		right := left + minW - 1 + rng.Intn(w-left-minW+1)
		data = append(data,
			int32(rng.Intn(batch)), int32(top), int32(left), int32(bottom), int32(right)) //nolint:gosec // small test values
	}
	return data
}

// channelPlane copies channel c of batch entry b into a gonum matrix.
func channelPlane(input *tensor.RawTensor, b, c int) *mat.Dense {
	l := roi.LayoutOf(input.Shape())
	data := input.AsFloat32()
	plane := mat.NewDense(l.Height, l.Width, nil)
	for h := 0; h < l.Height; h++ {
		for w := 0; w < l.Width; w++ {
			plane.Set(h, w, float64(data[l.Encode(b, h, w, c)]))
		}
	}
	return plane
}
