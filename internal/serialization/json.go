package serialization

import (
	"fmt"

	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
)

// FloatTensor is the JSON form of a float32 tensor.
type FloatTensor struct {
	Shape []int     `json:"shape" yaml:"shape"`
	Data  []float32 `json:"data" yaml:"data"`
}

// IndexTensor is the JSON form of an int32 index map.
type IndexTensor struct {
	Shape []int   `json:"shape" yaml:"shape"`
	Data  []int32 `json:"data" yaml:"data"`
}

// Raw converts t to a CPU RawTensor.
func (t FloatTensor) Raw() (*tensor.RawTensor, error) {
	raw, err := newRaw(t.Shape, len(t.Data), tensor.Float32)
	if err != nil {
		return nil, err
	}
	copy(raw.AsFloat32(), t.Data)
	return raw, nil
}

// Raw converts t to a CPU RawTensor.
func (t IndexTensor) Raw() (*tensor.RawTensor, error) {
	raw, err := newRaw(t.Shape, len(t.Data), tensor.Int32)
	if err != nil {
		return nil, err
	}
	copy(raw.AsInt32(), t.Data)
	return raw, nil
}

func newRaw(shape []int, n int, dtype tensor.DataType) (*tensor.RawTensor, error) {
	s := tensor.Shape(shape)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.NumElements() != n {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", s, s.NumElements(), n)
	}
	return tensor.NewRaw(s, dtype, tensor.CPU)
}

// FloatTensorOf converts a float tensor to its JSON form.
// Float64 data is narrowed to float32.
func FloatTensorOf(raw *tensor.RawTensor) (FloatTensor, error) {
	t := FloatTensor{Shape: []int(raw.Shape().Clone())}
	switch raw.DType() {
	case tensor.Float32:
		t.Data = append([]float32{}, raw.AsFloat32()...)
	case tensor.Float64:
		src := raw.AsFloat64()
		t.Data = make([]float32, len(src))
		for i, v := range src {
			t.Data[i] = float32(v)
		}
	default:
		return FloatTensor{}, fmt.Errorf("expected a float tensor, got %s", raw.DType())
	}
	return t, nil
}

// IndexTensorOf converts an int32 index map to its JSON form.
func IndexTensorOf(raw *tensor.RawTensor) (IndexTensor, error) {
	if raw.DType() != tensor.Int32 {
		return IndexTensor{}, fmt.Errorf("expected an int32 tensor, got %s", raw.DType())
	}
	return IndexTensor{
		Shape: []int(raw.Shape().Clone()),
		Data:  append([]int32{}, raw.AsInt32()...),
	}, nil
}

// RegionTensor packs region records into an [N, 5] int32 tensor.
// Every record must hold exactly five values.
func RegionTensor(records [][]int32) (*tensor.RawTensor, error) {
	flat := make([]int32, 0, len(records)*roi.RecordSize)
	for i, rec := range records {
		if len(rec) != roi.RecordSize {
			return nil, roi.RegionError("decode_regions", i, "record has %d values, want %d", len(rec), roi.RecordSize)
		}
		flat = append(flat, rec...)
	}

	raw, err := tensor.NewRaw(tensor.Shape{len(records), roi.RecordSize}, tensor.Int32, tensor.CPU)
	if err != nil {
		return nil, err
	}
	copy(raw.AsInt32(), flat)
	return raw, nil
}
