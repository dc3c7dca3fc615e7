package serialization

import (
	"fmt"

	"github.com/born-ml/roipool/internal/tensor"
)

// Metadata keys written by this package.
const (
	MetaChecksum = "sha256"
	MetaFormat   = "format"
)

// DType is a SafeTensors dtype name.
type DType string

// Supported SafeTensors dtypes.
const (
	DTypeF32 DType = "F32"
	DTypeF64 DType = "F64"
	DTypeI32 DType = "I32"
)

// TensorInfo describes a tensor in the SafeTensors header.
type TensorInfo struct {
	DType       DType    `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end) relative to the data section
}

// TensorMeta is a flattened header entry used for validation.
type TensorMeta struct {
	Name   string
	Offset int64
	Size   int64
}

func toSafeTensors(dt tensor.DataType) (DType, error) {
	switch dt {
	case tensor.Float32:
		return DTypeF32, nil
	case tensor.Float64:
		return DTypeF64, nil
	case tensor.Int32:
		return DTypeI32, nil
	default:
		return "", fmt.Errorf("unsupported dtype %s", dt)
	}
}

func fromSafeTensors(dt DType) (tensor.DataType, error) {
	switch dt {
	case DTypeF32:
		return tensor.Float32, nil
	case DTypeF64:
		return tensor.Float64, nil
	case DTypeI32:
		return tensor.Int32, nil
	default:
		return 0, fmt.Errorf("unsupported dtype: %s", dt)
	}
}
