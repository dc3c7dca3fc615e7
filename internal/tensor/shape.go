package tensor

import (
	"fmt"
	"math"
)

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that no dimension is negative and that the element count fits in an int.
//
// Zero-sized dimensions are allowed: an empty region list pools into a
// [0, Ph, Pw, C] output.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	return s.checkElements(maxElements)
}

// maxElements bounds the element count so byte sizes of the widest dtype fit in an int.
const maxElements = math.MaxInt / 8

// checkElements multiplies dimension by dimension and rejects a product above limit.
func (s Shape) checkElements(limit int) error {
	for _, dim := range s {
		if dim == 0 {
			return nil
		}
	}
	n := 1
	for _, dim := range s {
		if n > limit/dim {
			return fmt.Errorf("shape %v overflows element count (limit %d)", []int(s), limit)
		}
		n *= dim
	}
	return nil
}

// Positive reports whether every dimension is strictly greater than zero.
func (s Shape) Positive() bool {
	for _, dim := range s {
		if dim <= 0 {
			return false
		}
	}
	return true
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// String returns the shape in bracket form, e.g. "[1 4 4 1]".
func (s Shape) String() string {
	return fmt.Sprint([]int(s))
}
