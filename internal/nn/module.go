// Package nn implements the RoI pooling layer on top of the tensor backends.
//
// This package provides:
//   - Module interface: Base interface for layers
//   - RoIPool: region-of-interest max pooling with an optional index map
//
// Layers hold static configuration only; every call is independent.
package nn

import (
	"github.com/born-ml/roipool/internal/tensor"
)

// Module is the base interface for neural network components.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., pooling).
	Parameters() []*tensor.RawTensor

	// String describes the module and its configuration.
	String() string
}
