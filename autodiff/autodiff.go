// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff records RoI pooling calls on a gradient tape and replays
// them in reverse to compute feature-map gradients.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	layer, _ := nn.NewRoIPool(roi.Config{PoolHeight: 7, PoolWidth: 7}, backend)
//	pooled, err := layer.Forward(features, rois)
//
//	grads, err := autodiff.Backward(pooled.Output, backend)
//	featureGrad := grads[features.Raw()]
package autodiff

import (
	"github.com/born-ml/roipool/internal/autodiff"
	"github.com/born-ml/roipool/internal/tensor"
)

// Backend is the tape-recording wrapper around another backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New wraps backend with a gradient tape.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for reverse-mode differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates an empty tape that is not recording.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable is implemented by backends that own a gradient tape.
type BackwardCapable = autodiff.BackwardCapable

// Backward seeds t with ones and returns the gradient of every recorded input.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	return autodiff.Backward(t, backend)
}
