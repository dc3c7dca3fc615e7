//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for RoI pooling.
//
// Region quantization runs on the host; the GPU receives per-bin row and
// column spans so both backends agree on every bin boundary. Only float32
// feature maps are supported.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	output, indices, err := gpu.RoIPool(features.Raw(), rois.Raw(), 7, 7)
package webgpu

import (
	internalwebgpu "github.com/born-ml/roipool/internal/backend/webgpu"
	"github.com/born-ml/roipool/tensor"
)

// Backend is the WebGPU implementation of the RoI pooling kernels.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New initializes a WebGPU device. Call Release when done.
//
// Returns an error if no compatible adapter is found.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether a WebGPU adapter can be created.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
