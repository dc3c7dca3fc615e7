// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package roi is the public entry point of the RoI max-pooling operator.
//
// Each region is split into a PoolHeight x PoolWidth grid of adaptive bins
// and every bin is reduced to its per-channel maximum. The forward pass also
// produces an index map holding, for every output cell, the flat NHWC
// offset of the feature that won the bin, or NoSource for empty bins.
// The backward pass routes an output gradient back through that map.
//
// Example:
//
//	backend := cpu.New()
//	out, err := roi.Forward(backend, features, rois, roi.Config{PoolHeight: 2, PoolWidth: 2, ReturnIndices: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	grad, err := roi.Backward(backend, ones, out.Indices, features.Shape())
package roi

import (
	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/tensor"
)

// Config is the static configuration of the operator.
type Config = roi.Config

// Region is one decoded region record with inclusive bounds.
type Region = roi.Region

// Layout describes an NHWC feature map for index-map encoding.
type Layout = roi.Layout

// Error describes a rejected call. It unwraps to one of the Err* kinds.
type Error = roi.Error

// Error kinds, matched with errors.Is.
var (
	ErrInvalidConfiguration = roi.ErrInvalidConfiguration
	ErrInvalidRegion        = roi.ErrInvalidRegion
	ErrShapeMismatch        = roi.ErrShapeMismatch
)

// NoSource marks index-map cells of empty bins.
const NoSource = roi.NoSource

// RecordSize is the number of int32 values in a region record.
const RecordSize = roi.RecordSize

// DefaultConfig returns a 2x2 pool that discards the index map.
func DefaultConfig() Config {
	return roi.DefaultConfig()
}

// LayoutOf returns the layout of an [N, H, W, C] shape.
func LayoutOf(shape tensor.Shape) Layout {
	return roi.LayoutOf(shape)
}

// Result is the outcome of a forward call.
type Result struct {
	// Output is [R, PoolHeight, PoolWidth, C] with the feature dtype.
	Output *tensor.RawTensor

	// Indices is the int32 index map, nil unless Config.ReturnIndices.
	Indices *tensor.RawTensor
}

// Forward pools rois over features on backend.
//
// features is [N, H, W, C] float32 (float64 on CPU); rois is int32 [R, 5].
func Forward(backend tensor.Backend, features, rois *tensor.RawTensor, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	output, indices, err := backend.RoIPool(features, rois, cfg.PoolHeight, cfg.PoolWidth)
	if err != nil {
		return nil, err
	}
	res := &Result{Output: output}
	if cfg.ReturnIndices {
		res.Indices = indices
	}
	return res, nil
}

// Backward routes grad, shaped like a forward output, to a gradient of
// inputShape through the index map produced by the same forward call.
// Cells that share a source accumulate.
func Backward(backend tensor.Backend, grad, indices *tensor.RawTensor, inputShape tensor.Shape) (*tensor.RawTensor, error) {
	return backend.RoIPoolBackward(grad, indices, inputShape)
}
