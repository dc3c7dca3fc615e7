// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensor types consumed by the RoI pooling operator.
//
// # Overview
//
// Feature maps, region tensors, pooled outputs and index maps are all
// dense row-major tensors:
//   - Feature maps are float32 (or float64 on CPU) in NHWC layout [N, H, W, C]
//   - Region tensors are int32 [R, 5] records (batch, top, left, bottom, right)
//   - Pooled outputs are [R, PoolHeight, PoolWidth, C]
//   - Index maps are int32 with the same shape as the pooled output
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/roipool/backend/cpu"
//	    "github.com/born-ml/roipool/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    features, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2, 1}, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    rois, _ := tensor.FromSlice([]int32{0, 0, 0, 1, 1}, tensor.Shape{1, 5}, backend)
//	    _ = features
//	    _ = rois
//	}
//
// # Supported Data Types
//
//   - float32: feature maps and gradients on every backend
//   - float64: feature maps and gradients on CPU
//   - int32: region records and index maps
//
// # Devices
//
//   - CPU: pure Go, parallel over independent work units
//   - WebGPU: compute shaders through go-webgpu (Windows)
package tensor
