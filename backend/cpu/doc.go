// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for RoI pooling.
//
// # Overview
//
//   - Pure Go implementation (no CGO)
//   - Float32 and Float64 feature maps
//   - Forward splits work over (region, channel) pairs
//   - Backward splits work over channels, so gradient sums are
//     deterministic without atomics
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/roipool/backend/cpu"
//	    "github.com/born-ml/roipool/roi"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    pooled, err := roi.Forward(backend, features, rois, roi.Config{PoolHeight: 7, PoolWidth: 7})
//	}
//
// # Parallelism
//
// NewWithConfig accepts a ParallelConfig. Sequential() runs every kernel on
// the calling goroutine, which is useful when the caller already
// parallelizes across requests.
package cpu
