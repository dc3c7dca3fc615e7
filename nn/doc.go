// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the RoI pooling layer.
//
// # Overview
//
// RoIPool crops every region of a feature map into a fixed
// PoolHeight x PoolWidth grid by max pooling adaptive bins. The layer has
// no learnable parameters; its configuration is fixed at construction.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/roipool/backend/cpu"
//	    "github.com/born-ml/roipool/nn"
//	    "github.com/born-ml/roipool/roi"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    layer, err := nn.NewRoIPool(roi.Config{PoolHeight: 7, PoolWidth: 7}, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pooled, err := layer.Forward(features, rois)   // [R, 7, 7, C]
//	    inputGrad, err := pooled.Backward(outputGrad) // [N, H, W, C]
//	}
//
// # Training
//
// Wrap the backend with autodiff.New to record pooling calls on a tape;
// autodiff.Backward then sums the gradients of every call that read the
// same feature map.
package nn
