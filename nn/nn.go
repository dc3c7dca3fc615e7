// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/roipool/internal/nn"
	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
)

// Module is the interface implemented by layers.
type Module[B tensor.Backend] = nn.Module[B]

// RoIPool is the region of interest max-pooling layer.
type RoIPool[B tensor.Backend] = nn.RoIPool[B]

// Pooled is the result of RoIPool.Forward. It keeps the index map needed
// by its Backward method.
type Pooled[B tensor.Backend] = nn.Pooled[B]

// NewRoIPool validates cfg and creates a layer on backend.
//
// Example:
//
//	layer, err := nn.NewRoIPool(roi.Config{PoolHeight: 7, PoolWidth: 7}, cpu.New())
func NewRoIPool[B tensor.Backend](cfg roi.Config, backend B) (*RoIPool[B], error) {
	return nn.NewRoIPool(cfg, backend)
}
