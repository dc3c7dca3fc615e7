// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/roipool/internal/backend/cpu"
	"github.com/born-ml/roipool/internal/parallel"
	"github.com/born-ml/roipool/tensor"
)

// Backend is the pure Go CPU implementation of the RoI pooling kernels.
type Backend = internalcpu.CPUBackend

// ParallelConfig controls how the CPU kernels split work across goroutines.
type ParallelConfig = parallel.Config

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend that uses one worker per CPU.
//
// Example:
//
//	backend := cpu.New()
//	output, indices, err := backend.RoIPool(features.Raw(), rois.Raw(), 7, 7)
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
func NewWithConfig(cfg ParallelConfig) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultParallelConfig returns one worker per CPU.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// Sequential returns a configuration that runs every kernel on the
// calling goroutine.
func Sequential() ParallelConfig {
	return parallel.Sequential()
}
