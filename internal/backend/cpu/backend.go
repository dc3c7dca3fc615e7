// Package cpu implements the RoI pooling kernels on CPU in pure Go.
package cpu

import (
	"github.com/born-ml/roipool/internal/parallel"
	"github.com/born-ml/roipool/internal/tensor"
)

// Verify that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend runs RoI pooling on CPU, spreading independent work units
// across goroutines according to its parallel configuration.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend with the default parallel configuration.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Parallel returns the parallel configuration used by the kernels.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.parallel
}
