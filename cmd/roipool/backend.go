package main

import (
	"fmt"

	"github.com/born-ml/roipool/internal/backend/cpu"
	"github.com/born-ml/roipool/internal/tensor"
)

// openBackend returns the backend selected by --backend and a func that
// releases it.
func openBackend() (tensor.Backend, func(), error) {
	switch backendName {
	case "", "cpu":
		cfg := parallelConfig()
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		return cpu.NewWithConfig(cfg), func() {}, nil
	case "webgpu":
		return openWebGPU()
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want cpu or webgpu)", backendName)
	}
}
