//go:build !windows

package main

import (
	"errors"

	"github.com/born-ml/roipool/internal/tensor"
)

func openWebGPU() (tensor.Backend, func(), error) {
	return nil, nil, errors.New("webgpu backend is only available on windows")
}
