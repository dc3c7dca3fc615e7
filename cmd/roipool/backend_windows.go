//go:build windows

package main

import (
	"github.com/born-ml/roipool/internal/backend/webgpu"
	"github.com/born-ml/roipool/internal/tensor"
)

func openWebGPU() (tensor.Backend, func(), error) {
	b, err := webgpu.New()
	if err != nil {
		return nil, nil, err
	}
	return b, b.Release, nil
}
