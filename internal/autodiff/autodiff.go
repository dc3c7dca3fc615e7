// Package autodiff implements automatic differentiation using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation (CPU, GPU, etc.) and adds
// gradient tracking capabilities through a GradientTape.
//
// Architecture:
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend implementation
//   - GradientTape: Records operations during forward pass
//   - Operation interface: Each op implements its backward pass
//   - Reverse-mode AD: Gradients of ops sharing an input are accumulated
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	layer, _ := nn.NewRoIPool(roi.DefaultConfig(), backend)
//	pooled, _ := layer.Forward(features, rois)
//
//	grads, _ := autodiff.Backward(pooled.Output, backend)
//	fmt.Println(grads[features.Raw()]) // d(sum of pooled)/d(features)
package autodiff

import (
	"github.com/born-ml/roipool/internal/autodiff/ops"
	"github.com/born-ml/roipool/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
//
// Type parameter B must satisfy the tensor.Backend interface.
type AutodiffBackend[B tensor.Backend] struct {
	inner B             // Wrapped backend (CPU, GPU, etc.)
	tape  *GradientTape // Records operations for backpropagation
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
// Useful for:
//   - Starting/stopping recording
//   - Clearing tape between iterations
//   - Inspecting recorded operations
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// RoIPool performs region-of-interest pooling and records the operation.
func (b *AutodiffBackend[B]) RoIPool(input, rois *tensor.RawTensor, poolHeight, poolWidth int) (*tensor.RawTensor, *tensor.RawTensor, error) {
	output, indices, err := b.inner.RoIPool(input, rois, poolHeight, poolWidth)
	if err != nil {
		return nil, nil, err
	}

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewRoIPoolOp(input, rois, output, indices))
	}

	return output, indices, nil
}

// RoIPoolBackward delegates to the wrapped backend. Gradient kernels are
// never recorded.
func (b *AutodiffBackend[B]) RoIPoolBackward(grad, indices *tensor.RawTensor, inputShape tensor.Shape) (*tensor.RawTensor, error) {
	return b.inner.RoIPoolBackward(grad, indices, inputShape)
}
