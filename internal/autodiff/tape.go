package autodiff

import (
	"fmt"

	"github.com/born-ml/roipool/internal/autodiff/ops"
	"github.com/born-ml/roipool/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients, err := tape.Backward(seeds, backend)
type GradientTape struct {
	operations []ops.Operation // Recorded operations (in execution order)
	recording  bool            // Whether tape is currently recording
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 16),
		recording:  false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Operations returns the recorded operations in execution order.
func (t *GradientTape) Operations() []ops.Operation {
	return t.operations
}

// Backward computes gradients for all inputs by walking the tape in reverse.
//
// Algorithm:
//  1. Start with the seed gradients (one per output of interest)
//  2. Walk operations in reverse order
//  3. For each operation with an output gradient, compute input gradients
//  4. Accumulate gradients when the same tensor feeds several operations,
//     e.g. two pooling calls over one feature map
//
// Returns a map from RawTensor to its accumulated gradient.
func (t *GradientTape) Backward(seeds map[*tensor.RawTensor]*tensor.RawTensor, backend tensor.Backend) (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor, len(seeds))
	for out, g := range seeds {
		grads[out] = g
	}
	if len(t.operations) == 0 {
		return grads, nil
	}

	// Stop recording during backward pass to prevent recording gradient operations
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outputGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}

		inputGrads, err := op.Backward(outputGrad, backend)
		if err != nil {
			return nil, fmt.Errorf("backward: operation %d: %w", i, err)
		}
		if err := accumulateGrads(op, inputGrads, grads); err != nil {
			return nil, fmt.Errorf("backward: operation %d: %w", i, err)
		}
	}

	return grads, nil
}

// accumulateGrads accumulates gradients for each input tensor.
func accumulateGrads(op ops.Operation, inputGrads []*tensor.RawTensor, grads map[*tensor.RawTensor]*tensor.RawTensor) error {
	for j, input := range op.Inputs() {
		if j >= len(inputGrads) {
			break
		}
		inputGrad := inputGrads[j]
		if inputGrad == nil {
			continue
		}
		existing, ok := grads[input]
		if !ok {
			grads[input] = inputGrad
			continue
		}
		sum, err := add(existing, inputGrad)
		if err != nil {
			return err
		}
		grads[input] = sum
	}
	return nil
}

// add returns a + b for float tensors of equal shape and dtype.
func add(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if !a.Shape().Equal(b.Shape()) || a.DType() != b.DType() {
		return nil, fmt.Errorf("cannot accumulate %s%v and %s%v", a.DType(), a.Shape(), b.DType(), b.Shape())
	}

	sum := a.Clone()
	switch a.DType() {
	case tensor.Float32:
		dst, src := sum.AsFloat32(), b.AsFloat32()
		for i := range dst {
			dst[i] += src[i]
		}
	case tensor.Float64:
		dst, src := sum.AsFloat64(), b.AsFloat64()
		for i := range dst {
			dst[i] += src[i]
		}
	default:
		return nil, fmt.Errorf("cannot accumulate gradients of dtype %s", a.DType())
	}
	return sum, nil
}
