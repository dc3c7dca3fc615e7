package tensor

import "fmt"

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a recording backend for testing layers and operations
// without a real kernel. It returns preset results or errors and counts calls.
type MockBackend struct {
	Output       *RawTensor
	Indices      *RawTensor
	InputGrad    *RawTensor
	Err          error
	PoolCalls    int
	BackwardCall int
	LastPool     [2]int
	LastShape    Shape
}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// RoIPool records the call and returns the preset output and indices.
// When none are preset, zero tensors of the expected shape are returned.
func (m *MockBackend) RoIPool(input, rois *RawTensor, poolHeight, poolWidth int) (*RawTensor, *RawTensor, error) {
	m.PoolCalls++
	m.LastPool = [2]int{poolHeight, poolWidth}
	if m.Err != nil {
		return nil, nil, m.Err
	}
	if m.Output != nil && m.Indices != nil {
		return m.Output, m.Indices, nil
	}

	if len(input.Shape()) != 4 || len(rois.Shape()) != 2 {
		return nil, nil, fmt.Errorf("mock: unexpected shapes %v, %v", input.Shape(), rois.Shape())
	}
	shape := Shape{rois.Shape()[0], poolHeight, poolWidth, input.Shape()[3]}
	out, err := NewRaw(shape, input.DType(), m.Device())
	if err != nil {
		return nil, nil, err
	}
	idx, err := NewRaw(shape, Int32, m.Device())
	if err != nil {
		return nil, nil, err
	}
	return out, idx, nil
}

// RoIPoolBackward records the call and returns the preset gradient, or a
// zero tensor of inputShape.
func (m *MockBackend) RoIPoolBackward(grad, _ *RawTensor, inputShape Shape) (*RawTensor, error) {
	m.BackwardCall++
	m.LastShape = inputShape.Clone()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.InputGrad != nil {
		return m.InputGrad, nil
	}
	return NewRaw(inputShape, grad.DType(), m.Device())
}
