package tensor

// Backend defines the interface that all compute backends must implement.
// Backends run the RoI pooling kernels over RawTensors.
//
// Implementations:
//   - CPU: pure Go, parallel over independent work units
//   - WebGPU: WGSL compute shaders (windows)
type Backend interface {
	// RoIPool max-pools every region of rois over the NHWC input into a
	// [numRegions, poolHeight, poolWidth, channels] output, and returns an
	// Int32 index map of the same shape recording the flat input offset of
	// each maximum (or -1 for empty bins).
	RoIPool(input, rois *RawTensor, poolHeight, poolWidth int) (output, indices *RawTensor, err error)

	// RoIPoolBackward scatters grad back onto a zero tensor of inputShape
	// through indices, accumulating where several cells share a source.
	RoIPoolBackward(grad, indices *RawTensor, inputShape Shape) (*RawTensor, error)

	// Metadata
	Name() string
	Device() Device
}
