package nn

import (
	"github.com/born-ml/roipool/internal/autodiff/ops"
	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
)

// Verify that RoIPool implements Module.
var _ Module[tensor.Backend] = (*RoIPool[tensor.Backend])(nil)

// RoIPool is a region-of-interest max pooling layer.
//
// Each region is split into a PoolHeight x PoolWidth grid of adaptive bins
// and every bin is reduced to its per-channel maximum, so regions of any
// size produce a fixed-size output. RoIPool has no learnable parameters.
//
// Features shape: [batch, height, width, channels] (NHWC)
// Regions shape:  [num_regions, 5] int32 (batch_index, top, left, bottom, right)
// Output shape:   [num_regions, pool_height, pool_width, channels]
//
// Example:
//
//	pool, _ := nn.NewRoIPool(roi.Config{PoolHeight: 7, PoolWidth: 7}, backend)
//
//	pooled, err := pool.Forward(features, rois) // [N, 7, 7, C]
//	inputGrad, err := pooled.Backward(grad)     // [B, H, W, C]
type RoIPool[B tensor.Backend] struct {
	config  roi.Config
	backend B
}

// Pooled is the result of one forward call.
type Pooled[B tensor.Backend] struct {
	// Output holds the pooled maxima.
	Output *tensor.Tensor[float32, B]

	// Indices is the index map, or nil unless the layer was configured with
	// ReturnIndices.
	Indices *tensor.Tensor[int32, B]

	// Op keeps the index map for Backward regardless of ReturnIndices.
	Op *ops.RoIPoolOp

	backend B
}

// NewRoIPool creates a new RoI pooling layer.
//
// Returns roi.ErrInvalidConfiguration if either pool dimension is not positive.
func NewRoIPool[B tensor.Backend](cfg roi.Config, backend B) (*RoIPool[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &RoIPool[B]{
		config:  cfg,
		backend: backend,
	}, nil
}

// Forward pools every region of rois over features.
//
// All validation happens in the backend before any output is allocated,
// so a rejected call returns no partial result.
func (p *RoIPool[B]) Forward(features *tensor.Tensor[float32, B], rois *tensor.Tensor[int32, B]) (*Pooled[B], error) {
	output, indices, err := p.backend.RoIPool(features.Raw(), rois.Raw(), p.config.PoolHeight, p.config.PoolWidth)
	if err != nil {
		return nil, err
	}

	pooled := &Pooled[B]{
		Output:  tensor.New[float32, B](output, p.backend),
		Op:      ops.NewRoIPoolOp(features.Raw(), rois.Raw(), output, indices),
		backend: p.backend,
	}
	if p.config.ReturnIndices {
		pooled.Indices = tensor.New[int32, B](indices, p.backend)
	}

	return pooled, nil
}

// Backward routes grad to the feature map through the index map of this result.
func (r *Pooled[B]) Backward(grad *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	grads, err := r.Op.Backward(grad.Raw(), r.backend)
	if err != nil {
		return nil, err
	}
	return tensor.New[float32, B](grads[0], r.backend), nil
}

// Backward computes the feature-map gradient from an output gradient and the
// index map of an earlier forward call. It needs no layer state beyond the
// backend, so index maps may come from another process.
func (p *RoIPool[B]) Backward(
	grad *tensor.Tensor[float32, B],
	indices *tensor.Tensor[int32, B],
	inputShape tensor.Shape,
) (*tensor.Tensor[float32, B], error) {
	inputGrad, err := p.backend.RoIPoolBackward(grad.Raw(), indices.Raw(), inputShape)
	if err != nil {
		return nil, err
	}
	return tensor.New[float32, B](inputGrad, p.backend), nil
}

// Parameters returns all trainable parameters (empty for RoIPool).
func (p *RoIPool[B]) Parameters() []*tensor.RawTensor {
	return []*tensor.RawTensor{}
}

// String returns a string representation of the layer.
func (p *RoIPool[B]) String() string {
	return p.config.String()
}

// Config returns the layer configuration.
func (p *RoIPool[B]) Config() roi.Config {
	return p.config
}

// PoolHeight returns the number of bin rows per region.
func (p *RoIPool[B]) PoolHeight() int {
	return p.config.PoolHeight
}

// PoolWidth returns the number of bin columns per region.
func (p *RoIPool[B]) PoolWidth() int {
	return p.config.PoolWidth
}

// ComputeOutputShape returns the output shape for numRegions regions over a
// feature map with the given number of channels.
//
// Returns: [num_regions, pool_height, pool_width, channels].
func (p *RoIPool[B]) ComputeOutputShape(numRegions, channels int) tensor.Shape {
	return tensor.Shape{numRegions, p.config.PoolHeight, p.config.PoolWidth, channels}
}
