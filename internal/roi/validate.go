package roi

import "math"

// CheckFeatureShape validates an NHWC feature map shape and returns its layout.
// Every dimension must be positive and the map must be addressable with
// int32 index-map entries.
func CheckFeatureShape(op string, shape []int) (Layout, error) {
	if len(shape) != 4 {
		return Layout{}, ConfigError(op, "expected 4D feature map [N,H,W,C], got %dD", len(shape))
	}
	n := 1
	for i, dim := range shape {
		if dim <= 0 {
			return Layout{}, ConfigError(op, "feature map dimension %d is %d (must be > 0)", i, dim)
		}
		if n > math.MaxInt32/dim {
			return Layout{}, ConfigError(op, "feature map %v has more than %d elements", shape, math.MaxInt32)
		}
		n *= dim
	}
	return LayoutOf(shape), nil
}

// CheckPool validates the pool dimensions.
func CheckPool(op string, poolHeight, poolWidth int) error {
	if poolHeight <= 0 || poolWidth <= 0 {
		return ConfigError(op, "pool size %dx%d must be positive", poolHeight, poolWidth)
	}
	return nil
}

// CheckRegionShape validates the shape of a region tensor: [N, 5].
func CheckRegionShape(op string, shape []int) error {
	if len(shape) != 2 || shape[1] != RecordSize {
		return RegionError(op, -1, "expected region tensor [N,%d], got %v", RecordSize, shape)
	}
	return nil
}

// CheckBackwardShapes validates the gradient, index map and input shapes
// of a backward call and returns the input layout.
func CheckBackwardShapes(op string, gradShape, indexShape, inputShape []int) (Layout, error) {
	l, err := CheckFeatureShape(op, inputShape)
	if err != nil {
		return Layout{}, ShapeError(op, "input shape: %v", err)
	}
	if len(gradShape) != 4 {
		return Layout{}, ShapeError(op, "expected 4D gradient [R,Ph,Pw,C], got %dD", len(gradShape))
	}
	if gradShape[3] != l.Channels {
		return Layout{}, ShapeError(op, "gradient has %d channels, input has %d", gradShape[3], l.Channels)
	}
	if !equalShape(gradShape, indexShape) {
		return Layout{}, ShapeError(op, "gradient shape %v does not match index map shape %v", gradShape, indexShape)
	}
	return l, nil
}

// CheckIndices verifies that every index-map entry is the sentinel or a
// valid offset into the input carrying the channel of its own cell.
func CheckIndices(op string, indices []int32, l Layout) error {
	for k, idx := range indices {
		if idx == NoSource {
			continue
		}
		if !l.Contains(idx) {
			return ShapeError(op, "index map entry %d = %d outside input of %d elements", k, idx, l.NumElements())
		}
		if int(idx)%l.Channels != k%l.Channels {
			return ShapeError(op, "index map entry %d = %d points at channel %d, cell is channel %d",
				k, idx, int(idx)%l.Channels, k%l.Channels)
		}
	}
	return nil
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
