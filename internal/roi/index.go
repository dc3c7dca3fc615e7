package roi

// NoSource is the index-map value recorded for empty bins.
// Cells carrying it receive no gradient.
const NoSource int32 = -1

// Layout describes an NHWC feature map for index encoding.
type Layout struct {
	Batch    int
	Height   int
	Width    int
	Channels int
}

// LayoutOf returns the layout of a 4-D NHWC shape.
func LayoutOf(shape []int) Layout {
	return Layout{Batch: shape[0], Height: shape[1], Width: shape[2], Channels: shape[3]}
}

// NumElements returns the number of feature values in the map.
func (l Layout) NumElements() int {
	return l.Batch * l.Height * l.Width * l.Channels
}

// Encode returns the flat row-major offset of (b, row, col, c).
//
// The offset carries the batch entry, so the backward kernel can route
// gradients without the region list.
func (l Layout) Encode(b, row, col, c int) int32 {
	//nolint:gosec // G115: feature maps are addressed with int32 indices by contract
	return int32(((b*l.Height+row)*l.Width+col)*l.Channels + c)
}

// Decode splits a flat offset back into (b, row, col, c).
func (l Layout) Decode(idx int32) (b, row, col, c int) {
	i := int(idx)
	c = i % l.Channels
	i /= l.Channels
	col = i % l.Width
	i /= l.Width
	row = i % l.Height
	b = i / l.Height
	return b, row, col, c
}

// Contains reports whether idx addresses an element of the map.
func (l Layout) Contains(idx int32) bool {
	return idx >= 0 && int(idx) < l.NumElements()
}
