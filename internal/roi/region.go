package roi

import "fmt"

// RecordSize is the number of int32 values per region record:
// (batch_index, top, left, bottom, right).
const RecordSize = 5

// Region is a rectangle over one batch entry of a feature map.
// Bounds are inclusive pixel indices.
type Region struct {
	Batch  int
	Top    int
	Left   int
	Bottom int
	Right  int
}

// Height returns the number of rows covered, which is <= 0 for inverted bounds.
func (r Region) Height() int {
	return r.Bottom - r.Top + 1
}

// Width returns the number of columns covered, which is <= 0 for inverted bounds.
func (r Region) Width() int {
	return r.Right - r.Left + 1
}

// Degenerate reports whether the region has inverted bounds.
// Degenerate regions are legal and pool to all-empty bins.
func (r Region) Degenerate() bool {
	return r.Height() <= 0 || r.Width() <= 0
}

// Record returns the region in its 5-value wire layout.
func (r Region) Record() [RecordSize]int32 {
	//nolint:gosec // G115: region coordinates originate from int32 records
	return [RecordSize]int32{int32(r.Batch), int32(r.Top), int32(r.Left), int32(r.Bottom), int32(r.Right)}
}

// String returns "(batch, top, left, bottom, right)".
func (r Region) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d, %d)", r.Batch, r.Top, r.Left, r.Bottom, r.Right)
}

// ParseRegions decodes a flat list of 5-value region records.
func ParseRegions(data []int32) ([]Region, error) {
	if len(data)%RecordSize != 0 {
		return nil, RegionError("parse_regions", -1, "%d values is not a whole number of %d-value records", len(data), RecordSize)
	}

	regions := make([]Region, len(data)/RecordSize)
	for i := range regions {
		rec := data[i*RecordSize : (i+1)*RecordSize]
		regions[i] = Region{
			Batch:  int(rec[0]),
			Top:    int(rec[1]),
			Left:   int(rec[2]),
			Bottom: int(rec[3]),
			Right:  int(rec[4]),
		}
	}
	return regions, nil
}

// EncodeRegions flattens regions into the 5-value record layout.
func EncodeRegions(regions []Region) []int32 {
	data := make([]int32, 0, len(regions)*RecordSize)
	for _, r := range regions {
		rec := r.Record()
		data = append(data, rec[:]...)
	}
	return data
}

// CheckBatches verifies that every region selects an existing batch entry.
// A bad batch index is a caller bug and is never clamped.
func CheckBatches(op string, regions []Region, batchSize int) error {
	for i, r := range regions {
		if r.Batch < 0 || r.Batch >= batchSize {
			return RegionError(op, i, "batch index %d out of range [0, %d)", r.Batch, batchSize)
		}
	}
	return nil
}
