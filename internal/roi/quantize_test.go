package roi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestQuantize_ReferenceRegions checks the bins of the three regions of the
// 4x4 reference case with a 2x2 pool.
func TestQuantize_ReferenceRegions(t *testing.T) {
	tests := []struct {
		name   string
		region Region
		want   [2][2]Bin
	}{
		{
			name:   "tall 4x2",
			region: Region{Batch: 0, Top: 0, Left: 0, Bottom: 3, Right: 1},
			want: [2][2]Bin{
				{{0, 2, 0, 1}, {0, 2, 1, 2}},
				{{2, 4, 0, 1}, {2, 4, 1, 2}},
			},
		},
		{
			name:   "corner 2x2",
			region: Region{Batch: 0, Top: 2, Left: 2, Bottom: 3, Right: 3},
			want: [2][2]Bin{
				{{2, 3, 2, 3}, {2, 3, 3, 4}},
				{{3, 4, 2, 3}, {3, 4, 3, 4}},
			},
		},
		{
			name:   "odd 3x3 overlaps",
			region: Region{Batch: 0, Top: 1, Left: 0, Bottom: 3, Right: 2},
			want: [2][2]Bin{
				{{1, 3, 0, 2}, {1, 3, 1, 3}},
				{{2, 4, 0, 2}, {2, 4, 1, 3}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Quantize(tt.region, 2, 2, 4, 4)
			for i := 0; i < 2; i++ {
				for j := 0; j < 2; j++ {
					assert.Equal(t, tt.want[i][j], g.Bin(i, j), "bin (%d,%d)", i, j)
				}
			}
		})
	}
}

// TestQuantize_SmallRegionLargePool checks that bins stay inside the region
// when the pool is finer than the region.
func TestQuantize_SmallRegionLargePool(t *testing.T) {
	// 2 rows pooled into 4 bin rows: start = floor(i*2/4), end = ceil((i+1)*2/4)
	g := Quantize(Region{Top: 5, Left: 0, Bottom: 6, Right: 0}, 4, 1, 10, 10)

	wantRows := [][2]int{{5, 6}, {5, 6}, {6, 7}, {6, 7}}
	for i, w := range wantRows {
		b := g.Bin(i, 0)
		assert.Equal(t, w[0], b.RowStart, "row start %d", i)
		assert.Equal(t, w[1], b.RowEnd, "row end %d", i)
		assert.False(t, b.Empty())
		assert.LessOrEqual(t, b.RowEnd, 7)
	}
}

func TestQuantize_Degenerate(t *testing.T) {
	for _, r := range []Region{
		{Top: 3, Left: 0, Bottom: 2, Right: 3},
		{Top: 0, Left: 3, Bottom: 3, Right: 1},
	} {
		g := Quantize(r, 3, 2, 4, 4)
		assert.True(t, g.Degenerate())
		assert.Equal(t, 3, g.PoolHeight())
		assert.Equal(t, 2, g.PoolWidth())
		for i := 0; i < 3; i++ {
			for j := 0; j < 2; j++ {
				assert.True(t, g.Bin(i, j).Empty(), "region %v bin (%d,%d)", r, i, j)
				assert.Zero(t, g.Bin(i, j).Area())
			}
		}
	}
}

func TestQuantize_ClampsToFeatureMap(t *testing.T) {
	// Region hangs off the bottom-right corner of a 4x4 map.
	g := Quantize(Region{Top: 2, Left: 2, Bottom: 5, Right: 5}, 2, 2, 4, 4)

	assert.Equal(t, Bin{2, 4, 2, 4}, g.Bin(0, 0))
	assert.True(t, g.Bin(1, 1).Empty(), "bin fully outside the map")
	assert.True(t, g.Bin(0, 1).Empty())

	// Region entirely above the map.
	g = Quantize(Region{Top: -4, Left: 0, Bottom: -1, Right: 3}, 2, 2, 4, 4)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.True(t, g.Bin(i, j).Empty())
		}
	}
}

// TestQuantize_CoversRegion checks that, without clamping, the union of bin
// row spans is exactly the region rows and each span is non-decreasing.
func TestQuantize_CoversRegion(t *testing.T) {
	for h := 1; h <= 9; h++ {
		for ph := 1; ph <= 7; ph++ {
			g := Quantize(Region{Top: 3, Left: 0, Bottom: 3 + h - 1, Right: 0}, ph, 1, 100, 100)

			covered := make(map[int]bool)
			prevStart := -1
			for i := 0; i < ph; i++ {
				b := g.Bin(i, 0)
				assert.GreaterOrEqual(t, b.RowStart, prevStart)
				assert.GreaterOrEqual(t, b.RowStart, 3)
				assert.LessOrEqual(t, b.RowEnd, 3+h)
				prevStart = b.RowStart
				for r := b.RowStart; r < b.RowEnd; r++ {
					covered[r] = true
				}
				if h >= ph {
					assert.False(t, b.Empty(), "h=%d ph=%d bin %d", h, ph, i)
				}
			}
			assert.Len(t, covered, h, "h=%d ph=%d", h, ph)
		}
	}
}
