package roi

// Bin is one adaptive sub-rectangle of a region.
// Row and column ranges are half-open: [RowStart, RowEnd) x [ColStart, ColEnd).
type Bin struct {
	RowStart int
	RowEnd   int
	ColStart int
	ColEnd   int
}

// Empty reports whether the bin covers no pixels.
func (b Bin) Empty() bool {
	return b.RowStart >= b.RowEnd || b.ColStart >= b.ColEnd
}

// Area returns the number of pixels covered by the bin.
func (b Bin) Area() int {
	if b.Empty() {
		return 0
	}
	return (b.RowEnd - b.RowStart) * (b.ColEnd - b.ColStart)
}

// Grid holds the bin boundaries of one region.
//
// Rows and columns are quantized independently, so bin (i, j) is the
// product of row span i and column span j.
type Grid struct {
	rows       []span
	cols       []span
	degenerate bool
}

type span struct {
	start, end int
}

// Quantize partitions region r into a poolHeight x poolWidth grid of bins.
//
// For bin row i of a region of height H:
//
//	start = top + floor(i*H/Ph)
//	end   = top + ceil((i+1)*H/Ph)
//
// clipped to bottom+1 and to the feature map rows [0, height]. Columns
// use the same rule with W, Pw, left, right and width. All arithmetic is
// integer, so forward and backward always agree on bin boundaries.
//
// Degenerate regions yield a grid of empty bins; so do regions lying
// entirely outside the feature map.
func Quantize(r Region, poolHeight, poolWidth, height, width int) Grid {
	if r.Degenerate() {
		return Grid{
			rows:       make([]span, poolHeight),
			cols:       make([]span, poolWidth),
			degenerate: true,
		}
	}
	return Grid{
		rows: partition(r.Top, r.Bottom, poolHeight, height),
		cols: partition(r.Left, r.Right, poolWidth, width),
	}
}

// partition splits the inclusive range [lo, hi] into n adaptive spans and
// clamps them to [0, limit].
func partition(lo, hi, n, limit int) []span {
	size := hi - lo + 1
	spans := make([]span, n)
	for i := range spans {
		start := lo + floorDiv(i*size, n)
		end := lo + ceilDiv((i+1)*size, n)
		end = min(end, hi+1)
		spans[i] = span{
			start: clamp(start, 0, limit),
			end:   clamp(end, 0, limit),
		}
	}
	return spans
}

// Bin returns the sub-rectangle for bin row i, bin column j.
func (g Grid) Bin(i, j int) Bin {
	return Bin{
		RowStart: g.rows[i].start,
		RowEnd:   g.rows[i].end,
		ColStart: g.cols[j].start,
		ColEnd:   g.cols[j].end,
	}
}

// PoolHeight returns the number of bin rows.
func (g Grid) PoolHeight() int {
	return len(g.rows)
}

// PoolWidth returns the number of bin columns.
func (g Grid) PoolWidth() int {
	return len(g.cols)
}

// Degenerate reports whether the grid came from a degenerate region.
func (g Grid) Degenerate() bool {
	return g.degenerate
}

// floorDiv and ceilDiv assume a >= 0 and b > 0.
func floorDiv(a, b int) int {
	return a / b
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func clamp(x, lo, hi int) int {
	return min(max(x, lo), hi)
}
