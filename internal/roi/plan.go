package roi

// Plan is a validated forward call: the feature layout, the parsed regions
// and their bin grids. Backends build one before touching feature data.
type Plan struct {
	Layout     Layout
	Regions    []Region
	Grids      []Grid
	PoolHeight int
	PoolWidth  int
}

// NewPlan validates a forward call and quantizes every region.
//
// featureShape is the NHWC map shape, regionShape the [N,5] region tensor
// shape and records its int32 contents.
func NewPlan(op string, featureShape, regionShape []int, records []int32, poolHeight, poolWidth int) (*Plan, error) {
	layout, err := CheckFeatureShape(op, featureShape)
	if err != nil {
		return nil, err
	}
	if err := CheckPool(op, poolHeight, poolWidth); err != nil {
		return nil, err
	}
	if err := CheckRegionShape(op, regionShape); err != nil {
		return nil, err
	}

	regions, err := ParseRegions(records)
	if err != nil {
		return nil, err
	}
	if err := CheckBatches(op, regions, layout.Batch); err != nil {
		return nil, err
	}

	// Bin boundaries depend only on the region, not the channel.
	grids := make([]Grid, len(regions))
	for r, region := range regions {
		grids[r] = Quantize(region, poolHeight, poolWidth, layout.Height, layout.Width)
	}

	return &Plan{
		Layout:     layout,
		Regions:    regions,
		Grids:      grids,
		PoolHeight: poolHeight,
		PoolWidth:  poolWidth,
	}, nil
}

// OutputShape returns [num_regions, poolHeight, poolWidth, channels].
func (p *Plan) OutputShape() []int {
	return []int{len(p.Regions), p.PoolHeight, p.PoolWidth, p.Layout.Channels}
}

// NumCells returns the number of output cells.
func (p *Plan) NumCells() int {
	return len(p.Regions) * p.PoolHeight * p.PoolWidth * p.Layout.Channels
}
