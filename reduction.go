package filterkit

// AreaHistogramOptions CIAreaHistogram options
type AreaHistogramOptions struct {
	Extent Rect
	// Count number of histogram bins
	Count int
	Scale float64
}

// HistogramDisplayOptions CIHistogramDisplayFilter options
type HistogramDisplayOptions struct {
	Height    float64
	HighLimit float64
	LowLimit  float64
}

// AreaHistogram computes a Count x 1 histogram image of the extent
func AreaHistogram(options AreaHistogramOptions) Filter {
	return newFilter(AreaHistogramName, func(p *paramsBuilder) {
		p.Set(KeyExtent, options.Extent.Vector())
		p.Set(KeyCount, options.Count)
		p.Set(KeyScale, options.Scale)
	})
}

// HistogramDisplay renders a histogram image as a bar chart
func HistogramDisplay(options HistogramDisplayOptions) Filter {
	return newFilter(HistogramDisplayFilterName, func(p *paramsBuilder) {
		p.Set(KeyHeight, options.Height)
		p.Set(KeyHighLimit, options.HighLimit)
		p.Set(KeyLowLimit, options.LowLimit)
	})
}
