package filterkit

// UnsharpMaskOptions CIUnsharpMask options
type UnsharpMaskOptions struct {
	Radius    float64
	Intensity float64
}

// SharpenLuminance sharpens luminance detail, engine default if nil
func SharpenLuminance(sharpness *float64) Filter {
	return newFilter(SharpenLuminanceName, func(p *paramsBuilder) {
		p.SetOptional(KeySharpness, sharpness)
	})
}

// UnsharpMask sharpens edges with an unsharp mask
func UnsharpMask(options UnsharpMaskOptions) Filter {
	return newFilter(UnsharpMaskName, func(p *paramsBuilder) {
		p.Set(KeyRadius, options.Radius)
		p.Set(KeyIntensity, options.Intensity)
	})
}
