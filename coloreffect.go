package filterkit

// ColorClampOptions CIColorClamp options
type ColorClampOptions struct {
	// MinComponents per channel lower bound r, g, b, a
	MinComponents Vector4
	// MaxComponents per channel upper bound r, g, b, a
	MaxComponents Vector4
}

// ColorCrossPolynomialOptions CIColorCrossPolynomial options
type ColorCrossPolynomialOptions struct {
	RedCoefficients   CrossPolynomial
	GreenCoefficients CrossPolynomial
	BlueCoefficients  CrossPolynomial
}

// ColorMonochromeOptions CIColorMonochrome options
type ColorMonochromeOptions struct {
	Color Color
	// Intensity normalized 0 to 1
	Intensity float64
}

// ColorPolynomialOptions CIColorPolynomial options.
// Each channel is remapped as x + y*v + z*v² + w*v³.
type ColorPolynomialOptions struct {
	RedCoefficients   Vector4
	GreenCoefficients Vector4
	BlueCoefficients  Vector4
	AlphaCoefficients Vector4
}

// FalseColorOptions CIFalseColor options
type FalseColorOptions struct {
	// Color0 color for dark tones
	Color0 Color
	// Color1 color for light tones
	Color1 Color
}

// VignetteOptions CIVignette options
type VignetteOptions struct {
	Radius    float64
	Intensity float64
}

// VignetteEffectOptions CIVignetteEffect options
type VignetteEffectOptions struct {
	Center    Point
	Intensity float64
	Radius    float64
	Falloff   float64
}

// ColorClamp clamps color components to the given range
func ColorClamp(options ColorClampOptions) Filter {
	return newFilter(ColorClampName, func(p *paramsBuilder) {
		p.Set(KeyMinComponents, options.MinComponents.Vector())
		p.Set(KeyMaxComponents, options.MaxComponents.Vector())
	})
}

// ColorCrossPolynomial remaps colors with cross channel polynomials
func ColorCrossPolynomial(options ColorCrossPolynomialOptions) Filter {
	return newFilter(ColorCrossPolynomialName, func(p *paramsBuilder) {
		p.Set(KeyRedCoefficients, options.RedCoefficients.Vector())
		p.Set(KeyGreenCoefficients, options.GreenCoefficients.Vector())
		p.Set(KeyBlueCoefficients, options.BlueCoefficients.Vector())
	})
}

// ColorCube remaps colors through a lookup cube.
// Cube parameters are omitted if the entry count is not a perfect cube.
func ColorCube(cube ColorCubeData) Filter {
	return newFilter(ColorCubeName, func(p *paramsBuilder) {
		p.setCube(cube)
	})
}

// ColorCubeWithColorSpace remaps colors through a lookup cube in the given color space
func ColorCubeWithColorSpace(cube ColorCubeData, colorSpace ColorSpace) Filter {
	return newFilter(ColorCubeWithColorSpaceName, func(p *paramsBuilder) {
		p.Set(KeyColorSpace, colorSpace)
		p.setCube(cube)
	})
}

// ColorInvert inverts colors
func ColorInvert() Filter {
	return noParamsFilter(ColorInvertName)
}

// ColorMap maps luminance to colors sampled from a gradient image
func ColorMap(gradient Image) Filter {
	return newFilter(ColorMapName, func(p *paramsBuilder) {
		p.Set(KeyGradientImage, gradient)
	})
}

// ColorMonochrome tints the image with a single color
func ColorMonochrome(options ColorMonochromeOptions) Filter {
	return newFilter(ColorMonochromeName, func(p *paramsBuilder) {
		p.Set(KeyColor, options.Color)
		p.Set(KeyIntensity, options.Intensity)
	})
}

// ColorPolynomial remaps each channel with a cubic polynomial
func ColorPolynomial(options ColorPolynomialOptions) Filter {
	return newFilter(ColorPolynomialName, func(p *paramsBuilder) {
		p.Set(KeyRedCoefficients, options.RedCoefficients.Vector())
		p.Set(KeyGreenCoefficients, options.GreenCoefficients.Vector())
		p.Set(KeyBlueCoefficients, options.BlueCoefficients.Vector())
		p.Set(KeyAlphaCoefficients, options.AlphaCoefficients.Vector())
	})
}

// ColorPosterize reduces each channel to a number of levels, engine default if nil
func ColorPosterize(levels *float64) Filter {
	return newFilter(ColorPosterizeName, func(p *paramsBuilder) {
		p.SetOptional(KeyLevels, levels)
	})
}

// FalseColor maps luminance to a two color gradient
func FalseColor(options FalseColorOptions) Filter {
	return newFilter(FalseColorName, func(p *paramsBuilder) {
		p.Set(KeyColor0, options.Color0)
		p.Set(KeyColor1, options.Color1)
	})
}

// MaskToAlpha converts a grayscale mask to alpha
func MaskToAlpha() Filter {
	return noParamsFilter(MaskToAlphaName)
}

// MaximumComponent grayscale from max(r, g, b)
func MaximumComponent() Filter {
	return noParamsFilter(MaximumComponentName)
}

// MinimumComponent grayscale from min(r, g, b)
func MinimumComponent() Filter {
	return noParamsFilter(MinimumComponentName)
}

// PhotoEffectChrome exaggerated colors, vintage film look
func PhotoEffectChrome() Filter {
	return noParamsFilter(PhotoEffectChromeName)
}

// PhotoEffectFade diminished colors, faded film look
func PhotoEffectFade() Filter {
	return noParamsFilter(PhotoEffectFadeName)
}

// PhotoEffectInstant distorted colors, instant film look
func PhotoEffectInstant() Filter {
	return noParamsFilter(PhotoEffectInstantName)
}

// PhotoEffectMono low contrast black and white
func PhotoEffectMono() Filter {
	return noParamsFilter(PhotoEffectMonoName)
}

// PhotoEffectNoir high contrast black and white
func PhotoEffectNoir() Filter {
	return noParamsFilter(PhotoEffectNoirName)
}

// PhotoEffectProcess cool tones with emphasized blues
func PhotoEffectProcess() Filter {
	return noParamsFilter(PhotoEffectProcessName)
}

// PhotoEffectTonal black and white with little contrast change
func PhotoEffectTonal() Filter {
	return noParamsFilter(PhotoEffectTonalName)
}

// PhotoEffectTransfer warm tones with emphasized yellows
func PhotoEffectTransfer() Filter {
	return noParamsFilter(PhotoEffectTransferName)
}

// SepiaTone maps colors to sepia, intensity engine default if nil
func SepiaTone(intensity *float64) Filter {
	return newFilter(SepiaToneName, func(p *paramsBuilder) {
		p.SetOptional(KeyIntensity, intensity)
	})
}

// Vignette darkens the image edges
func Vignette(options VignetteOptions) Filter {
	return newFilter(VignetteName, func(p *paramsBuilder) {
		p.Set(KeyRadius, options.Radius)
		p.Set(KeyIntensity, options.Intensity)
	})
}

// VignetteEffect darkens outside a circle around center
func VignetteEffect(options VignetteEffectOptions) Filter {
	return newFilter(VignetteEffectName, func(p *paramsBuilder) {
		p.Set(KeyCenter, options.Center.Vector())
		p.Set(KeyIntensity, options.Intensity)
		p.Set(KeyRadius, options.Radius)
		p.Set(KeyFalloff, options.Falloff)
	})
}
