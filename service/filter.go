package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cshum/filterkit"
)

// FilterFunc parses URL filter args into a filter.
// load resolves image keys through the service loaders and storages.
type FilterFunc func(ctx context.Context, load LoadFunc, args ...string) (filterkit.Filter, error)

// FilterMap URL filter name to FilterFunc
type FilterMap map[string]FilterFunc

// DefaultFilters returns a new FilterMap of every registered filter,
// keyed by snake case name, e.g. sepia_tone, photo_effect_noir
func DefaultFilters() FilterMap {
	m := FilterMap{
		filterkit.ColorClampName.Key():              colorClamp,
		filterkit.ColorCrossPolynomialName.Key():    colorCrossPolynomial,
		filterkit.ColorCubeName.Key():               colorCube,
		filterkit.ColorCubeWithColorSpaceName.Key(): colorCubeWithColorSpace,
		filterkit.ColorInvertName.Key():             noArgs(filterkit.ColorInvert),
		filterkit.ColorMapName.Key():                colorMap,
		filterkit.ColorMonochromeName.Key():         colorMonochrome,
		filterkit.ColorPolynomialName.Key():         colorPolynomial,
		filterkit.ColorPosterizeName.Key():          optionalArg(filterkit.ColorPosterize),
		filterkit.FalseColorName.Key():              falseColor,
		filterkit.MaskToAlphaName.Key():             noArgs(filterkit.MaskToAlpha),
		filterkit.MaximumComponentName.Key():        noArgs(filterkit.MaximumComponent),
		filterkit.MinimumComponentName.Key():        noArgs(filterkit.MinimumComponent),
		filterkit.PhotoEffectChromeName.Key():       noArgs(filterkit.PhotoEffectChrome),
		filterkit.PhotoEffectFadeName.Key():         noArgs(filterkit.PhotoEffectFade),
		filterkit.PhotoEffectInstantName.Key():      noArgs(filterkit.PhotoEffectInstant),
		filterkit.PhotoEffectMonoName.Key():         noArgs(filterkit.PhotoEffectMono),
		filterkit.PhotoEffectNoirName.Key():         noArgs(filterkit.PhotoEffectNoir),
		filterkit.PhotoEffectProcessName.Key():      noArgs(filterkit.PhotoEffectProcess),
		filterkit.PhotoEffectTonalName.Key():        noArgs(filterkit.PhotoEffectTonal),
		filterkit.PhotoEffectTransferName.Key():     noArgs(filterkit.PhotoEffectTransfer),
		filterkit.SepiaToneName.Key():               optionalArg(filterkit.SepiaTone),
		filterkit.VignetteName.Key():                vignette,
		filterkit.VignetteEffectName.Key():          vignetteEffect,

		filterkit.AffineTransformName.Key():                affineTransform,
		filterkit.CropName.Key():                           crop,
		filterkit.LanczosScaleTransformName.Key():          lanczosScaleTransform,
		filterkit.PerspectiveCorrectionName.Key():          perspective(filterkit.PerspectiveCorrection),
		filterkit.PerspectiveTileName.Key():                perspective(filterkit.PerspectiveTile),
		filterkit.PerspectiveTransformName.Key():           perspective(filterkit.PerspectiveTransform),
		filterkit.PerspectiveTransformWithExtentName.Key(): perspectiveTransformWithExtent,
		filterkit.StraightenFilterName.Key():               straighten,

		filterkit.AreaHistogramName.Key():          areaHistogram,
		filterkit.HistogramDisplayFilterName.Key(): histogramDisplay,

		filterkit.SharpenLuminanceName.Key(): optionalArg(filterkit.SharpenLuminance),
		filterkit.UnsharpMaskName.Key():      unsharpMask,
	}
	// short aliases
	m["straighten"] = straighten
	m["histogram_display"] = histogramDisplay
	return m
}

func invalidArgs(format string, a ...any) error {
	return fmt.Errorf("%w: %s", filterkit.ErrInvalidParams, fmt.Sprintf(format, a...))
}

func parseFloats(args []string, min, max int) ([]float64, error) {
	if len(args) < min || len(args) > max {
		if min == max {
			return nil, invalidArgs("expected %d args, got %d", min, len(args))
		}
		return nil, invalidArgs("expected %d to %d args, got %d", min, max, len(args))
	}
	v := make([]float64, len(args))
	for i, arg := range args {
		f, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, invalidArgs("%q is not a number", arg)
		}
		v[i] = f
	}
	return v, nil
}

func at(v []float64, i int, def float64) float64 {
	if i < len(v) {
		return v[i]
	}
	return def
}

func vector4(v []float64) filterkit.Vector4 {
	return filterkit.Vector4{X: v[0], Y: v[1], Z: v[2], W: v[3]}
}

func noArgs(fn func() filterkit.Filter) FilterFunc {
	return func(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
		if len(args) > 0 {
			return nil, invalidArgs("expected no args, got %d", len(args))
		}
		return fn(), nil
	}
}

// optionalArg filter taking a single optional number, omitted when empty
func optionalArg(fn func(*float64) filterkit.Filter) FilterFunc {
	return func(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
		v, err := parseFloats(args, 0, 1)
		if err != nil {
			return nil, err
		}
		if len(v) == 0 {
			return fn(nil), nil
		}
		return fn(filterkit.Float64(v[0])), nil
	}
}

// colorClamp(minR,minG,minB,minA,maxR,maxG,maxB,maxA)
func colorClamp(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	v, err := parseFloats(args, 8, 8)
	if err != nil {
		return nil, err
	}
	return filterkit.ColorClamp(filterkit.ColorClampOptions{
		MinComponents: vector4(v[0:4]),
		MaxComponents: vector4(v[4:8]),
	}), nil
}

// colorCrossPolynomial(r0..r9,g0..g9,b0..b9)
func colorCrossPolynomial(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	v, err := parseFloats(args, 30, 30)
	if err != nil {
		return nil, err
	}
	var o filterkit.ColorCrossPolynomialOptions
	copy(o.RedCoefficients[:], v[0:10])
	copy(o.GreenCoefficients[:], v[10:20])
	copy(o.BlueCoefficients[:], v[20:30])
	return filterkit.ColorCrossPolynomial(o), nil
}

// colorPolynomial(r0..r3,g0..g3,b0..b3[,a0..a3]), alpha identity if omitted
func colorPolynomial(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	if len(args) != 12 && len(args) != 16 {
		return nil, invalidArgs("expected 12 or 16 args, got %d", len(args))
	}
	v, err := parseFloats(args, 12, 16)
	if err != nil {
		return nil, err
	}
	o := filterkit.ColorPolynomialOptions{
		RedCoefficients:   vector4(v[0:4]),
		GreenCoefficients: vector4(v[4:8]),
		BlueCoefficients:  vector4(v[8:12]),
		AlphaCoefficients: filterkit.Vector4{Y: 1},
	}
	if len(v) == 16 {
		o.AlphaCoefficients = vector4(v[12:16])
	}
	return filterkit.ColorPolynomial(o), nil
}

// colorMonochrome(color[,intensity])
func colorMonochrome(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, invalidArgs("expected 1 to 2 args, got %d", len(args))
	}
	c, err := parseColor(args[0])
	if err != nil {
		return nil, err
	}
	v, err := parseFloats(args[1:], 0, 1)
	if err != nil {
		return nil, err
	}
	return filterkit.ColorMonochrome(filterkit.ColorMonochromeOptions{
		Color:     c,
		Intensity: at(v, 0, 1),
	}), nil
}

// falseColor(color0,color1)
func falseColor(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	if len(args) != 2 {
		return nil, invalidArgs("expected 2 args, got %d", len(args))
	}
	c0, err := parseColor(args[0])
	if err != nil {
		return nil, err
	}
	c1, err := parseColor(args[1])
	if err != nil {
		return nil, err
	}
	return filterkit.FalseColor(filterkit.FalseColorOptions{Color0: c0, Color1: c1}), nil
}

// vignette(radius,intensity)
func vignette(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	v, err := parseFloats(args, 2, 2)
	if err != nil {
		return nil, err
	}
	return filterkit.Vignette(filterkit.VignetteOptions{Radius: v[0], Intensity: v[1]}), nil
}

// vignetteEffect(x,y,radius,intensity[,falloff])
func vignetteEffect(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	v, err := parseFloats(args, 4, 5)
	if err != nil {
		return nil, err
	}
	return filterkit.VignetteEffect(filterkit.VignetteEffectOptions{
		Center:    filterkit.Point{X: v[0], Y: v[1]},
		Radius:    v[2],
		Intensity: v[3],
		Falloff:   at(v, 4, 0.5),
	}), nil
}

// colorCube(key[,color space])
func colorCube(ctx context.Context, load LoadFunc, args ...string) (filterkit.Filter, error) {
	if len(args) == 2 {
		return colorCubeWithColorSpace(ctx, load, args...)
	}
	if len(args) != 1 {
		return nil, invalidArgs("expected 1 to 2 args, got %d", len(args))
	}
	lut, err := loadCube(load, args[0])
	if err != nil {
		return nil, err
	}
	return filterkit.ColorCube(lut.Data), nil
}

// colorCubeWithColorSpace(key,color space)
func colorCubeWithColorSpace(_ context.Context, load LoadFunc, args ...string) (filterkit.Filter, error) {
	if len(args) != 2 {
		return nil, invalidArgs("expected 2 args, got %d", len(args))
	}
	space, err := parseColorSpace(args[1])
	if err != nil {
		return nil, err
	}
	lut, err := loadCube(load, args[0])
	if err != nil {
		return nil, err
	}
	return filterkit.ColorCubeWithColorSpace(lut.Data, space), nil
}

func loadCube(load LoadFunc, key string) (*LUT, error) {
	blob, err := load(strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	reader, _, err := blob.NewReader()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()
	return ParseCube(reader)
}

func parseColorSpace(s string) (filterkit.ColorSpace, error) {
	switch space := filterkit.ColorSpace(strings.ToLower(strings.TrimSpace(s))); space {
	case filterkit.ColorSpaceSRGB, filterkit.ColorSpaceLinearSRGB,
		filterkit.ColorSpaceDisplayP3, filterkit.ColorSpaceGray:
		return space, nil
	}
	return "", invalidArgs("unknown color space %q", s)
}

// colorMap(key), the gradient is decoded by the engine of the input image
func colorMap(_ context.Context, load LoadFunc, args ...string) (filterkit.Filter, error) {
	if len(args) != 1 {
		return nil, invalidArgs("expected 1 arg, got %d", len(args))
	}
	blob, err := load(strings.TrimSpace(args[0]))
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, img filterkit.Image) (filterkit.Image, error) {
		gradient, err := filterkit.Decode(ctx, img, blob)
		if err != nil {
			return nil, err
		}
		return filterkit.ColorMap(gradient)(ctx, img)
	}, nil
}

// affineTransform(a,b,c,d,tx,ty)
func affineTransform(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	v, err := parseFloats(args, 6, 6)
	if err != nil {
		return nil, err
	}
	return filterkit.AffineTransformFilter(filterkit.AffineTransformFromVector(v)), nil
}

// crop(x,y,width,height)
func crop(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	v, err := parseFloats(args, 4, 4)
	if err != nil {
		return nil, err
	}
	return filterkit.Crop(filterkit.RectFromVector(v)), nil
}

// lanczosScaleTransform(scale[,aspect ratio])
func lanczosScaleTransform(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	v, err := parseFloats(args, 1, 2)
	if err != nil {
		return nil, err
	}
	return filterkit.LanczosScaleTransform(filterkit.LanczosScaleTransformOptions{
		Scale:       v[0],
		AspectRatio: at(v, 1, 1),
	}), nil
}

func perspectiveOptions(v []float64) filterkit.PerspectiveOptions {
	return filterkit.PerspectiveOptions{
		TopLeft:     filterkit.Point{X: v[0], Y: v[1]},
		TopRight:    filterkit.Point{X: v[2], Y: v[3]},
		BottomRight: filterkit.Point{X: v[4], Y: v[5]},
		BottomLeft:  filterkit.Point{X: v[6], Y: v[7]},
	}
}

// perspective(tlx,tly,trx,try,brx,bry,blx,bly), corners clockwise from top left
func perspective(fn func(filterkit.PerspectiveOptions) filterkit.Filter) FilterFunc {
	return func(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
		v, err := parseFloats(args, 8, 8)
		if err != nil {
			return nil, err
		}
		return fn(perspectiveOptions(v)), nil
	}
}

// perspectiveTransformWithExtent(8 corners[,x,y,width,height])
func perspectiveTransformWithExtent(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	if len(args) != 8 && len(args) != 12 {
		return nil, invalidArgs("expected 8 or 12 args, got %d", len(args))
	}
	v, err := parseFloats(args, 8, 12)
	if err != nil {
		return nil, err
	}
	var extent *filterkit.Rect
	if len(v) == 12 {
		r := filterkit.RectFromVector(v[8:12])
		extent = &r
	}
	return filterkit.PerspectiveTransformWithExtent(perspectiveOptions(v), extent), nil
}

// straighten([degrees])
func straighten(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	v, err := parseFloats(args, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return filterkit.Straighten(nil), nil
	}
	return filterkit.Straighten(filterkit.Float64(v[0] * math.Pi / 180)), nil
}

// areaHistogram(x,y,width,height,count[,scale])
func areaHistogram(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	v, err := parseFloats(args, 5, 6)
	if err != nil {
		return nil, err
	}
	if v[4] != math.Trunc(v[4]) {
		return nil, invalidArgs("count %v is not an integer", v[4])
	}
	return filterkit.AreaHistogram(filterkit.AreaHistogramOptions{
		Extent: filterkit.RectFromVector(v[0:4]),
		Count:  int(v[4]),
		Scale:  at(v, 5, 1),
	}), nil
}

// histogramDisplay([height[,high limit[,low limit]]])
func histogramDisplay(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	v, err := parseFloats(args, 0, 3)
	if err != nil {
		return nil, err
	}
	return filterkit.HistogramDisplay(filterkit.HistogramDisplayOptions{
		Height:    at(v, 0, 100),
		HighLimit: at(v, 1, 1),
		LowLimit:  at(v, 2, 0),
	}), nil
}

// unsharpMask(radius,intensity)
func unsharpMask(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
	v, err := parseFloats(args, 2, 2)
	if err != nil {
		return nil, err
	}
	return filterkit.UnsharpMask(filterkit.UnsharpMaskOptions{Radius: v[0], Intensity: v[1]}), nil
}
