package giftprocessor

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/cshum/filterkit"
	"github.com/disintegration/gift"
)

// colorFunc maps every pixel through fn
func (p *Processor) colorFunc(src *image.NRGBA, fn func(px pixel) pixel) *image.NRGBA {
	return p.apply(src, gift.ColorFunc(func(r0, g0, b0, a0 float32) (r, g, b, a float32) {
		px := fn(pixel{r: float64(r0), g: float64(g0), b: float64(b0), a: float64(a0)})
		return float32(clamp01(px.r)), float32(clamp01(px.g)), float32(clamp01(px.b)), float32(clamp01(px.a))
	}))
}

func colorInvert(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.apply(src, gift.Invert()), nil
}

func sepiaTone(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	intensity := params.Float64Or(filterkit.KeyIntensity, 1)
	return p.apply(src, gift.Sepia(float32(clamp01(intensity)*100))), nil
}

func photoEffectMono(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.apply(src, gift.Grayscale()), nil
}

func photoEffectNoir(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.apply(src, gift.Grayscale(), gift.Contrast(30)), nil
}

func photoEffectTonal(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.apply(src, gift.Grayscale(), gift.Contrast(-10)), nil
}

func photoEffectChrome(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.apply(src, gift.Saturation(25), gift.Contrast(10)), nil
}

func photoEffectFade(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.apply(src, gift.Saturation(-30), gift.Contrast(-15), gift.Brightness(5)), nil
}

func photoEffectInstant(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.apply(src, gift.Sepia(15), gift.Saturation(-10), gift.Brightness(5)), nil
}

func photoEffectProcess(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.apply(src, gift.ColorBalance(-5, 5, 10), gift.Contrast(10)), nil
}

func photoEffectTransfer(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.apply(src, gift.ColorBalance(10, 5, -10), gift.Saturation(10)), nil
}

func colorClamp(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	lo, err := params.RequireVector(filterkit.KeyMinComponents, 4)
	if err != nil {
		return nil, err
	}
	hi, err := params.RequireVector(filterkit.KeyMaxComponents, 4)
	if err != nil {
		return nil, err
	}
	return p.colorFunc(src, func(px pixel) pixel {
		return pixel{
			r: math.Min(math.Max(px.r, lo[0]), hi[0]),
			g: math.Min(math.Max(px.g, lo[1]), hi[1]),
			b: math.Min(math.Max(px.b, lo[2]), hi[2]),
			a: math.Min(math.Max(px.a, lo[3]), hi[3]),
		}
	}), nil
}

func colorPolynomial(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	var coeffs [4]filterkit.Vector
	for i, key := range []string{
		filterkit.KeyRedCoefficients, filterkit.KeyGreenCoefficients,
		filterkit.KeyBlueCoefficients, filterkit.KeyAlphaCoefficients,
	} {
		v, err := params.RequireVector(key, 4)
		if err != nil {
			return nil, err
		}
		coeffs[i] = v
	}
	return p.colorFunc(src, func(px pixel) pixel {
		return pixel{
			r: poly3(coeffs[0], px.r),
			g: poly3(coeffs[1], px.g),
			b: poly3(coeffs[2], px.b),
			a: poly3(coeffs[3], px.a),
		}
	}), nil
}

// crossTerms 1, r, g, b, r², g², b², rg, gb, br
func crossTerms(px pixel) [10]float64 {
	return [10]float64{
		1, px.r, px.g, px.b,
		px.r * px.r, px.g * px.g, px.b * px.b,
		px.r * px.g, px.g * px.b, px.b * px.r,
	}
}

func dot10(c filterkit.Vector, t [10]float64) (sum float64) {
	for i := range t {
		sum += c[i] * t[i]
	}
	return
}

func colorCrossPolynomial(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	var coeffs [3]filterkit.Vector
	for i, key := range []string{
		filterkit.KeyRedCoefficients, filterkit.KeyGreenCoefficients, filterkit.KeyBlueCoefficients,
	} {
		v, err := params.RequireVector(key, 10)
		if err != nil {
			return nil, err
		}
		coeffs[i] = v
	}
	return p.colorFunc(src, func(px pixel) pixel {
		t := crossTerms(px)
		return pixel{r: dot10(coeffs[0], t), g: dot10(coeffs[1], t), b: dot10(coeffs[2], t), a: px.a}
	}), nil
}

func colorMonochrome(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	c, err := params.RequireColor(filterkit.KeyColor)
	if err != nil {
		return nil, err
	}
	intensity := clamp01(params.Float64Or(filterkit.KeyIntensity, 1))
	return p.colorFunc(src, func(px pixel) pixel {
		l := luma(px.r, px.g, px.b)
		return pixel{
			r: lerp(px.r, c.R*l, intensity),
			g: lerp(px.g, c.G*l, intensity),
			b: lerp(px.b, c.B*l, intensity),
			a: px.a,
		}
	}), nil
}

func colorPosterize(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	levels := math.Round(params.Float64Or(filterkit.KeyLevels, 6))
	if levels < 2 {
		return nil, fmt.Errorf("%w: %s must be at least 2", filterkit.ErrInvalidParams, filterkit.KeyLevels)
	}
	steps := levels - 1
	quantize := func(v float64) float64 {
		return math.Round(v*steps) / steps
	}
	return p.colorFunc(src, func(px pixel) pixel {
		return pixel{r: quantize(px.r), g: quantize(px.g), b: quantize(px.b), a: px.a}
	}), nil
}

func falseColor(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	c0, err := params.RequireColor(filterkit.KeyColor0)
	if err != nil {
		return nil, err
	}
	c1, err := params.RequireColor(filterkit.KeyColor1)
	if err != nil {
		return nil, err
	}
	return p.colorFunc(src, func(px pixel) pixel {
		l := luma(px.r, px.g, px.b)
		return pixel{
			r: lerp(c0.R, c1.R, l),
			g: lerp(c0.G, c1.G, l),
			b: lerp(c0.B, c1.B, l),
			a: px.a * lerp(c0.A, c1.A, l),
		}
	}), nil
}

func maskToAlpha(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.colorFunc(src, func(px pixel) pixel {
		return pixel{r: 1, g: 1, b: 1, a: luma(px.r, px.g, px.b) * px.a}
	}), nil
}

func maximumComponent(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.colorFunc(src, func(px pixel) pixel {
		m := math.Max(px.r, math.Max(px.g, px.b))
		return pixel{r: m, g: m, b: m, a: px.a}
	}), nil
}

func minimumComponent(_ context.Context, p *Processor, src *image.NRGBA, _ filterkit.Params) (*image.NRGBA, error) {
	return p.colorFunc(src, func(px pixel) pixel {
		m := math.Min(px.r, math.Min(px.g, px.b))
		return pixel{r: m, g: m, b: m, a: px.a}
	}), nil
}

func colorCube(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	dim, ok := params.Int(filterkit.KeyCubeDimension)
	if !ok {
		// cube params omitted on invalid table, nothing to map
		return nil, nil
	}
	data, _ := params.Bytes(filterkit.KeyCubeData)
	entries, err := filterkit.Cube{Dimension: dim, Data: data}.Entries()
	if err != nil {
		return nil, err
	}
	lut := newCubeLUT(dim, entries)
	colorSpace, _ := params.String(filterkit.KeyColorSpace)
	return p.colorFunc(src, func(px pixel) pixel {
		switch filterkit.ColorSpace(colorSpace) {
		case filterkit.ColorSpaceLinearSRGB:
			out := lut.lookup(srgbToLinear(px.r), srgbToLinear(px.g), srgbToLinear(px.b))
			out.r, out.g, out.b = linearToSRGB(out.r), linearToSRGB(out.g), linearToSRGB(out.b)
			out.a *= px.a
			return out
		case filterkit.ColorSpaceGray:
			l := luma(px.r, px.g, px.b)
			out := lut.lookup(l, l, l)
			out.a *= px.a
			return out
		}
		out := lut.lookup(px.r, px.g, px.b)
		out.a *= px.a
		return out
	}), nil
}

func colorMap(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	in, err := params.RequireImage(filterkit.KeyGradientImage)
	if err != nil {
		return nil, err
	}
	gradient, ok := in.(*Image)
	if !ok || gradient.img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: gradient image not owned by gift processor", filterkit.ErrInvalidParams)
	}
	b := gradient.img.Bounds()
	y := b.Min.Y + b.Dy()/2
	samples := make([]pixel, b.Dx())
	for x := range samples {
		samples[x] = getPixel(gradient.img, b.Min.X+x, y)
	}
	last := float64(len(samples) - 1)
	return p.colorFunc(src, func(px pixel) pixel {
		out := samples[int(math.Round(clamp01(luma(px.r, px.g, px.b))*last))]
		out.a *= px.a
		return out
	}), nil
}

// cubeLUT trilinear lookup cube, red index varying fastest
type cubeLUT struct {
	dim     int
	entries filterkit.ColorCubeData
}

func newCubeLUT(dim int, entries filterkit.ColorCubeData) *cubeLUT {
	return &cubeLUT{dim: dim, entries: entries}
}

func (c *cubeLUT) at(r, g, b int) pixel {
	e := c.entries[(b*c.dim+g)*c.dim+r]
	return pixel{r: e.R, g: e.G, b: e.B, a: e.A}
}

func (c *cubeLUT) lookup(r, g, b float64) pixel {
	if c.dim < 2 {
		return c.at(0, 0, 0)
	}
	n := float64(c.dim - 1)
	fr, fg, fb := clamp01(r)*n, clamp01(g)*n, clamp01(b)*n
	r0, g0, b0 := int(fr), int(fg), int(fb)
	r1, g1, b1 := min(r0+1, c.dim-1), min(g0+1, c.dim-1), min(b0+1, c.dim-1)
	dr, dg, db := fr-float64(r0), fg-float64(g0), fb-float64(b0)
	mix := func(a, b pixel, t float64) pixel {
		return pixel{r: lerp(a.r, b.r, t), g: lerp(a.g, b.g, t), b: lerp(a.b, b.b, t), a: lerp(a.a, b.a, t)}
	}
	c00 := mix(c.at(r0, g0, b0), c.at(r1, g0, b0), dr)
	c10 := mix(c.at(r0, g1, b0), c.at(r1, g1, b0), dr)
	c01 := mix(c.at(r0, g0, b1), c.at(r1, g0, b1), dr)
	c11 := mix(c.at(r0, g1, b1), c.at(r1, g1, b1), dr)
	return mix(mix(c00, c10, dg), mix(c01, c11, dg), db)
}

func vignette(ctx context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	radius := math.Max(params.Float64Or(filterkit.KeyRadius, 1), 0)
	intensity := params.Float64Or(filterkit.KeyIntensity, 0)
	b := src.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	outer := math.Hypot(cx, cy)
	// larger radius pushes the falloff start towards the corners
	inner := outer * radius / (1 + radius)
	return p.darken(ctx, src, cx, cy, inner, outer, intensity)
}

func vignetteEffect(ctx context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	center, err := params.RequireVector(filterkit.KeyCenter, 2)
	if err != nil {
		return nil, err
	}
	radius := math.Max(params.Float64Or(filterkit.KeyRadius, 150), 0)
	falloff := math.Max(params.Float64Or(filterkit.KeyFalloff, 0.5), 0)
	intensity := params.Float64Or(filterkit.KeyIntensity, 1)
	return p.darken(ctx, src, center[0], center[1], radius, radius*(1+falloff), intensity)
}

// darken scales color by 1 - intensity * smoothstep(inner, outer, distance from cx, cy)
func (p *Processor) darken(ctx context.Context, src *image.NRGBA, cx, cy, inner, outer, intensity float64) (*image.NRGBA, error) {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if err := p.rows(ctx, b.Dy(), func(y int) {
		for x := 0; x < b.Dx(); x++ {
			px := getPixel(src, b.Min.X+x, b.Min.Y+y)
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			f := 1 - intensity*smoothstep(inner, outer, d)
			px.r, px.g, px.b = px.r*f, px.g*f, px.b*f
			setPixel(dst, x, y, px)
		}
	}); err != nil {
		return nil, err
	}
	return dst, nil
}
