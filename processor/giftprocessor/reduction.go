package giftprocessor

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/cshum/filterkit"
)

const maxHistogramBins = 2048

// areaHistogram counts r, g, b values of the extent into Count bins,
// output is a Count x 1 image with each channel normalized by pixel count times scale
func areaHistogram(_ context.Context, _ *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	count, ok := params.Int(filterkit.KeyCount)
	if !ok || count < 1 || count > maxHistogramBins {
		return nil, fmt.Errorf("%w: %s must be between 1 and %d", filterkit.ErrInvalidParams, filterkit.KeyCount, maxHistogramBins)
	}
	scale := params.Float64Or(filterkit.KeyScale, 1)
	rect := src.Bounds()
	if v, ok := params.Vector(filterkit.KeyExtent); ok && len(v) >= 4 {
		r := filterkit.RectFromVector(v)
		rect = image.Rect(
			int(math.Floor(r.X)), int(math.Floor(r.Y)),
			int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
		).Intersect(rect)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, count, 1))
	if rect.Empty() {
		return dst, nil
	}
	bins := make([][3]float64, count)
	bin := func(v float64) int {
		return min(int(v*float64(count)), count-1)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			px := getPixel(src, x, y)
			bins[bin(px.r)][0]++
			bins[bin(px.g)][1]++
			bins[bin(px.b)][2]++
		}
	}
	total := float64(rect.Dx() * rect.Dy())
	for i, c := range bins {
		setPixel(dst, i, 0, pixel{
			r: c[0] / total * scale,
			g: c[1] / total * scale,
			b: c[2] / total * scale,
			a: 1,
		})
	}
	return dst, nil
}

// histogramDisplay draws each input column as r, g, b bars of the given height,
// values between LowLimit and HighLimit span the full bar
func histogramDisplay(ctx context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	height := int(math.Round(params.Float64Or(filterkit.KeyHeight, 100)))
	low := params.Float64Or(filterkit.KeyLowLimit, 0)
	high := params.Float64Or(filterkit.KeyHighLimit, 1)
	if height < 1 || high <= low {
		return nil, fmt.Errorf("%w: height %d limits %v to %v", filterkit.ErrInvalidParams, height, low, high)
	}
	b := src.Bounds()
	w := b.Dx()
	if err := p.checkResolution(w, height); err != nil {
		return nil, err
	}
	bars := make([][3]int, w)
	for x := 0; x < w; x++ {
		// bars from the first row
		px := getPixel(src, b.Min.X+x, b.Min.Y)
		for c, v := range [3]float64{px.r, px.g, px.b} {
			bars[x][c] = int(math.Round(clamp01((v-low)/(high-low)) * float64(height)))
		}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, height))
	if err := p.rows(ctx, height, func(y int) {
		level := height - y
		for x := 0; x < w; x++ {
			out := pixel{a: 1}
			if bars[x][0] >= level {
				out.r = 1
			}
			if bars[x][1] >= level {
				out.g = 1
			}
			if bars[x][2] >= level {
				out.b = 1
			}
			setPixel(dst, x, y, out)
		}
	}); err != nil {
		return nil, err
	}
	return dst, nil
}
