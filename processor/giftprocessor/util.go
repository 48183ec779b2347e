package giftprocessor

import (
	"context"
	"image"
	"math"

	"github.com/disintegration/gift"
	"golang.org/x/sync/errgroup"
)

// apply draws src through gift filters into a new image
func (p *Processor) apply(src *image.NRGBA, filters ...gift.Filter) *image.NRGBA {
	g := gift.New(filters...)
	g.SetParallelization(p.Parallelization)
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return toNRGBA(dst)
}

// rows calls fn for every row in [0, height), spread over Concurrency workers
func (p *Processor) rows(ctx context.Context, height int, fn func(y int)) error {
	if height <= 0 {
		return nil
	}
	workers := max(p.Concurrency, 1)
	step := (height + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < height; start += step {
		end := min(start+step, height)
		g.Go(func() error {
			for y := start; y < end; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				fn(y)
			}
			return nil
		})
	}
	return g.Wait()
}

// pixel normalized non-premultiplied rgba
type pixel struct {
	r, g, b, a float64
}

func getPixel(img *image.NRGBA, x, y int) pixel {
	i := img.PixOffset(x, y)
	s := img.Pix[i : i+4 : i+4]
	return pixel{
		r: float64(s[0]) / 255,
		g: float64(s[1]) / 255,
		b: float64(s[2]) / 255,
		a: float64(s[3]) / 255,
	}
}

func setPixel(img *image.NRGBA, x, y int, px pixel) {
	i := img.PixOffset(x, y)
	s := img.Pix[i : i+4 : i+4]
	s[0] = toByte(px.r)
	s[1] = toByte(px.g)
	s[2] = toByte(px.b)
	s[3] = toByte(px.a)
}

func toByte(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

// bilinear samples img at continuous pixel coordinates, transparent outside
func bilinear(img *image.NRGBA, fx, fy float64) pixel {
	b := img.Bounds()
	fx -= 0.5
	fy -= 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)
	var out pixel
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			x, y := x0+i, y0+j
			if x < b.Min.X || y < b.Min.Y || x >= b.Max.X || y >= b.Max.Y {
				continue
			}
			w := (1 - math.Abs(float64(i)-tx)) * (1 - math.Abs(float64(j)-ty))
			px := getPixel(img, x, y)
			// accumulate premultiplied
			out.r += px.r * px.a * w
			out.g += px.g * px.a * w
			out.b += px.b * px.a * w
			out.a += px.a * w
		}
	}
	if out.a > 0 {
		out.r /= out.a
		out.g /= out.a
		out.b /= out.a
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func smoothstep(edge0, edge1, x float64) float64 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

// luma Rec. 709 luminance
func luma(r, g, b float64) float64 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

// poly3 evaluates c[0] + c[1]*v + c[2]*v² + c[3]*v³
func poly3(c []float64, v float64) float64 {
	return c[0] + c[1]*v + c[2]*v*v + c[3]*v*v*v
}
