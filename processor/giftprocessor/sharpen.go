package giftprocessor

import (
	"context"
	"image"

	"github.com/cshum/filterkit"
	"github.com/disintegration/gift"
)

const (
	defaultSharpness          = 0.4
	defaultUnsharpRadius      = 2.5
	defaultUnsharpIntensity   = 0.5
	defaultUnsharpThreshold   = 0
	maxSharpenLuminanceFactor = 4
)

func unsharpMask(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	radius := params.Float64Or(filterkit.KeyRadius, defaultUnsharpRadius)
	intensity := params.Float64Or(filterkit.KeyIntensity, defaultUnsharpIntensity)
	if radius <= 0 || intensity == 0 {
		return p.apply(src), nil
	}
	return p.apply(src, gift.UnsharpMask(float32(radius), float32(intensity), defaultUnsharpThreshold)), nil
}

// sharpenLuminance 3x3 laplacian sharpen weighted by sharpness
func sharpenLuminance(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	s := float32(min(max(params.Float64Or(filterkit.KeySharpness, defaultSharpness), 0), maxSharpenLuminanceFactor))
	if s == 0 {
		return p.apply(src), nil
	}
	kernel := []float32{
		0, -s, 0,
		-s, 1 + 4*s, -s,
		0, -s, 0,
	}
	return p.apply(src, gift.Convolution(kernel, false, false, false, 0)), nil
}
