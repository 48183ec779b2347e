package vipsprocessor

import (
	"context"
	"fmt"
	"math"

	"github.com/cshum/filterkit"
	"github.com/cshum/vipsgen/vips"
)

// linearRGB applies per channel a*x + b, alpha untouched
func linearRGB(img *vips.Image, a, b []float64) error {
	if img.HasAlpha() {
		a = append(a, 1)
		b = append(b, 0)
	}
	return img.Linear(a, b, nil)
}

// toSRGB brings single band images back to three bands
func toSRGB(img *vips.Image) error {
	if img.Bands() < 3 {
		return img.Colourspace(vips.InterpretationSrgb, nil)
	}
	return nil
}

func colorInvert(_ context.Context, _ *Processor, img *vips.Image, _ filterkit.Params) error {
	if err := toSRGB(img); err != nil {
		return err
	}
	// 255 - x, keeps alpha
	return linearRGB(img, []float64{-1, -1, -1}, []float64{255, 255, 255})
}

func photoEffectMono(_ context.Context, _ *Processor, img *vips.Image, _ filterkit.Params) error {
	if err := img.Colourspace(vips.InterpretationBW, nil); err != nil {
		return err
	}
	return toSRGB(img)
}

func photoEffectNoir(ctx context.Context, v *Processor, img *vips.Image, params filterkit.Params) error {
	if err := photoEffectMono(ctx, v, img, params); err != nil {
		return err
	}
	const contrast = 1.3
	mid := 128 * (1 - contrast)
	return linearRGB(img, []float64{contrast, contrast, contrast}, []float64{mid, mid, mid})
}

// colorPolynomial handles linear coefficients only, higher order falls through
func colorPolynomial(_ context.Context, _ *Processor, img *vips.Image, params filterkit.Params) error {
	var a, b []float64
	keys := []string{
		filterkit.KeyRedCoefficients, filterkit.KeyGreenCoefficients,
		filterkit.KeyBlueCoefficients, filterkit.KeyAlphaCoefficients,
	}
	for _, key := range keys {
		c, err := params.RequireVector(key, 4)
		if err != nil {
			return err
		}
		if c[2] != 0 || c[3] != 0 {
			return fmt.Errorf("vipsprocessor: non linear polynomial: %w", filterkit.ErrUnsupportedFilter)
		}
		a = append(a, c[1])
		b = append(b, c[0]*255)
	}
	if err := toSRGB(img); err != nil {
		return err
	}
	if !img.HasAlpha() {
		a, b = a[:3], b[:3]
	}
	return img.Linear(a, b, nil)
}

func crop(_ context.Context, _ *Processor, img *vips.Image, params filterkit.Params) error {
	v, err := params.RequireVector(filterkit.KeyRectangle, 4)
	if err != nil {
		return err
	}
	r := filterkit.RectFromVector(v)
	left := max(int(math.Floor(r.X)), 0)
	top := max(int(math.Floor(r.Y)), 0)
	right := min(int(math.Ceil(r.X+r.Width)), img.Width())
	bottom := min(int(math.Ceil(r.Y+r.Height)), img.PageHeight())
	if right <= left || bottom <= top {
		return fmt.Errorf("%w: crop %v outside of image", filterkit.ErrInvalidParams, v)
	}
	return img.ExtractAreaMultiPage(left, top, right-left, bottom-top)
}

func lanczosScaleTransform(_ context.Context, _ *Processor, img *vips.Image, params filterkit.Params) error {
	scale := params.Float64Or(filterkit.KeyScale, 1)
	aspect := params.Float64Or(filterkit.KeyAspectRatio, 1)
	if scale <= 0 || aspect <= 0 {
		return fmt.Errorf("%w: scale %v aspect ratio %v", filterkit.ErrInvalidParams, scale, aspect)
	}
	return img.Resize(scale*aspect, &vips.ResizeOptions{Vscale: scale})
}

// straighten rotates by angle then crops the largest centered
// rectangle of the original aspect, scaled back to the original size
func straighten(_ context.Context, _ *Processor, img *vips.Image, params filterkit.Params) error {
	angle := params.Float64Or(filterkit.KeyAngle, 0)
	if angle == 0 {
		return nil
	}
	w, h := float64(img.Width()), float64(img.PageHeight())
	// vips rotates clockwise in degrees
	if err := img.Rotate(-angle*180/math.Pi, nil); err != nil {
		return err
	}
	s, c := math.Abs(math.Sin(angle)), math.Abs(math.Cos(angle))
	k := math.Min(w/(w*c+h*s), h/(w*s+h*c))
	cw, ch := int(math.Round(w*k)), int(math.Round(h*k))
	left := (img.Width() - cw) / 2
	top := (img.Height() - ch) / 2
	if err := img.ExtractArea(left, top, cw, ch); err != nil {
		return err
	}
	return img.Resize(w/float64(cw), &vips.ResizeOptions{Vscale: h / float64(ch)})
}

func sharpenLuminance(_ context.Context, _ *Processor, img *vips.Image, params filterkit.Params) error {
	s := params.Float64Or(filterkit.KeySharpness, 0.4)
	if s <= 0 {
		return nil
	}
	return img.Sharpen(&vips.SharpenOptions{Sigma: 0.5, M2: s * 5})
}

func unsharpMask(_ context.Context, _ *Processor, img *vips.Image, params filterkit.Params) error {
	radius := params.Float64Or(filterkit.KeyRadius, 2.5)
	intensity := params.Float64Or(filterkit.KeyIntensity, 0.5)
	if radius <= 0 || intensity <= 0 {
		return nil
	}
	return img.Sharpen(&vips.SharpenOptions{Sigma: radius, M2: intensity * 5})
}
