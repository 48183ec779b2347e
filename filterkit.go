// Package filterkit provides typed, composable image filters on top of
// pluggable filter engines.
//
// A filter is built from a strongly typed options value and returns a
// function from an input image to an output image. The actual pixel work
// is delegated to the Engine owning the input image:
//
//	sepia := filterkit.SepiaTone(filterkit.Float64(0.8))
//	crop := filterkit.Crop(filterkit.Rect{X: 0, Y: 0, Width: 200, Height: 100})
//	out, err := filterkit.Chain(sepia, crop)(ctx, img)
package filterkit

import (
	"context"
	"errors"
)

// Version filterkit version
const Version = "0.3.0"

// Image an image owned by an Engine
type Image interface {
	// Engine returns the engine that executes filters on this image
	Engine() Engine
	// Extent returns the image bounds in pixel coordinates
	Extent() Rect
}

// Engine executes named filters with their parameter mapping
type Engine interface {
	NewFilter(name Name, params Params) (Instance, error)
}

// Instance a configured filter ready to produce output
type Instance interface {
	// OutputImage produces the filter output.
	// A nil image with nil error means the engine produced no output.
	OutputImage(ctx context.Context) (Image, error)
}

// Filter image to image transformation.
// A nil Image is always returned together with a non-nil error.
type Filter func(ctx context.Context, img Image) (Image, error)

// Then returns a Filter that applies f and feeds its output to next
func (f Filter) Then(next Filter) Filter {
	return Chain(f, next)
}

// Chain composes filters left to right, short-circuiting on the first failure
func Chain(filters ...Filter) Filter {
	return func(ctx context.Context, img Image) (Image, error) {
		var err error
		for _, filter := range filters {
			if filter == nil {
				continue
			}
			if err = ctx.Err(); err != nil {
				return nil, err
			}
			if img, err = filter(ctx, img); err != nil {
				return nil, err
			}
		}
		return img, nil
	}
}

// Apply executes filter name with params on the engine owning img
func Apply(ctx context.Context, img Image, name Name, params Params) (Image, error) {
	if img == nil || img.Engine() == nil {
		return nil, ErrNoImage
	}
	instance, err := img.Engine().NewFilter(name, params)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, ErrNoOutput
	}
	out, err := instance.OutputImage(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNoOutput
	}
	return out, nil
}

// newFilter returns a Filter that assembles params for the input image with build
func newFilter(name Name, build func(p *paramsBuilder)) Filter {
	return func(ctx context.Context, img Image) (Image, error) {
		b := newParamsBuilder(img)
		if build != nil {
			build(b)
		}
		out, err := Apply(ctx, img, name, b.Params())
		if err != nil && b.warning != nil && errors.Is(err, ErrNoOutput) {
			return nil, errors.Join(err, b.warning)
		}
		return out, err
	}
}

// noParamsFilter filter that passes only the input image
func noParamsFilter(name Name) Filter {
	return newFilter(name, nil)
}

// Float64 returns a pointer to v, for optional filter parameters
func Float64(v float64) *float64 {
	return &v
}
