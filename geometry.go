package filterkit

// LanczosScaleTransformOptions CILanczosScaleTransform options
type LanczosScaleTransformOptions struct {
	Scale       float64
	AspectRatio float64
}

// PerspectiveOptions corner points shared by the perspective filters
type PerspectiveOptions struct {
	TopLeft     Point
	TopRight    Point
	BottomLeft  Point
	BottomRight Point
}

func (o PerspectiveOptions) set(p *paramsBuilder) {
	p.Set(KeyTopLeft, o.TopLeft.Vector())
	p.Set(KeyTopRight, o.TopRight.Vector())
	p.Set(KeyBottomLeft, o.BottomLeft.Vector())
	p.Set(KeyBottomRight, o.BottomRight.Vector())
}

// AffineTransformFilter applies an affine transform
func AffineTransformFilter(transform AffineTransform) Filter {
	return newFilter(AffineTransformName, func(p *paramsBuilder) {
		p.Set(KeyTransform, transform.Vector())
	})
}

// Crop crops to rect
func Crop(rect Rect) Filter {
	return newFilter(CropName, func(p *paramsBuilder) {
		p.Set(KeyRectangle, rect.Vector())
	})
}

// LanczosScaleTransform scales with Lanczos resampling
func LanczosScaleTransform(options LanczosScaleTransformOptions) Filter {
	return newFilter(LanczosScaleTransformName, func(p *paramsBuilder) {
		p.Set(KeyScale, options.Scale)
		p.Set(KeyAspectRatio, options.AspectRatio)
	})
}

// PerspectiveCorrection maps the quadrilateral to a rectangle
func PerspectiveCorrection(options PerspectiveOptions) Filter {
	return newFilter(PerspectiveCorrectionName, options.set)
}

// PerspectiveTile tiles the image after a perspective transform
func PerspectiveTile(options PerspectiveOptions) Filter {
	return newFilter(PerspectiveTileName, options.set)
}

// PerspectiveTransform maps the image onto the quadrilateral
func PerspectiveTransform(options PerspectiveOptions) Filter {
	return newFilter(PerspectiveTransformName, options.set)
}

// PerspectiveTransformWithExtent maps the extent of the image onto the quadrilateral,
// whole image if extent is nil
func PerspectiveTransformWithExtent(options PerspectiveOptions, extent *Rect) Filter {
	return newFilter(PerspectiveTransformWithExtentName, func(p *paramsBuilder) {
		options.set(p)
		if extent != nil {
			p.Set(KeyExtent, extent.Vector())
		}
	})
}

// Straighten rotates by angle in radians, engine default if nil
func Straighten(angle *float64) Filter {
	return newFilter(StraightenFilterName, func(p *paramsBuilder) {
		p.SetOptional(KeyAngle, angle)
	})
}
