package giftprocessor

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/cshum/filterkit"
	"github.com/disintegration/gift"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

func crop(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	v, err := params.RequireVector(filterkit.KeyRectangle, 4)
	if err != nil {
		return nil, err
	}
	r := filterkit.RectFromVector(v)
	rect := image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	).Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("%w: crop %v outside of image", filterkit.ErrInvalidParams, v)
	}
	return p.apply(src, gift.Crop(rect)), nil
}

func lanczosScaleTransform(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	scale := params.Float64Or(filterkit.KeyScale, 1)
	aspect := params.Float64Or(filterkit.KeyAspectRatio, 1)
	if scale <= 0 || aspect <= 0 {
		return nil, fmt.Errorf("%w: scale %v aspect ratio %v", filterkit.ErrInvalidParams, scale, aspect)
	}
	b := src.Bounds()
	w := max(int(math.Round(float64(b.Dx())*scale*aspect)), 1)
	h := max(int(math.Round(float64(b.Dy())*scale)), 1)
	if err := p.checkResolution(w, h); err != nil {
		return nil, err
	}
	return p.apply(src, gift.Resize(w, h, gift.LanczosResampling)), nil
}

// straighten rotates by angle then crops the largest centered
// rectangle of the original aspect, scaled back to the original size
func straighten(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	angle := params.Float64Or(filterkit.KeyAngle, 0)
	if angle == 0 {
		return p.apply(src), nil
	}
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	// gift rotates counter clockwise in degrees
	rotated := p.apply(src, gift.Rotate(float32(angle*180/math.Pi), image.Transparent, gift.CubicInterpolation))
	s, c := math.Abs(math.Sin(angle)), math.Abs(math.Cos(angle))
	k := math.Min(w/(w*c+h*s), h/(w*s+h*c))
	cw, ch := int(math.Round(w*k)), int(math.Round(h*k))
	rb := rotated.Bounds()
	x0 := rb.Min.X + (rb.Dx()-cw)/2
	y0 := rb.Min.Y + (rb.Dy()-ch)/2
	return p.apply(rotated,
		gift.Crop(image.Rect(x0, y0, x0+cw, y0+ch)),
		gift.Resize(b.Dx(), b.Dy(), gift.LanczosResampling),
	), nil
}

func affineTransform(_ context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	v, err := params.RequireVector(filterkit.KeyTransform, 6)
	if err != nil {
		return nil, err
	}
	t := filterkit.AffineTransformFromVector(v)
	if t.A*t.D-t.B*t.C == 0 {
		return nil, fmt.Errorf("%w: singular transform %v", filterkit.ErrInvalidParams, v)
	}
	b := src.Bounds()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range []filterkit.Point{
		{X: 0, Y: 0}, {X: float64(b.Dx()), Y: 0},
		{X: 0, Y: float64(b.Dy())}, {X: float64(b.Dx()), Y: float64(b.Dy())},
	} {
		q := t.Apply(pt)
		minX, minY = math.Min(minX, q.X), math.Min(minY, q.Y)
		maxX, maxY = math.Max(maxX, q.X), math.Max(maxY, q.Y)
	}
	w, h := boxSize(minX, minY, maxX, maxY)
	if err := p.checkResolution(w, h); err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	// translate so the transformed bounds start at the origin
	m := f64.Aff3{t.A, t.C, t.TX - minX, t.B, t.D, t.TY - minY}
	draw.CatmullRom.Transform(dst, m, src, b, draw.Over, nil)
	return dst, nil
}

func corners(params filterkit.Params) (q [4]filterkit.Point, err error) {
	for i, key := range []string{
		filterkit.KeyTopLeft, filterkit.KeyTopRight,
		filterkit.KeyBottomRight, filterkit.KeyBottomLeft,
	} {
		v, err := params.RequireVector(key, 2)
		if err != nil {
			return q, err
		}
		q[i] = filterkit.PointFromVector(v)
	}
	return
}

// perspectiveTransform maps the source extent onto the quadrilateral,
// output bounds are the bounding box of the quadrilateral
func perspectiveTransform(ctx context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	q, err := corners(params)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	extent := filterkit.Rect{Width: float64(b.Dx()), Height: float64(b.Dy())}
	if v, ok := params.Vector(filterkit.KeyExtent); ok && len(v) >= 4 {
		extent = filterkit.RectFromVector(v)
		if extent.Empty() {
			return nil, fmt.Errorf("%w: empty extent %v", filterkit.ErrInvalidParams, v)
		}
	}
	minX, minY, maxX, maxY := boundingBox(q)
	h, ok := rectToQuad(extent, q)
	if !ok {
		return nil, fmt.Errorf("%w: degenerate quadrilateral", filterkit.ErrInvalidParams)
	}
	inv, ok := h.inverse()
	if !ok {
		return nil, fmt.Errorf("%w: degenerate quadrilateral", filterkit.ErrInvalidParams)
	}
	return p.warp(ctx, src, inv, minX, minY, maxX, maxY)
}

// perspectiveCorrection maps the quadrilateral back to a rectangle
// sized by its average edge lengths
func perspectiveCorrection(ctx context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error) {
	q, err := corners(params)
	if err != nil {
		return nil, err
	}
	w := (dist(q[0], q[1]) + dist(q[3], q[2])) / 2
	hh := (dist(q[0], q[3]) + dist(q[1], q[2])) / 2
	if w < 1 || hh < 1 {
		return nil, fmt.Errorf("%w: degenerate quadrilateral", filterkit.ErrInvalidParams)
	}
	h, ok := rectToQuad(filterkit.Rect{Width: w, Height: hh}, q)
	if !ok {
		return nil, fmt.Errorf("%w: degenerate quadrilateral", filterkit.ErrInvalidParams)
	}
	return p.warp(ctx, src, h, 0, 0, w, hh)
}

// warp fills the destination box by sampling src at inv(x, y)
func (p *Processor) warp(ctx context.Context, src *image.NRGBA, inv homography, minX, minY, maxX, maxY float64) (*image.NRGBA, error) {
	w, h := boxSize(minX, minY, maxX, maxY)
	if err := p.checkResolution(w, h); err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if err := p.rows(ctx, h, func(y int) {
		for x := 0; x < w; x++ {
			sx, sy, ok := inv.apply(float64(x)+0.5+minX, float64(y)+0.5+minY)
			if !ok {
				continue
			}
			setPixel(dst, x, y, bilinear(src, sx, sy))
		}
	}); err != nil {
		return nil, err
	}
	return dst, nil
}

// boxSize integer size of the box, ignoring float error below a pixel fraction
func boxSize(minX, minY, maxX, maxY float64) (int, int) {
	const eps = 1e-6
	return max(int(math.Ceil(maxX-minX-eps)), 1), max(int(math.Ceil(maxY-minY-eps)), 1)
}

func dist(a, b filterkit.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func boundingBox(q [4]filterkit.Point) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, pt := range q {
		minX, minY = math.Min(minX, pt.X), math.Min(minY, pt.Y)
		maxX, maxY = math.Max(maxX, pt.X), math.Max(maxY, pt.Y)
	}
	return
}

// homography 3x3 projective matrix, row major
type homography [9]float64

func (h homography) apply(x, y float64) (float64, float64, bool) {
	w := h[6]*x + h[7]*y + h[8]
	if w == 0 {
		return 0, 0, false
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w, true
}

func (h homography) mul(o homography) (r homography) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r[i*3+j] += h[i*3+k] * o[k*3+j]
			}
		}
	}
	return
}

func (h homography) inverse() (homography, bool) {
	a, b, c := h[0], h[1], h[2]
	d, e, f := h[3], h[4], h[5]
	g, hh, i := h[6], h[7], h[8]
	det := a*(e*i-f*hh) - b*(d*i-f*g) + c*(d*hh-e*g)
	if math.Abs(det) < 1e-12 {
		return homography{}, false
	}
	return homography{
		(e*i - f*hh) / det, (c*hh - b*i) / det, (b*f - c*e) / det,
		(f*g - d*i) / det, (a*i - c*g) / det, (c*d - a*f) / det,
		(d*hh - e*g) / det, (b*g - a*hh) / det, (a*e - b*d) / det,
	}, true
}

// squareToQuad maps the unit square corners (0,0) (1,0) (1,1) (0,1) to q in order
func squareToQuad(q [4]filterkit.Point) (homography, bool) {
	x0, y0 := q[0].X, q[0].Y
	x1, y1 := q[1].X, q[1].Y
	x2, y2 := q[2].X, q[2].Y
	x3, y3 := q[3].X, q[3].Y
	sx := x0 - x1 + x2 - x3
	sy := y0 - y1 + y2 - y3
	if sx == 0 && sy == 0 {
		return homography{
			x1 - x0, x3 - x0, x0,
			y1 - y0, y3 - y0, y0,
			0, 0, 1,
		}, true
	}
	dx1, dx2 := x1-x2, x3-x2
	dy1, dy2 := y1-y2, y3-y2
	den := dx1*dy2 - dx2*dy1
	if den == 0 {
		return homography{}, false
	}
	g := (sx*dy2 - dx2*sy) / den
	hh := (dx1*sy - sx*dy1) / den
	return homography{
		x1 - x0 + g*x1, x3 - x0 + hh*x3, x0,
		y1 - y0 + g*y1, y3 - y0 + hh*y3, y0,
		g, hh, 1,
	}, true
}

// rectToQuad maps rect corners clockwise from top left onto q
func rectToQuad(r filterkit.Rect, q [4]filterkit.Point) (homography, bool) {
	if r.Empty() {
		return homography{}, false
	}
	s, ok := squareToQuad(q)
	if !ok {
		return homography{}, false
	}
	norm := homography{
		1 / r.Width, 0, -r.X / r.Width,
		0, 1 / r.Height, -r.Y / r.Height,
		0, 0, 1,
	}
	return s.mul(norm), true
}
