package filterkit

import (
	"math"
)

// Vector numeric vector parameter value
type Vector []float64

// At returns component i, or 0 if out of range
func (v Vector) At(i int) float64 {
	if i < 0 || i >= len(v) {
		return 0
	}
	return v[i]
}

// Point 2D point in pixel coordinates
type Point struct {
	X float64
	Y float64
}

// Vector returns [x, y]
func (p Point) Vector() Vector {
	return Vector{p.X, p.Y}
}

// Rect rectangle in pixel coordinates, origin at X, Y
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Vector returns [x, y, width, height]
func (r Rect) Vector() Vector {
	return Vector{r.X, r.Y, r.Width, r.Height}
}

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// RectFromVector converts [x, y, width, height] to Rect
func RectFromVector(v Vector) Rect {
	return Rect{X: v.At(0), Y: v.At(1), Width: v.At(2), Height: v.At(3)}
}

// PointFromVector converts [x, y] to Point
func PointFromVector(v Vector) Point {
	return Point{X: v.At(0), Y: v.At(1)}
}

// Color RGBA color, components normalized 0 to 1
type Color struct {
	R float64
	G float64
	B float64
	A float64
}

// Vector returns [r, g, b, a]
func (c Color) Vector() Vector {
	return Vector{c.R, c.G, c.B, c.A}
}

// Vector4 four component vector, e.g. per channel coefficients
type Vector4 struct {
	X float64
	Y float64
	Z float64
	W float64
}

// Vector returns [x, y, z, w]
func (v Vector4) Vector() Vector {
	return Vector{v.X, v.Y, v.Z, v.W}
}

// CrossPolynomial ten coefficients of a cross polynomial over r, g, b:
// 1, r, g, b, r², g², b², rg, gb, br
type CrossPolynomial [10]float64

// Vector returns the coefficients in order
func (c CrossPolynomial) Vector() Vector {
	v := make(Vector, len(c))
	copy(v, c[:])
	return v
}

// AffineTransform 2D affine transform
//
//	x' = a*x + c*y + tx
//	y' = b*x + d*y + ty
type AffineTransform struct {
	A  float64
	B  float64
	C  float64
	D  float64
	TX float64
	TY float64
}

// IdentityTransform identity affine transform
var IdentityTransform = AffineTransform{A: 1, D: 1}

// RotationTransform rotation by angle in radians
func RotationTransform(angle float64) AffineTransform {
	sin, cos := math.Sincos(angle)
	return AffineTransform{A: cos, B: sin, C: -sin, D: cos}
}

// ScaleTransform scaling by sx, sy
func ScaleTransform(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// Vector returns [a, b, c, d, tx, ty]
func (t AffineTransform) Vector() Vector {
	return Vector{t.A, t.B, t.C, t.D, t.TX, t.TY}
}

// Apply maps point p through the transform
func (t AffineTransform) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.C*p.Y + t.TX,
		Y: t.B*p.X + t.D*p.Y + t.TY,
	}
}

// AffineTransformFromVector converts [a, b, c, d, tx, ty] to AffineTransform
func AffineTransformFromVector(v Vector) AffineTransform {
	return AffineTransform{A: v.At(0), B: v.At(1), C: v.At(2), D: v.At(3), TX: v.At(4), TY: v.At(5)}
}

// ColorSpace named working color space for cube lookups
type ColorSpace string

// Color spaces
const (
	ColorSpaceSRGB       ColorSpace = "srgb"
	ColorSpaceLinearSRGB ColorSpace = "linear-srgb"
	ColorSpaceDisplayP3  ColorSpace = "display-p3"
	ColorSpaceGray       ColorSpace = "gray"
)
