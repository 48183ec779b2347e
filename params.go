package filterkit

import (
	"fmt"
	"sort"
)

// Well-known parameter keys
const (
	KeyImage       = "inputImage"
	KeyColor       = "inputColor"
	KeyIntensity   = "inputIntensity"
	KeyRadius      = "inputRadius"
	KeyCenter      = "inputCenter"
	KeyTransform   = "inputTransform"
	KeyExtent      = "inputExtent"
	KeyAngle       = "inputAngle"
	KeySharpness   = "inputSharpness"
	KeyScale       = "inputScale"
	KeyAspectRatio = "inputAspectRatio"
)

// Filter specific parameter keys
const (
	KeyMinComponents     = "inputMinComponents"
	KeyMaxComponents     = "inputMaxComponents"
	KeyRedCoefficients   = "inputRedCoefficients"
	KeyGreenCoefficients = "inputGreenCoefficients"
	KeyBlueCoefficients  = "inputBlueCoefficients"
	KeyAlphaCoefficients = "inputAlphaCoefficients"
	KeyCubeDimension     = "inputCubeDimension"
	KeyCubeData          = "inputCubeData"
	KeyColorSpace        = "inputColorSpace"
	KeyGradientImage     = "inputGradientImage"
	KeyLevels            = "inputLevels"
	KeyColor0            = "inputColor0"
	KeyColor1            = "inputColor1"
	KeyFalloff           = "inputFalloff"
	KeyRectangle         = "inputRectangle"
	KeyTopLeft           = "inputTopLeft"
	KeyTopRight          = "inputTopRight"
	KeyBottomLeft        = "inputBottomLeft"
	KeyBottomRight       = "inputBottomRight"
	KeyCount             = "inputCount"
	KeyHeight            = "inputHeight"
	KeyHighLimit         = "inputHighLimit"
	KeyLowLimit          = "inputLowLimit"
)

// Params string keyed filter parameter mapping.
// Params handed to an Engine must be treated as read-only.
type Params map[string]any

// Keys returns sorted parameter keys
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is present
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Image returns the image under key
func (p Params) Image(key string) (Image, bool) {
	v, ok := p[key].(Image)
	return v, ok && v != nil
}

// Float64 returns the number under key, accepting any numeric kind
func (p Params) Float64(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Int returns the integer under key
func (p Params) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Vector returns the vector under key
func (p Params) Vector(key string) (Vector, bool) {
	v, ok := p[key].(Vector)
	return v, ok
}

// Color returns the color under key
func (p Params) Color(key string) (Color, bool) {
	v, ok := p[key].(Color)
	return v, ok
}

// Bytes returns the raw buffer under key
func (p Params) Bytes(key string) ([]byte, bool) {
	v, ok := p[key].([]byte)
	return v, ok
}

// String returns the string under key
func (p Params) String(key string) (string, bool) {
	switch v := p[key].(type) {
	case string:
		return v, true
	case ColorSpace:
		return string(v), true
	}
	return "", false
}

// Float64Or returns the number under key, or def if absent
func (p Params) Float64Or(key string, def float64) float64 {
	if v, ok := p.Float64(key); ok {
		return v
	}
	return def
}

// RequireFloat64 returns the number under key or ErrInvalidParams
func (p Params) RequireFloat64(key string) (float64, error) {
	if v, ok := p.Float64(key); ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %s is not a number", ErrInvalidParams, key)
}

// RequireVector returns the vector under key with at least n components or ErrInvalidParams
func (p Params) RequireVector(key string, n int) (Vector, error) {
	if v, ok := p.Vector(key); ok && len(v) >= n {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s is not a vector of %d", ErrInvalidParams, key, n)
}

// RequireColor returns the color under key or ErrInvalidParams
func (p Params) RequireColor(key string) (Color, error) {
	if v, ok := p.Color(key); ok {
		return v, nil
	}
	return Color{}, fmt.Errorf("%w: %s is not a color", ErrInvalidParams, key)
}

// RequireImage returns the image under key or ErrInvalidParams
func (p Params) RequireImage(key string) (Image, error) {
	if v, ok := p.Image(key); ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s is not an image", ErrInvalidParams, key)
}

// paramsBuilder accumulates parameters for a single filter construction
type paramsBuilder struct {
	params  Params
	warning error
}

func newParamsBuilder(img Image) *paramsBuilder {
	return &paramsBuilder{params: Params{KeyImage: img}}
}

func (b *paramsBuilder) Set(key string, value any) *paramsBuilder {
	b.params[key] = value
	return b
}

// SetOptional sets value only if not nil
func (b *paramsBuilder) SetOptional(key string, value *float64) *paramsBuilder {
	if value != nil {
		b.params[key] = *value
	}
	return b
}

// Params returns the assembled mapping, detached from the builder
func (b *paramsBuilder) Params() Params {
	p := make(Params, len(b.params))
	for k, v := range b.params {
		p[k] = v
	}
	return p
}
