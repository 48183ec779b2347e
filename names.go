package filterkit

import (
	"sort"
	"strings"
	"unicode"
)

// Name filter identifier recognized by engines
type Name string

// Family filter family
type Family string

// Filter families
const (
	FamilyColorEffect        Family = "color_effect"
	FamilyGeometryAdjustment Family = "geometry_adjustment"
	FamilySharpen            Family = "sharpen"
	FamilyReduction          Family = "reduction"
)

// Color effect filters
const (
	ColorClampName              Name = "CIColorClamp"
	ColorCrossPolynomialName    Name = "CIColorCrossPolynomial"
	ColorCubeName               Name = "CIColorCube"
	ColorCubeWithColorSpaceName Name = "CIColorCubeWithColorSpace"
	ColorInvertName             Name = "CIColorInvert"
	ColorMapName                Name = "CIColorMap"
	ColorMonochromeName         Name = "CIColorMonochrome"
	ColorPolynomialName         Name = "CIColorPolynomial"
	ColorPosterizeName          Name = "CIColorPosterize"
	FalseColorName              Name = "CIFalseColor"
	MaskToAlphaName             Name = "CIMaskToAlpha"
	MaximumComponentName        Name = "CIMaximumComponent"
	MinimumComponentName        Name = "CIMinimumComponent"
	PhotoEffectChromeName       Name = "CIPhotoEffectChrome"
	PhotoEffectFadeName         Name = "CIPhotoEffectFade"
	PhotoEffectInstantName      Name = "CIPhotoEffectInstant"
	PhotoEffectMonoName         Name = "CIPhotoEffectMono"
	PhotoEffectNoirName         Name = "CIPhotoEffectNoir"
	PhotoEffectProcessName      Name = "CIPhotoEffectProcess"
	PhotoEffectTonalName        Name = "CIPhotoEffectTonal"
	PhotoEffectTransferName     Name = "CIPhotoEffectTransfer"
	SepiaToneName               Name = "CISepiaTone"
	VignetteName                Name = "CIVignette"
	VignetteEffectName          Name = "CIVignetteEffect"
)

// Geometry adjustment filters
const (
	AffineTransformName                Name = "CIAffineTransform"
	CropName                           Name = "CICrop"
	LanczosScaleTransformName          Name = "CILanczosScaleTransform"
	PerspectiveCorrectionName          Name = "CIPerspectiveCorrection"
	PerspectiveTileName                Name = "CIPerspectiveTile"
	PerspectiveTransformName           Name = "CIPerspectiveTransform"
	PerspectiveTransformWithExtentName Name = "CIPerspectiveTransformWithExtent"
	StraightenFilterName               Name = "CIStraightenFilter"
)

// Reduction filters
const (
	AreaHistogramName          Name = "CIAreaHistogram"
	HistogramDisplayFilterName Name = "CIHistogramDisplayFilter"
)

// Sharpen filters
const (
	SharpenLuminanceName Name = "CISharpenLuminance"
	UnsharpMaskName      Name = "CIUnsharpMask"
)

// registry read-only after initialization
var registry = map[Name]Family{
	ColorClampName:              FamilyColorEffect,
	ColorCrossPolynomialName:    FamilyColorEffect,
	ColorCubeName:               FamilyColorEffect,
	ColorCubeWithColorSpaceName: FamilyColorEffect,
	ColorInvertName:             FamilyColorEffect,
	ColorMapName:                FamilyColorEffect,
	ColorMonochromeName:         FamilyColorEffect,
	ColorPolynomialName:         FamilyColorEffect,
	ColorPosterizeName:          FamilyColorEffect,
	FalseColorName:              FamilyColorEffect,
	MaskToAlphaName:             FamilyColorEffect,
	MaximumComponentName:        FamilyColorEffect,
	MinimumComponentName:        FamilyColorEffect,
	PhotoEffectChromeName:       FamilyColorEffect,
	PhotoEffectFadeName:         FamilyColorEffect,
	PhotoEffectInstantName:      FamilyColorEffect,
	PhotoEffectMonoName:         FamilyColorEffect,
	PhotoEffectNoirName:         FamilyColorEffect,
	PhotoEffectProcessName:      FamilyColorEffect,
	PhotoEffectTonalName:        FamilyColorEffect,
	PhotoEffectTransferName:     FamilyColorEffect,
	SepiaToneName:               FamilyColorEffect,
	VignetteName:                FamilyColorEffect,
	VignetteEffectName:          FamilyColorEffect,

	AffineTransformName:                FamilyGeometryAdjustment,
	CropName:                           FamilyGeometryAdjustment,
	LanczosScaleTransformName:          FamilyGeometryAdjustment,
	PerspectiveCorrectionName:          FamilyGeometryAdjustment,
	PerspectiveTileName:                FamilyGeometryAdjustment,
	PerspectiveTransformName:           FamilyGeometryAdjustment,
	PerspectiveTransformWithExtentName: FamilyGeometryAdjustment,
	StraightenFilterName:               FamilyGeometryAdjustment,

	AreaHistogramName:          FamilyReduction,
	HistogramDisplayFilterName: FamilyReduction,

	SharpenLuminanceName: FamilySharpen,
	UnsharpMaskName:      FamilySharpen,
}

// keys registered names by snake case key
var keys = func() map[string]Name {
	m := make(map[string]Name, len(registry))
	for name := range registry {
		m[name.Key()] = name
	}
	return m
}()

// Lookup returns the registered Name for identifier s,
// either the filter identifier e.g. CIColorInvert or its key e.g. color_invert
func Lookup(s string) (Name, bool) {
	if _, ok := registry[Name(s)]; ok {
		return Name(s), true
	}
	if name, ok := keys[s]; ok {
		return name, true
	}
	return Name(s), false
}

// FamilyOf returns the family of a registered filter name
func FamilyOf(name Name) (Family, bool) {
	f, ok := registry[name]
	return f, ok
}

// Names returns all registered filter names sorted
func Names() []Name {
	names := make([]Name, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})
	return names
}

// Registered reports whether name is a known filter identifier
func (n Name) Registered() bool {
	_, ok := registry[n]
	return ok
}

// Key returns the snake case key of the name without the CI prefix,
// e.g. CIPhotoEffectNoir as photo_effect_noir
func (n Name) Key() string {
	s := strings.TrimPrefix(string(n), "CI")
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
