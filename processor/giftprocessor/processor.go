// Package giftprocessor implements filterkit.Engine in pure Go on top of
// github.com/disintegration/gift and golang.org/x/image.
package giftprocessor

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"runtime"
	"strings"
	"time"

	"github.com/cshum/filterkit"
	"go.uber.org/zap"
)

// FilterFunc engine filter handler, src is never modified
type FilterFunc func(ctx context.Context, p *Processor, src *image.NRGBA, params filterkit.Params) (*image.NRGBA, error)

// FilterMap engine filter handlers by filter name
type FilterMap map[filterkit.Name]FilterFunc

// Processor implements filterkit.Engine with gift
type Processor struct {
	Filters         FilterMap
	DisableFilters  []string
	Logger          *zap.Logger
	Concurrency     int
	MaxWidth        int
	MaxHeight       int
	MaxResolution   int
	Quality         int
	Parallelization bool
	Debug           bool

	disableFilters map[filterkit.Name]bool
}

// NewProcessor create Processor
func NewProcessor(options ...Option) *Processor {
	p := &Processor{
		MaxWidth:        9999,
		MaxHeight:       9999,
		MaxResolution:   81000000,
		Quality:         80,
		Concurrency:     1,
		Parallelization: true,
		Logger:          zap.NewNop(),
		disableFilters:  map[filterkit.Name]bool{},
	}
	p.Filters = FilterMap{
		filterkit.ColorClampName:              colorClamp,
		filterkit.ColorCrossPolynomialName:    colorCrossPolynomial,
		filterkit.ColorCubeName:               colorCube,
		filterkit.ColorCubeWithColorSpaceName: colorCube,
		filterkit.ColorInvertName:             colorInvert,
		filterkit.ColorMapName:                colorMap,
		filterkit.ColorMonochromeName:         colorMonochrome,
		filterkit.ColorPolynomialName:         colorPolynomial,
		filterkit.ColorPosterizeName:          colorPosterize,
		filterkit.FalseColorName:              falseColor,
		filterkit.MaskToAlphaName:             maskToAlpha,
		filterkit.MaximumComponentName:        maximumComponent,
		filterkit.MinimumComponentName:        minimumComponent,
		filterkit.PhotoEffectChromeName:       photoEffectChrome,
		filterkit.PhotoEffectFadeName:         photoEffectFade,
		filterkit.PhotoEffectInstantName:      photoEffectInstant,
		filterkit.PhotoEffectMonoName:         photoEffectMono,
		filterkit.PhotoEffectNoirName:         photoEffectNoir,
		filterkit.PhotoEffectProcessName:      photoEffectProcess,
		filterkit.PhotoEffectTonalName:        photoEffectTonal,
		filterkit.PhotoEffectTransferName:     photoEffectTransfer,
		filterkit.SepiaToneName:               sepiaTone,
		filterkit.VignetteName:                vignette,
		filterkit.VignetteEffectName:          vignetteEffect,

		filterkit.AffineTransformName:                affineTransform,
		filterkit.CropName:                           crop,
		filterkit.LanczosScaleTransformName:          lanczosScaleTransform,
		filterkit.PerspectiveCorrectionName:          perspectiveCorrection,
		filterkit.PerspectiveTransformName:           perspectiveTransform,
		filterkit.PerspectiveTransformWithExtentName: perspectiveTransform,
		filterkit.StraightenFilterName:               straighten,

		filterkit.AreaHistogramName:          areaHistogram,
		filterkit.HistogramDisplayFilterName: histogramDisplay,

		filterkit.SharpenLuminanceName: sharpenLuminance,
		filterkit.UnsharpMaskName:      unsharpMask,
	}
	for _, option := range options {
		option(p)
	}
	for _, name := range p.DisableFilters {
		if n, ok := filterkit.Lookup(name); ok {
			p.disableFilters[n] = true
		}
	}
	if p.Concurrency == -1 {
		p.Concurrency = runtime.NumCPU()
	}
	return p
}

// Startup implements service Processor interface
func (p *Processor) Startup(_ context.Context) error {
	p.Logger.Debug("gift processor startup", zap.Int("filters", len(p.Filters)))
	return nil
}

// Shutdown implements service Processor interface
func (p *Processor) Shutdown(_ context.Context) error {
	return nil
}

// Image filterkit.Image backed by *image.NRGBA
type Image struct {
	processor *Processor
	img       *image.NRGBA
}

// Engine implements filterkit.Image
func (i *Image) Engine() filterkit.Engine {
	if i == nil || i.processor == nil {
		return nil
	}
	return i.processor
}

// Extent implements filterkit.Image
func (i *Image) Extent() filterkit.Rect {
	b := i.img.Bounds()
	return filterkit.Rect{
		X: float64(b.Min.X), Y: float64(b.Min.Y),
		Width: float64(b.Dx()), Height: float64(b.Dy()),
	}
}

// NRGBA returns the underlying pixels
func (i *Image) NRGBA() *image.NRGBA {
	return i.img
}

// NewImage creates Image owned by the processor from any image.Image
func (p *Processor) NewImage(img image.Image) *Image {
	return &Image{processor: p, img: toNRGBA(img)}
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// NewFilter implements filterkit.Engine
func (p *Processor) NewFilter(name filterkit.Name, params filterkit.Params) (filterkit.Instance, error) {
	if !name.Registered() {
		return nil, fmt.Errorf("giftprocessor: %s: %w", name, filterkit.ErrUnknownFilter)
	}
	fn, ok := p.Filters[name]
	if !ok || p.disableFilters[name] {
		return nil, fmt.Errorf("giftprocessor: %s: %w", name, filterkit.ErrUnsupportedFilter)
	}
	in, err := params.RequireImage(filterkit.KeyImage)
	if err != nil {
		return nil, err
	}
	src, ok := in.(*Image)
	if !ok || src.processor != p {
		return nil, fmt.Errorf("%w: image not owned by gift processor", filterkit.ErrInvalidParams)
	}
	return &instance{processor: p, name: name, fn: fn, src: src, params: params}, nil
}

type instance struct {
	processor *Processor
	name      filterkit.Name
	fn        FilterFunc
	src       *Image
	params    filterkit.Params
}

// OutputImage implements filterkit.Instance
func (i *instance) OutputImage(ctx context.Context) (filterkit.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := i.fn(ctx, i.processor, i.src.img, i.params)
	if err != nil {
		return nil, err
	}
	if i.processor.Debug {
		i.processor.Logger.Debug("filter",
			zap.String("name", string(i.name)),
			zap.Strings("params", i.params.Keys()),
			zap.Duration("took", time.Since(start)))
	}
	if out == nil {
		return nil, nil
	}
	return &Image{processor: i.processor, img: out}, nil
}

func splitNames(names []string) (result []string) {
	for _, name := range names {
		for _, n := range strings.Split(name, ",") {
			if n = strings.TrimSpace(n); n != "" {
				result = append(result, n)
			}
		}
	}
	return
}
